package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/prasenjit/go-hooks/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("dropped")
	logger.Warn("action failed", "destination", "token")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("Log line is not JSON: %v", err)
	}
	if entry["msg"] != "action failed" {
		t.Errorf("Expected msg 'action failed', got %v", entry["msg"])
	}
	if entry["destination"] != "token" {
		t.Errorf("Expected destination 'token', got %v", entry["destination"])
	}
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "debug", Format: "text"}, &buf)

	logger.Debug("variable set", "name", "page")

	out := buf.String()
	if !strings.Contains(out, "msg=\"variable set\"") {
		t.Errorf("Expected message in output, got %s", out)
	}
	if !strings.Contains(out, "name=page") {
		t.Errorf("Expected attribute in output, got %s", out)
	}
}
