package storage

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/prasenjit/go-hooks/internal/models"
)

// newTestRedis connects to GOHOOKS_TEST_REDIS_ADDR under a fresh key prefix
func newTestRedis(t *testing.T) *RedisStorage {
	t.Helper()

	addr := os.Getenv("GOHOOKS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GOHOOKS_TEST_REDIS_ADDR not set")
	}

	prefix := "gohooks-test:" + uuid.NewString() + ":"
	s, err := NewRedisStorage(RedisOptions{Addr: addr, KeyPrefix: prefix})
	if err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := s.ctx()
		defer cancel()
		s.client.Del(ctx, s.key(actionSetsKey), s.key(variablesKey))
		s.Close()
	})
	return s
}

func TestNewRedisStorage_Unreachable(t *testing.T) {
	_, err := NewRedisStorage(RedisOptions{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	if err == nil {
		t.Fatal("Expected error for unreachable redis")
	}
}

func TestRedisStorage_ActionSets(t *testing.T) {
	s := newTestRedis(t)
	now := time.Now().Truncate(time.Millisecond)

	first := newActionSet("set-1", "Auth", true, now)
	second := newActionSet("set-2", "Paging", false, now.Add(time.Second))

	if err := s.CreateActionSet(second); err != nil {
		t.Fatalf("CreateActionSet failed: %v", err)
	}
	if err := s.CreateActionSet(first); err != nil {
		t.Fatalf("CreateActionSet failed: %v", err)
	}
	if err := s.CreateActionSet(first); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists, got %v", err)
	}

	all, err := s.GetAllActionSets()
	if err != nil {
		t.Fatalf("GetAllActionSets failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != "set-1" {
		t.Errorf("Expected set-1 first, got %+v", all)
	}

	enabled, _ := s.GetEnabledActionSets()
	if len(enabled) != 1 || enabled[0].ID != "set-1" {
		t.Errorf("Expected only set-1 enabled, got %+v", enabled)
	}

	second.Enabled = true
	if err := s.UpdateActionSet(second); err != nil {
		t.Fatalf("UpdateActionSet failed: %v", err)
	}
	got, err := s.GetActionSet("set-2")
	if err != nil || !got.Enabled {
		t.Errorf("Expected set-2 enabled, got %+v (%v)", got, err)
	}

	if err := s.UpdateActionSet(newActionSet("missing", "x", true, now)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := s.DeleteActionSet("set-1"); err != nil {
		t.Fatalf("DeleteActionSet failed: %v", err)
	}
	if _, err := s.GetActionSet("set-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteActionSet("set-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRedisStorage_Variables(t *testing.T) {
	s := newTestRedis(t)

	for _, name := range []string{"token", "page"} {
		if err := s.SetVariable(&models.Variable{Name: name, Value: name + "-value"}); err != nil {
			t.Fatalf("SetVariable failed: %v", err)
		}
	}

	v, err := s.GetVariable("token")
	if err != nil {
		t.Fatalf("GetVariable failed: %v", err)
	}
	if v.Value != "token-value" || !v.Persistent {
		t.Errorf("Unexpected variable %+v", v)
	}

	all, _ := s.GetAllVariables()
	if len(all) != 2 || all[0].Name != "page" {
		t.Errorf("Expected variables sorted by name, got %+v", all)
	}

	if err := s.DeleteVariable("page"); err != nil {
		t.Fatalf("DeleteVariable failed: %v", err)
	}
	if _, err := s.GetVariable("page"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
