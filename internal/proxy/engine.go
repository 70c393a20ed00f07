// Package proxy forwards traffic to the upstream and runs the enabled action
// sets against every captured exchange.
package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/prasenjit/go-hooks/internal/action"
	"github.com/prasenjit/go-hooks/internal/config"
	"github.com/prasenjit/go-hooks/internal/models"
	"github.com/prasenjit/go-hooks/internal/stats"
	"github.com/prasenjit/go-hooks/internal/storage"
	"github.com/prasenjit/go-hooks/internal/tracing"
)

// ActionsHeader carries the number of actions executed for the exchange
const ActionsHeader = "X-Hooks-Actions"

// ErrBodyTooLarge is returned when a body exceeds the configured limit
var ErrBodyTooLarge = errors.New("body exceeds limit")

type requestBodyKey struct{}

// Engine proxies requests to the upstream and processes each exchange
type Engine struct {
	upstream       *url.URL
	store          storage.Storage
	processor      *action.Processor
	statsCollector *stats.Collector
	tracingService *tracing.Service
	maxBodyBytes   int64
	captureBodies  bool
	logger         *slog.Logger
	proxy          *httputil.ReverseProxy
}

// NewEngine creates a new proxy engine. An empty upstream yields an engine
// that answers every request with 502.
func NewEngine(cfg *config.Config, store storage.Storage, processor *action.Processor, statsCollector *stats.Collector, tracingService *tracing.Service, logger *slog.Logger) (*Engine, error) {
	e := &Engine{
		store:          store,
		processor:      processor,
		statsCollector: statsCollector,
		tracingService: tracingService,
		maxBodyBytes:   cfg.Proxy.MaxBodyBytes,
		captureBodies:  cfg.Tracing.CaptureBodies,
		logger:         logger,
	}

	// Without an upstream there is nothing to proxy to
	if cfg.Proxy.Upstream == "" {
		return e, nil
	}

	upstream, err := url.Parse(cfg.Proxy.Upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream %q: %w", cfg.Proxy.Upstream, err)
	}
	e.upstream = upstream

	// Clone the default transport so the timeout stays local
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Proxy.Timeout > 0 {
		transport.ResponseHeaderTimeout = cfg.Proxy.Timeout
	}

	e.proxy = &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(upstream)
			r.SetXForwarded()
			// Let the transport negotiate compression so bodies arrive decoded
			r.Out.Header.Del("Accept-Encoding")
		},
		Transport:      transport,
		ModifyResponse: e.modifyResponse,
		ErrorHandler:   e.handleError,
	}

	return e, nil
}

// Handler returns an http.Handler for the proxy engine
func (e *Engine) Handler() http.Handler {
	return otelhttp.NewHandler(http.HandlerFunc(e.ServeHTTP), "go-hooks-proxy")
}

// ServeHTTP handles incoming requests
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if e.proxy == nil {
		writeError(w, http.StatusBadGateway, "no upstream configured")
		return
	}

	// Read request body
	body, err := readLimited(r.Body, e.maxBodyBytes)
	if err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	// Restore it for the upstream
	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))

	// Keep the request side of the exchange for modifyResponse
	captured := &capturedRequest{
		start:   time.Now(),
		method:  r.Method,
		url:     requestURL(r),
		headers: formatHeaders(r.Header),
		body:    string(body),
	}

	ctx := context.WithValue(r.Context(), requestBodyKey{}, captured)
	e.proxy.ServeHTTP(w, r.WithContext(ctx))
}

// capturedRequest is the request as the client sent it
type capturedRequest struct {
	start   time.Time
	method  string
	url     string
	headers string
	body    string
}

// modifyResponse buffers the upstream response, runs the enabled action sets
// and hands the response on unchanged apart from the actions header.
func (e *Engine) modifyResponse(resp *http.Response) error {
	captured, ok := resp.Request.Context().Value(requestBodyKey{}).(*capturedRequest)
	if !ok {
		return nil
	}

	// Buffer response body
	body, err := readLimited(resp.Body, e.maxBodyBytes)
	if err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			// Pass the response through untouched
			resp.Body = struct {
				io.Reader
				io.Closer
			}{io.MultiReader(bytes.NewReader(body), resp.Body), resp.Body}
			e.logger.Warn("response body too large, skipping actions", "url", captured.url)
			return nil
		}
		return fmt.Errorf("failed to read upstream response: %w", err)
	}
	// Replace the consumed body so the client still gets it
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Set("Content-Length", strconv.Itoa(len(body)))

	// Build the exchange the actions run against
	ex := &models.Exchange{
		Request: &models.Request{
			URL:     captured.url,
			Method:  captured.method,
			Headers: captured.headers,
			Body:    models.StaticBody(captured.body),
		},
		Response: &models.Response{
			URL:     resp.Request.URL.String(),
			Status:  resp.StatusCode,
			Headers: formatHeaders(resp.Header),
			Body:    models.StaticBody(body),
		},
	}

	// Run action sets
	report := e.process(resp.Request.Context(), ex)
	resp.Header.Set(ActionsHeader, strconv.Itoa(report.Executed))

	// Calculate duration and record stats
	duration := time.Since(captured.start)
	e.statsCollector.RecordRun(report.Results, duration, report.err != nil)

	// Record trace
	trace := &models.Trace{
		Timestamp: captured.start,
		Duration:  duration.Nanoseconds(),
		Request: models.TraceRequest{
			Method:  ex.Request.Method,
			URL:     ex.Request.URL,
			Headers: ex.Request.Headers,
		},
		Response: models.TraceResponse{
			Status:  ex.Response.Status,
			URL:     ex.Response.URL,
			Headers: ex.Response.Headers,
		},
		Results: report.Results,
		Signals: report.Signals,
	}
	// Bodies only when configured, they can be large
	if e.captureBodies {
		trace.Request.Body = captured.body
		trace.Response.Body = string(body)
	}
	if report.err != nil {
		trace.Error = report.err.Error()
	}
	e.tracingService.RecordTrace(trace)

	return nil
}

// setReport aggregates the reports of every action set run for one exchange
type setReport struct {
	action.Report
	err error
}

// process runs every enabled action set. A failing set does not stop the
// others; the first error is kept for the trace.
func (e *Engine) process(ctx context.Context, ex *models.Exchange) *setReport {
	out := &setReport{}

	sets, err := e.store.GetEnabledActionSets()
	if err != nil {
		e.logger.Error("failed to load action sets", "error", err)
		out.err = err
		return out
	}

	// Sets run in creation order
	for _, set := range sets {
		report, err := e.processor.Run(ctx, set.Actions, ex)
		if report != nil {
			out.Results = append(out.Results, report.Results...)
			out.Signals = append(out.Signals, report.Signals...)
			out.Executed += report.Executed
		}
		if err != nil {
			e.logger.Warn("action set failed", "set", set.Name, "id", set.ID, "error", err)
			// Keep the first error only
			if out.err == nil {
				out.err = fmt.Errorf("action set %s: %w", set.Name, err)
			}
		}
	}

	return out
}

// handleError answers 502 when the upstream cannot be reached
func (e *Engine) handleError(w http.ResponseWriter, r *http.Request, err error) {
	e.logger.Error("upstream request failed", "method", r.Method, "url", r.URL.String(), "error", err)
	writeError(w, http.StatusBadGateway, "upstream request failed")
}

// readLimited reads all of r when limit is not positive, and at most limit
// bytes otherwise. Exceeding the limit returns the bytes read so far along
// with ErrBodyTooLarge.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if r == nil || r == http.NoBody {
		return nil, nil
	}
	if limit <= 0 {
		return io.ReadAll(r)
	}

	// One extra byte tells an exact fit from an overflow
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return body, ErrBodyTooLarge
	}
	return body, nil
}

// requestURL rebuilds the absolute URL the client asked for
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// formatHeaders renders headers as "Name: value" lines in name order, one
// line per value.
func formatHeaders(h http.Header) string {
	// Sort names for a stable rendering
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		for _, v := range h[name] {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(v)
		}
	}
	return b.String()
}

// writeError writes a JSON error body
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, "{\"error\": %q}\n", msg)
}
