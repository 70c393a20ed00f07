package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/prasenjit/go-hooks/internal/stats"
	"github.com/prasenjit/go-hooks/internal/storage"
	"github.com/prasenjit/go-hooks/internal/tracing"
	"github.com/prasenjit/go-hooks/internal/variables"
)

func setupTestRouter(t *testing.T) *Router {
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMemoryStorage()
	proxy := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Proxied", r.URL.Path)
		w.WriteHeader(http.StatusTeapot)
	})

	return NewRouter(store, variables.NewStore(store, logger), stats.NewCollector(), tracing.NewService(10), proxy, logger)
}

func TestRouter_AdminRoutes(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest("GET", "/_api/health", nil)
	w := httptest.NewRecorder()
	router.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS headers on admin routes")
	}
}

func TestRouter_NoRouteProxies(t *testing.T) {
	router := setupTestRouter(t)

	for _, method := range []string{"GET", "POST", "OPTIONS"} {
		req := httptest.NewRequest(method, "/users/42", nil)
		w := httptest.NewRecorder()
		router.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusTeapot {
			t.Errorf("%s: expected proxied status 418, got %d", method, w.Code)
		}
		if w.Header().Get("X-Proxied") != "/users/42" {
			t.Errorf("%s: expected request to reach the proxy", method)
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Errorf("%s: expected no CORS headers on proxied requests", method)
		}
	}
}

func TestRouter_Preflight(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest("OPTIONS", "/_api/actionsets", nil)
	w := httptest.NewRecorder()
	router.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
}
