// Package api exposes the admin API under /_api and hands every other
// request to the proxy.
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prasenjit/go-hooks/internal/stats"
	"github.com/prasenjit/go-hooks/internal/storage"
	"github.com/prasenjit/go-hooks/internal/tracing"
	"github.com/prasenjit/go-hooks/internal/variables"
)

// Router handles HTTP routing
type Router struct {
	engine         *gin.Engine
	tracingService *tracing.Service
	proxy          http.Handler
	handler        *Handler
	logger         *slog.Logger
}

// NewRouter creates a new router. Requests outside /_api go to proxy.
func NewRouter(store storage.Storage, vars *variables.Store, statsCollector *stats.Collector, tracingService *tracing.Service, proxy http.Handler, logger *slog.Logger) *Router {
	r := &Router{
		engine:         gin.New(),
		tracingService: tracingService,
		proxy:          proxy,
		logger:         logger,
	}

	r.handler = NewHandler(store, vars, statsCollector, tracingService, logger)

	// Setup middleware
	r.engine.Use(gin.Recovery())
	r.engine.Use(corsMiddleware())
	r.engine.Use(requestLogger(logger))

	// Setup routes
	r.setupRoutes()

	return r
}

// setupRoutes configures all routes
func (r *Router) setupRoutes() {
	api := r.engine.Group("/_api")
	{
		// Action sets
		api.GET("/actionsets", r.handler.ListActionSets)
		api.POST("/actionsets", r.handler.CreateActionSet)
		api.GET("/actionsets/:id", r.handler.GetActionSet)
		api.PUT("/actionsets/:id", r.handler.UpdateActionSet)
		api.DELETE("/actionsets/:id", r.handler.DeleteActionSet)
		api.PUT("/actionsets/:id/enable", r.handler.EnableActionSet)
		api.PUT("/actionsets/:id/disable", r.handler.DisableActionSet)

		// Variables
		api.GET("/variables", r.handler.ListVariables)
		api.GET("/variables/:name", r.handler.GetVariable)
		api.PUT("/variables/:name", r.handler.SetVariable)
		api.DELETE("/variables/:name", r.handler.DeleteVariable)

		// Dry run
		api.POST("/run", r.handler.RunActions)

		// Statistics
		api.GET("/stats", r.handler.GetGlobalStats)
		api.GET("/stats/actions/:destination", r.handler.GetActionStats)
		api.POST("/stats/reset", r.handler.ResetStats)

		// Tracing
		api.GET("/traces", r.handler.ListTraces)
		api.GET("/traces/:id", r.handler.GetTrace)
		api.DELETE("/traces", r.handler.ClearTraces)

		// Health
		api.GET("/health", r.handler.HealthCheck)
	}

	// WebSocket for live tracing
	wsHandler := tracing.NewWebSocketHandler(r.tracingService, r.logger)
	r.engine.GET("/_api/traces/stream", gin.WrapH(wsHandler))

	r.engine.NoRoute(func(c *gin.Context) {
		r.proxy.ServeHTTP(c.Writer, c.Request)
	})
}

// Handler returns the http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// corsMiddleware adds CORS headers to admin API responses. Proxied requests
// pass through untouched.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.Request.URL.Path, "/_api") {
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger logs every request through slog
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
