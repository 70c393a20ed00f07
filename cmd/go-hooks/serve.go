package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prasenjit/go-hooks/internal/action"
	"github.com/prasenjit/go-hooks/internal/api"
	"github.com/prasenjit/go-hooks/internal/logging"
	"github.com/prasenjit/go-hooks/internal/proxy"
	"github.com/prasenjit/go-hooks/internal/stats"
	"github.com/prasenjit/go-hooks/internal/telemetry"
	"github.com/prasenjit/go-hooks/internal/template"
	"github.com/prasenjit/go-hooks/internal/tracing"
	"github.com/prasenjit/go-hooks/internal/variables"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the go-hooks proxy",
	Long: `Starts the go-hooks proxy.

The server will:
  - Forward every request outside /_api/ to the configured upstream
  - Run the enabled action sets against each captured exchange
  - Expose the Admin API at /_api/

Configuration is loaded from config.yaml in the current directory,
or specify a custom config file with the --config flag.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "Override server port")
	serveCmd.Flags().StringP("upstream", "u", "", "Upstream base URL")

	// Bind flags to viper
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("proxy.upstream", serveCmd.Flags().Lookup("upstream"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(cfg.Telemetry.ServiceName, os.Stderr, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				logger.Error("telemetry shutdown failed", "error", err)
			}
		}()
	}

	logger.Info("using storage", "type", cfg.Storage.Type, "path", cfg.Storage.Path)
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	vars := variables.NewStore(store, logger)
	processor := action.NewProcessor(vars,
		action.WithVariableEvaluator(template.NewEngine(vars)),
		action.WithLogger(logger),
	)

	statsCollector := stats.NewCollector()
	tracingService := tracing.NewService(cfg.Tracing.MaxTraces)

	proxyEngine, err := proxy.NewEngine(cfg, store, processor, statsCollector, tracingService, logger)
	if err != nil {
		return err
	}
	if cfg.Proxy.Upstream == "" {
		logger.Warn("no upstream configured, proxied requests will fail with 502")
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(store, vars, statsCollector, tracingService, proxyEngine.Handler(), logger)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting go-hooks",
			"addr", server.Addr,
			"upstream", cfg.Proxy.Upstream,
			"admin", fmt.Sprintf("http://%s/_api/", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
	return nil
}
