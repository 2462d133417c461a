package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/charts/internal/adapters/http/api"
	"github.com/okian/charts/internal/adapters/repository/driver"
	app "github.com/okian/charts/internal/app"
	"github.com/okian/charts/internal/config"
	"github.com/okian/charts/internal/domain/competitor"
	"github.com/okian/charts/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Optional .env for local runs; real env vars win.
	_ = godotenv.Load(".env")

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(ctx, cfg, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newServer(svc, cfg, loggerInstance).Router(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("storage_driver", cfg.StorageDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newService opens the configured store and starts the chart service.
func newService(ctx context.Context, cfg *config.Config, l logger.Logger) (*app.Service, error) {
	opts := []app.Option{
		app.WithLogger(l.Named("chart_service")),
		app.WithParams(cfg.ChartParams()),
		app.WithStartYear(cfg.StartYear),
		app.WithMaxTopLimit(cfg.MaxTopLimit),
	}
	if cfg.CatalogPath != "" {
		catalog, err := competitor.LoadFile(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, app.WithCatalog(catalog))
	}

	store, err := driver.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc := app.New(append(opts, app.WithStore(store))...)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return svc, nil
}

// newServer builds the HTTP API from configuration.
func newServer(svc *app.Service, cfg *config.Config, l logger.Logger) *api.Server {
	opts := []api.Option{
		api.WithCORSOrigins(cfg.CORSAllowOrigins),
		api.WithLogger(l.Named("http")),
	}
	if cfg.RateLimitEnabled {
		opts = append(opts, api.WithRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow()))
	}
	return api.NewServer(svc, opts...)
}
