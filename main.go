package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/course-tracker/internal/catalog"
	"github.com/msomdec/course-tracker/internal/config"
	"github.com/msomdec/course-tracker/internal/domain"
	"github.com/msomdec/course-tracker/internal/handler"
	"github.com/msomdec/course-tracker/internal/repository/postgres"
	"github.com/msomdec/course-tracker/internal/repository/redis"
	"github.com/msomdec/course-tracker/internal/repository/sqlite"
	"github.com/msomdec/course-tracker/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: cfg.LogLevel}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	db, kv, err := openStore(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to open storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("storage ready", "driver", cfg.StorageDriver)

	courses, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		slog.Error("failed to load course catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("course catalog loaded", "courses", len(courses.All()))

	devices := service.NewDeviceService(cfg.JWTSecret)
	registry := service.NewIdentityRegistry(kv, service.DefaultIdleTimeout, service.WithLogger(logger))
	defer registry.Close()
	authLimiter := service.NewPerMinute(cfg.AuthRatePerMinute, cfg.AuthRateBurst)
	defer authLimiter.Stop()

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, devices, registry, courses, authLimiter, cfg.CookieSecure)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openStore connects the configured storage driver.
func openStore(ctx context.Context, cfg *config.Config) (domain.Database, domain.KeyValueStore, error) {
	switch cfg.StorageDriver {
	case config.DriverRedis:
		db, err := redis.New(ctx, redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword})
		if err != nil {
			return nil, nil, err
		}
		return db, db.KV(), nil
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return db, db.KV(), nil
	default:
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		return db, db.KV(), nil
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}
