package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/formscore/formscore/internal/api/router"
	appconfig "github.com/formscore/formscore/internal/config"
	"github.com/formscore/formscore/internal/forms"
	"github.com/formscore/formscore/internal/formstate"
	"github.com/formscore/formscore/internal/http/handlers"
	"github.com/formscore/formscore/internal/kvstore"
	"github.com/formscore/formscore/internal/observability/metrics"
	"github.com/formscore/formscore/pkg/logging"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting formscore API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"storage_backend", cfg.StorageBackend,
	)

	ctx := context.Background()

	kv, cleanup, err := buildKV(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage backend", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	engineMetrics := metrics.NewEngineMetrics(prometheus.DefaultRegisterer)
	storeMetrics := metrics.NewStoreMetrics(prometheus.DefaultRegisterer)

	store := formstate.NewStore(kv, cfg.StateNamespace, logger, storeMetrics)
	logger.Info("state store ready",
		"namespace", cfg.StateNamespace,
		"autosave_interval", cfg.AutoSaveInterval,
	)

	registry := forms.NewRegistry(logger)
	if cfg.FormConfigDir != "" {
		n, err := registry.LoadDir(cfg.FormConfigDir)
		if err != nil {
			logger.Error("failed to load form configs", "dir", cfg.FormConfigDir, "error", err)
			os.Exit(1)
		}
		logger.Info("form configs loaded", "dir", cfg.FormConfigDir, "count", n)
	}

	r := router.New(&router.Config{
		Logger:             logger,
		FormsHandler:       handlers.NewFormsHandler(registry, logger, engineMetrics),
		StateHandler:       handlers.NewStateHandler(store, logger),
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildKV constructs the key-value backend selected by STORAGE_BACKEND.
// The returned cleanup closes any underlying connections.
func buildKV(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (kvstore.KeyValueStore, func(), error) {
	switch cfg.StorageBackend {
	case "memory":
		logger.Warn("using in-memory storage, state is lost on restart")
		return kvstore.NewMemoryStore(), func() {}, nil

	case "redis":
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return kvstore.NewRedisStore(client, nil), func() { client.Close() }, nil

	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		store := kvstore.NewPostgresStore(pool, "")
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres schema: %w", err)
		}
		return store, func() { pool.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
