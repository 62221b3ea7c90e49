// Package main is the entry point for the registry read-through service.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/blackwell-systems/platform-infrastructure-sub001/config"
	"github.com/blackwell-systems/platform-infrastructure-sub001/internal/logging"
	"github.com/blackwell-systems/platform-infrastructure-sub001/internal/observability"
	"github.com/blackwell-systems/platform-infrastructure-sub001/internal/registry"
	"github.com/blackwell-systems/platform-infrastructure-sub001/internal/registry/snapshot"
	"github.com/blackwell-systems/platform-infrastructure-sub001/internal/server"
)

func main() {
	// Optional .env for local development; real deployments use the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, cfg.Logging.Format, cfg.Logging.Level)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("starting registryd",
		"base_url", cfg.Registry.BaseURL,
		"cache_ttl", cfg.Registry.CacheTTL(),
		"max_retries", cfg.Registry.MaxRetries,
		"timeout", cfg.Registry.Timeout(),
	)

	var hooks registry.Hooks
	if cfg.Metrics.Enabled {
		hooks = observability.NewPrometheusHooks()
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}

	var fallback map[string][]byte
	if cfg.Registry.SnapshotFallback {
		fallback, err = snapshot.Documents()
		if err != nil {
			logger.Error("failed to load embedded snapshot", "error", err)
			os.Exit(1)
		}
		slog.Info("embedded snapshot fallback enabled", "documents", len(fallback))
	}

	client, err := registry.New(registry.Config{
		BaseURL:          cfg.Registry.BaseURL,
		CacheTTL:         cfg.Registry.CacheTTL(),
		MaxRetries:       cfg.Registry.MaxRetries,
		Timeout:          cfg.Registry.Timeout(),
		FallbackSnapshot: fallback,
		Logger:           logger,
		Hooks:            hooks,
		UserAgent:        "registryd",
	})
	if err != nil {
		logger.Error("failed to create registry client", "error", err)
		os.Exit(1)
	}

	srv := server.New(client, &server.Config{
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsEndpoint: cfg.Metrics.Endpoint,
		Logger:          logger,
	})

	go func() {
		addr := ":" + cfg.Server.Port
		slog.Info("listening", "addr", addr)
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
