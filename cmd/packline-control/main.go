// Command packline-control runs the rule management API: the authenticated
// admin surface where warehouse staff create, reorder, and toggle the
// classification rules.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/packline/packline/internal/cache"
	"github.com/packline/packline/internal/config"
	"github.com/packline/packline/internal/controlapi"
	"github.com/packline/packline/internal/database"
	"github.com/packline/packline/internal/logger"
	"github.com/packline/packline/internal/observability"
	"github.com/packline/packline/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("control plane terminated", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// .env is a local development convenience; in real deployments the
	// environment is injected by the orchestrator.
	_ = godotenv.Load()

	// 1. Configuration & Logging
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(&cfg.App)
	slog.SetDefault(log)
	cfg.LogConfig(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Infrastructure
	pool, err := database.NewPostgresPool(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	go database.RunPoolMonitor(ctx, pool, 15*time.Second)

	redisClient, err := cache.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return err
	}
	redisCache := cache.NewRedisCache(redisClient, log)
	defer redisCache.Close()

	repo := store.NewPostgresStore(pool)

	// 3. Observability sidecar (liveness, readiness, metrics)
	obsServer := observability.NewServer(log, &cfg.Observability,
		database.NewHealthChecker(pool),
		cache.NewHealthChecker(redisCache),
	)
	obsServer.Start()
	defer func() { _ = obsServer.Shutdown(context.Background()) }()

	// 4. HTTP API
	skipAuth := cfg.App.Environment == "development" && cfg.Server.Control.APIKeyHash == ""
	if skipAuth {
		log.Warn("API key authentication disabled (development without PACKLINE_SERVER_CONTROL_API_KEY_HASH)")
	}
	api := controlapi.NewAPIWithConfig(repo, redisCache, cfg.Server.Control.APIKeyHash, skipAuth)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Control.Host, cfg.Server.Control.Port),
		Handler:           api.Router,
		ReadTimeout:       cfg.Server.Control.ReadTimeout,
		WriteTimeout:      cfg.Server.Control.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.Control.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.Control.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("control plane listening", slog.String("addr", srv.Addr))
		var serveErr error
		if cfg.Server.Control.TLSEnabled {
			serveErr = srv.ListenAndServeTLS(cfg.Server.Control.TLSCert, cfg.Server.Control.TLSKey)
		} else {
			serveErr = srv.ListenAndServe()
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	// 5. Wait for shutdown signal or fatal server error
	select {
	case err := <-errCh:
		return fmt.Errorf("control plane server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down control plane")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
