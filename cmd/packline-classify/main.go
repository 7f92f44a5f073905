// Command packline-classify runs the classification API used on the
// warehouse floor: it resolves orders against the rule catalogs and turns
// CSV order exports into classified pick lists.
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
	"github.com/packline/packline/internal/classifyapi"
	"github.com/packline/packline/internal/config"
	"github.com/packline/packline/internal/database"
	"github.com/packline/packline/internal/logger"
	"github.com/packline/packline/internal/observability"
	"github.com/packline/packline/internal/ruleengine"
	"github.com/packline/packline/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("classify plane terminated", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
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

	memCache, err := cache.NewMemoryCache(cfg.Cache.L1Capacity, cfg.Cache.L1TTL)
	if err != nil {
		return fmt.Errorf("failed to build L1 cache: %w", err)
	}
	defer memCache.Close()
	go memCache.RunMetricsCollector(ctx, 15*time.Second)

	repo := store.NewPostgresStore(pool)

	// 3. Observability sidecar
	obsServer := observability.NewServer(log, &cfg.Observability,
		database.NewHealthChecker(pool),
		cache.NewHealthChecker(redisCache),
	)
	obsServer.Start()
	defer func() { _ = obsServer.Shutdown(context.Background()) }()

	// 4. API + invalidation listener
	api := classifyapi.NewAPI(repo, redisCache, memCache, ruleengine.New(log),
		cfg.Server.Classify.MaxImportBytes, log)

	go func() {
		// The listener is an optimization over the L1 TTL, not a
		// requirement: if the subscription dies, snapshots still expire.
		if err := api.RunInvalidationListener(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("invalidation listener stopped", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Classify.Host, cfg.Server.Classify.Port),
		Handler:           api.Router,
		ReadTimeout:       cfg.Server.Classify.ReadTimeout,
		WriteTimeout:      cfg.Server.Classify.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.Classify.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.Classify.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("classify plane listening", slog.String("addr", srv.Addr))
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	// 5. Wait for shutdown signal or fatal server error
	select {
	case err := <-errCh:
		return fmt.Errorf("classify plane server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down classify plane")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
