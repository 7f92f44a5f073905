// Command packline-syncer propagates rule catalogs from PostgreSQL to Redis
// on a fixed interval, keeping classify plane instances warm without every
// instance hammering the database.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/packline/packline/internal/cache"
	"github.com/packline/packline/internal/config"
	"github.com/packline/packline/internal/database"
	"github.com/packline/packline/internal/logger"
	"github.com/packline/packline/internal/observability"
	"github.com/packline/packline/internal/store"
	"github.com/packline/packline/internal/syncer"
)

func main() {
	if err := run(); err != nil {
		slog.Error("syncer terminated", slog.String("error", err.Error()))
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

	if !cfg.Syncer.Enabled {
		log.Warn("syncer is disabled by configuration, exiting")
		return nil
	}

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

	// 3. Observability sidecar
	obsServer := observability.NewServer(log, &cfg.Observability,
		database.NewHealthChecker(pool),
		cache.NewHealthChecker(redisCache),
	)
	obsServer.Start()
	defer func() { _ = obsServer.Shutdown(context.Background()) }()

	// 4. Run the propagation loop until signalled
	svc := syncer.New(log, syncer.Config{Interval: cfg.Syncer.Interval}, repo, redisCache)

	log.Info("syncer started", slog.Duration("interval", cfg.Syncer.Interval))
	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("syncer loop failed: %w", err)
	}

	log.Info("syncer stopped")
	return nil
}
