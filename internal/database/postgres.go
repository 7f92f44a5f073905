// Package database provides the PostgreSQL connection factory and pool
// observability.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/packline/packline/internal/config"
	"github.com/packline/packline/internal/observability"
)

// NewPostgresPool initializes a PostgreSQL connection pool from configuration.
// It returns the pool directly, allowing the caller to manage the lifecycle via Dependency Injection.
func NewPostgresPool(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	// 1. Parse the configuration string
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// 2. Configure settings (Pool Tuning)
	// MaxConns prevents the app from starving the DB (connection exhaustion).
	// MinConns keeps some connections warm to reduce latency for new requests.
	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	// 3. Create the pool with a short timeout for fail-fast behavior
	initCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(initCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// 4. Verify connectivity. Containers routinely race their database on
	// boot, so the first pings retry with a fixed backoff instead of failing
	// the whole process immediately.
	if err := pingWithRetry(ctx, pool, cfg); err != nil {
		pool.Close()
		return nil, err
	}

	slog.Info("connected to PostgreSQL",
		slog.Int("max_conns", cfg.MaxConns),
		slog.Int("min_conns", cfg.MinConns))
	return pool, nil
}

func pingWithRetry(ctx context.Context, pool *pgxpool.Pool, cfg *config.DatabaseConfig) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.PingMaxRetries; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		lastErr = pool.Ping(pingCtx)
		cancel()

		if lastErr == nil {
			return nil
		}

		if attempt < cfg.PingMaxRetries {
			slog.Warn("database ping failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("max_retries", cfg.PingMaxRetries),
				slog.String("error", lastErr.Error()))

			select {
			case <-time.After(cfg.PingBackoff):
			case <-ctx.Done():
				return fmt.Errorf("failed to ping database: %w", ctx.Err())
			}
		}
	}

	return fmt.Errorf("failed to ping database after %d retries: %w", cfg.PingMaxRetries, lastErr)
}

// RunPoolMonitor periodically samples pgx pool statistics into Prometheus
// metrics. It blocks until the context is cancelled, so callers run it as a
// sidecar goroutine next to the pool.
func RunPoolMonitor(ctx context.Context, pool *pgxpool.Pool, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stat := pool.Stat()

			observability.DBPoolConnections.WithLabelValues("total").Set(float64(stat.TotalConns()))
			observability.DBPoolConnections.WithLabelValues("idle").Set(float64(stat.IdleConns()))
			observability.DBPoolConnections.WithLabelValues("in_use").Set(float64(stat.AcquiredConns()))
			observability.DBPoolConnections.WithLabelValues("max").Set(float64(stat.MaxConns()))

			observability.DBPoolAcquireCount.Set(float64(stat.AcquireCount()))
			observability.DBPoolAcquireDuration.Set(stat.AcquireDuration().Seconds())
			observability.DBPoolWaitCount.Set(float64(stat.EmptyAcquireCount()))
		}
	}
}
