// Package syncer implements the background worker that propagates rule
// catalogs from the source of truth (PostgreSQL) to the classify plane's
// Redis cache.
package syncer

import (
	"context"
	"log/slog"
	"time"

	"github.com/packline/packline/internal/cache"
	"github.com/packline/packline/internal/observability"
	"github.com/packline/packline/internal/ruleengine"
	"github.com/packline/packline/internal/store"
)

// Config holds the configuration for the Syncer service.
type Config struct {
	// Interval is the duration between sync cycles (polling).
	Interval time.Duration
}

// Service orchestrates the catalog synchronization process.
type Service struct {
	logger *slog.Logger
	config Config
	repo   store.RuleRepository
	cache  cache.Service
}

// New creates a new Syncer service.
func New(logger *slog.Logger, cfg Config, repo store.RuleRepository, cacheSvc cache.Service) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	if repo == nil {
		panic("syncer: rule repository cannot be nil")
	}
	if cacheSvc == nil {
		panic("syncer: cache service cannot be nil")
	}

	if cfg.Interval < time.Second {
		cfg.Interval = 10 * time.Second // Safe default
	}

	return &Service{
		logger: logger,
		config: cfg,
		repo:   repo,
		cache:  cacheSvc,
	}
}

// Run starts the syncer loop. It blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("starting syncer service", slog.String("interval", s.config.Interval.String()))

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Run once immediately on startup so a fresh classify plane is not
	// stuck waiting one full interval for its first catalog.
	if err := s.sync(ctx); err != nil {
		s.logger.Error("initial sync failed", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("syncer service stopping...")
			return nil
		case <-ticker.C:
			if err := s.sync(ctx); err != nil {
				// We log the error but don't stop the worker.
				// Retry on next tick.
				s.logger.Error("sync cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}

// sync performs a single synchronization cycle: it snapshots both catalogs
// from Postgres and overwrites the Redis keys whole, so readers always see a
// complete catalog in stable catalog order.
func (s *Service) sync(ctx context.Context) error {
	start := time.Now()

	rules, err := s.repo.ListAllRules(ctx)
	if err != nil {
		return err
	}

	// Split into per-type catalogs, preserving catalog order.
	catalogs := map[ruleengine.RuleType][]ruleengine.Rule{
		ruleengine.RuleTypePackaging: {},
		ruleengine.RuleTypeBox:       {},
	}
	for _, r := range rules {
		if !r.RuleType.Known() {
			s.logger.Warn("skipping rule with unknown type",
				slog.String("rule_id", r.ID),
				slog.String("rule_type", string(r.RuleType)),
			)
			continue
		}
		catalogs[r.RuleType] = append(catalogs[r.RuleType], r)
	}

	synced := 0
	failed := 0

	for ruleType, catalog := range catalogs {
		if err := s.cache.SetCatalog(ctx, ruleType, catalog); err != nil {
			s.logger.Warn("failed to sync catalog",
				slog.String("rule_type", string(ruleType)),
				slog.String("error", err.Error()),
			)
			observability.SyncerCatalogsTotal.WithLabelValues("fail").Inc()
			failed++
			continue // Try the other catalog, don't abort the cycle
		}
		observability.SyncerCatalogsTotal.WithLabelValues("success").Inc()
		synced++
	}

	observability.SyncerCycleDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("sync cycle completed",
		slog.Int("catalogs_synced", synced),
		slog.Int("catalogs_failed", failed),
		slog.Int("rules", len(rules)),
		slog.String("duration", time.Since(start).String()),
	)
	return nil
}
