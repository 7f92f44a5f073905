package cache

import (
	"context"
	"time"

	"github.com/maypok86/otter"

	"github.com/packline/packline/internal/observability"
	"github.com/packline/packline/internal/ruleengine"
)

// MemoryCache acts as the L1 catalog cache using a high-performance,
// contention-free algorithm (S3-FIFO) provided by the 'otter' library.
// It keeps parsed catalog snapshots keyed by rule type, so the classify hot
// path skips both Redis and JSON decoding.
type MemoryCache struct {
	store otter.Cache[string, []ruleengine.Rule]
}

// NewMemoryCache initializes the in-memory cache with strict limits.
// capacity: max number of snapshots (hard cap to prevent OOM).
// ttl: time-to-live for snapshots (safety net for missed invalidations).
func NewMemoryCache(capacity int, ttl time.Duration) (*MemoryCache, error) {
	builder := otter.MustBuilder[string, []ruleengine.Rule](capacity).
		WithTTL(ttl)

	store, err := builder.Build()
	if err != nil {
		return nil, err
	}

	return &MemoryCache{store: store}, nil
}

// Get retrieves a catalog snapshot from memory.
// Returns the catalog and a boolean indicating if it was found.
func (c *MemoryCache) Get(ruleType ruleengine.RuleType) ([]ruleengine.Rule, bool) {
	rules, found := c.store.Get(string(ruleType))
	if found {
		observability.ClassifyCacheHits.Inc()
	} else {
		observability.ClassifyCacheMisses.Inc()
	}
	return rules, found
}

// Set adds or updates a catalog snapshot in memory.
// The TTL configured in NewMemoryCache is applied automatically.
func (c *MemoryCache) Set(ruleType ruleengine.RuleType, rules []ruleengine.Rule) {
	c.store.Set(string(ruleType), rules)
}

// Del removes a catalog snapshot from memory.
// Used by the PubSub listener when an invalidation event is received.
func (c *MemoryCache) Del(ruleType ruleengine.RuleType) {
	c.store.Delete(string(ruleType))
}

// RunMetricsCollector periodically exports the cache size gauge.
// It blocks until the context is cancelled; run it in its own goroutine.
func (c *MemoryCache) RunMetricsCollector(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			observability.ClassifyCacheItems.Set(float64(c.store.Size()))
		}
	}
}

// Close gracefully shuts down the cache and its background cleanup goroutines.
func (c *MemoryCache) Close() {
	c.store.Close()
}
