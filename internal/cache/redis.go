// Package cache provides the catalog caching layer for the Packline system.
// It abstracts the Redis L2 cache holding whole-catalog snapshots, handling
// serialization, key namespacing, and invalidation events, plus the in-memory
// L1 cache in front of it.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/packline/packline/internal/observability"
	"github.com/packline/packline/internal/ruleengine"
)

// KeyPrefix is the namespace used for catalog keys in Redis.
// Example: "catalog:packaging"
const KeyPrefix = "catalog"

// InvalidationChannel is the PubSub channel the control plane publishes to
// after a catalog mutation. The payload is the rule type whose catalog changed.
const InvalidationChannel = "packline:catalog_updates"

// Service defines the interface for catalog cache operations.
// This interface allows for dependency injection and mocking in tests.
type Service interface {
	// SetCatalog stores the full snapshot of one catalog.
	SetCatalog(ctx context.Context, ruleType ruleengine.RuleType, rules []ruleengine.Rule) error

	// GetCatalog retrieves one catalog snapshot.
	// found is false when the catalog has never been synced.
	GetCatalog(ctx context.Context, ruleType ruleengine.RuleType) (rules []ruleengine.Rule, found bool, err error)

	// PublishInvalidation signals subscribers that a catalog changed.
	PublishInvalidation(ctx context.Context, ruleType ruleengine.RuleType) error

	// ListenInvalidations blocks, invoking handler for every invalidation
	// event until the context is cancelled.
	ListenInvalidations(ctx context.Context, handler func(ruleengine.RuleType)) error

	// HealthCheck pings the redis server to ensure connectivity.
	HealthCheck(ctx context.Context) error

	// Close terminates the connection.
	Close() error
}

// Compile-time check.
var _ Service = (*RedisCache)(nil)

// RedisCache implements Service using the go-redis library.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisCache wraps an already-connected client (see NewRedisClient).
func NewRedisCache(client *redis.Client, logger *slog.Logger) *RedisCache {
	if client == nil {
		panic("cache: redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, logger: logger}
}

// catalogKey builds the namespaced Redis key for one catalog.
func catalogKey(ruleType ruleengine.RuleType) string {
	return fmt.Sprintf("%s:%s", KeyPrefix, ruleType)
}

// SetCatalog serializes the catalog to JSON and stores it whole.
// Snapshots are stored atomically as one value: a reader never sees a
// half-written catalog.
func (c *RedisCache) SetCatalog(ctx context.Context, ruleType ruleengine.RuleType, rules []ruleengine.Rule) error {
	if rules == nil {
		rules = []ruleengine.Rule{}
	}

	data, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("failed to marshal %s catalog: %w", ruleType, err)
	}

	// No TTL: the syncer refreshes the key on every cycle, and a stale
	// catalog is more useful to a picker than no catalog.
	if err := c.client.Set(ctx, catalogKey(ruleType), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s catalog in cache: %w", ruleType, err)
	}

	return nil
}

// GetCatalog fetches and decodes one catalog snapshot.
func (c *RedisCache) GetCatalog(ctx context.Context, ruleType ruleengine.RuleType) ([]ruleengine.Rule, bool, error) {
	data, err := c.client.Get(ctx, catalogKey(ruleType)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s catalog from cache: %w", ruleType, err)
	}

	var rules []ruleengine.Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		// A corrupt snapshot is treated as a miss so the caller falls back
		// to the source of truth instead of serving garbage.
		c.logger.Error("corrupt catalog snapshot in cache",
			slog.String("rule_type", string(ruleType)),
			slog.String("error", err.Error()),
		)
		return nil, false, nil
	}

	return rules, true, nil
}

// PublishInvalidation notifies subscribers that a catalog changed.
func (c *RedisCache) PublishInvalidation(ctx context.Context, ruleType ruleengine.RuleType) error {
	if err := c.client.Publish(ctx, InvalidationChannel, string(ruleType)).Err(); err != nil {
		return fmt.Errorf("failed to publish invalidation for %s: %w", ruleType, err)
	}
	return nil
}

// ListenInvalidations subscribes to the invalidation channel and dispatches
// events to the handler. It returns when the context is cancelled.
// Unknown payloads are logged and dropped rather than dispatched.
func (c *RedisCache) ListenInvalidations(ctx context.Context, handler func(ruleengine.RuleType)) error {
	sub := c.client.Subscribe(ctx, InvalidationChannel)
	defer sub.Close()

	ch := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			ruleType := ruleengine.RuleType(msg.Payload)
			if !ruleType.Known() {
				c.logger.Warn("ignoring invalidation with unknown rule type",
					slog.String("payload", msg.Payload),
				)
				continue
			}

			observability.ClassifyInvalidations.Inc()
			handler(ruleType)
		}
	}
}

// HealthCheck verifies the connection to the Redis server.
func (c *RedisCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
