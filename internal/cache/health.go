package cache

import (
	"context"
	"fmt"
)

// HealthChecker implements the observability.Checker interface for the
// Redis catalog cache.
type HealthChecker struct {
	cache Service
}

// NewHealthChecker creates a new health checker for the given cache service.
func NewHealthChecker(cache Service) *HealthChecker {
	return &HealthChecker{cache: cache}
}

// Name returns the component name.
func (h *HealthChecker) Name() string {
	return "redis"
}

// Check verifies cache connectivity.
func (h *HealthChecker) Check(ctx context.Context) error {
	if h.cache == nil {
		return fmt.Errorf("cache service is nil")
	}
	return h.cache.HealthCheck(ctx)
}
