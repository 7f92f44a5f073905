package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packline/packline/internal/cache"
	"github.com/packline/packline/internal/ruleengine"
)

func TestMemoryCache(t *testing.T) {
	c, err := cache.NewMemoryCache(16, 1*time.Minute)
	require.NoError(t, err)
	defer c.Close()

	catalog := []ruleengine.Rule{
		{ID: "r1", RuleType: ruleengine.RuleTypePackaging, ResultValue: "Box", Enabled: true},
	}

	t.Run("Should miss before the first set", func(t *testing.T) {
		_, found := c.Get(ruleengine.RuleTypePackaging)
		assert.False(t, found)
	})

	t.Run("Should return the stored snapshot", func(t *testing.T) {
		c.Set(ruleengine.RuleTypePackaging, catalog)

		got, found := c.Get(ruleengine.RuleTypePackaging)
		require.True(t, found)
		assert.Equal(t, catalog, got)
	})

	t.Run("Should keep catalogs independent per rule type", func(t *testing.T) {
		_, found := c.Get(ruleengine.RuleTypeBox)
		assert.False(t, found)
	})

	t.Run("Should miss after invalidation", func(t *testing.T) {
		c.Del(ruleengine.RuleTypePackaging)

		_, found := c.Get(ruleengine.RuleTypePackaging)
		assert.False(t, found)
	})
}
