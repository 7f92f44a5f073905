//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packline/packline/internal/ruleengine"
	"github.com/packline/packline/internal/store"
	"github.com/packline/packline/internal/testsupport"
)

// TestPostgresStore_Integration validates the repository against a real
// PostgreSQL instance, including the seq-based catalog ordering the engine's
// tie-break depends on.
func TestPostgresStore_Integration(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := testsupport.StartPostgresContainer(ctx, "../../migrations")
	require.NoError(t, err, "failed to start postgres container")
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}()

	repo := store.NewPostgresStore(pgContainer.DB)

	newRule := func(id string, ruleType ruleengine.RuleType) *ruleengine.Rule {
		return &ruleengine.Rule{
			ID:       id,
			Name:     "Rule " + id,
			RuleType: ruleType,
			Conditions: []ruleengine.Condition{{
				Field:    ruleengine.FieldSku,
				Operator: ruleengine.OpContains,
				Value:    ruleengine.StringValue("CK"),
			}},
			ResultValue: "Box",
			Priority:    ruleengine.DefaultPriority,
			Enabled:     true,
		}
	}

	t.Run("CreateRule assigns timestamps and round-trips conditions", func(t *testing.T) {
		r := newRule("it-create", ruleengine.RuleTypePackaging)
		r.Conditions = append(r.Conditions, ruleengine.Condition{
			Field:    ruleengine.FieldWeight,
			Operator: ruleengine.OpLessEqual,
			Value:    ruleengine.NumberValue(750),
		})

		require.NoError(t, repo.CreateRule(ctx, r))
		assert.False(t, r.CreatedAt.IsZero())
		assert.False(t, r.UpdatedAt.IsZero())

		got, err := repo.GetRule(ctx, "it-create")
		require.NoError(t, err)
		assert.Equal(t, r.Conditions, got.Conditions)
		assert.Equal(t, "Box", got.ResultValue)
	})

	t.Run("CreateRule generates a UUID when id is empty", func(t *testing.T) {
		r := newRule("", ruleengine.RuleTypePackaging)
		require.NoError(t, repo.CreateRule(ctx, r))
		assert.NotEmpty(t, r.ID)
	})

	t.Run("CreateRule reports duplicates as ErrDuplicateRule", func(t *testing.T) {
		r := newRule("it-dup", ruleengine.RuleTypePackaging)
		require.NoError(t, repo.CreateRule(ctx, r))

		err := repo.CreateRule(ctx, newRule("it-dup", ruleengine.RuleTypePackaging))
		assert.ErrorIs(t, err, store.ErrDuplicateRule)
	})

	t.Run("ListCatalog preserves insertion order and filters by type", func(t *testing.T) {
		require.NoError(t, repo.CreateRule(ctx, newRule("it-order-1", ruleengine.RuleTypeBox)))
		require.NoError(t, repo.CreateRule(ctx, newRule("it-order-2", ruleengine.RuleTypeBox)))
		require.NoError(t, repo.CreateRule(ctx, newRule("it-order-3", ruleengine.RuleTypeBox)))

		catalog, err := repo.ListCatalog(ctx, ruleengine.RuleTypeBox)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(catalog), 3)

		var ids []string
		for _, r := range catalog {
			assert.Equal(t, ruleengine.RuleTypeBox, r.RuleType)
			ids = append(ids, r.ID)
		}
		assert.Subset(t, ids, []string{"it-order-1", "it-order-2", "it-order-3"})

		// Insertion order must survive a round trip.
		idx := func(id string) int {
			for i, v := range ids {
				if v == id {
					return i
				}
			}
			return -1
		}
		assert.Less(t, idx("it-order-1"), idx("it-order-2"))
		assert.Less(t, idx("it-order-2"), idx("it-order-3"))
	})

	t.Run("UpdateRule replaces mutable fields and bumps updated_at", func(t *testing.T) {
		r := newRule("it-update", ruleengine.RuleTypePackaging)
		require.NoError(t, repo.CreateRule(ctx, r))
		created := r.UpdatedAt

		r.Name = "Renamed"
		r.ResultValue = "Large Letter"
		r.Conditions = nil
		require.NoError(t, repo.UpdateRule(ctx, r))

		got, err := repo.GetRule(ctx, "it-update")
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
		assert.Equal(t, "Large Letter", got.ResultValue)
		assert.Empty(t, got.Conditions)
		assert.True(t, got.UpdatedAt.After(created) || got.UpdatedAt.Equal(created))
	})

	t.Run("ToggleEnabled flips the flag atomically", func(t *testing.T) {
		r := newRule("it-toggle", ruleengine.RuleTypePackaging)
		require.NoError(t, repo.CreateRule(ctx, r))

		toggled, err := repo.ToggleEnabled(ctx, "it-toggle")
		require.NoError(t, err)
		assert.False(t, toggled.Enabled)

		toggled, err = repo.ToggleEnabled(ctx, "it-toggle")
		require.NoError(t, err)
		assert.True(t, toggled.Enabled)
	})

	t.Run("MoveRule clamps priority at zero", func(t *testing.T) {
		r := newRule("it-move", ruleengine.RuleTypePackaging)
		r.Priority = 1
		require.NoError(t, repo.CreateRule(ctx, r))

		moved, err := repo.MoveRule(ctx, "it-move", -1)
		require.NoError(t, err)
		assert.Equal(t, 0, moved.Priority)

		moved, err = repo.MoveRule(ctx, "it-move", -1)
		require.NoError(t, err)
		assert.Equal(t, 0, moved.Priority, "priority must not go negative")

		moved, err = repo.MoveRule(ctx, "it-move", 1)
		require.NoError(t, err)
		assert.Equal(t, 1, moved.Priority)
	})

	t.Run("DeleteRule removes the rule and reports missing ids", func(t *testing.T) {
		r := newRule("it-delete", ruleengine.RuleTypePackaging)
		require.NoError(t, repo.CreateRule(ctx, r))

		require.NoError(t, repo.DeleteRule(ctx, "it-delete"))

		_, err := repo.GetRule(ctx, "it-delete")
		assert.ErrorIs(t, err, store.ErrRuleNotFound)
		assert.ErrorIs(t, repo.DeleteRule(ctx, "it-delete"), store.ErrRuleNotFound)
	})

	t.Run("ResetCatalog reseeds one catalog and leaves the other intact", func(t *testing.T) {
		require.NoError(t, repo.CreateRule(ctx, newRule("it-reset-packaging", ruleengine.RuleTypePackaging)))
		boxBefore, err := repo.ListCatalog(ctx, ruleengine.RuleTypeBox)
		require.NoError(t, err)

		require.NoError(t, repo.ResetCatalog(ctx, ruleengine.RuleTypePackaging, ruleengine.DefaultPackagingRules()))

		packaging, err := repo.ListCatalog(ctx, ruleengine.RuleTypePackaging)
		require.NoError(t, err)
		require.Len(t, packaging, len(ruleengine.DefaultPackagingRules()))
		for i, want := range ruleengine.DefaultPackagingRules() {
			assert.Equal(t, want.ID, packaging[i].ID)
			assert.Equal(t, want.Priority, packaging[i].Priority)
		}

		boxAfter, err := repo.ListCatalog(ctx, ruleengine.RuleTypeBox)
		require.NoError(t, err)
		assert.Equal(t, len(boxBefore), len(boxAfter))
	})

	t.Run("GetRule returns ErrRuleNotFound for unknown ids", func(t *testing.T) {
		_, err := repo.GetRule(ctx, "it-ghost")
		assert.ErrorIs(t, err, store.ErrRuleNotFound)
	})
}
