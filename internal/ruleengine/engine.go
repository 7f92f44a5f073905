package ruleengine

import (
	"log/slog"
	"sort"
	"strings"
)

// Engine resolves a rule catalog against an order.
//
// The engine is stateless and side-effect-free: every call receives its own
// snapshot of the order and the catalog, so concurrent calls are independent
// and require no locking. It holds no cache and no subscription mechanism;
// the host re-runs Resolve after every order change or catalog mutation.
type Engine struct {
	logger *slog.Logger // Dedicated logger instance (DI)
}

// New creates a new Engine.
// If logger is nil, it defaults to slog.Default().
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Resolve finds the first enabled, matching rule of the requested type and
// returns its classification, or nil when no rule matches.
//
// Semantics:
//   - Only rules of the requested ruleType participate.
//   - Rules are tried in ascending priority; equal priorities keep the
//     catalog's original relative order (stable sort). Priority collisions are
//     common when users manually renumber rules, so the tie-break is part of
//     the contract, not an implementation detail.
//   - The first match wins; later rules are not consulted.
//   - nil means "no classification applies". The host renders that distinctly
//     from a failure; there is no implicit fallback here.
//
// Resolve is deterministic: identical (order, catalog, ruleType) inputs always
// yield the identical result. Pickers rely on reproducible assignment across
// repeated views of the same order.
func (e *Engine) Resolve(order Order, catalog []Rule, ruleType RuleType) *Classification {
	// Filter into a scratch slice so the stable sort never mutates the
	// caller's catalog snapshot.
	candidates := make([]Rule, 0, len(catalog))
	for _, r := range catalog {
		if r.RuleType == ruleType {
			candidates = append(candidates, r)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority < candidates[j].Priority
	})

	for _, r := range candidates {
		// Fail Open: a structurally incomplete rule is skipped, never
		// allowed to abort the whole resolution pass. Catalog integrity
		// is the persistence layer's job; this is the safety net.
		if strings.TrimSpace(r.ResultValue) == "" {
			e.logger.Warn("skipping rule without result value",
				"rule_id", r.ID,
				"rule_type", string(r.RuleType),
			)
			continue
		}

		if r.Matches(order) {
			return &Classification{
				ResultValue: r.ResultValue,
				Color:       r.Color,
			}
		}
	}

	return nil
}
