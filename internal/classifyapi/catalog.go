package classifyapi

import (
	"context"
	"log/slog"

	"github.com/packline/packline/internal/ruleengine"
)

// loadCatalog returns the catalog for one rule type using the read-through
// hierarchy: L1 (in-process) -> L2 (Redis) -> PostgreSQL -> built-in defaults.
//
// Every successful read from a lower tier populates L1, so steady-state
// classification never leaves the process. Failures are logged and demoted,
// never surfaced: an order on the packing bench must always get an answer.
//
// An empty catalog resolves to the built-in defaults. Operators who delete
// every rule have not expressed "classify nothing", they have expressed
// "I broke it" — and the factory defaults are the safe floor.
func (a *API) loadCatalog(ctx context.Context, ruleType ruleengine.RuleType) []ruleengine.Rule {
	// 1. L1: in-process snapshot.
	if rules, ok := a.l1.Get(ruleType); ok {
		return a.orDefaults(rules, ruleType)
	}

	// 2. L2: shared Redis snapshot, maintained by the syncer.
	rules, found, err := a.l2.GetCatalog(ctx, ruleType)
	if err != nil {
		a.logger.Warn("redis catalog read failed, falling through to database",
			slog.String("rule_type", string(ruleType)),
			slog.String("error", err.Error()))
	}
	if found {
		a.l1.Set(ruleType, rules)
		return a.orDefaults(rules, ruleType)
	}

	// 3. Database: authoritative source.
	rules, dbErr := a.rules.ListCatalog(ctx, ruleType)
	if dbErr == nil {
		a.l1.Set(ruleType, rules)
		return a.orDefaults(rules, ruleType)
	}
	a.logger.Error("database catalog read failed, serving built-in defaults",
		slog.String("rule_type", string(ruleType)),
		slog.String("error", dbErr.Error()))

	// 4. Built-in defaults. Deliberately NOT cached in L1: the next request
	// should retry the real tiers instead of pinning the fallback.
	return ruleengine.DefaultCatalog(ruleType)
}

func (a *API) orDefaults(rules []ruleengine.Rule, ruleType ruleengine.RuleType) []ruleengine.Rule {
	if len(rules) == 0 {
		return ruleengine.DefaultCatalog(ruleType)
	}
	return rules
}
