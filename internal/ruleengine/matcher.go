package ruleengine

// Matches reports whether the rule fires for the given order.
//
// A rule fires only when it is enabled AND every condition evaluates to true.
// An empty condition list matches vacuously: a rule with zero conditions
// always fires when enabled. This is the deliberate "catch-all" capability
// used to supply a default classification, not an edge case to be papered over.
//
// Evaluation short-circuits on the first failing condition. Since condition
// evaluation is pure, this has no observable effect beyond performance.
func (r Rule) Matches(o Order) bool {
	if !r.Enabled {
		return false
	}

	for _, c := range r.Conditions {
		if !evaluateCondition(c, o) {
			return false
		}
	}

	return true
}
