package ruleengine

import (
	"fmt"
	"regexp"
	"strings"
)

// hexColorRegex matches the display colors box rules carry (e.g., "#3B82F6").
// Compiled once at package initialization.
var hexColorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateRule checks a candidate rule before it is accepted into a catalog.
//
// It returns a list of human-readable messages suitable for direct display in
// the rule editor; an empty list means the rule is valid. Validation is an
// expected, frequent, user-facing outcome, so failures are a return value and
// never an error or a panic. The candidate is not mutated.
//
// The host must not persist a rule until this returns an empty list: the
// evaluator tolerates malformed conditions (they never match), but a rule that
// silently never fires is exactly what validation exists to prevent.
func ValidateRule(r Rule) []string {
	var problems []string

	if strings.TrimSpace(r.Name) == "" {
		problems = append(problems, "Rule name is required")
	}

	if strings.TrimSpace(r.ResultValue) == "" {
		problems = append(problems, "Result value is required")
	}

	if !r.RuleType.Known() {
		problems = append(problems, fmt.Sprintf("Unknown rule type %q: must be %q or %q",
			string(r.RuleType), string(RuleTypePackaging), string(RuleTypeBox)))
	}

	if r.Color != "" {
		if r.RuleType == RuleTypePackaging {
			problems = append(problems, "Color applies to box rules only")
		} else if !hexColorRegex.MatchString(r.Color) {
			problems = append(problems, fmt.Sprintf("Color %q must be a hex value like #3B82F6", r.Color))
		}
	}

	for i, c := range r.Conditions {
		problems = append(problems, validateCondition(i, c)...)
	}

	return problems
}

// validateCondition checks one condition against the field -> operator table.
// The index is 1-based in messages because they are shown to rule editors, not
// programmers.
func validateCondition(index int, c Condition) []string {
	label := fmt.Sprintf("Condition %d", index+1)
	var problems []string

	if c.Field == "" {
		return append(problems, label+": field is required")
	}

	spec, ok := fieldSpecs[c.Field]
	if !ok {
		return append(problems, fmt.Sprintf("%s: unknown field %q", label, string(c.Field)))
	}

	if c.Operator == "" {
		problems = append(problems, label+": operator is required")
	} else if !operatorAllowed(c.Field, c.Operator) {
		problems = append(problems, fmt.Sprintf("%s: operator %q is not valid for field %q",
			label, string(c.Operator), string(c.Field)))
	}

	if !c.Value.IsSet() {
		problems = append(problems, label+": value is required")
		return problems
	}

	switch spec.kind {
	case kindNumber:
		if _, ok := c.Value.AsNumber(); !ok {
			problems = append(problems, fmt.Sprintf("%s: value %q must be a number for field %q",
				label, c.Value.String(), string(c.Field)))
		}
	case kindString:
		if s, ok := c.Value.AsString(); !ok {
			problems = append(problems, fmt.Sprintf("%s: value must be text for field %q",
				label, string(c.Field)))
		} else if strings.TrimSpace(s) == "" {
			problems = append(problems, label+": value is required")
		}
	}

	return problems
}
