package ruleengine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// validRule returns a well-formed candidate the cases below can break one
// field at a time.
func validRule() Rule {
	return Rule{
		ID:          "r1",
		Name:        "Large letter",
		RuleType:    RuleTypePackaging,
		ResultValue: "Large Letter",
		Priority:    10,
		Enabled:     true,
		Conditions: []Condition{
			{ID: "c1", Field: FieldSku, Operator: OpContains, Value: StringValue("CK003")},
		},
	}
}

func TestValidateRule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Rule)
		wantMsg string // substring expected in one of the messages; empty = valid
	}{
		{
			name:   "Should accept a well-formed rule",
			mutate: func(r *Rule) {},
		},
		{
			name:   "Should accept a catch-all rule with zero conditions",
			mutate: func(r *Rule) { r.Conditions = nil },
		},
		{
			name:    "Should reject a blank name",
			mutate:  func(r *Rule) { r.Name = "   " },
			wantMsg: "Rule name is required",
		},
		{
			name:    "Should reject a blank result value",
			mutate:  func(r *Rule) { r.ResultValue = "" },
			wantMsg: "Result value is required",
		},
		{
			name:    "Should reject an unknown rule type",
			mutate:  func(r *Rule) { r.RuleType = "pallet" },
			wantMsg: "Unknown rule type",
		},
		{
			name:    "Should reject a condition with no field",
			mutate:  func(r *Rule) { r.Conditions[0].Field = "" },
			wantMsg: "Condition 1: field is required",
		},
		{
			name:    "Should reject a condition on an unknown field",
			mutate:  func(r *Rule) { r.Conditions[0].Field = "barcode" },
			wantMsg: `unknown field "barcode"`,
		},
		{
			name: "Should reject a string operator on a numeric field",
			mutate: func(r *Rule) {
				r.Conditions[0] = Condition{Field: FieldWeight, Operator: OpContains, Value: NumberValue(500)}
			},
			wantMsg: `operator "contains" is not valid for field "weight"`,
		},
		{
			name: "Should reject a numeric operator on a string field",
			mutate: func(r *Rule) {
				r.Conditions[0] = Condition{Field: FieldSku, Operator: OpLessThan, Value: StringValue("A")}
			},
			wantMsg: `operator "less_than" is not valid for field "sku"`,
		},
		{
			name:    "Should reject a condition with no value",
			mutate:  func(r *Rule) { r.Conditions[0].Value = Value{} },
			wantMsg: "Condition 1: value is required",
		},
		{
			name:    "Should reject a blank string value",
			mutate:  func(r *Rule) { r.Conditions[0].Value = StringValue("  ") },
			wantMsg: "Condition 1: value is required",
		},
		{
			name: "Should reject a non-numeric value on a numeric field",
			mutate: func(r *Rule) {
				r.Conditions[0] = Condition{Field: FieldWidth, Operator: OpLessEqual, Value: StringValue("wide")}
			},
			wantMsg: "must be a number",
		},
		{
			name: "Should accept a numeric value written as a string",
			mutate: func(r *Rule) {
				r.Conditions[0] = Condition{Field: FieldWidth, Operator: OpLessEqual, Value: StringValue("40")}
			},
		},
		{
			name:    "Should reject a color on a packaging rule",
			mutate:  func(r *Rule) { r.Color = "#3B82F6" },
			wantMsg: "Color applies to box rules only",
		},
		{
			name: "Should reject a malformed hex color on a box rule",
			mutate: func(r *Rule) {
				r.RuleType = RuleTypeBox
				r.Color = "blue"
			},
			wantMsg: "must be a hex value",
		},
		{
			name: "Should accept a short-form hex color on a box rule",
			mutate: func(r *Rule) {
				r.RuleType = RuleTypeBox
				r.Color = "#0aF"
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rule := validRule()
			tt.mutate(&rule)

			problems := ValidateRule(rule)

			if tt.wantMsg == "" {
				assert.Empty(t, problems)
				return
			}

			found := false
			for _, msg := range problems {
				if strings.Contains(msg, tt.wantMsg) {
					found = true
					break
				}
			}
			assert.True(t, found, "expected a message containing %q, got %v", tt.wantMsg, problems)
		})
	}
}

func TestValidateRule_CollectsAllProblems(t *testing.T) {
	t.Parallel()

	rule := Rule{
		RuleType: "pallet",
		Conditions: []Condition{
			{Field: "barcode", Operator: OpEquals, Value: StringValue("x")},
			{Field: FieldWidth, Operator: OpContains, Value: StringValue("wide")},
		},
	}

	problems := ValidateRule(rule)

	// One pass reports every problem so the editor can show them all at once.
	assert.GreaterOrEqual(t, len(problems), 5)
}

func TestValidateRule_DoesNotMutate(t *testing.T) {
	t.Parallel()

	rule := validRule()
	original := validRule()

	_ = ValidateRule(rule)

	assert.Equal(t, original, rule)
}

func TestDefaultCatalogs_AreValid(t *testing.T) {
	t.Parallel()

	for _, rule := range append(DefaultPackagingRules(), DefaultBoxRules()...) {
		assert.Empty(t, ValidateRule(rule), "default rule %q must validate cleanly", rule.ID)
	}
}
