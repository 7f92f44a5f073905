// Package ruleengine provides the core logic for order classification.
// It evaluates an ordered, user-editable catalog of conditional rules against
// an order's attributes to assign a packaging type or a shipping box.
// Evaluation is pure: no I/O, no hidden state, deterministic for identical inputs.
package ruleengine

import "time"

// RuleType discriminates the two rule catalogs.
type RuleType string

const (
	// RuleTypePackaging rules assign a packaging type (e.g., "Large Letter").
	RuleTypePackaging RuleType = "packaging"

	// RuleTypeBox rules assign a shipping box, optionally with a display color.
	RuleTypeBox RuleType = "box"
)

// Known reports whether the rule type is one of the supported catalogs.
func (t RuleType) Known() bool {
	return t == RuleTypePackaging || t == RuleTypeBox
}

// Field identifies an order attribute a condition can test.
// The set is closed: conditions referencing anything outside this enum
// never match (see evaluateCondition).
type Field string

const (
	FieldSku              Field = "sku"
	FieldQuantity         Field = "quantity"
	FieldWidth            Field = "width"
	FieldWeight           Field = "weight"
	FieldLocation         Field = "location"
	FieldOrderValue       Field = "orderValue"
	FieldChannel          Field = "channel"
	FieldShipFromLocation Field = "shipFromLocation"
)

// Operator identifies the comparison a condition performs.
type Operator string

const (
	OpContains     Operator = "contains"
	OpEquals       Operator = "equals"
	OpGreaterThan  Operator = "greater_than"
	OpLessThan     Operator = "less_than"
	OpGreaterEqual Operator = "greater_equal"
	OpLessEqual    Operator = "less_equal"
	OpStartsWith   Operator = "starts_with"
	OpEndsWith     Operator = "ends_with"
)

// fieldKind classifies a field's value type, which determines the
// allowed operator subset and the comparison semantics.
type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
)

// fieldSpec describes the static contract of one field.
type fieldSpec struct {
	kind      fieldKind
	operators []Operator
}

// stringOperators and numberOperators are the allowed operator subsets per kind.
var (
	stringOperators = []Operator{OpContains, OpEquals, OpStartsWith, OpEndsWith}
	numberOperators = []Operator{OpEquals, OpGreaterThan, OpLessThan, OpGreaterEqual, OpLessEqual}
)

// fieldSpecs is the single source of truth for the field -> kind/operator table.
// The validator enforces it before persistence; the evaluator re-checks it
// defensively so a malformed persisted condition simply never matches.
var fieldSpecs = map[Field]fieldSpec{
	FieldSku:              {kind: kindString, operators: stringOperators},
	FieldQuantity:         {kind: kindNumber, operators: numberOperators},
	FieldWidth:            {kind: kindNumber, operators: numberOperators},
	FieldWeight:           {kind: kindNumber, operators: numberOperators},
	FieldLocation:         {kind: kindString, operators: stringOperators},
	FieldOrderValue:       {kind: kindNumber, operators: numberOperators},
	FieldChannel:          {kind: kindString, operators: stringOperators},
	FieldShipFromLocation: {kind: kindString, operators: stringOperators},
}

// OperatorsFor returns the operators a condition on the given field may use.
// Returns nil for unknown fields.
func OperatorsFor(f Field) []Operator {
	spec, ok := fieldSpecs[f]
	if !ok {
		return nil
	}
	// Copy to keep the package-level table immutable from the caller's side.
	out := make([]Operator, len(spec.operators))
	copy(out, spec.operators)
	return out
}

// operatorAllowed reports whether op is valid for field f.
func operatorAllowed(f Field, op Operator) bool {
	spec, ok := fieldSpecs[f]
	if !ok {
		return false
	}
	for _, allowed := range spec.operators {
		if op == allowed {
			return true
		}
	}
	return false
}

// Condition is a single field/operator/value test against one order attribute.
// All conditions of a rule are logically ANDed.
type Condition struct {
	// ID is unique within the owning rule. Used by editing UIs; evaluation ignores it.
	ID string `json:"id"`

	// Field names the order attribute under test.
	Field Field `json:"field"`

	// Operator is the comparison to perform. Must be allowed for the field's kind.
	Operator Operator `json:"operator"`

	// Value is the comparison operand (string or number, preserved as written).
	Value Value `json:"value"`
}

// Rule pairs a set of ANDed conditions with the classification it assigns.
type Rule struct {
	// ID is globally unique within a catalog.
	ID string `json:"id"`

	// Name is the human-readable label shown in the rule editor. Required.
	Name string `json:"name"`

	// Description provides optional context about the rule's intent.
	Description string `json:"description,omitempty"`

	// Conditions are ANDed. An empty list matches every order (catch-all),
	// which is the supported way to express a default classification.
	Conditions []Condition `json:"conditions"`

	// RuleType assigns the rule to the packaging or the box catalog.
	RuleType RuleType `json:"rule_type"`

	// ResultValue is the packaging type or box name this rule assigns. Required.
	ResultValue string `json:"result_value"`

	// Priority orders evaluation: lower values are tried first.
	// Ties keep the catalog's original relative order (stable sort).
	Priority int `json:"priority"`

	// Enabled rules participate in resolution; disabled rules never fire.
	Enabled bool `json:"enabled"`

	// Color is an optional hex display color, used by box rules only.
	Color string `json:"color,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultPriority is assigned when a rule is created without an explicit priority.
const DefaultPriority = 50

// Classification is the outcome of resolving one catalog against one order.
// A nil *Classification means no rule matched (a normal outcome, not an error).
type Classification struct {
	// ResultValue is the packaging type or box name of the first matching rule.
	ResultValue string `json:"result_value"`

	// Color carries the matching rule's display color, when it has one.
	Color string `json:"color,omitempty"`
}

// Order is the normalized input record the engine evaluates conditions against.
// It is read-only to the engine. Optional numeric attributes are pointers so
// that "absent" is distinguishable from zero; an absent numeric field never
// satisfies a numeric condition.
type Order struct {
	Sku      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Location string `json:"location"`

	// Width is in centimeters.
	Width *float64 `json:"width,omitempty"`

	// Weight is in grams.
	Weight *float64 `json:"weight,omitempty"`

	OrderValue       *float64 `json:"orderValue,omitempty"`
	Channel          string   `json:"channel,omitempty"`
	ShipFromLocation string   `json:"shipFromLocation,omitempty"`
}
