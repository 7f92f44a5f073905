package ruleengine

import "strings"

// evaluateCondition checks one condition against one order.
//
// The function is pure and total: for any (condition, order) pair it returns a
// boolean and never panics. Anything it cannot interpret, an unknown field, an
// operator not allowed for the field's kind, an unparseable operand, or an
// absent order attribute, evaluates to false. A rule carrying a malformed
// condition therefore simply never fires, rather than crashing resolution for
// the whole order; the rule editor is expected to catch the mismatch via
// ValidateRule before the rule is persisted.
func evaluateCondition(c Condition, o Order) bool {
	spec, ok := fieldSpecs[c.Field]
	if !ok {
		return false
	}
	if !operatorAllowed(c.Field, c.Operator) {
		return false
	}

	switch spec.kind {
	case kindString:
		want, ok := c.Value.AsString()
		if !ok {
			return false
		}
		got, ok := stringAttribute(c.Field, o)
		if !ok {
			return false
		}
		return compareStrings(c.Operator, got, want)

	case kindNumber:
		want, ok := c.Value.AsNumber()
		if !ok {
			return false
		}
		got, ok := numberAttribute(c.Field, o)
		if !ok {
			return false
		}
		return compareNumbers(c.Operator, got, want)
	}

	return false
}

// stringAttribute dispatches a string-kinded field to its accessor on Order.
// This is deliberately a closed switch rather than reflective lookup: field
// names outside the enum are rejected by the caller via fieldSpecs.
//
// An empty string is a present-but-non-matching value, not "absent": the
// accessor still reports ok, and the comparison decides the outcome.
func stringAttribute(f Field, o Order) (string, bool) {
	switch f {
	case FieldSku:
		return o.Sku, true
	case FieldLocation:
		return o.Location, true
	case FieldChannel:
		return o.Channel, true
	case FieldShipFromLocation:
		return o.ShipFromLocation, true
	}
	return "", false
}

// numberAttribute dispatches a numeric field to its accessor on Order.
// Optional attributes report ok=false when absent; absence never compares
// equal to zero.
func numberAttribute(f Field, o Order) (float64, bool) {
	switch f {
	case FieldQuantity:
		return float64(o.Quantity), true
	case FieldWidth:
		if o.Width == nil {
			return 0, false
		}
		return *o.Width, true
	case FieldWeight:
		if o.Weight == nil {
			return 0, false
		}
		return *o.Weight, true
	case FieldOrderValue:
		if o.OrderValue == nil {
			return 0, false
		}
		return *o.OrderValue, true
	}
	return 0, false
}

// compareStrings applies a string operator. Comparisons are case-insensitive
// and operate on trimmed values, so picker-entered data like " ck003 " still
// matches a SKU fragment "CK003".
func compareStrings(op Operator, got, want string) bool {
	got = strings.ToLower(strings.TrimSpace(got))
	want = strings.ToLower(strings.TrimSpace(want))

	switch op {
	case OpContains:
		return strings.Contains(got, want)
	case OpEquals:
		return got == want
	case OpStartsWith:
		return strings.HasPrefix(got, want)
	case OpEndsWith:
		return strings.HasSuffix(got, want)
	}
	return false
}

// compareNumbers applies a numeric operator with the exact arithmetic meaning
// implied by its name.
func compareNumbers(op Operator, got, want float64) bool {
	switch op {
	case OpEquals:
		return got == want
	case OpGreaterThan:
		return got > want
	case OpLessThan:
		return got < want
	case OpGreaterEqual:
		return got >= want
	case OpLessEqual:
		return got <= want
	}
	return false
}
