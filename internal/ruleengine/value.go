package ruleengine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Value is the comparison operand of a Condition. Rule catalogs are edited by
// non-programmers and serialized as JSON, where the operand may legitimately be
// a string ("CK003") or a number (35). Value preserves whichever form was
// written, so a catalog round-trips losslessly, and exposes explicit fallible
// accessors instead of ad-hoc coercion.
//
// The zero Value represents "no value set" and satisfies no accessor.
type Value struct {
	str   string
	num   float64
	isNum bool
	set   bool
}

// StringValue wraps a string operand.
func StringValue(s string) Value {
	return Value{str: s, set: true}
}

// NumberValue wraps a numeric operand.
func NumberValue(n float64) Value {
	return Value{num: n, isNum: true, set: true}
}

// IsSet reports whether the condition carries any operand at all.
func (v Value) IsSet() bool {
	return v.set
}

// AsString returns the operand for string comparisons.
// A numeric or unset operand does not satisfy a string comparison.
func (v Value) AsString() (string, bool) {
	if !v.set || v.isNum {
		return "", false
	}
	return v.str, true
}

// AsNumber returns the operand for numeric comparisons.
// String operands are parsed leniently ("35" is a valid numeric operand,
// since form inputs often deliver numbers as text); a parse failure reports
// false rather than an error, routing the condition into the non-match path.
func (v Value) AsNumber() (float64, bool) {
	if !v.set {
		return 0, false
	}
	if v.isNum {
		return v.num, true
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// String renders the operand for display (error messages, logs).
func (v Value) String() string {
	switch {
	case !v.set:
		return ""
	case v.isNum:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return v.str
	}
}

// MarshalJSON emits the operand in its original form: string, number, or null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case !v.set:
		return []byte("null"), nil
	case v.isNum:
		return json.Marshal(v.num)
	default:
		return json.Marshal(v.str)
	}
}

// UnmarshalJSON accepts a JSON string, number, or null.
// Any other shape (object, array, boolean) is rejected at the decode boundary
// so it can be surfaced by the rule editor instead of silently persisted.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = Value{}
		return nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("condition value must be a string or a number: %w", err)
	}
	*v = NumberValue(n)
	return nil
}
