package ruleengine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_JSONForms(t *testing.T) {
	t.Parallel()

	t.Run("Should preserve a string operand across a round-trip", func(t *testing.T) {
		t.Parallel()

		var v Value
		require.NoError(t, json.Unmarshal([]byte(`"CK003"`), &v))

		s, ok := v.AsString()
		require.True(t, ok)
		assert.Equal(t, "CK003", s)

		out, err := json.Marshal(v)
		require.NoError(t, err)
		assert.JSONEq(t, `"CK003"`, string(out))
	})

	t.Run("Should preserve a numeric operand across a round-trip", func(t *testing.T) {
		t.Parallel()

		var v Value
		require.NoError(t, json.Unmarshal([]byte(`40`), &v))

		n, ok := v.AsNumber()
		require.True(t, ok)
		assert.Equal(t, 40.0, n)

		// A number must stay a JSON number, not become "40".
		out, err := json.Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, "40", string(out))
	})

	t.Run("Should treat null as unset", func(t *testing.T) {
		t.Parallel()

		var v Value
		require.NoError(t, json.Unmarshal([]byte(`null`), &v))
		assert.False(t, v.IsSet())
	})

	t.Run("Should reject an object operand", func(t *testing.T) {
		t.Parallel()

		var v Value
		assert.Error(t, json.Unmarshal([]byte(`{"v":1}`), &v))
	})

	t.Run("Should not expose a numeric operand as a string", func(t *testing.T) {
		t.Parallel()

		_, ok := NumberValue(3).AsString()
		assert.False(t, ok)
	})

	t.Run("Should parse a numeric string operand as a number", func(t *testing.T) {
		t.Parallel()

		n, ok := StringValue(" 35.5 ").AsNumber()
		require.True(t, ok)
		assert.Equal(t, 35.5, n)
	})
}

// TestRule_RoundTrip verifies the persistence contract: serializing a rule to
// JSON and back reproduces an identical rule, including color, priority, and
// the original form of every condition value.
func TestRule_RoundTrip(t *testing.T) {
	t.Parallel()

	original := Rule{
		ID:          "rule-1",
		Name:        "SM warehouse OBA",
		Description: "ships from SM",
		RuleType:    RuleTypeBox,
		ResultValue: "SM OBA",
		Priority:    5,
		Enabled:     true,
		Color:       "#3B82F6",
		Conditions: []Condition{
			{ID: "c1", Field: FieldShipFromLocation, Operator: OpContains, Value: StringValue("SM")},
			{ID: "c2", Field: FieldWeight, Operator: OpLessEqual, Value: NumberValue(2000)},
		},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Rule
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, original, decoded)
}
