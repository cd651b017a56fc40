package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypes(t *testing.T) {
	tests := []struct {
		input    Value
		expected Type
	}{
		{Null, NULL},
		{True, BOOL},
		{False, BOOL},
		{NewNumber(3.5), NUMBER},
		{NewString("foo"), STRING},
		{NewSequence([]Value{NewNumber(1)}), SEQUENCE},
		{NewMapping(), MAPPING},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, tt.input.Type())
	}
}

func TestDisplay(t *testing.T) {
	m := NewMapping()
	m.Set("a", NewNumber(1))
	m.Set("b", NewString("x"))

	tests := []struct {
		input    Value
		expected string
	}{
		{Null, ""},
		{True, "true"},
		{False, "false"},
		{NewNumber(3), "3"},
		{NewNumber(-0.5), "-0.5"},
		{NewString("hello"), "hello"},
		{NewSequence([]Value{NewNumber(1), NewString("a"), Null}), `[1,"a",null]`},
		{m, `{"a":1,"b":"x"}`},
		{NewSequence(nil), "[]"},
		{NewMapping(), "{}"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, tt.input.Display())
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "0"},
		{1, "1"},
		{-1, "-1"},
		{3.5, "3.5"},
		{0.1, "0.1"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{1e-6, "0.000001"},
		{1e-7, "1e-7"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, FormatNumber(tt.input))
	}
}

func TestMappingOrder(t *testing.T) {
	m := NewMapping()
	m.Set("z", NewNumber(1))
	m.Set("a", NewNumber(2))
	m.Set("m", NewNumber(3))
	require.Equal(t, []string{"z", "a", "m"}, m.Keys())

	// Overwriting a key keeps its original position.
	m.Set("a", NewNumber(9))
	require.Equal(t, []string{"z", "a", "m"}, m.Keys())

	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, NewNumber(9), v)

	_, ok = m.Get("missing")
	require.False(t, ok)
}

func TestEquals(t *testing.T) {
	seq := func(vs ...Value) Value { return NewSequence(vs) }
	m1 := NewMapping()
	m1.Set("a", NewNumber(1))
	m2 := NewMapping()
	m2.Set("a", NewNumber(1))
	m3 := NewMapping()
	m3.Set("a", NewNumber(2))

	tests := []struct {
		left     Value
		right    Value
		expected bool
	}{
		{Null, Null, true},
		{True, True, true},
		{True, False, false},
		{NewNumber(1), NewNumber(1), true},
		{NewNumber(1), NewString("1"), false},
		{seq(NewNumber(1), NewNumber(2)), seq(NewNumber(1), NewNumber(2)), true},
		{seq(NewNumber(1)), seq(NewNumber(2)), false},
		{m1, m2, true},
		{m1, m3, false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, tt.left.Equals(tt.right))
	}
}
