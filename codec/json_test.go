package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/jsq/errz"
	"github.com/deepnoodle-ai/jsq/value"
)

func TestJSONDecode(t *testing.T) {
	v, err := Decode([]byte(`{"z": 1, "a": [true, null, "s"], "n": -0.25}`), "json")
	require.Nil(t, err)

	m, ok := v.(*value.Mapping)
	require.True(t, ok)
	require.Equal(t, []string{"z", "a", "n"}, m.Keys())

	a, _ := m.Get("a")
	seq, ok := a.(*value.Sequence)
	require.True(t, ok)
	require.Equal(t, 3, seq.Len())
	require.Equal(t, value.True, seq.Items()[0])
	require.Equal(t, value.Null, seq.Items()[1])

	n, _ := m.Get("n")
	require.Equal(t, value.NewNumber(-0.25), n)
}

func TestJSONDecodeErrors(t *testing.T) {
	tests := []string{
		``,
		`{`,
		`[1, 2,]`,
		`{"a": 1} extra`,
		`"unterminated`,
	}
	for _, input := range tests {
		_, err := Decode([]byte(input), "json")
		require.NotNil(t, err, "input: %q", input)
		require.True(t, errz.IsKind(err, errz.KindDecode))
	}
}

func TestJSONEncode(t *testing.T) {
	m := value.NewMapping()
	m.Set("name", value.NewString("demo"))
	inner := value.NewMapping()
	inner.Set("count", value.NewNumber(2))
	m.Set("meta", inner)
	m.Set("tags", value.NewSequence([]value.Value{
		value.NewString("a"),
		value.NewString("b"),
	}))
	m.Set("empty", value.NewSequence(nil))

	data, err := Encode(m, "json")
	require.Nil(t, err)
	require.Equal(t, `{
  "name": "demo",
  "meta": {
    "count": 2
  },
  "tags": [
    "a",
    "b"
  ],
  "empty": []
}
`, string(data))
}

func TestJSONEncodeScalars(t *testing.T) {
	tests := []struct {
		input    value.Value
		expected string
	}{
		{value.Null, "null\n"},
		{value.True, "true\n"},
		{value.NewNumber(1.5), "1.5\n"},
		{value.NewString("a \"b\""), "\"a \\\"b\\\"\"\n"},
	}
	for _, tt := range tests {
		data, err := Encode(tt.input, "json")
		require.Nil(t, err)
		require.Equal(t, tt.expected, string(data))
	}
}

func TestJSONEncodeNonFinite(t *testing.T) {
	_, err := Encode(value.NewNumber(math.NaN()), "json")
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.KindEncode))

	_, err = Encode(value.NewNumber(math.Inf(1)), "json")
	require.NotNil(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	inputs := []string{
		`{"a": 1, "b": [1, 2, {"c": null}]}`,
		`[[]]`,
		`"plain"`,
		`123456789`,
	}
	for _, input := range inputs {
		v, err := Decode([]byte(input), "json")
		require.Nil(t, err)
		data, err := Encode(v, "json")
		require.Nil(t, err)
		v2, err := Decode(data, "json")
		require.Nil(t, err)
		require.True(t, v.Equals(v2), "input: %s", input)
	}
}
