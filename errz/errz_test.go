package errz

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := Decodef("parsing JSON: %s", "boom")
	require.Equal(t, "decode error: parsing JSON: boom", err.Error())

	err = Encodef("CSV rows have inconsistent lengths").WithReason(ReasonNotTabular)
	require.Equal(t, "encode error: not tabular: CSV rows have inconsistent lengths", err.Error())
}

func TestKinds(t *testing.T) {
	tests := []struct {
		err      *Error
		kind     Kind
		expected string
	}{
		{Decodef("x"), KindDecode, "decode error"},
		{Compilef("x"), KindCompile, "compile error"},
		{Runtimef("x"), KindRuntime, "runtime error"},
		{Encodef("x"), KindEncode, "encode error"},
		{IOf("x"), KindIO, "io error"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.kind, tt.err.Kind)
		require.Equal(t, tt.expected, tt.err.Kind.String())
		require.True(t, IsKind(tt.err, tt.kind))
		require.False(t, IsKind(tt.err, (tt.kind+1)%5))
	}
}

func TestIsKindUnwraps(t *testing.T) {
	inner := IOf("read failed")
	wrapped := fmt.Errorf("helper: %w", inner)
	require.True(t, IsKind(wrapped, KindIO))
	require.False(t, IsKind(wrapped, KindDecode))
	require.False(t, IsKind(errors.New("plain"), KindIO))
}

func TestCause(t *testing.T) {
	cause := errors.New("underlying")
	err := Decodef("parsing YAML").WithCause(cause)
	require.ErrorIs(t, err, cause)
}
