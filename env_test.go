package jsq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvironMap(t *testing.T) {
	env := environMap([]string{
		"FOO=bar",
		"EMPTY=",
		"EQ=a=b=c",
		"=no-name",
		"no-equals",
	})
	require.Equal(t, map[string]string{
		"FOO":   "bar",
		"EMPTY": "",
		"EQ":    "a=b=c",
	}, env)
}
