package jsq

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/jsq/engine"
	"github.com/deepnoodle-ai/jsq/errz"
)

func runJSQ(t *testing.T, cfg Config, stdin string, opts ...Option) (string, error) {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{
		WithStdin(strings.NewReader(stdin)),
		WithStdout(&out),
		WithEnviron(nil),
	}, opts...)
	err := Run(context.Background(), cfg, opts...)
	return out.String(), err
}

func mustRun(t *testing.T, cfg Config, stdin string, opts ...Option) string {
	t.Helper()
	out, err := runJSQ(t, cfg, stdin, opts...)
	require.Nil(t, err)
	return out
}

func TestIdentityText(t *testing.T) {
	// Raw text in, display text out: bytes pass through untouched.
	out := mustRun(t, Config{Script: "$"}, "hello\nworld\n")
	require.Equal(t, "hello\nworld\n", out)

	// A missing trailing newline is added.
	out = mustRun(t, Config{Script: "$"}, "no newline")
	require.Equal(t, "no newline\n", out)
}

func TestExpressionResults(t *testing.T) {
	tests := []struct {
		script   string
		expected string
	}{
		{"2 + 3", "5\n"},
		{"'a' + 'b'", "ab\n"},
		{"[1, 2].length", "2\n"},
	}
	for _, tt := range tests {
		out := mustRun(t, Config{Script: tt.script}, "")
		require.Equal(t, tt.expected, out, "script: %s", tt.script)
	}
}

func TestJSONPipeline(t *testing.T) {
	cfg := Config{Script: "$.foo", InputFormat: "json", OutputFormat: "json"}

	out := mustRun(t, cfg, `{ "foo": 42 }`)
	require.Equal(t, "42\n", out)

	out = mustRun(t, cfg, `{ "foo": "bar" }`)
	require.Equal(t, "\"bar\"\n", out)

	out = mustRun(t, cfg, `{ "foo": { "bar": [0, 1, 2] } }`)
	require.Equal(t, "{\n  \"bar\": [\n    0,\n    1,\n    2\n  ]\n}\n", out)
}

func TestEmptyContainers(t *testing.T) {
	out := mustRun(t, Config{Script: "({ a: {}, b: [] })", OutputFormat: "json"}, "")
	require.Equal(t, "{\n  \"a\": {},\n  \"b\": []\n}\n", out)
}

func TestMapExample(t *testing.T) {
	cfg := Config{Script: "$.map(x => x * 2)", InputFormat: "json", OutputFormat: "json"}
	out := mustRun(t, cfg, "[1,2,3]")
	require.Equal(t, "[\n  2,\n  4,\n  6\n]\n", out)
}

func TestEnvironBinding(t *testing.T) {
	out := mustRun(t, Config{Script: "$foo"}, "", WithEnviron([]string{"foo=42"}))
	require.Equal(t, "42\n", out)

	// Unset variables read as undefined, which displays as empty text.
	out = mustRun(t, Config{Script: "$nope"}, "", WithEnviron([]string{"foo=42"}))
	require.Equal(t, "", out)
}

func TestRegexOnTextInput(t *testing.T) {
	out := mustRun(t, Config{Script: `$.match(/foo:(\w*)/)[1]`}, "foo:bar baz:42")
	require.Equal(t, "bar\n", out)
}

func TestStatementMode(t *testing.T) {
	out := mustRun(t, Config{Script: "const x = 5; x * x", Mode: engine.StatementBlock}, "")
	require.Equal(t, "25\n", out)
}

func TestErrors(t *testing.T) {
	_, err := runJSQ(t, Config{Script: "foo"}, "")
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.KindRuntime))
	require.Contains(t, err.Error(), "foo is not defined")

	_, err = runJSQ(t, Config{Script: "return 42"}, "")
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.KindCompile))

	_, err = runJSQ(t, Config{Script: "$", InputFormat: "json"}, "foo")
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.KindDecode))
	require.Contains(t, err.Error(), "parsing JSON")
}

const sampleYAML = `name: publish
defaults:
  run:
    shell: bash
jobs:
  info:
    runs-on: macos-latest
    steps:
      - uses: actions/checkout@v4
`

const sampleTOML = `title = "demo"
numbers = [1, 2, 3]

[package]
name = "jsq"
edition = "2024"

[[bin]]
path = "src/main.go"
`

func TestYAMLPipeline(t *testing.T) {
	cfg := Config{Script: "$.jobs.info['runs-on']", InputFormat: "yaml"}
	out := mustRun(t, cfg, sampleYAML)
	require.Equal(t, "macos-latest\n", out)

	out = mustRun(t, Config{Script: "$", InputFormat: "yaml", OutputFormat: "yaml"}, sampleYAML)
	require.Equal(t, sampleYAML, out)
}

func TestTOMLPipeline(t *testing.T) {
	cfg := Config{Script: "$.package.name", InputFormat: "toml"}
	out := mustRun(t, cfg, sampleTOML)
	require.Equal(t, "jsq\n", out)

	out = mustRun(t, Config{Script: "$", InputFormat: "toml", OutputFormat: "toml"}, sampleTOML)
	require.Equal(t, sampleTOML, out)
}

// Conversion chains across formats come back to where they started.
func TestFormatConversionChains(t *testing.T) {
	convert := func(in, out, doc string) string {
		return mustRun(t, Config{Script: "$", InputFormat: in, OutputFormat: out}, doc)
	}

	viaJSONAndTOML := convert("toml", "yaml", convert("json", "toml", convert("yaml", "json", sampleYAML)))
	require.Equal(t, sampleYAML, viaJSONAndTOML)

	viaYAMLAndJSON := convert("json", "toml", convert("yaml", "json", convert("toml", "yaml", sampleTOML)))
	require.Equal(t, sampleTOML, viaYAMLAndJSON)
}

func TestQuotedStringStaysString(t *testing.T) {
	out := mustRun(t, Config{Script: "$", InputFormat: "json", OutputFormat: "yaml"}, `{ "foo": "true" }`)
	require.Equal(t, "foo: \"true\"\n", out)
}

func TestNoValueSentinel(t *testing.T) {
	// Text mode: the sentinel writes nothing.
	out := mustRun(t, Config{Script: "undefined"}, "")
	require.Equal(t, "", out)

	out = mustRun(t, Config{Script: "() => {}"}, "")
	require.Equal(t, "", out)

	// Codec mode: the sentinel encodes as null.
	out = mustRun(t, Config{Script: "undefined", OutputFormat: "json"}, "")
	require.Equal(t, "null\n", out)

	out = mustRun(t, Config{Script: "undefined", OutputFormat: "yaml"}, "")
	require.Equal(t, "null\n", out)

	// TOML cannot represent a null document.
	_, err := runJSQ(t, Config{Script: "undefined", OutputFormat: "toml"}, "")
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.KindEncode))
}

// Output already flushed by print is not retracted when the script fails later.
func TestPrintSurvivesError(t *testing.T) {
	out, err := runJSQ(t, Config{Script: "{ print('partial'); throw new Error('late') }"}, "")
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.KindRuntime))
	require.Equal(t, "partial\n", out)
}

func TestSuppressedOutput(t *testing.T) {
	out := mustRun(t, Config{Script: "{ print('foo'); print(42); return 7 }", Suppress: true}, "")
	require.Equal(t, "foo\n42\n", out)
}

func TestScriptFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.js")
	require.Nil(t, os.WriteFile(path, []byte("$.length"), 0o644))

	out := mustRun(t, Config{ScriptPath: path}, "four")
	require.Equal(t, "4\n", out)

	_, err := runJSQ(t, Config{ScriptPath: filepath.Join(dir, "missing.js")}, "")
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.KindIO))
}

func TestInputFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.json")
	require.Nil(t, os.WriteFile(path, []byte(`{"n": 9}`), 0o644))

	// The file takes precedence over stdin.
	out := mustRun(t, Config{Script: "$.n", InputFormat: "json", InputPath: path}, `{"n": 1}`)
	require.Equal(t, "9\n", out)

	_, err := runJSQ(t, Config{Script: "$", InputPath: filepath.Join(dir, "missing")}, "")
	require.NotNil(t, err)
	require.True(t, errz.IsKind(err, errz.KindIO))
}

func TestTerminalStdin(t *testing.T) {
	// An interactive terminal means empty text input and no blocking read.
	out := mustRun(t, Config{Script: "$.length"}, "ignored", WithStdinTerminal(true))
	require.Equal(t, "0\n", out)
}

func TestEmptyScriptDefaultsToIdentity(t *testing.T) {
	out := mustRun(t, Config{}, "payload\n")
	require.Equal(t, "payload\n", out)
}

func TestCSVPipeline(t *testing.T) {
	out := mustRun(t, Config{
		Script:       "$.filter(r => r.age > 40)",
		InputFormat:  "csv",
		OutputFormat: "csv",
	}, "name,age\namy,36\nbob,41\n")
	require.Equal(t, "name,age\nbob,41\n", out)
}

func TestJSON5Pipeline(t *testing.T) {
	out := mustRun(t, Config{
		Script:       "$.a",
		InputFormat:  "json5",
		OutputFormat: "json",
	}, "{a: [1, 2,], /* relaxed */}")
	require.Equal(t, "[\n  1,\n  2\n]\n", out)
}
