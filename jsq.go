// Package jsq implements the jsq evaluation pipeline: decode one input value,
// bind it and the process environment into a script scope, execute the script,
// and serialize the result. Each run is a single, independent, synchronous
// transformation with no state carried across invocations.
package jsq

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/jsq/codec"
	"github.com/deepnoodle-ai/jsq/engine"
	"github.com/deepnoodle-ai/jsq/errz"
	"github.com/deepnoodle-ai/jsq/value"
)

// DefaultScript is the identity script: it returns the bound input unchanged.
const DefaultScript = "$"

// Config is the run configuration, built once per invocation and immutable
// afterwards.
type Config struct {
	// Script is the script source text. Ignored when ScriptPath is set.
	Script string

	// ScriptPath reads the script source from a file instead of Script.
	ScriptPath string

	// Mode selects the evaluation wrapping semantics.
	Mode engine.Mode

	// InputFormat names the codec used to decode input bytes. Empty means
	// the raw bytes are bound as text.
	InputFormat string

	// OutputFormat names the codec used to encode the result. Empty means
	// the result is written as display text.
	OutputFormat string

	// Suppress disables result output entirely. Output from the script's
	// print helper is unaffected.
	Suppress bool

	// InputPath reads input bytes from a file. It takes precedence over
	// stdin.
	InputPath string
}

// Option configures a run.
type Option func(*options)

type options struct {
	stdin         io.Reader
	stdinTerminal bool
	stdout        io.Writer
	environ       []string
	engine        engine.Engine
	logger        zerolog.Logger
}

func collectOptions(opts ...Option) *options {
	o := &options{
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		environ: os.Environ(),
		engine:  engine.New(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithStdin sets the reader used for piped input. By default os.Stdin.
func WithStdin(r io.Reader) Option {
	return func(o *options) {
		o.stdin = r
	}
}

// WithStdinTerminal marks stdin as attached to an interactive terminal. When
// set and no input file is given, the bound input is the empty-text value and
// stdin is never read.
func WithStdinTerminal(terminal bool) Option {
	return func(o *options) {
		o.stdinTerminal = terminal
	}
}

// WithStdout sets the writer that receives the serialized result and any
// print helper output. By default os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(o *options) {
		o.stdout = w
	}
}

// WithEnviron sets the environment snapshot as NAME=value pairs. By default
// the process environment is captured at run start.
func WithEnviron(environ []string) Option {
	return func(o *options) {
		o.environ = environ
	}
}

// WithEngine sets the script engine. By default the embedded JavaScript
// engine is used.
func WithEngine(e engine.Engine) Option {
	return func(o *options) {
		o.engine = e
	}
}

// WithLogger sets the logger for stage-level debug events. By default
// logging is disabled.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Run executes one evaluation: resolve input, snapshot the environment, run
// the script, serialize the result. Any returned error is terminal for the
// run and carries the kind of the stage that failed.
func Run(ctx context.Context, cfg Config, opts ...Option) error {
	o := collectOptions(opts...)
	log := o.logger

	source := cfg.Script
	if cfg.ScriptPath != "" {
		data, err := os.ReadFile(cfg.ScriptPath)
		if err != nil {
			return errz.IOf("reading script: %v", err)
		}
		source = string(data)
	}
	if source == "" {
		source = DefaultScript
	}

	input, err := resolveInput(cfg, o)
	if err != nil {
		return err
	}
	log.Debug().Str("type", string(input.Type())).Msg("input resolved")

	env := environMap(o.environ)

	result, err := o.engine.Evaluate(ctx, engine.Job{
		Source:   source,
		Filename: cfg.ScriptPath,
		Mode:     cfg.Mode,
		Input:    input,
		Env:      env,
		Print:    o.stdout,
	})
	if err != nil {
		return err
	}
	log.Debug().Bool("no_value", result.NoValue).Msg("script evaluated")

	out, err := serialize(result, cfg)
	if err != nil {
		return err
	}
	if len(out) > 0 {
		if _, err := o.stdout.Write(out); err != nil {
			return errz.IOf("writing output: %v", err)
		}
	}
	log.Debug().Int("bytes", len(out)).Msg("output written")
	return nil
}

// serialize renders the result per the output selection. With no format
// selected the display text is written, newline terminated; the no-value
// sentinel writes nothing. Under a codec the sentinel encodes as null.
func serialize(result engine.Result, cfg Config) ([]byte, error) {
	if cfg.Suppress {
		return nil, nil
	}
	if cfg.OutputFormat == "" {
		if result.NoValue {
			return nil, nil
		}
		text := result.Value.Display()
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		return []byte(text), nil
	}
	v := result.Value
	if result.NoValue {
		v = value.Null
	}
	return codec.Encode(v, cfg.OutputFormat)
}
