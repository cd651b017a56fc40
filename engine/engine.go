// Package engine wraps the embedded JavaScript engine behind a one-method
// interface. The pipeline depends only on Engine, so the concrete engine is
// swappable without touching input resolution or output serialization.
package engine

import (
	"context"
	"io"

	"github.com/deepnoodle-ai/jsq/value"
)

// Mode selects how the script source is wrapped before execution.
type Mode int

const (
	// ExpressionBody treats the source as the body of a single-argument
	// function whose argument is the bound input.
	ExpressionBody Mode = iota

	// StatementBlock treats the source as a top-level sequence of statements.
	// The result is the engine's program completion value. That is usually
	// the value of a final bare expression statement, but ECMA completion
	// semantics also surface the value of a final compound statement (if,
	// for, try) whose body ends in an expression. A program that completes
	// without a value yields the no-value sentinel.
	StatementBlock
)

// Job describes one evaluation: one script, one bound input, one environment
// snapshot. Engines hold no state across jobs.
type Job struct {
	// Source is the script text.
	Source string

	// Filename appears in engine error messages.
	Filename string

	// Mode selects the wrapping semantics.
	Mode Mode

	// Input is the decoded value bound to $.
	Input value.Value

	// Env is the environment snapshot. Each NAME becomes a $NAME binding.
	Env map[string]string

	// Print receives output from the script's print helper, flushed
	// immediately and independently of the eventual result.
	Print io.Writer
}

// Result is the outcome of a successful evaluation. NoValue reports the
// engine's no-value sentinel, which is distinct from a Null result.
type Result struct {
	Value   value.Value
	NoValue bool
}

// Engine compiles and runs a script against a bound scope, producing a value
// or a structured error.
type Engine interface {
	Evaluate(ctx context.Context, job Job) (Result, error)
}
