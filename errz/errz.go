// Package errz defines the error taxonomy shared by every stage of the jsq
// pipeline. Each error carries the Kind of the stage that produced it, so a
// failure can always be traced to input decoding, script compilation, script
// execution, output encoding, or a helper file operation.
package errz

import (
	"errors"
	"fmt"
)

// Kind represents the category of an error.
type Kind int

const (
	// KindDecode indicates malformed or structurally invalid input for the
	// requested format.
	KindDecode Kind = iota
	// KindCompile indicates a script body that does not match the required
	// wrapping syntax.
	KindCompile
	// KindRuntime indicates a script that threw or produced an engine fault.
	KindRuntime
	// KindEncode indicates a result value that violates the output format's
	// structural precondition.
	KindEncode
	// KindIO indicates a helper-triggered file operation failure.
	KindIO
)

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode error"
	case KindCompile:
		return "compile error"
	case KindRuntime:
		return "runtime error"
	case KindEncode:
		return "encode error"
	case KindIO:
		return "io error"
	default:
		return "error"
	}
}

// Reason narrows an error within its kind. Codecs use it to report which
// structural precondition was violated.
type Reason string

const (
	// ReasonInvalidTopLevel marks a document or value whose top level is not
	// allowed by the format (TOML requires a mapping).
	ReasonInvalidTopLevel Reason = "invalid top-level"

	// ReasonNotTabular marks a value that cannot be laid out as CSV rows.
	ReasonNotTabular Reason = "not tabular"
)

// Error is the structured error type used throughout jsq.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithCause wraps the error with a cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Decodef creates a decode error with a formatted message.
func Decodef(format string, args ...any) *Error {
	return Newf(KindDecode, format, args...)
}

// Compilef creates a compile error with a formatted message.
func Compilef(format string, args ...any) *Error {
	return Newf(KindCompile, format, args...)
}

// Runtimef creates a runtime error with a formatted message.
func Runtimef(format string, args ...any) *Error {
	return Newf(KindRuntime, format, args...)
}

// Encodef creates an encode error with a formatted message.
func Encodef(format string, args ...any) *Error {
	return Newf(KindEncode, format, args...)
}

// IOf creates an io error with a formatted message.
func IOf(format string, args ...any) *Error {
	return Newf(KindIO, format, args...)
}

// WithReason attaches a reason to the error and returns it.
func (e *Error) WithReason(reason Reason) *Error {
	e.Reason = reason
	return e
}

// IsKind reports whether err is, or wraps, an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
