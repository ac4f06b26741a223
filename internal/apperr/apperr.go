// Package apperr defines the error kinds historic reports to the user.
package apperr

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies a failure by the subsystem that produced it
type Kind string

const (
	KindStorage            Kind = "storage"
	KindIO                 Kind = "io"
	KindTerminalCapability Kind = "terminal_capability"
	KindTimeParse          Kind = "time_parse"
)

// Error is a classified failure with the operation that hit it
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind) + " error"
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, op, message string, cause error) *Error {
	if cause != nil {
		cause = pkgerrors.WithStack(cause)
	}
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

// Storage wraps a failure of the history store
func Storage(op string, cause error) *Error {
	return newError(KindStorage, op, "storage failure", cause)
}

// IO wraps a filesystem or terminal I/O failure
func IO(op string, cause error) *Error {
	return newError(KindIO, op, "i/o failure", cause)
}

// TerminalCapability reports a multiplexer query that could not be used
func TerminalCapability(op, message string, cause error) *Error {
	return newError(KindTerminalCapability, op, message, cause)
}

// TimeParse reports a stored timestamp that does not parse
func TimeParse(value string, cause error) *Error {
	return newError(KindTimeParse, "parse timestamp", fmt.Sprintf("invalid timestamp %q", value), cause)
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// UserMessage renders err for the terminal
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}

	var hint string
	switch e.Kind {
	case KindStorage:
		hint = "could not read or write the history database"
	case KindIO:
		hint = "an input/output operation failed"
	case KindTerminalCapability:
		hint = "could not query the terminal multiplexer"
	case KindTimeParse:
		hint = "a stored timestamp is corrupt"
	default:
		hint = "unexpected failure"
	}

	if e.Cause == nil {
		return fmt.Sprintf("%s (%s)", hint, e.Op)
	}
	return fmt.Sprintf("%s (%s): %v", hint, e.Op, pkgerrors.Cause(e.Cause))
}
