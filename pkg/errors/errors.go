// Package errors provides structured error types for odoomig.
//
// Every failure that reaches the CLI carries a machine-readable [Code] so that
// callers can tell a missing module from a broken data feed without parsing
// messages.
//
// # Error Codes
//
//   - INVALID_*: input validation failures (flags, file formats, manifests)
//   - NOT_FOUND: a module or view name absent from the graph
//   - INCONSISTENT_STATE: the state lattice could not resolve a module
//   - EXTERNAL_FEED: the database feed failed or returned garbage
//   - INTERNAL_ERROR: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotFound, "module %q not found", name)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // Handle missing module
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeExternalFeed, origErr, "query database %s", db)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	// Lookup errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Domain errors
	ErrCodeInconsistentState Code = "INCONSISTENT_STATE"
	ErrCodeExternalFeed      Code = "EXTERNAL_FEED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message (and the cause, if any) without the
// code prefix. For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}

// NotFound is shorthand for the error returned by every name-taking query
// when the name is absent from the graph.
func NotFound(kind, name string) *Error {
	return New(ErrCodeNotFound, "%s %q not found", kind, name)
}
