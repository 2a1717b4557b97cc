// Package errors provides structured error types for mvnmirror.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the trace and sweep commands
//   - Machine-readable error codes recorded in reports
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes map onto the tool's failure taxonomy: fatal setup errors
// (TOOL_NOT_FOUND, INVALID_PATH) abort the run, per-artifact errors
// (UNRESOLVED_VERSION, SOURCE_MISSING, COPY_IO) are captured as outcomes and
// never propagate past the artifact boundary, and degradations
// (PARSE_DEGRADED, BUILD_VERIFY) are logged and carried as evidence only.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSourceMissing, "source directory missing: %s", dir)
//	if errors.Is(err, errors.ErrCodeSourceMissing) {
//	    // record as missing dependency
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeCopyIO, origErr, "copy %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different failure categories.
const (
	// Fatal setup errors: abort the whole run.
	ErrCodeToolNotFound Code = "TOOL_NOT_FOUND"
	ErrCodeInvalidPath  Code = "INVALID_PATH"
	ErrCodeInvalidInput Code = "INVALID_INPUT"

	// Per-artifact mirroring errors: recorded, never fatal.
	ErrCodeUnresolvedVersion Code = "UNRESOLVED_VERSION"
	ErrCodeSourceMissing     Code = "SOURCE_MISSING"
	ErrCodeCopyIO            Code = "COPY_IO"

	// Degradations: logged, carried as evidence only.
	ErrCodeParseDegraded Code = "PARSE_DEGRADED"
	ErrCodeBuildVerify   Code = "BUILD_VERIFY"

	// Misc.
	ErrCodeTimeout  Code = "TIMEOUT"
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
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
