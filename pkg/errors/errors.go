// Package errors provides structured error types for wsbuild.
//
// Every failure the orchestrator can report carries a machine-readable [Code]
// so the CLI can choose an exit status and tests can match on the category
// rather than on message text.
//
// # Error Codes
//
// The graph-level codes are fatal and are raised before any package is
// processed:
//   - DUPLICATE_PACKAGE: two paths in one workspace declare the same name
//   - DEPENDENCY_CYCLE: the workspace order cannot be completed
//   - INVALID_SELECTION: start/end/only/skip options are inconsistent
//
// Per-package codes are raised while the driver iterates:
//   - PACKAGE_FAILED: a build, install, test or uninstall action failed
//   - UNSUPPORTED: a build type does not implement an optional phase
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSelection, "package %q not found", name)
//	if errors.Is(err, errors.ErrCodeSelection) {
//	    // Handle selection error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidManifest, origErr, "parse %s", path)
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
	ErrCodeInvalidPackage  Code = "INVALID_PACKAGE"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidContext  Code = "INVALID_CONTEXT"

	// Resource not found errors
	ErrCodePackageNotFound  Code = "PACKAGE_NOT_FOUND"
	ErrCodeUnknownBuildType Code = "UNKNOWN_BUILD_TYPE"

	// Workspace graph errors
	ErrCodeDuplicatePackage Code = "DUPLICATE_PACKAGE"
	ErrCodeCycle            Code = "DEPENDENCY_CYCLE"
	ErrCodeSelection        Code = "INVALID_SELECTION"

	// Execution errors
	ErrCodePackageFailed Code = "PACKAGE_FAILED"
	ErrCodeUnsupported   Code = "UNSUPPORTED"

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
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Fatal reports whether err belongs to the graph-level categories that abort
// a run before any package is touched.
func Fatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeDuplicatePackage, ErrCodeCycle, ErrCodeSelection:
		return true
	}
	return false
}
