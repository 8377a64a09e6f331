// Package errors provides structured error types for distcache.
//
// Errors carry a machine-readable [Code] so that the CLI, and any caller
// embedding the translate package, can tell a misconfigured chain from a
// network failure from a corrupt cache entry without matching on strings.
//
// # Error Codes
//
//   - INVALID_*: input validation failures (links, paths, chain construction)
//   - NOT_FOUND / NO_RESOLUTION: nothing to resolve
//   - NETWORK_ERROR / FETCH_FAILED: fetch collaborator failures
//   - BUILD_TOOL: the build tool itself is broken (not a package build failure)
//   - INTERNAL_ERROR: unexpected internal failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidLink, "unrecognized archive: %s", name)
//	if errors.Is(err, errors.ErrCodeInvalidLink) {
//	    // Handle validation error
//	}
//
//	err := errors.Wrap(errors.ErrCodeFetch, origErr, "fetch %s", url)
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
	ErrCodeInvalidLink     Code = "INVALID_LINK"
	ErrCodeInvalidPackage  Code = "INVALID_PACKAGE"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidChain    Code = "INVALID_CHAIN"
	ErrCodeInvalidMetadata Code = "INVALID_METADATA"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Resolution outcomes
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeNoResolution Code = "NO_RESOLUTION"

	// Fetch errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeFetch   Code = "FETCH_FAILED"

	// Build errors
	ErrCodeBuildTool Code = "BUILD_TOOL"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
// For *Error types the code prefix is dropped but the cause is kept, so a
// fatal resolution failure still reports what went wrong underneath.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
