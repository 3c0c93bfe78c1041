// Package errors provides structured error types for pixelforge.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP server and the library
//   - Machine-readable error codes for programmatic handling
//   - A stable mapping from failure class to process exit code
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - EMPTY_CONTENT, NO_ROWS: the image is valid but has nothing to reconstruct
//   - IO_ERROR: reading or writing an artifact failed
//   - NETWORK_*, RATE_LIMITED: collaborator services failed
//   - INTERNAL_*, UNSUPPORTED: unexpected internal errors or missing capabilities
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidBlockSize, "block size must be positive, got %d", n)
//	if errors.Is(err, errors.ErrCodeInvalidBlockSize) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "write %s", path)
//
//	// Branch on the failure class
//	os.Exit(errors.ExitCode(err))
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
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidBlockSize Code = "INVALID_BLOCK_SIZE"
	ErrCodeInvalidThreshold Code = "INVALID_THRESHOLD"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidName      Code = "INVALID_NAME"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"
	ErrCodeFileNotFound     Code = "FILE_NOT_FOUND"
	ErrCodeDecode           Code = "DECODE_ERROR"

	// Semantically empty images
	ErrCodeEmptyContent Code = "EMPTY_CONTENT"
	ErrCodeNoRows       Code = "NO_ROWS"

	// Persistence errors
	ErrCodeIO       Code = "IO_ERROR"
	ErrCodeNotFound Code = "NOT_FOUND"

	// Network errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

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
// It unwraps the error chain looking for an *Error, or any error with a
// Code() method, carrying a matching code.
func Is(err error, code Code) bool {
	return code != "" && GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c interface{ Code() Code }
	if errors.As(err, &c) {
		return c.Code()
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

// Kind groups error codes into the failure classes a caller branches on.
type Kind int

const (
	KindOther Kind = iota
	KindInput
	KindEmpty
	KindIO
)

// KindOf returns the failure class of err.
func KindOf(err error) Kind {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidBlockSize, ErrCodeInvalidThreshold,
		ErrCodeInvalidFormat, ErrCodeInvalidName, ErrCodeInvalidConfig,
		ErrCodeFileNotFound, ErrCodeDecode, ErrCodeUnsupported:
		return KindInput
	case ErrCodeEmptyContent, ErrCodeNoRows:
		return KindEmpty
	case ErrCodeIO:
		return KindIO
	default:
		return KindOther
	}
}

// Process exit codes for each failure class.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitEmpty       = 2
	ExitIO          = 3
	ExitInput       = 4
	ExitInterrupted = 130
)

// ExitCode maps err to a process exit code. A nil error maps to ExitOK.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch KindOf(err) {
	case KindInput:
		return ExitInput
	case KindEmpty:
		return ExitEmpty
	case KindIO:
		return ExitIO
	default:
		return ExitFailure
	}
}

// RateLimitedError provides additional information for rate-limited responses.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	Message    string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
