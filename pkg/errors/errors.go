// Package errors provides structured error types for cardtree.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the engine
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Resource not found
//   - GRAPH_*, MULTI_PARENT, CYCLE, DANGLING_*: connector graph problems
//   - STORE, INTERNAL: backend and unexpected failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeGraphInconsistent, "node %s is not a child of %s", id, parentID)
//	if errors.Is(err, errors.ErrCodeGraphInconsistent) {
//	    // Abort the cascade
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStore, origErr, "load node %s", id)
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
	ErrCodeInvalidDocument Code = "INVALID_DOCUMENT"
	ErrCodeInvalidNodeID   Code = "INVALID_NODE_ID"
	ErrCodeInvalidCardType Code = "INVALID_CARD_TYPE"
	ErrCodeInvalidAction   Code = "INVALID_ACTION"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeNodeNotFound      Code = "NODE_NOT_FOUND"
	ErrCodeConnectorNotFound Code = "CONNECTOR_NOT_FOUND"
	ErrCodeFileNotFound      Code = "FILE_NOT_FOUND"

	// Connector graph errors
	ErrCodeGraphInconsistent Code = "GRAPH_INCONSISTENT"
	ErrCodeMultiParent       Code = "MULTI_PARENT"
	ErrCodeCycle             Code = "CYCLE"
	ErrCodeDanglingEndpoint  Code = "DANGLING_ENDPOINT"

	// Backend and internal errors
	ErrCodeStore       Code = "STORE"
	ErrCodeTimeout     Code = "TIMEOUT"
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
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsGraphError reports whether err signals a problem with the connector graph
// itself rather than with the input or the backend.
func IsGraphError(err error) bool {
	switch GetCode(err) {
	case ErrCodeGraphInconsistent, ErrCodeMultiParent, ErrCodeCycle, ErrCodeDanglingEndpoint:
		return true
	}
	return false
}
