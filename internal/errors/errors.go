// Package errors defines the structured error type and the error
// taxonomy for obsidx. Lookup misses are modeled as values (NotFound
// results), never as raised failures; the codes here cover the
// conditions the CLI layer is expected to format for the user.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for reportable failure conditions.
const (
	// CodeNotFound: a lookup target is absent or excluded by a
	// collection filter. Callers should prefer returning a nil result;
	// this code exists for paths where an error value is unavoidable.
	CodeNotFound = "ERR_NOT_FOUND"

	// CodeStoreUnavailable: a store cannot be opened or created.
	CodeStoreUnavailable = "ERR_STORE_UNAVAILABLE"

	// CodeMalformedRecord: a stored structured field failed to
	// deserialize. Non-fatal; the field degrades to its default.
	CodeMalformedRecord = "ERR_MALFORMED_RECORD"

	// CodeInvalidQuery: a free-text query failed to parse.
	CodeInvalidQuery = "ERR_INVALID_QUERY"

	// CodeUnknownCollection: a collection name is not present in the
	// registry.
	CodeUnknownCollection = "ERR_UNKNOWN_COLLECTION"
)

// Error is the structured error type for obsidx.
type Error struct {
	// Code is the taxonomy code (e.g. ERR_STORE_UNAVAILABLE).
	Code string

	// Message is the human-readable message.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, enabling errors.Is with sentinel values.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates an Error with the given code and message.
func New(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Newf creates an Error with a formatted message.
func Newf(code string, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// StoreUnavailable wraps a store open/create failure.
func StoreUnavailable(message string, cause error) *Error {
	return New(CodeStoreUnavailable, message, cause)
}

// InvalidQuery wraps a query parse failure.
func InvalidQuery(message string, cause error) *Error {
	return New(CodeInvalidQuery, message, cause)
}

// UnknownCollection reports a name missing from the registry.
func UnknownCollection(name string) *Error {
	return Newf(CodeUnknownCollection, "unknown collection %q", name)
}

// Code extracts the taxonomy code from an error chain.
// Returns empty string for non-obsidx errors.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given taxonomy code.
func IsCode(err error, code string) bool {
	return Code(err) == code
}
