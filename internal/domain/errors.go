package domain

import (
	"errors"
	"fmt"
)

// Failure categories surfaced to callers. These are the stable strings
// carried in error responses and batch items.
const (
	CategoryInputError        = "input_error"
	CategoryEngineUnavailable = "engine_unavailable"
	CategoryEngineTimeout     = "engine_timeout"
	CategoryMalformedJSON     = "malformed_json"
	CategorySchemaViolation   = "schema_violation"
	CategorySemanticViolation = "semantic_violation"
	CategoryInternalError     = "internal_error"
)

// Common pipeline errors.
var (
	// ErrEmptyWord indicates the request word was empty after trimming.
	ErrEmptyWord = errors.New("word cannot be empty")

	// ErrWordTooLong indicates the request word exceeds the length bound.
	ErrWordTooLong = errors.New("word exceeds maximum length")

	// ErrWordControlChars indicates the request word contains control characters.
	ErrWordControlChars = errors.New("word contains control characters")

	// ErrBatchTooLarge indicates a batch exceeds the configured maximum size.
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")

	// ErrBatchEmpty indicates a batch request carried no words.
	ErrBatchEmpty = errors.New("batch cannot be empty")
)

// InputError marks a request that was rejected before any engine call.
type InputError struct {
	// Field names the offending input ("word", "words").
	Field string
	// Err is the underlying rejection reason.
	Err error
}

// Error implements the error interface for InputError.
func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input %q: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *InputError) Unwrap() error { return e.Err }

// NewInputError wraps a rejection reason with the offending field name.
func NewInputError(field string, err error) *InputError {
	return &InputError{Field: field, Err: err}
}

// EngineFailureKind classifies a failure reported by the inference engine.
type EngineFailureKind int

const (
	// EngineTimeout means the call exceeded its deadline. Treated as a
	// content-layer failure and retried.
	EngineTimeout EngineFailureKind = iota
	// EngineUnavailable means the engine itself could not serve the
	// call. Fails the pipeline immediately; retrying would mask an
	// infrastructure problem.
	EngineUnavailable
	// EngineAborted means the call was cancelled cooperatively.
	EngineAborted
)

// String returns the lower-case name of the failure kind.
func (k EngineFailureKind) String() string {
	switch k {
	case EngineTimeout:
		return "timeout"
	case EngineUnavailable:
		return "unavailable"
	case EngineAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// EngineError is the normalized failure returned by engine adapters.
type EngineError struct {
	// Kind classifies the failure for retry policy decisions.
	Kind EngineFailureKind
	// Backend identifies the adapter that produced the failure.
	Backend string
	// Err is the underlying transport or API error.
	Err error
}

// Error implements the error interface for EngineError.
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s: %s: %v", e.Backend, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error { return e.Err }

// NewEngineError builds an EngineError for the given adapter and kind.
func NewEngineError(backend string, kind EngineFailureKind, err error) *EngineError {
	return &EngineError{Kind: kind, Backend: backend, Err: err}
}

// AsEngineError extracts an EngineError from an error chain.
func AsEngineError(err error) (*EngineError, bool) {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}
