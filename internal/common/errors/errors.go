// Package errors provides standardized error handling for the QA pipeline.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// The only error that ever crosses the pipeline boundary.
	ErrCodeEmptyQuery ErrorCode = "EMPTY_QUERY"

	// Upstream LLM / backend failures. These never propagate; each stage degrades
	// to a well-formed response and the code survives only in logs and metrics.
	ErrCodeUpstreamTimeout           ErrorCode = "UPSTREAM_TIMEOUT"
	ErrCodeUpstreamMalformedResponse ErrorCode = "UPSTREAM_MALFORMED_RESPONSE"
	ErrCodeBackendUnavailable        ErrorCode = "BACKEND_UNAVAILABLE"
	ErrCodeNotFound                  ErrorCode = "NOT_FOUND"

	// Intentional, non-error outcome of the REJECT strategy.
	ErrCodeSecurityRejection ErrorCode = "SECURITY_REJECTION"

	ErrCodeSQLValidationFailed ErrorCode = "SQL_VALIDATION_FAILED"
	ErrCodeCacheUnavailable    ErrorCode = "CACHE_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is allows errors.Is matching by code against another *StandardError.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	return ok && t.Code == e.Code
}

// ==========================
// 2. Error Constructors
// ==========================

// NewEmptyQueryError creates the single caller-visible input error.
func NewEmptyQueryError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyQuery,
		Message:   "Query is empty or whitespace only",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

