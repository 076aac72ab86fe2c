// Package errors provides standardized error handling for the enrichment pipelines.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeRateLimited         ErrorCode = "RATE_LIMITED"
	ErrCodeGenerationFailed    ErrorCode = "GENERATION_FAILED"
	ErrCodeGenerationTimeout   ErrorCode = "GENERATION_TIMEOUT"
	ErrCodeMalformedOutput     ErrorCode = "MALFORMED_OUTPUT"
	ErrCodeCacheUnavailable    ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeContextGatherFailed ErrorCode = "CONTEXT_GATHER_FAILED"
	ErrCodeInvalidInput        ErrorCode = "INVALID_INPUT"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// PipelineError represents a structured application error.
type PipelineError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("PipelineError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewRateLimitedError creates a retryable upstream rate-limit error.
func NewRateLimitedError(details string) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeRateLimited,
		Message:   "Upstream API rate limit hit",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationFailedError creates a non-retryable generation error.
func NewGenerationFailedError(err error) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeGenerationFailed,
		Message:   "Model generation failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationTimeoutError creates a non-retryable timeout error.
func NewGenerationTimeoutError(details string) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeGenerationTimeout,
		Message:   "Model generation timed out",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedOutputError creates a non-retryable output validation error.
func NewMalformedOutputError(details string) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeMalformedOutput,
		Message:   "Model output failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError creates a cache degradation marker. It is never
// surfaced to callers; the pipelines log it and fall through.
func NewCacheUnavailableError(err error) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Cache unavailable, degrading to live generation",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewContextGatherFailedError creates a non-retryable gather error.
func NewContextGatherFailedError(err error) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeContextGatherFailed,
		Message:   "Website context gathering failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError creates a non-retryable caller input error.
func NewInvalidInputError(details string) *PipelineError {
	return &PipelineError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid pipeline input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification Helpers
// ==========================

// IsRetryable reports whether err carries a retryable pipeline error.
func IsRetryable(err error) bool {
	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		return pipelineErr.Retryable
	}
	return false
}

// CodeOf extracts the error code, defaulting to INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		return pipelineErr.Code
	}
	return ErrCodeInternal
}

// Normalize ensures we always have a PipelineError.
func Normalize(err error) *PipelineError {
	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		return pipelineErr
	}
	return &PipelineError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
