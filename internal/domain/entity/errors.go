package entity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrorCode identifies the failure class of a ServiceError.
// Codes are strings so they serialize naturally into result envelopes and logs.
type ErrorCode string

const (
	// CodeValidation is a configuration or caller mistake. Never retried.
	CodeValidation ErrorCode = "VALIDATION_ERROR"
	// CodeLLM is an unclassified upstream failure.
	CodeLLM ErrorCode = "LLM_ERROR"
	// CodeRateLimit means too many calls, locally or upstream. Honors RetryAfter.
	CodeRateLimit ErrorCode = "RATE_LIMIT"
	// CodeTimeout means an attempt exceeded its deadline or was aborted.
	CodeTimeout ErrorCode = "TIMEOUT"
	// CodeParse means the model output could not be recovered as JSON.
	CodeParse ErrorCode = "PARSE_ERROR"
	// CodeNetwork is a transport-level or 5xx failure.
	CodeNetwork ErrorCode = "NETWORK_ERROR"
	// CodeCache is a non-fatal cache failure. Logged only.
	CodeCache ErrorCode = "CACHE_ERROR"
)

// defaultRetryable is the retry classification used by NewServiceError.
var defaultRetryable = map[ErrorCode]bool{
	CodeValidation: false,
	CodeLLM:        false,
	CodeRateLimit:  true,
	CodeTimeout:    true,
	CodeParse:      true,
	CodeNetwork:    true,
	CodeCache:      false,
}

// ServiceError is a classified failure of the AI integration layer.
//
// A ServiceError is created at the point of classification and is never mutated
// afterward; the With* helpers return modified copies.
type ServiceError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	Details    map[string]any `json:"details,omitempty"`
	RetryAfter time.Duration  `json:"retry_after,omitempty"`

	// Err is the underlying cause, kept for errors.Is / errors.As.
	Err error `json:"-"`
}

// NewServiceError creates a ServiceError with the default retry classification for code.
func NewServiceError(code ErrorCode, message string) *ServiceError {
	return &ServiceError{
		Code:      code,
		Message:   message,
		Retryable: defaultRetryable[code],
	}
}

// WrapServiceError creates a ServiceError that wraps cause.
func WrapServiceError(code ErrorCode, message string, cause error) *ServiceError {
	e := NewServiceError(code, message)
	e.Err = cause
	return e
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a ServiceError with the same code.
// This lets callers write errors.Is(err, entity.NewServiceError(entity.CodeTimeout, "")).
func (e *ServiceError) Is(target error) bool {
	var t *ServiceError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithRetryable returns a copy with the retry classification overridden.
func (e *ServiceError) WithRetryable(retryable bool) *ServiceError {
	c := e.clone()
	c.Retryable = retryable
	return c
}

// WithRetryAfter returns a copy carrying a server-requested retry delay.
func (e *ServiceError) WithRetryAfter(d time.Duration) *ServiceError {
	c := e.clone()
	c.RetryAfter = d
	return c
}

// WithDetail returns a copy with an extra diagnostic detail attached.
func (e *ServiceError) WithDetail(key string, value any) *ServiceError {
	c := e.clone()
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	c.Details = details
	return c
}

func (e *ServiceError) clone() *ServiceError {
	c := *e
	return &c
}

// AsServiceError classifies err into a ServiceError.
// Errors that already carry a ServiceError in their chain are returned as-is;
// context errors become TIMEOUT; everything else becomes LLM_ERROR.
func AsServiceError(err error) *ServiceError {
	if err == nil {
		return nil
	}

	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return WrapServiceError(CodeTimeout, "request aborted", err)
	}

	return WrapServiceError(CodeLLM, "unclassified failure", err)
}

// IsRetryable reports whether err is a retryable ServiceError.
func IsRetryable(err error) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}
