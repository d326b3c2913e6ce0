package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrConfig       ErrorCode = "CONFIG_ERROR"

	// Benchmark specific errors
	ErrQuizNotFound ErrorCode = "QUIZ_NOT_FOUND"
	ErrRunNotFound  ErrorCode = "RUN_NOT_FOUND"
	ErrUnparseable  ErrorCode = "UNPARSEABLE_INPUT"

	// Provider error classifications. One code per actionable failure
	// class so operators can tell a bad API key from a deprecated model
	// name without reading provider-specific payloads.
	ErrProviderAuth        ErrorCode = "PROVIDER_AUTH_FAILED"
	ErrProviderForbidden   ErrorCode = "PROVIDER_FORBIDDEN"
	ErrProviderNotFound    ErrorCode = "PROVIDER_NOT_FOUND"
	ErrProviderRateLimited ErrorCode = "PROVIDER_RATE_LIMITED"
	ErrProviderBadRequest  ErrorCode = "PROVIDER_BAD_REQUEST"
	ErrProviderHTTP        ErrorCode = "PROVIDER_HTTP_ERROR"
	ErrProviderTransport   ErrorCode = "PROVIDER_TRANSPORT_ERROR"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(ErrNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(ErrInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(ErrInternal, message, err)
}

func NewConfigError(message string) *DomainError {
	return NewError(ErrConfig, message, nil)
}

func NewQuizNotFoundError(quizID string) *DomainError {
	return NewError(ErrQuizNotFound, fmt.Sprintf("Quiz not found: %s", quizID), nil)
}

func NewRunNotFoundError(runID string) *DomainError {
	return NewError(ErrRunNotFound, fmt.Sprintf("Run not found: %s", runID), nil)
}

func NewUnparseableError(message string, err error) *DomainError {
	return NewError(ErrUnparseable, message, err)
}

// ProviderError is the error returned by chat adapters. It carries the
// provider id, the model name, the HTTP status (0 for transport errors)
// and the raw provider error message, so the engine can record a
// human-actionable root cause without unwrapping chains by type name.
type ProviderError struct {
	Code     ErrorCode
	Provider string
	Model    string
	Status   int
	Message  string
	Hint     string
	Err      error
}

func (e *ProviderError) Error() string {
	base := fmt.Sprintf("%s: %s for model %q", e.Provider, e.describe(), e.Model)
	if e.Message != "" {
		base += ": " + e.Message
	} else if e.Err != nil {
		base += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		base += " (" + e.Hint + ")"
	}
	return base
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// RootCause returns a one-line summary suitable for a QAResult reason.
func (e *ProviderError) RootCause() string {
	return e.Error()
}

func (e *ProviderError) describe() string {
	switch e.Code {
	case ErrProviderAuth:
		return "authentication failed (HTTP 401)"
	case ErrProviderForbidden:
		return "access forbidden (HTTP 403)"
	case ErrProviderNotFound:
		return "model or endpoint not found (HTTP 404)"
	case ErrProviderRateLimited:
		return "rate limit exceeded (HTTP 429)"
	case ErrProviderBadRequest:
		return "malformed request (HTTP 400)"
	case ErrProviderTransport:
		return "transport error"
	default:
		if e.Status != 0 {
			return fmt.Sprintf("HTTP error %d", e.Status)
		}
		return "request failed"
	}
}

// Retryable reports whether the failure class is worth another attempt.
// Permanent errors (400/401/403/404) fail fast; only rate limits,
// server-side errors and transport failures are retried.
func (e *ProviderError) Retryable() bool {
	switch e.Code {
	case ErrProviderRateLimited, ErrProviderTransport:
		return true
	case ErrProviderHTTP:
		return e.Status >= 500
	default:
		return false
	}
}

// RootCause extracts a human-readable root cause from any error the
// adapter layer may surface.
func RootCause(err error) string {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.RootCause()
	}
	var derr *DomainError
	if errors.As(err, &derr) {
		return derr.Error()
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
