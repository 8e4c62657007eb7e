package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode is the stable code surfaced to callers for a failed operation
type ErrorCode string

const (
	ErrorCodeBadRequest          ErrorCode = "BAD_REQUEST"
	ErrorCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrorCodeForbidden           ErrorCode = "FORBIDDEN"
	ErrorCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrorCodeConflict            ErrorCode = "CONFLICT"
	ErrorCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrorCodeRateLimitExceeded   ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrorCodeInternalServerError ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrorCodeBadGateway          ErrorCode = "BAD_GATEWAY"
	ErrorCodeServiceUnavailable  ErrorCode = "SERVICE_UNAVAILABLE"
	ErrorCodeUnknown             ErrorCode = "UNKNOWN_ERROR"
)

// CodeForStatus maps an HTTP status to an error code. A nil status means the
// request never produced a response (network or connect failure).
func CodeForStatus(status *int) ErrorCode {
	if status == nil {
		return ErrorCodeUnknown
	}
	switch *status {
	case http.StatusBadRequest:
		return ErrorCodeBadRequest
	case http.StatusUnauthorized:
		return ErrorCodeUnauthorized
	case http.StatusForbidden:
		return ErrorCodeForbidden
	case http.StatusNotFound:
		return ErrorCodeNotFound
	case http.StatusConflict:
		return ErrorCodeConflict
	case http.StatusUnprocessableEntity:
		return ErrorCodeValidation
	case http.StatusTooManyRequests:
		return ErrorCodeRateLimitExceeded
	case http.StatusInternalServerError:
		return ErrorCodeInternalServerError
	case http.StatusBadGateway:
		return ErrorCodeBadGateway
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrorCodeServiceUnavailable
	}
	if *status >= 500 {
		return ErrorCodeInternalServerError
	}
	return ErrorCodeUnknown
}

// IsRetryableStatus reports whether a failure with the given status may succeed on retry
func IsRetryableStatus(status *int) bool {
	if status == nil {
		return true
	}
	return *status >= 500 || *status == http.StatusTooManyRequests
}

// UpstreamError is the single error type returned by every outbound API client
type UpstreamError struct {
	Upstream  string
	Operation string
	Status    *int
	Code      ErrorCode
	Attempt   int
	Message   string

	// RetryAfter is set on local rate limit rejections
	RetryAfter time.Duration
	// RemainingTime is set when the circuit breaker is open
	RemainingTime time.Duration

	// Retryability is normally derived from Status. Local guards (rate limiter
	// and circuit breaker) set it explicitly since they carry no status.
	retryable *bool
	cause     error
}

// NewUpstreamError builds an UpstreamError from an HTTP status (nil for network failures)
func NewUpstreamError(upstream, operation string, status *int, message string, cause error) *UpstreamError {
	return &UpstreamError{
		Upstream:  upstream,
		Operation: operation,
		Status:    status,
		Code:      CodeForStatus(status),
		Message:   message,
		cause:     cause,
	}
}

// NewRateLimitError builds the fail-fast error returned when the local limiter rejects a call
func NewRateLimitError(upstream, operation string, retryAfter time.Duration) *UpstreamError {
	retryable := true
	return &UpstreamError{
		Upstream:   upstream,
		Operation:  operation,
		Code:       ErrorCodeRateLimitExceeded,
		Message:    fmt.Sprintf("rate limit exceeded, retry after %ds", int(retryAfter.Seconds())),
		RetryAfter: retryAfter,
		retryable:  &retryable,
	}
}

// NewCircuitOpenError builds the fail-fast error returned when the circuit breaker is open
func NewCircuitOpenError(upstream, operation string, remaining time.Duration) *UpstreamError {
	retryable := true
	return &UpstreamError{
		Upstream:      upstream,
		Operation:     operation,
		Code:          ErrorCodeServiceUnavailable,
		Message:       fmt.Sprintf("circuit breaker open, retry in %ds", int(remaining.Seconds())),
		RemainingTime: remaining,
		retryable:     &retryable,
	}
}

// Error implements error
func (e *UpstreamError) Error() string {
	status := "none"
	if e.Status != nil {
		status = fmt.Sprintf("%d", *e.Status)
	}
	return fmt.Sprintf("%s %s failed (code=%s status=%s attempt=%d): %s",
		e.Upstream, e.Operation, e.Code, status, e.Attempt, e.Message)
}

// Unwrap returns the underlying transport error if any
func (e *UpstreamError) Unwrap() error {
	return e.cause
}

// Retryable reports whether the failure may succeed on retry
func (e *UpstreamError) Retryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	return IsRetryableStatus(e.Status)
}

// StatusCode returns the HTTP status or 0 when there was no response
func (e *UpstreamError) StatusCode() int {
	if e.Status == nil {
		return 0
	}
	return *e.Status
}

// AsUpstreamError unwraps err into an UpstreamError if it is one
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// IsTerminal reports whether an error must not be retried by the job scheduler:
// domain validation, consent violations and non-retryable upstream errors.
func IsTerminal(err error) bool {
	if err == nil {
		return false
	}
	if ue, ok := AsUpstreamError(err); ok {
		return !ue.Retryable()
	}
	return errors.Is(err, ErrInvalidEnum) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConsentRequired) ||
		errors.Is(err, ErrConsentConflict) ||
		errors.Is(err, ErrConsentNotFound) ||
		errors.Is(err, ErrUnsupportedEvent)
}

// ErrorCodeOf returns the error code for any error
func ErrorCodeOf(err error) ErrorCode {
	if ue, ok := AsUpstreamError(err); ok {
		return ue.Code
	}
	switch {
	case errors.Is(err, ErrInvalidEnum), errors.Is(err, ErrValidation):
		return ErrorCodeValidation
	case errors.Is(err, ErrConsentConflict):
		return ErrorCodeConflict
	case errors.Is(err, ErrConsentNotFound), errors.Is(err, ErrDeadLetterNotFound):
		return ErrorCodeNotFound
	case errors.Is(err, ErrConsentRequired):
		return ErrorCodeForbidden
	case errors.Is(err, ErrInvalidSignature), errors.Is(err, ErrStaleWebhook),
		errors.Is(err, ErrInvalidToken), errors.Is(err, ErrExpiredToken):
		return ErrorCodeUnauthorized
	}
	return ErrorCodeUnknown
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
