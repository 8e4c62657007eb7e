package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/feral-file/crm-bridge/internal/domain"
)

// APIError is the error envelope returned by every endpoint
type APIError struct {
	Success   bool             `json:"success"`
	Message   string           `json:"error"`
	Code      domain.ErrorCode `json:"error_code"`
	Details   string           `json:"details,omitempty"`
	Timestamp time.Time        `json:"timestamp"`

	// Status is the HTTP status the error is served with
	Status int `json:"-"`
}

func (e *APIError) Error() string {
	jsonErr, _ := json.Marshal(e)
	return string(jsonErr)
}

func newError(status int, code domain.ErrorCode, message string, details []string) *APIError {
	return &APIError{
		Success:   false,
		Message:   message,
		Code:      code,
		Details:   strings.Join(details, ", "),
		Timestamp: time.Now().UTC(),
		Status:    status,
	}
}

// Error constructors for common error types
func NewBadRequestError(message string, details ...string) *APIError {
	return newError(http.StatusBadRequest, domain.ErrorCodeBadRequest, message, details)
}

func NewNotFoundError(message string, details ...string) *APIError {
	return newError(http.StatusNotFound, domain.ErrorCodeNotFound, message, details)
}

func NewValidationError(details ...string) *APIError {
	return newError(http.StatusUnprocessableEntity, domain.ErrorCodeValidation, "Validation failed", details)
}

func NewUnauthorizedError(message string, details ...string) *APIError {
	return newError(http.StatusUnauthorized, domain.ErrorCodeUnauthorized, message, details)
}

func NewForbiddenError(message string, details ...string) *APIError {
	return newError(http.StatusForbidden, domain.ErrorCodeForbidden, message, details)
}

func NewConflictError(message string, details ...string) *APIError {
	return newError(http.StatusConflict, domain.ErrorCodeConflict, message, details)
}

func NewRateLimitError(message string, details ...string) *APIError {
	return newError(http.StatusTooManyRequests, domain.ErrorCodeRateLimitExceeded, message, details)
}

func NewInternalError(message string, details ...string) *APIError {
	return newError(http.StatusInternalServerError, domain.ErrorCodeInternalServerError, message, details)
}

func NewServiceError(message string, details ...string) *APIError {
	return newError(http.StatusServiceUnavailable, domain.ErrorCodeServiceUnavailable, message, details)
}

func NewBadGatewayError(message string, details ...string) *APIError {
	return newError(http.StatusBadGateway, domain.ErrorCodeBadGateway, message, details)
}

// FromError maps a domain or upstream error to its envelope. Unknown errors
// become internal errors carrying message and no internal detail.
func FromError(err error, message string) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	if ue, ok := domain.AsUpstreamError(err); ok {
		status := http.StatusBadGateway
		switch ue.Code {
		case domain.ErrorCodeRateLimitExceeded:
			status = http.StatusTooManyRequests
		case domain.ErrorCodeServiceUnavailable:
			status = http.StatusServiceUnavailable
		}
		return newError(status, ue.Code, message, []string{ue.Error()})
	}

	switch domain.ErrorCodeOf(err) {
	case domain.ErrorCodeValidation:
		return NewValidationError(err.Error())
	case domain.ErrorCodeConflict:
		return NewConflictError(message, err.Error())
	case domain.ErrorCodeNotFound:
		return NewNotFoundError(message, err.Error())
	case domain.ErrorCodeForbidden:
		return NewForbiddenError(message, err.Error())
	case domain.ErrorCodeUnauthorized:
		return NewUnauthorizedError(message, err.Error())
	}
	return NewInternalError(message)
}
