package domain

import "errors"

var (
	// ErrMissingMapping is returned when a prerequisite mapping (usually the conversation) has not been created yet
	ErrMissingMapping = errors.New("prerequisite mapping missing")

	// ErrInvalidEnum is returned when a constrained value is outside its allowed set
	ErrInvalidEnum = errors.New("invalid enum value")

	// ErrValidation is returned when a payload fails validation
	ErrValidation = errors.New("validation failed")

	// ErrConsentRequired is returned when an operation needs a valid consent that the contact has not given
	ErrConsentRequired = errors.New("valid consent required")

	// ErrConsentConflict is returned when granting a consent while an active one already exists
	ErrConsentConflict = errors.New("active consent already exists")

	// ErrConsentNotFound is returned when withdrawing a consent that is not active
	ErrConsentNotFound = errors.New("active consent not found")

	// ErrInvalidSignature is returned when a webhook signature does not match
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrStaleWebhook is returned when a webhook timestamp falls outside the tolerance window
	ErrStaleWebhook = errors.New("stale webhook timestamp")

	// ErrUnsupportedEvent is returned for webhook events the bridge does not process
	ErrUnsupportedEvent = errors.New("unsupported webhook event")

	// ErrInvalidToken is returned when an export download token does not verify
	ErrInvalidToken = errors.New("invalid download token")

	// ErrExpiredToken is returned when an export download link is past its lifetime
	ErrExpiredToken = errors.New("download link expired")

	// ErrDeadLetterNotFound is returned when a dead-letter entry does not exist
	ErrDeadLetterNotFound = errors.New("dead letter not found")
)
