package dto

import (
	"fmt"
	"strings"

	"github.com/feral-file/crm-bridge/internal/api/shared/constants"
	apierrors "github.com/feral-file/crm-bridge/internal/api/shared/errors"
	"github.com/feral-file/crm-bridge/internal/domain"
)

// GrantConsentRequest represents the request body for granting a consent
type GrantConsentRequest struct {
	ConsentType string `json:"consent_type"`
	Source      string `json:"source"`
}

// Validate validates the request body
func (r *GrantConsentRequest) Validate() error {
	if _, err := domain.NewConsentType(r.ConsentType); err != nil {
		return apierrors.NewValidationError(err.Error())
	}
	if len(r.Source) > 64 {
		return apierrors.NewValidationError("source must be at most 64 characters")
	}
	return nil
}

// WithdrawConsentRequest represents the optional request body for withdrawing a consent
type WithdrawConsentRequest struct {
	Reason string `json:"reason"`
}

// Validate validates the request body
func (r *WithdrawConsentRequest) Validate() error {
	if len(r.Reason) > 1000 {
		return apierrors.NewValidationError("reason must be at most 1000 characters")
	}
	return nil
}

// BulkRetryRequest represents the request body for re-dispatching several dead letters
type BulkRetryRequest struct {
	IDs []uint64 `json:"ids"`
}

// Validate validates the request body
func (r *BulkRetryRequest) Validate() error {
	if len(r.IDs) == 0 {
		return apierrors.NewValidationError("ids is required")
	}
	if len(r.IDs) > constants.MAX_BULK_RETRY_IDS {
		return apierrors.NewValidationError(fmt.Sprintf("maximum %d ids allowed", constants.MAX_BULK_RETRY_IDS))
	}
	seen := make(map[uint64]bool, len(r.IDs))
	for _, id := range r.IDs {
		if id == 0 {
			return apierrors.NewValidationError("ids must be positive")
		}
		if seen[id] {
			return apierrors.NewValidationError(fmt.Sprintf("duplicate id: %d", id))
		}
		seen[id] = true
	}
	return nil
}

// ParseJobKind maps the dead-letter path segment to its job kind
func ParseJobKind(segment string) (domain.JobKind, error) {
	switch strings.ToLower(segment) {
	case "webhooks":
		return domain.JobKindWebhook, nil
	case "exports":
		return domain.JobKindDataExport, nil
	case "deletions":
		return domain.JobKindDataDeletion, nil
	case "audit":
		return domain.JobKindAudit, nil
	}
	return "", apierrors.NewNotFoundError("Unknown dead-letter queue", segment)
}
