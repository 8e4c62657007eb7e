package executor

import (
	"context"

	"github.com/feral-file/crm-bridge/internal/api/shared/dto"
	apierrors "github.com/feral-file/crm-bridge/internal/api/shared/errors"
	"github.com/feral-file/crm-bridge/internal/consent"
	"github.com/feral-file/crm-bridge/internal/domain"
)

func (e *executor) ListConsents(ctx context.Context, contactID int64) (*dto.ConsentListResponse, error) {
	consents, err := e.Consent.List(ctx, contactID)
	if err != nil {
		return nil, apierrors.FromError(err, "Failed to list consents")
	}
	if consents == nil {
		consents = []consent.Consent{}
	}
	return &dto.ConsentListResponse{
		Success:   true,
		ContactID: contactID,
		Consents:  consents,
	}, nil
}

func (e *executor) CheckConsent(ctx context.Context, contactID int64, consentType string) (*dto.ConsentValidityResponse, error) {
	ct, err := domain.NewConsentType(consentType)
	if err != nil {
		return nil, apierrors.NewValidationError(err.Error())
	}
	valid, err := e.Consent.HasValidConsent(ctx, contactID, ct)
	if err != nil {
		return nil, apierrors.FromError(err, "Failed to check consent")
	}
	return &dto.ConsentValidityResponse{
		Success:     true,
		ContactID:   contactID,
		ConsentType: ct,
		Valid:       valid,
	}, nil
}

func (e *executor) GrantConsent(ctx context.Context, contactID int64, req dto.GrantConsentRequest, actor Actor) (*dto.ConsentResponse, error) {
	granted, err := e.Consent.Grant(ctx, consent.GrantInput{
		ContactID:   contactID,
		ConsentType: req.ConsentType,
		Source:      req.Source,
		Actor:       actor,
	})
	if err != nil {
		return nil, apierrors.FromError(err, "Failed to grant consent")
	}
	return &dto.ConsentResponse{Success: true, Consent: *granted}, nil
}

func (e *executor) WithdrawConsent(ctx context.Context, contactID int64, consentType string, reason string, actor Actor) (*dto.ConsentResponse, error) {
	if _, err := domain.NewConsentType(consentType); err != nil {
		return nil, apierrors.NewValidationError(err.Error())
	}
	withdrawn, err := e.Consent.Withdraw(ctx, consent.WithdrawInput{
		ContactID:   contactID,
		ConsentType: consentType,
		Reason:      reason,
		Actor:       actor,
	})
	if err != nil {
		return nil, apierrors.FromError(err, "Failed to withdraw consent")
	}
	return &dto.ConsentResponse{Success: true, Consent: *withdrawn}, nil
}
