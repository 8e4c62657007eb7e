package workflows

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/export"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/providers/chatwoot"
	"github.com/feral-file/crm-bridge/internal/store"
)

// ExportContactData collects everything held about a contact, stores it and returns a signed link
func (e *executor) ExportContactData(ctx context.Context, req DataRequest) (*ExportResult, error) {
	if req.ContactID <= 0 {
		return nil, activityError(fmt.Errorf("%w: contact id is required", domain.ErrValidation))
	}

	data, err := e.store.CollectContactData(ctx, req.ContactID)
	if err != nil {
		return nil, fmt.Errorf("failed to collect contact data: %w", err)
	}

	profile, err := e.contactProfile(ctx, req.ContactID)
	if err != nil {
		return nil, activityError(err)
	}

	now := e.clock.Now()
	filename := export.Filename(req.ContactID, now)
	bundle := export.Bundle{
		GeneratedAt: now.UTC(),
		ContactID:   req.ContactID,
		Profile:     profile,
		Data:        data,
	}
	if err := e.archive.Put(ctx, filename, bundle); err != nil {
		return nil, fmt.Errorf("failed to store export bundle: %w", err)
	}

	link := e.signer.Sign(filename)
	logger.InfoCtx(ctx, "Contact data exported",
		zap.String("request_id", req.RequestID),
		zap.Int64("contact_id", req.ContactID),
		zap.String("file", filename),
		zap.Time("expires_at", link.ExpiresAt))

	return &ExportResult{Filename: filename, Link: link}, nil
}

// contactProfile fetches the chat profile of a contact. A contact the platform no longer knows has no profile.
func (e *executor) contactProfile(ctx context.Context, contactID int64) (*chatwoot.Contact, error) {
	if e.chatwoot == nil {
		return nil, nil
	}
	profile, err := e.chatwoot.GetContact(ctx, contactID)
	if err != nil {
		if ue, ok := domain.AsUpstreamError(err); ok && ue.Status != nil && *ue.Status == http.StatusNotFound {
			logger.InfoCtx(ctx, "Contact not found upstream, exporting without profile",
				zap.Int64("contact_id", contactID))
			return nil, nil
		}
		return nil, err
	}
	return profile, nil
}

// EraseContactData removes every row tied to a contact
func (e *executor) EraseContactData(ctx context.Context, req DataRequest) (*store.ErasureResult, error) {
	if req.ContactID <= 0 {
		return nil, activityError(fmt.Errorf("%w: contact id is required", domain.ErrValidation))
	}

	result, err := e.store.EraseContactData(ctx, req.ContactID)
	if err != nil {
		return nil, fmt.Errorf("failed to erase contact data: %w", err)
	}

	logger.InfoCtx(ctx, "Contact data erased",
		zap.String("request_id", req.RequestID),
		zap.Int64("contact_id", req.ContactID),
		zap.Int64("contact_mappings", result.ContactMappings),
		zap.Int64("conversation_mappings", result.ConversationMappings),
		zap.Int64("activity_mappings", result.ActivityMappings),
		zap.Int64("consent_records", result.ConsentRecords),
		zap.Int64("audit_logs", result.AuditLogs))

	return result, nil
}
