package executor

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/api/shared/dto"
	apierrors "github.com/feral-file/crm-bridge/internal/api/shared/errors"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/webhook"
)

func (e *executor) AcceptWebhook(ctx context.Context, req WebhookRequest) (*dto.WebhookAcceptedResponse, error) {
	now := e.Clock.Now().UTC()

	if !e.config.SkipSignature {
		if err := webhook.Verify(e.config.WebhookSecret, req.Signature, req.Timestamp, req.Body, now, e.config.WebhookTolerance); err != nil {
			logger.WarnCtx(ctx, "Rejected webhook signature",
				zap.String("ip_address", req.IPAddress),
				zap.Error(err))
			return nil, apierrors.NewUnauthorizedError("Invalid webhook signature", err.Error())
		}
	}

	env, eventType, err := webhook.ParseEnvelope(req.Body)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedEvent) {
			return ignored(env, err), nil
		}
		return nil, apierrors.NewValidationError(err.Error())
	}

	if err := validatePayload(eventType, req.Body); err != nil {
		if errors.Is(err, domain.ErrUnsupportedEvent) {
			return ignored(env, err), nil
		}
		return nil, apierrors.NewValidationError(err.Error())
	}

	job := &webhook.Job{
		WebhookID:  webhook.WebhookID(eventType, string(env.ID), req.Body),
		EventType:  eventType,
		Payload:    req.Body,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
		ReceivedAt: now,
	}
	if err := e.Publisher.PublishJob(ctx, job); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("webhook_id", job.WebhookID),
			zap.String("event_type", string(eventType)))
		return nil, apierrors.NewServiceError("Failed to queue webhook")
	}

	logger.InfoCtx(ctx, "Webhook queued",
		zap.String("webhook_id", job.WebhookID),
		zap.String("event_type", string(eventType)))

	return &dto.WebhookAcceptedResponse{
		Success:   true,
		Status:    dto.WebhookStatusQueued,
		WebhookID: job.WebhookID,
		Event:     eventType,
	}, nil
}

// validatePayload decodes the body of a supported event so malformed deliveries
// are rejected at intake instead of in the handler
func validatePayload(eventType domain.EventType, body []byte) error {
	switch eventType {
	case domain.EventTypeConversationCreated, domain.EventTypeContactCreated:
		_, err := webhook.ConversationPayload(eventType, body)
		return err
	case domain.EventTypeMessageCreated:
		var p webhook.MessageCreated
		if err := webhook.Decode(body, &p); err != nil {
			return err
		}
		if _, err := domain.NewMessageType(string(p.MessageType)); err != nil {
			return err
		}
		return nil
	case domain.EventTypeConversationStatusChanged:
		var p webhook.StatusChanged
		if err := webhook.Decode(body, &p); err != nil {
			return err
		}
		if _, err := domain.NewConversationStatus(p.Status); err != nil {
			return err
		}
		return nil
	}
	return domain.ErrUnsupportedEvent
}

func ignored(env *webhook.Envelope, reason error) *dto.WebhookAcceptedResponse {
	resp := &dto.WebhookAcceptedResponse{
		Success: true,
		Status:  dto.WebhookStatusIgnored,
		Reason:  reason.Error(),
	}
	if env != nil {
		resp.WebhookID = string(env.ID)
	}
	return resp
}
