package workflows

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/providers/krayin"
	"github.com/feral-file/crm-bridge/internal/store"
	"github.com/feral-file/crm-bridge/internal/store/schema"
	"github.com/feral-file/crm-bridge/internal/webhook"
)

// krayinDateLayout is the datetime format the CRM accepts for activity schedules
const krayinDateLayout = "2006-01-02 15:04:05"

// AttributeKrayinLeadID is the contact custom attribute holding the CRM lead id
const AttributeKrayinLeadID = "krayin_lead_id"

func idempotencyKey(job webhook.Job) string {
	return fmt.Sprintf("chatwoot-%s-%s", job.EventType, job.WebhookID)
}

func attempts(job webhook.Job) int {
	if job.Attempt < 1 {
		return 1
	}
	return job.Attempt
}

// parkMissing dead-letters a job whose prerequisite mapping has not arrived yet
func (e *executor) parkMissing(ctx context.Context, job webhook.Job, targetModel string, targetID int64, missing string) (*HandleResult, error) {
	msg := fmt.Sprintf("%s: %s %d is not mapped", domain.ErrMissingMapping, missing, targetID)
	id, err := e.DeadLetterWebhook(ctx, job, msg, attempts(job))
	if err != nil {
		return nil, err
	}
	return &HandleResult{
		Outcome:        OutcomeDeadLettered,
		TargetModel:    targetModel,
		TargetID:       strconv.FormatInt(targetID, 10),
		DeadLetterID:   id,
		MissingMapping: missing,
	}, nil
}

// HandleConversationCreated creates the CRM lead and the contact/conversation mappings
func (e *executor) HandleConversationCreated(ctx context.Context, job webhook.Job) (*HandleResult, error) {
	p, err := webhook.ConversationPayload(job.EventType, job.Payload)
	if err != nil {
		return nil, activityError(err)
	}
	contact := p.ContactInfo()
	if contact == nil {
		return nil, activityError(fmt.Errorf("%w: conversation %d carries no contact", domain.ErrValidation, p.ID))
	}

	if err := e.consent.Require(ctx, contact.ID, domain.ConsentTypeDataProcessing); err != nil {
		return nil, activityError(err)
	}

	result := &HandleResult{
		TargetModel: domain.AuditTargetConversation,
		TargetID:    strconv.FormatInt(p.ID, 10),
	}

	// Known contact: attach the conversation to its lead without calling the CRM
	existing, err := e.store.GetContactMapping(ctx, contact.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact mapping: %w", err)
	}
	if existing != nil && existing.KrayinLeadID != nil {
		conversation, err := schema.NewConversationMapping(p.ID, &contact.ID, *existing.KrayinLeadID, p.Status)
		if err != nil {
			return nil, activityError(fmt.Errorf("%w: %v", domain.ErrValidation, err))
		}
		_, created, err := e.store.EnsureConversationMapping(ctx, conversation)
		if err != nil {
			return nil, fmt.Errorf("failed to ensure conversation mapping: %w", err)
		}

		result.LeadID = *existing.KrayinLeadID
		result.Outcome = OutcomeDuplicate
		if created {
			result.Outcome = OutcomeApplied
		}
		logger.InfoCtx(ctx, "Contact already mapped, conversation attached to existing lead",
			zap.Int64("contact_id", contact.ID),
			zap.Int64("conversation_id", p.ID),
			zap.Int64("lead_id", result.LeadID),
			zap.Bool("created", created))
		return result, nil
	}

	input := e.leadInput(job, p, contact)
	var personID *int64
	if existing != nil && existing.KrayinPersonID != nil {
		// Known person without a lead: link the new lead to it
		input.Person.ID = *existing.KrayinPersonID
		personID = existing.KrayinPersonID
	}
	lead, err := e.krayin.CreateLead(ctx, input)
	if err != nil {
		return nil, activityError(err)
	}
	if personID == nil {
		personID = lead.PersonID
	}

	contactMapping, err := schema.NewContactMapping(contact.ID, &lead.ID, personID)
	if err != nil {
		return nil, activityError(fmt.Errorf("%w: %v", domain.ErrValidation, err))
	}
	conversationMapping, err := schema.NewConversationMapping(p.ID, &contact.ID, lead.ID, p.Status)
	if err != nil {
		return nil, activityError(fmt.Errorf("%w: %v", domain.ErrValidation, err))
	}

	created, err := e.store.CreateLeadMappings(ctx, contactMapping, conversationMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create lead mappings: %w", err)
	}
	if !created {
		// A concurrent delivery mapped the contact first; the conversation now points at its lead
		logger.WarnCtx(ctx, "Contact was mapped concurrently, created lead is unused",
			zap.Int64("contact_id", contact.ID),
			zap.Int64("orphan_lead_id", lead.ID))
		stored, err := e.store.GetConversationMapping(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get conversation mapping: %w", err)
		}
		result.Outcome = OutcomeDuplicate
		if stored != nil {
			result.LeadID = stored.KrayinLeadID
		}
		return result, nil
	}

	e.writeBackLeadID(ctx, contact.ID, lead.ID)

	logger.InfoCtx(ctx, "Lead created for conversation",
		zap.Int64("contact_id", contact.ID),
		zap.Int64("conversation_id", p.ID),
		zap.Int64("lead_id", lead.ID))

	result.Outcome = OutcomeApplied
	result.LeadID = lead.ID
	return result, nil
}

func (e *executor) leadInput(job webhook.Job, p *webhook.ConversationCreated, contact *webhook.Contact) krayin.LeadInput {
	name := strings.TrimSpace(contact.Name)
	if name == "" {
		name = contact.Email
	}
	if name == "" {
		name = fmt.Sprintf("Chatwoot contact #%d", contact.ID)
	}

	person := krayin.PersonInput{Name: name}
	if contact.Email != "" {
		person.Emails = []krayin.Email{{Value: contact.Email, Label: "work"}}
	}
	if contact.PhoneNumber != "" {
		person.ContactNumbers = []krayin.ContactNumber{{Value: contact.PhoneNumber, Label: "work"}}
	}

	return krayin.LeadInput{
		Title:               "Chatwoot: " + name,
		Description:         fmt.Sprintf("Conversation #%d from inbox %d", p.ID, p.InboxID),
		LeadSourceID:        e.defaults.LeadSourceID,
		LeadTypeID:          e.defaults.LeadTypeID,
		UserID:              e.defaults.UserID,
		LeadPipelineID:      e.defaults.PipelineID,
		LeadPipelineStageID: e.defaults.StageID,
		Person:              person,
		CustomAttributes: map[string]interface{}{
			"source":                   "chatwoot",
			"chatwoot_contact_id":      contact.ID,
			"chatwoot_conversation_id": p.ID,
			"chatwoot_inbox_id":        p.InboxID,
		},
		IdempotencyKey: idempotencyKey(job),
	}
}

// writeBackLeadID stores the lead id on the contact. The mapping is already committed, so failures are only logged.
func (e *executor) writeBackLeadID(ctx context.Context, contactID, leadID int64) {
	if e.chatwoot == nil {
		return
	}
	if _, err := e.chatwoot.UpdateContactAttributes(ctx, contactID, map[string]interface{}{
		AttributeKrayinLeadID: leadID,
	}); err != nil {
		logger.WarnCtx(ctx, "Failed to write lead id back to contact",
			zap.Int64("contact_id", contactID),
			zap.Int64("lead_id", leadID),
			zap.Error(err))
	}
}

// HandleMessageCreated records a message as a CRM activity on the conversation's lead
func (e *executor) HandleMessageCreated(ctx context.Context, job webhook.Job) (*HandleResult, error) {
	var p webhook.MessageCreated
	if err := webhook.Decode(job.Payload, &p); err != nil {
		return nil, activityError(err)
	}
	conversationID := p.ConversationRef()
	if conversationID <= 0 {
		return nil, activityError(fmt.Errorf("%w: message %d carries no conversation", domain.ErrValidation, p.ID))
	}
	messageType, err := domain.NewMessageType(string(p.MessageType))
	if err != nil {
		return nil, activityError(err)
	}

	result := &HandleResult{
		TargetModel: domain.AuditTargetMessage,
		TargetID:    strconv.FormatInt(p.ID, 10),
	}

	recorded, err := e.store.GetActivityMapping(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity mapping: %w", err)
	}
	if recorded != nil {
		result.Outcome = OutcomeDuplicate
		result.LeadID = recorded.KrayinLeadID
		result.ActivityID = recorded.KrayinActivityID
		return result, nil
	}

	conversation, err := e.store.GetConversationMapping(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation mapping: %w", err)
	}
	if conversation == nil {
		logger.WarnCtx(ctx, "Message arrived before its conversation, dead-lettering",
			zap.Int64("message_id", p.ID),
			zap.Int64("conversation_id", conversationID))
		return e.parkMissing(ctx, job, domain.AuditTargetMessage, conversationID, "conversation")
	}

	if conversation.ChatwootContactID != nil {
		if err := e.consent.Require(ctx, *conversation.ChatwootContactID, domain.ConsentTypeDataProcessing); err != nil {
			return nil, activityError(err)
		}
	}

	occurredAt := p.CreatedAt.Time
	if occurredAt.IsZero() {
		occurredAt = job.ReceivedAt
	}

	activityType := domain.ActivityTypeFor(messageType)
	if p.Private {
		activityType = domain.ActivityTypeNote
	}

	activity, err := e.krayin.CreateActivity(ctx, krayin.ActivityInput{
		LeadID:         conversation.KrayinLeadID,
		Type:           activityType,
		Title:          activityTitle(messageType, p.Sender),
		Comment:        p.Content,
		ScheduleFrom:   occurredAt.UTC().Format(krayinDateLayout),
		ScheduleTo:     occurredAt.UTC().Format(krayinDateLayout),
		IsDone:         1,
		IdempotencyKey: idempotencyKey(job),
	})
	if err != nil {
		return nil, activityError(err)
	}

	mapping, err := schema.NewActivityMapping(p.ID, activity.ID, conversation.KrayinLeadID, conversationID, string(messageType))
	if err != nil {
		return nil, activityError(fmt.Errorf("%w: %v", domain.ErrValidation, err))
	}
	inserted, err := e.store.RecordActivity(ctx, mapping, occurredAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}

	result.LeadID = conversation.KrayinLeadID
	result.ActivityID = activity.ID
	result.Outcome = OutcomeApplied
	if !inserted {
		result.Outcome = OutcomeDuplicate
	}

	logger.InfoCtx(ctx, "Message synced as activity",
		zap.Int64("message_id", p.ID),
		zap.Int64("lead_id", conversation.KrayinLeadID),
		zap.Int64("activity_id", activity.ID),
		zap.String("activity_type", activityType),
		zap.Bool("inserted", inserted))

	return result, nil
}

func activityTitle(messageType domain.MessageType, sender *webhook.Sender) string {
	who := "unknown sender"
	if sender != nil && strings.TrimSpace(sender.Name) != "" {
		who = strings.TrimSpace(sender.Name)
	}
	switch messageType {
	case domain.MessageTypeIncoming:
		return "Incoming message from " + who
	case domain.MessageTypeOutgoing:
		return "Reply by " + who
	default:
		return "Conversation activity by " + who
	}
}

// HandleConversationStatusChanged moves the lead to the stage of the new status
func (e *executor) HandleConversationStatusChanged(ctx context.Context, job webhook.Job) (*HandleResult, error) {
	var p webhook.StatusChanged
	if err := webhook.Decode(job.Payload, &p); err != nil {
		return nil, activityError(err)
	}
	newStatus, err := domain.NewConversationStatus(p.Status)
	if err != nil {
		return nil, activityError(err)
	}
	var previous *domain.ConversationStatus
	if prev := p.Previous(); prev != "" {
		s, err := domain.NewConversationStatus(prev)
		if err != nil {
			return nil, activityError(err)
		}
		previous = &s
	}

	result := &HandleResult{
		TargetModel: domain.AuditTargetConversation,
		TargetID:    strconv.FormatInt(p.ID, 10),
		StageName:   domain.StageForStatus(newStatus),
	}

	applied, err := e.store.GetStageChangeLog(ctx, job.WebhookID, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stage change log: %w", err)
	}
	if applied != nil {
		result.Outcome = OutcomeDuplicate
		result.LeadID = applied.KrayinLeadID
		return result, nil
	}

	conversation, err := e.store.GetConversationMapping(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation mapping: %w", err)
	}
	if conversation == nil {
		logger.WarnCtx(ctx, "Status change arrived before its conversation, dead-lettering",
			zap.Int64("conversation_id", p.ID),
			zap.String("status", string(newStatus)))
		return e.parkMissing(ctx, job, domain.AuditTargetConversation, p.ID, "conversation")
	}

	stageID, err := e.krayin.ResolveStageID(ctx, int64(e.defaults.PipelineID), result.StageName)
	if err != nil {
		return nil, activityError(err)
	}
	if _, err := e.krayin.UpdateLeadStage(ctx, conversation.KrayinLeadID, stageID); err != nil {
		return nil, activityError(err)
	}

	changedAt := p.UpdatedAt.Time
	if changedAt.IsZero() {
		changedAt = job.ReceivedAt
	}
	if changedAt.IsZero() {
		changedAt = e.clock.Now()
	}

	_, ok, err := e.store.ApplyStatusChange(ctx, store.StatusChangeInput{
		WebhookID:      job.WebhookID,
		ConversationID: p.ID,
		LeadID:         conversation.KrayinLeadID,
		PreviousStatus: previous,
		NewStatus:      newStatus,
		StageName:      result.StageName,
		StageID:        &stageID,
		ChangedAt:      changedAt.In(time.UTC),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply status change: %w", err)
	}

	result.LeadID = conversation.KrayinLeadID
	result.Outcome = OutcomeApplied
	if !ok {
		result.Outcome = OutcomeDuplicate
	}

	logger.InfoCtx(ctx, "Lead stage updated",
		zap.Int64("conversation_id", p.ID),
		zap.Int64("lead_id", conversation.KrayinLeadID),
		zap.String("status", string(newStatus)),
		zap.String("stage", result.StageName),
		zap.Int64("stage_id", stageID))

	return result, nil
}
