package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/audit"
	"github.com/feral-file/crm-bridge/internal/consent"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/export"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/providers/chatwoot"
	"github.com/feral-file/crm-bridge/internal/providers/krayin"
	"github.com/feral-file/crm-bridge/internal/store"
	"github.com/feral-file/crm-bridge/internal/store/schema"
	"github.com/feral-file/crm-bridge/internal/webhook"
)

// Executor defines the interface for executing activities
//
//go:generate mockgen -source=executor.go -destination=../mocks/executor_core.go -package=mocks -mock_names=Executor=MockCoreExecutor
type Executor interface {
	// =============================================================================
	// Webhook handlers
	// =============================================================================

	// HandleConversationCreated creates the CRM lead and the contact/conversation mappings.
	// A contact that is already mapped only gets the conversation mapping.
	HandleConversationCreated(ctx context.Context, job webhook.Job) (*HandleResult, error)

	// HandleMessageCreated records a message as a CRM activity on the conversation's lead.
	// A message whose conversation is not mapped yet is dead-lettered.
	HandleMessageCreated(ctx context.Context, job webhook.Job) (*HandleResult, error)

	// HandleConversationStatusChanged moves the lead to the stage of the new status.
	// A status change whose conversation is not mapped yet is dead-lettered.
	HandleConversationStatusChanged(ctx context.Context, job webhook.Job) (*HandleResult, error)

	// DeadLetterWebhook persists a webhook job that exhausted its attempts
	DeadLetterWebhook(ctx context.Context, job webhook.Job, errorMessage string, attempts int) (uint64, error)

	// =============================================================================
	// Audit
	// =============================================================================

	// PersistAuditLog writes an audit entry. Writing the same event twice is a no-op.
	PersistAuditLog(ctx context.Context, entry audit.Entry) error

	// DeadLetterAudit persists an audit entry that could not be written
	DeadLetterAudit(ctx context.Context, entry audit.Entry, errorMessage string, attempts int) (uint64, error)

	// PurgeAuditLogs removes audit logs created before the given time
	PurgeAuditLogs(ctx context.Context, before time.Time) (int64, error)

	// =============================================================================
	// LGPD
	// =============================================================================

	// ExportContactData collects everything held about a contact, stores it and returns a signed link
	ExportContactData(ctx context.Context, req DataRequest) (*ExportResult, error)

	// DeadLetterExport persists an export request that exhausted its attempts
	DeadLetterExport(ctx context.Context, req DataRequest, errorMessage string, attempts int) (uint64, error)

	// EraseContactData removes every row tied to a contact
	EraseContactData(ctx context.Context, req DataRequest) (*store.ErasureResult, error)

	// DeadLetterDeletion persists an erasure request that exhausted its attempts
	DeadLetterDeletion(ctx context.Context, req DataRequest, errorMessage string, attempts int) (uint64, error)
}

// Outcome describes what a webhook handler did
type Outcome string

const (
	// OutcomeApplied means the CRM and the mappings were updated
	OutcomeApplied Outcome = "applied"
	// OutcomeDuplicate means the webhook had already been applied
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeDeadLettered means a prerequisite was missing and the job was parked
	OutcomeDeadLettered Outcome = "dead_lettered"
)

// HandleResult is returned by the webhook handler activities
type HandleResult struct {
	Outcome        Outcome `json:"outcome"`
	TargetModel    string  `json:"target_model"`
	TargetID       string  `json:"target_id"`
	LeadID         int64   `json:"lead_id,omitempty"`
	ActivityID     int64   `json:"activity_id,omitempty"`
	StageName      string  `json:"stage_name,omitempty"`
	DeadLetterID   uint64  `json:"dead_letter_id,omitempty"`
	MissingMapping string  `json:"missing_mapping,omitempty"`
}

// DataRequest is a data subject request (export or erasure)
type DataRequest struct {
	RequestID string  `json:"request_id"`
	ContactID int64   `json:"contact_id"`
	ActorID   *string `json:"actor_id,omitempty"`
	IPAddress string  `json:"ip_address,omitempty"`
	UserAgent string  `json:"user_agent,omitempty"`
}

// ExportResult is the outcome of an export request
type ExportResult struct {
	Filename string      `json:"filename"`
	Link     export.Link `json:"link"`
}

// LeadDefaults are the CRM ids applied to every lead the bridge creates
type LeadDefaults struct {
	PipelineID   int
	StageID      int
	LeadSourceID int
	LeadTypeID   int
	UserID       int
}

// executor is the concrete implementation of Executor
type executor struct {
	store    store.Store
	krayin   krayin.Client
	chatwoot chatwoot.Client
	consent  consent.Service
	archive  *export.Archive
	signer   *export.Signer
	json     adapter.JSON
	clock    adapter.Clock
	defaults LeadDefaults
}

// NewExecutor creates a new executor instance
func NewExecutor(
	store store.Store,
	krayinClient krayin.Client,
	chatwootClient chatwoot.Client,
	consentService consent.Service,
	archive *export.Archive,
	signer *export.Signer,
	jsonAdapter adapter.JSON,
	clock adapter.Clock,
	defaults LeadDefaults,
) Executor {
	return &executor{
		store:    store,
		krayin:   krayinClient,
		chatwoot: chatwootClient,
		consent:  consentService,
		archive:  archive,
		signer:   signer,
		json:     jsonAdapter,
		clock:    clock,
		defaults: defaults,
	}
}

// terminal reports whether retrying err cannot succeed
func terminal(err error) bool {
	if ue, ok := domain.AsUpstreamError(err); ok {
		return !ue.Retryable()
	}
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrInvalidEnum) ||
		errors.Is(err, domain.ErrUnsupportedEvent) ||
		errors.Is(err, domain.ErrConsentRequired) ||
		errors.Is(err, domain.ErrConsentConflict) ||
		errors.Is(err, domain.ErrConsentNotFound)
}

// activityError marks terminal errors non-retryable so the scheduler dead-letters them at once
func activityError(err error) error {
	if err == nil {
		return nil
	}
	if terminal(err) {
		return temporal.NewNonRetryableApplicationError(err.Error(), string(domain.ErrorCodeOf(err)), err)
	}
	return err
}

// deadLetter persists a failed job into the table of its kind
func (e *executor) deadLetter(ctx context.Context, kind domain.JobKind, entry *schema.DeadLetter) (uint64, error) {
	entry.FailedAt = e.clock.Now()
	if err := e.store.CreateDeadLetter(ctx, kind, entry); err != nil {
		return 0, fmt.Errorf("failed to dead-letter %s job %s: %w", kind, entry.JobID, err)
	}

	logger.CriticalCtx(ctx, fmt.Errorf("%s job %s dead-lettered: %s", kind, entry.JobID, entry.ErrorMessage),
		zap.String("kind", string(kind)),
		zap.String("job_id", entry.JobID),
		zap.String("event_type", entry.EventType),
		zap.Int("attempts", entry.Attempts),
		zap.Uint64("dead_letter_id", entry.ID))

	return entry.ID, nil
}

func (e *executor) jobDeadLetter(job webhook.Job, errorMessage string, attempts int) *schema.DeadLetter {
	return &schema.DeadLetter{
		JobID:        job.WebhookID,
		EventType:    string(job.EventType),
		Payload:      datatypes.JSON(job.Payload),
		ErrorMessage: errorMessage,
		Attempts:     attempts,
		IPAddress:    job.IPAddress,
		UserAgent:    job.UserAgent,
	}
}

// DeadLetterWebhook persists a webhook job that exhausted its attempts
func (e *executor) DeadLetterWebhook(ctx context.Context, job webhook.Job, errorMessage string, attempts int) (uint64, error) {
	return e.deadLetter(ctx, domain.JobKindWebhook, e.jobDeadLetter(job, errorMessage, attempts))
}

// PersistAuditLog writes an audit entry
func (e *executor) PersistAuditLog(ctx context.Context, entry audit.Entry) error {
	row, err := entry.ToSchema(e.json)
	if err != nil {
		return temporal.NewNonRetryableApplicationError(err.Error(), string(domain.ErrorCodeValidation), err)
	}
	if err := e.store.CreateAuditLog(ctx, row); err != nil {
		return fmt.Errorf("failed to persist audit log: %w", err)
	}
	return nil
}

// DeadLetterAudit persists an audit entry that could not be written
func (e *executor) DeadLetterAudit(ctx context.Context, entry audit.Entry, errorMessage string, attempts int) (uint64, error) {
	payload, err := e.json.Marshal(entry)
	if err != nil {
		return 0, err
	}
	return e.deadLetter(ctx, domain.JobKindAudit, &schema.DeadLetter{
		JobID:        entry.EventID,
		EventType:    entry.Action,
		Payload:      datatypes.JSON(payload),
		ErrorMessage: errorMessage,
		Attempts:     attempts,
		IPAddress:    entry.IPAddress,
		UserAgent:    entry.UserAgent,
	})
}

// PurgeAuditLogs removes audit logs created before the given time
func (e *executor) PurgeAuditLogs(ctx context.Context, before time.Time) (int64, error) {
	deleted, err := e.store.DeleteAuditLogsBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit logs: %w", err)
	}
	logger.InfoCtx(ctx, "Purged audit logs",
		zap.Time("before", before),
		zap.Int64("deleted", deleted))
	return deleted, nil
}

func (e *executor) requestDeadLetter(kind domain.JobKind, req DataRequest, errorMessage string, attempts int) (*schema.DeadLetter, error) {
	payload, err := e.json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return &schema.DeadLetter{
		JobID:        req.RequestID,
		EventType:    string(kind),
		Payload:      datatypes.JSON(payload),
		ErrorMessage: errorMessage,
		Attempts:     attempts,
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
	}, nil
}

// DeadLetterExport persists an export request that exhausted its attempts
func (e *executor) DeadLetterExport(ctx context.Context, req DataRequest, errorMessage string, attempts int) (uint64, error) {
	entry, err := e.requestDeadLetter(domain.JobKindDataExport, req, errorMessage, attempts)
	if err != nil {
		return 0, err
	}
	return e.deadLetter(ctx, domain.JobKindDataExport, entry)
}

// DeadLetterDeletion persists an erasure request that exhausted its attempts
func (e *executor) DeadLetterDeletion(ctx context.Context, req DataRequest, errorMessage string, attempts int) (uint64, error) {
	entry, err := e.requestDeadLetter(domain.JobKindDataDeletion, req, errorMessage, attempts)
	if err != nil {
		return 0, err
	}
	return e.deadLetter(ctx, domain.JobKindDataDeletion, entry)
}
