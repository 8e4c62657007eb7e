package store

import (
	"context"
	"time"

	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/store/schema"
)

// StatusChangeInput is the input for ApplyStatusChange
type StatusChangeInput struct {
	WebhookID      string
	ConversationID int64
	LeadID         int64
	PreviousStatus *domain.ConversationStatus
	NewStatus      domain.ConversationStatus
	StageName      string
	StageID        *int64
	ChangedAt      time.Time
}

// DeadLetterFilter filters dead-letter listings
type DeadLetterFilter struct {
	EventType string
	Limit     int
	Offset    int
}

// AuditLogFilter filters audit log listings
type AuditLogFilter struct {
	TargetModel string
	TargetID    string
	Action      string
	Limit       int
	Offset      int
}

// ErasureResult counts the rows removed by EraseContactData
type ErasureResult struct {
	ContactMappings      int64 `json:"contact_mappings"`
	ConversationMappings int64 `json:"conversation_mappings"`
	ActivityMappings     int64 `json:"activity_mappings"`
	StageChangeLogs      int64 `json:"stage_change_logs"`
	ConsentRecords       int64 `json:"consent_records"`
	AuditLogs            int64 `json:"audit_logs"`
}

// ContactData is everything the bridge holds about one data subject
type ContactData struct {
	ChatwootContactID int64                        `json:"chatwoot_contact_id"`
	ContactMapping    *schema.ContactMapping       `json:"contact_mapping"`
	Conversations     []schema.ConversationMapping `json:"conversations"`
	Activities        []schema.ActivityMapping     `json:"activities"`
	StageChanges      []schema.StageChangeLog      `json:"stage_changes"`
	Consents          []schema.ConsentRecord       `json:"consents"`
	AuditLogs         []schema.AuditLog            `json:"audit_logs"`
}

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// Ping checks the database connection
	Ping(ctx context.Context) error

	// =========================================================================
	// Mappings
	// =========================================================================

	// GetContactMapping returns the mapping for a chat contact, nil if none
	GetContactMapping(ctx context.Context, chatwootContactID int64) (*schema.ContactMapping, error)
	// GetConversationMapping returns the mapping for a chat conversation, nil if none
	GetConversationMapping(ctx context.Context, chatwootConversationID int64) (*schema.ConversationMapping, error)
	// GetActivityMapping returns the mapping for a chat message, nil if none
	GetActivityMapping(ctx context.Context, chatwootMessageID int64) (*schema.ActivityMapping, error)
	// GetStageChangeLog returns the stage change recorded for a webhook, nil if none
	GetStageChangeLog(ctx context.Context, webhookID string, chatwootConversationID int64) (*schema.StageChangeLog, error)
	// CreateLeadMappings creates the contact and conversation mappings in one transaction.
	// When a concurrent delivery already created the contact mapping, the conversation is
	// attached to the existing lead and created is false. An existing mapping without a
	// lead takes the new lead and created is true.
	CreateLeadMappings(ctx context.Context, contact *schema.ContactMapping, conversation *schema.ConversationMapping) (created bool, err error)
	// EnsureConversationMapping creates the conversation mapping if it does not exist and returns the stored row
	EnsureConversationMapping(ctx context.Context, conversation *schema.ConversationMapping) (*schema.ConversationMapping, bool, error)
	// RecordActivity stores the activity mapping and bumps the conversation counters in one transaction.
	// Returns false without changes when the message was already recorded.
	RecordActivity(ctx context.Context, activity *schema.ActivityMapping, occurredAt time.Time) (bool, error)
	// ApplyStatusChange appends the stage change log and updates the conversation status in one transaction.
	// Returns applied=false when the webhook was already applied.
	ApplyStatusChange(ctx context.Context, input StatusChangeInput) (*schema.ConversationMapping, bool, error)

	// =========================================================================
	// Consent
	// =========================================================================

	// GetActiveConsent returns the latest granted, non withdrawn consent, nil if none
	GetActiveConsent(ctx context.Context, chatwootContactID int64, consentType domain.ConsentType) (*schema.ConsentRecord, error)
	// ListConsents returns every consent record of a contact, newest first
	ListConsents(ctx context.Context, chatwootContactID int64) ([]schema.ConsentRecord, error)
	// GrantConsent stores a granted consent. Granted records older than validFrom are
	// marked expired first; a newer one yields domain.ErrConsentConflict.
	GrantConsent(ctx context.Context, record *schema.ConsentRecord, validFrom time.Time) error
	// WithdrawConsent withdraws the active consent granted after validFrom.
	// Returns domain.ErrConsentNotFound when there is none.
	WithdrawConsent(ctx context.Context, chatwootContactID int64, consentType domain.ConsentType, withdrawnAt time.Time, reason string, validFrom time.Time) (*schema.ConsentRecord, error)
	// ExpireConsent marks a consent record as expired
	ExpireConsent(ctx context.Context, id uint64, expiredAt time.Time) error

	// =========================================================================
	// Audit
	// =========================================================================

	// CreateAuditLog appends an audit log. Writing the same event id twice is a no-op.
	CreateAuditLog(ctx context.Context, log *schema.AuditLog) error
	// ListAuditLogs returns audit logs matching the filter, newest first
	ListAuditLogs(ctx context.Context, filter AuditLogFilter) ([]schema.AuditLog, int64, error)
	// DeleteAuditLogsBefore removes audit logs older than before (retention)
	DeleteAuditLogsBefore(ctx context.Context, before time.Time) (int64, error)

	// =========================================================================
	// Dead letters
	// =========================================================================

	// CreateDeadLetter persists a failed job into the table of its kind
	CreateDeadLetter(ctx context.Context, kind domain.JobKind, entry *schema.DeadLetter) error
	// ListDeadLetters lists failed jobs of a kind, newest first
	ListDeadLetters(ctx context.Context, kind domain.JobKind, filter DeadLetterFilter) ([]schema.DeadLetter, int64, error)
	// GetDeadLetter returns a failed job, nil if none
	GetDeadLetter(ctx context.Context, kind domain.JobKind, id uint64) (*schema.DeadLetter, error)
	// DeleteDeadLetter removes a failed job after it was re-dispatched
	DeleteDeadLetter(ctx context.Context, kind domain.JobKind, id uint64) (bool, error)

	// =========================================================================
	// LGPD
	// =========================================================================

	// CollectContactData gathers everything stored about a contact
	CollectContactData(ctx context.Context, chatwootContactID int64) (*ContactData, error)
	// EraseContactData removes every row tied to a contact in one transaction
	EraseContactData(ctx context.Context, chatwootContactID int64) (*ErasureResult, error)
}
