package dto

import (
	"encoding/json"
	"time"

	"github.com/feral-file/crm-bridge/internal/consent"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/providers/insights"
)

// WebhookAcceptedResponse is returned when a webhook is queued or ignored
type WebhookAcceptedResponse struct {
	Success   bool             `json:"success"`
	Status    string           `json:"status"`
	WebhookID string           `json:"webhook_id,omitempty"`
	Event     domain.EventType `json:"event,omitempty"`
	Reason    string           `json:"reason,omitempty"`
}

const (
	WebhookStatusQueued  = "queued"
	WebhookStatusIgnored = "ignored"
)

// DeadLetterResponse represents a failed job
type DeadLetterResponse struct {
	ID           uint64          `json:"id"`
	Kind         domain.JobKind  `json:"kind"`
	JobID        string          `json:"job_id"`
	EventType    string          `json:"event_type"`
	Payload      json.RawMessage `json:"payload"`
	ErrorMessage string          `json:"error_message"`
	Attempts     int             `json:"attempts"`
	IPAddress    string          `json:"ip_address,omitempty"`
	UserAgent    string          `json:"user_agent,omitempty"`
	FailedAt     time.Time       `json:"failed_at"`
	CreatedAt    time.Time       `json:"created_at"`
}

// DeadLetterListResponse is a page of failed jobs
type DeadLetterListResponse struct {
	Success bool                 `json:"success"`
	Items   []DeadLetterResponse `json:"items"`
	Total   int64                `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

// RetryResult is the outcome of re-dispatching one dead letter
type RetryResult struct {
	DeadLetterID uint64 `json:"dead_letter_id"`
	WorkflowID   string `json:"workflow_id,omitempty"`
	Started      bool   `json:"started"`
	Deleted      bool   `json:"deleted"`
	Error        string `json:"error,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
}

// RetryResponse is returned by a single re-dispatch
type RetryResponse struct {
	Success bool `json:"success"`
	RetryResult
}

// BulkRetryResponse is returned by a bulk re-dispatch
type BulkRetryResponse struct {
	Success   bool          `json:"success"`
	Results   []RetryResult `json:"results"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
}

// ConsentResponse wraps one consent
type ConsentResponse struct {
	Success bool            `json:"success"`
	Consent consent.Consent `json:"consent"`
}

// ConsentListResponse lists the consents of a contact
type ConsentListResponse struct {
	Success   bool              `json:"success"`
	ContactID int64             `json:"contact_id"`
	Consents  []consent.Consent `json:"consents"`
}

// ConsentValidityResponse answers whether a contact holds a valid consent
type ConsentValidityResponse struct {
	Success     bool               `json:"success"`
	ContactID   int64              `json:"contact_id"`
	ConsentType domain.ConsentType `json:"consent_type"`
	Valid       bool               `json:"valid"`
}

// DataRequestResponse is returned when an export or erasure is started
type DataRequestResponse struct {
	Success    bool   `json:"success"`
	RequestID  string `json:"request_id"`
	ContactID  int64  `json:"contact_id"`
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
	StatusURL  string `json:"status_url,omitempty"`
}

// WorkflowStatusResponse represents the status of a Temporal workflow execution
type WorkflowStatusResponse struct {
	WorkflowID    string     `json:"workflow_id"`
	RunID         string     `json:"run_id"`
	Status        string     `json:"status"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	CloseTime     *time.Time `json:"close_time,omitempty"`
	ExecutionTime *uint64    `json:"execution_time_ms,omitempty"`
}

// ExportStatusResponse is the state of an export request and its link once done
type ExportStatusResponse struct {
	Success   bool   `json:"success"`
	RequestID string `json:"request_id"`
	WorkflowStatusResponse
	DownloadURL string     `json:"download_url,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// AuditLogResponse represents one audit record
type AuditLogResponse struct {
	EventID     string          `json:"event_id"`
	ActorID     *string         `json:"actor_id,omitempty"`
	Action      string          `json:"action"`
	TargetModel string          `json:"target_model"`
	TargetID    string          `json:"target_id"`
	Changes     json.RawMessage `json:"changes,omitempty"`
	IPAddress   string          `json:"ip_address,omitempty"`
	UserAgent   string          `json:"user_agent,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AuditLogListResponse is a page of audit records
type AuditLogListResponse struct {
	Success bool               `json:"success"`
	Items   []AuditLogResponse `json:"items"`
	Total   int64              `json:"total"`
	Limit   int                `json:"limit"`
	Offset  int                `json:"offset"`
}

// InsightsSummaryResponse wraps the reporting summary
type InsightsSummaryResponse struct {
	Success bool              `json:"success"`
	Since   time.Time         `json:"since"`
	Until   time.Time         `json:"until"`
	Summary *insights.Summary `json:"summary"`
}

// HealthResponse is the health check body
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}
