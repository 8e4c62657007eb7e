package schema

import (
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/feral-file/crm-bridge/internal/domain"
)

// DeadLetter is the shared row shape of failed_webhooks, failed_data_deletions,
// failed_data_exports and failed_audit_logs. Rows are only removed by operator replay.
type DeadLetter struct {
	// ID is an auto-incrementing sequence number
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	// JobID is the webhook id or job id that failed
	JobID string `gorm:"column:job_id;not null;type:varchar(64);index" json:"job_id"`
	// EventType is the webhook event or job type
	EventType string `gorm:"column:event_type;not null;type:varchar(64)" json:"event_type"`
	// Payload is the original job payload
	Payload datatypes.JSON `gorm:"column:payload;not null;type:jsonb" json:"payload"`
	// ErrorMessage is the last error seen
	ErrorMessage string `gorm:"column:error_message;type:text" json:"error_message"`
	// Attempts is the number of attempts made before giving up
	Attempts int `gorm:"column:attempts;not null;default:0" json:"attempts"`
	// IPAddress is the requester address of the original job
	IPAddress string `gorm:"column:ip_address;type:varchar(64)" json:"ip_address,omitempty"`
	// UserAgent is the requester client of the original job
	UserAgent string `gorm:"column:user_agent;type:text" json:"user_agent,omitempty"`
	// FailedAt is the time the job was dead-lettered
	FailedAt time.Time `gorm:"column:failed_at;not null;type:timestamptz" json:"failed_at"`
	// CreatedAt is the timestamp when the row was inserted
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`
}

// DeadLetterTable returns the dead-letter table for a job kind
func DeadLetterTable(kind domain.JobKind) (string, error) {
	switch kind {
	case domain.JobKindWebhook:
		return "failed_webhooks", nil
	case domain.JobKindDataDeletion:
		return "failed_data_deletions", nil
	case domain.JobKindDataExport:
		return "failed_data_exports", nil
	case domain.JobKindAudit:
		return "failed_audit_logs", nil
	}
	return "", fmt.Errorf("%w: job kind %q", domain.ErrInvalidEnum, kind)
}
