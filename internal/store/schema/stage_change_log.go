package schema

import (
	"time"

	"github.com/feral-file/crm-bridge/internal/domain"
)

// StageChangeLog represents the stage_change_logs table - append-only record of CRM stage moves.
// (webhook_id, chatwoot_conversation_id) is unique so a replayed status webhook is detected.
type StageChangeLog struct {
	// ID is an auto-incrementing sequence number
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// WebhookID is the id of the webhook that triggered the change
	WebhookID string `gorm:"column:webhook_id;not null;type:varchar(64);uniqueIndex:idx_stage_change_logs_webhook_conversation"`
	// ChatwootConversationID is the conversation whose status changed
	ChatwootConversationID int64 `gorm:"column:chatwoot_conversation_id;not null;uniqueIndex:idx_stage_change_logs_webhook_conversation"`
	// KrayinLeadID is the lead whose stage was updated
	KrayinLeadID int64 `gorm:"column:krayin_lead_id;not null"`
	// PreviousStatus is the status before the change, if known
	PreviousStatus *domain.ConversationStatus `gorm:"column:previous_status;type:varchar(20)"`
	// NewStatus is the status after the change
	NewStatus domain.ConversationStatus `gorm:"column:new_status;not null;type:varchar(20)"`
	// StageName is the CRM stage name the lead moved to
	StageName string `gorm:"column:stage_name;not null;type:varchar(100)"`
	// StageID is the resolved CRM stage id
	StageID *int64 `gorm:"column:stage_id"`
	// CreatedAt is the timestamp when the change was recorded
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the StageChangeLog model
func (StageChangeLog) TableName() string {
	return "stage_change_logs"
}
