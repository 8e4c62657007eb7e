package schema

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog represents the audit_logs table - append-only trail of state changing operations
type AuditLog struct {
	// ID is an auto-incrementing sequence number
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// EventID is a unique identifier for the audit event (ULID), so retried writes are idempotent
	EventID string `gorm:"column:event_id;not null;uniqueIndex;type:varchar(32)"`
	// ActorID is the user or operator that triggered the action, nil for system events
	ActorID *string `gorm:"column:actor_id;type:varchar(255)"`
	// Action is the verb, e.g. webhook.message_created, consent.granted
	Action string `gorm:"column:action;not null;type:varchar(100);index"`
	// TargetModel is the kind of entity affected
	TargetModel string `gorm:"column:target_model;not null;type:varchar(64);index:idx_audit_logs_target"`
	// TargetID is the id of the entity affected
	TargetID string `gorm:"column:target_id;not null;type:varchar(64);index:idx_audit_logs_target"`
	// Changes is the JSON payload describing the change
	Changes datatypes.JSON `gorm:"column:changes;type:jsonb"`
	// IPAddress is the requester address
	IPAddress string `gorm:"column:ip_address;type:varchar(64)"`
	// UserAgent is the requester client
	UserAgent string `gorm:"column:user_agent;type:text"`
	// CreatedAt is the time of the action
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz;index"`
}

// TableName specifies the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}
