package schema

import (
	"errors"
	"time"

	"github.com/feral-file/crm-bridge/internal/domain"
)

// ActivityMapping represents the activity_mappings table - chat message to CRM activity correspondence
type ActivityMapping struct {
	// ID is an auto-incrementing sequence number
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ChatwootMessageID is the chat platform message id (natural key)
	ChatwootMessageID int64 `gorm:"column:chatwoot_message_id;not null;uniqueIndex"`
	// KrayinActivityID is the CRM activity created for the message
	KrayinActivityID int64 `gorm:"column:krayin_activity_id;not null"`
	// KrayinLeadID is the lead the activity was attached to
	KrayinLeadID int64 `gorm:"column:krayin_lead_id;not null"`
	// ConversationID is the chat platform conversation id
	ConversationID int64 `gorm:"column:conversation_id;not null;index"`
	// MessageType is one of incoming, outgoing, activity
	MessageType domain.MessageType `gorm:"column:message_type;not null;type:varchar(20)"`
	// CreatedAt is the timestamp when the mapping was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the ActivityMapping model
func (ActivityMapping) TableName() string {
	return "activity_mappings"
}

// NewActivityMapping builds an activity mapping, rejecting unknown message types
func NewActivityMapping(messageID, activityID, leadID, conversationID int64, messageType string) (*ActivityMapping, error) {
	if messageID <= 0 || activityID <= 0 {
		return nil, errors.New("message id and activity id are required")
	}
	mt, err := domain.NewMessageType(messageType)
	if err != nil {
		return nil, err
	}
	return &ActivityMapping{
		ChatwootMessageID: messageID,
		KrayinActivityID:  activityID,
		KrayinLeadID:      leadID,
		ConversationID:    conversationID,
		MessageType:       mt,
	}, nil
}
