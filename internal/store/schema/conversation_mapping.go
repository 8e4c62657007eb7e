package schema

import (
	"errors"
	"time"

	"github.com/feral-file/crm-bridge/internal/domain"
)

// ConversationMapping represents the conversation_mappings table - chat conversation to CRM lead correspondence
type ConversationMapping struct {
	// ID is an auto-incrementing sequence number
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ChatwootConversationID is the chat platform conversation id (natural key)
	ChatwootConversationID int64 `gorm:"column:chatwoot_conversation_id;not null;uniqueIndex"`
	// ChatwootContactID is the contact that opened the conversation, used for erasure cascades
	ChatwootContactID *int64 `gorm:"column:chatwoot_contact_id;index"`
	// KrayinLeadID is the CRM lead the conversation is attached to
	KrayinLeadID int64 `gorm:"column:krayin_lead_id;not null"`
	// Status is one of open, resolved, pending, snoozed
	Status domain.ConversationStatus `gorm:"column:status;not null;type:varchar(20);default:open"`
	// MessageCount is the number of messages synced as CRM activities
	MessageCount int `gorm:"column:message_count;not null;default:0"`
	// LastMessageAt is the timestamp of the latest synced message
	LastMessageAt *time.Time `gorm:"column:last_message_at;type:timestamptz"`
	// FirstResponseAt is the timestamp of the first outgoing message
	FirstResponseAt *time.Time `gorm:"column:first_response_at;type:timestamptz"`
	// ResolvedAt is stamped the first time the conversation is resolved and never cleared
	ResolvedAt *time.Time `gorm:"column:resolved_at;type:timestamptz"`
	// CreatedAt is the timestamp when the mapping was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when the mapping was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the ConversationMapping model
func (ConversationMapping) TableName() string {
	return "conversation_mappings"
}

// NewConversationMapping builds a conversation mapping, rejecting unknown statuses.
// An empty status defaults to open.
func NewConversationMapping(conversationID int64, contactID *int64, leadID int64, status string) (*ConversationMapping, error) {
	if conversationID <= 0 {
		return nil, errors.New("chatwoot conversation id is required")
	}
	if leadID <= 0 {
		return nil, errors.New("krayin lead id is required")
	}
	if status == "" {
		status = string(domain.ConversationStatusOpen)
	}
	s, err := domain.NewConversationStatus(status)
	if err != nil {
		return nil, err
	}
	return &ConversationMapping{
		ChatwootConversationID: conversationID,
		ChatwootContactID:      contactID,
		KrayinLeadID:           leadID,
		Status:                 s,
	}, nil
}
