package schema

import (
	"errors"
	"time"
)

// ContactMapping represents the contact_mappings table - chat contact to CRM lead/person correspondence
type ContactMapping struct {
	// ID is an auto-incrementing sequence number
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ChatwootContactID is the chat platform contact id (natural key)
	ChatwootContactID int64 `gorm:"column:chatwoot_contact_id;not null;uniqueIndex"`
	// KrayinLeadID is the CRM lead created for the contact
	KrayinLeadID *int64 `gorm:"column:krayin_lead_id"`
	// KrayinPersonID is the CRM person linked to the lead
	KrayinPersonID *int64 `gorm:"column:krayin_person_id"`
	// CreatedAt is the timestamp when the mapping was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when the mapping was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the ContactMapping model
func (ContactMapping) TableName() string {
	return "contact_mappings"
}

// NewContactMapping builds a contact mapping. At least one CRM id is required.
func NewContactMapping(chatwootContactID int64, krayinLeadID, krayinPersonID *int64) (*ContactMapping, error) {
	if chatwootContactID <= 0 {
		return nil, errors.New("chatwoot contact id is required")
	}
	if krayinLeadID == nil && krayinPersonID == nil {
		return nil, errors.New("contact mapping needs a lead or person id")
	}
	return &ContactMapping{
		ChatwootContactID: chatwootContactID,
		KrayinLeadID:      krayinLeadID,
		KrayinPersonID:    krayinPersonID,
	}, nil
}
