package schema

import (
	"errors"
	"fmt"
	"time"

	"github.com/feral-file/crm-bridge/internal/domain"
)

// ConsentRecord represents the consent_records table - per contact and purpose LGPD consent
type ConsentRecord struct {
	// ID is an auto-incrementing sequence number
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ChatwootContactID is the data subject
	ChatwootContactID int64 `gorm:"column:chatwoot_contact_id;not null;index:idx_consent_records_contact_type"`
	// ConsentType is the purpose covered by the consent
	ConsentType domain.ConsentType `gorm:"column:consent_type;not null;type:varchar(32);index:idx_consent_records_contact_type"`
	// Status is one of granted, denied, withdrawn, expired
	Status domain.ConsentStatus `gorm:"column:status;not null;type:varchar(20)"`
	// GrantedAt is set for granted records
	GrantedAt *time.Time `gorm:"column:granted_at;type:timestamptz"`
	// WithdrawnAt is set for withdrawn records
	WithdrawnAt *time.Time `gorm:"column:withdrawn_at;type:timestamptz"`
	// ExpiredAt is set when the validity window elapsed
	ExpiredAt *time.Time `gorm:"column:expired_at;type:timestamptz"`
	// Source describes where the consent was collected (widget, agent, api)
	Source string `gorm:"column:source;type:varchar(64)"`
	// WithdrawalReason is the optional reason given when withdrawing
	WithdrawalReason string `gorm:"column:withdrawal_reason;type:text"`
	// IPAddress is the address the consent was given from
	IPAddress string `gorm:"column:ip_address;type:varchar(64)"`
	// UserAgent is the client the consent was given from
	UserAgent string `gorm:"column:user_agent;type:text"`
	// CreatedAt is the timestamp when the record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when the record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the ConsentRecord model
func (ConsentRecord) TableName() string {
	return "consent_records"
}

// Validate checks the timestamp invariants of the record status
func (c *ConsentRecord) Validate() error {
	if _, err := domain.NewConsentType(string(c.ConsentType)); err != nil {
		return err
	}
	if _, err := domain.NewConsentStatus(string(c.Status)); err != nil {
		return err
	}
	switch c.Status {
	case domain.ConsentStatusGranted:
		if c.GrantedAt == nil {
			return errors.New("granted consent requires granted_at")
		}
	case domain.ConsentStatusWithdrawn:
		if c.WithdrawnAt == nil {
			return errors.New("withdrawn consent requires withdrawn_at")
		}
	case domain.ConsentStatusExpired:
		if c.ExpiredAt == nil {
			return errors.New("expired consent requires expired_at")
		}
	}
	return nil
}

// ValidAt reports whether the consent is granted, not withdrawn and inside its validity window
func (c *ConsentRecord) ValidAt(now time.Time, validity time.Duration) bool {
	if c.Status != domain.ConsentStatusGranted || c.GrantedAt == nil || c.WithdrawnAt != nil {
		return false
	}
	return now.Before(c.GrantedAt.Add(validity))
}

// NewGrantedConsent builds a granted consent record
func NewGrantedConsent(contactID int64, consentType string, grantedAt time.Time, source, ip, userAgent string) (*ConsentRecord, error) {
	ct, err := domain.NewConsentType(consentType)
	if err != nil {
		return nil, err
	}
	if contactID <= 0 {
		return nil, fmt.Errorf("%w: chatwoot contact id is required", domain.ErrValidation)
	}
	rec := &ConsentRecord{
		ChatwootContactID: contactID,
		ConsentType:       ct,
		Status:            domain.ConsentStatusGranted,
		GrantedAt:         &grantedAt,
		Source:            source,
		IPAddress:         ip,
		UserAgent:         userAgent,
	}
	return rec, rec.Validate()
}
