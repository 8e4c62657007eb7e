// Package consent implements the LGPD consent gate: grant, withdraw, validity
// checks and the audit trail for each change.
package consent

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/audit"
	"github.com/feral-file/crm-bridge/internal/config"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/providers/chatwoot"
	"github.com/feral-file/crm-bridge/internal/store"
	"github.com/feral-file/crm-bridge/internal/store/schema"
)

// AttributePrefix prefixes the contact custom attribute mirroring each consent type
const AttributePrefix = "lgpd_consent_"

// Actor describes who performed a consent change
type Actor struct {
	ID        *string
	IPAddress string
	UserAgent string
}

// GrantInput is a request to grant consent
type GrantInput struct {
	ContactID   int64  `json:"contact_id" validate:"required,gt=0"`
	ConsentType string `json:"consent_type" validate:"required"`
	Source      string `json:"source" validate:"omitempty,max=64"`
	Actor       Actor  `json:"-"`
}

// WithdrawInput is a request to withdraw consent
type WithdrawInput struct {
	ContactID   int64  `json:"contact_id" validate:"required,gt=0"`
	ConsentType string `json:"consent_type" validate:"required"`
	Reason      string `json:"reason" validate:"omitempty,max=1000"`
	Actor       Actor  `json:"-"`
}

// Consent is the outward view of a consent record
type Consent struct {
	ID          uint64               `json:"id"`
	ContactID   int64                `json:"contact_id"`
	ConsentType domain.ConsentType   `json:"consent_type"`
	Status      domain.ConsentStatus `json:"status"`
	Valid       bool                 `json:"valid"`
	GrantedAt   *time.Time           `json:"granted_at,omitempty"`
	WithdrawnAt *time.Time           `json:"withdrawn_at,omitempty"`
	ExpiredAt   *time.Time           `json:"expired_at,omitempty"`
	ExpiresAt   *time.Time           `json:"expires_at,omitempty"`
	Source      string               `json:"source,omitempty"`
	Reason      string               `json:"withdrawal_reason,omitempty"`
}

// Service manages consent records
//
//go:generate mockgen -source=service.go -destination=../mocks/consent_service.go -package=mocks -mock_names=Service=MockConsentService
type Service interface {
	// HasValidConsent reports whether the contact holds a granted, unexpired consent of type.
	// A record found past its window is marked expired.
	HasValidConsent(ctx context.Context, contactID int64, consentType domain.ConsentType) (bool, error)

	// Require returns domain.ErrConsentRequired when enforcement is on and no valid consent exists
	Require(ctx context.Context, contactID int64, consentType domain.ConsentType) error

	// Grant records a new consent. domain.ErrConsentConflict when one is already active.
	Grant(ctx context.Context, input GrantInput) (*Consent, error)

	// Withdraw withdraws the active consent. domain.ErrConsentNotFound when none is active.
	Withdraw(ctx context.Context, input WithdrawInput) (*Consent, error)

	// List returns every consent record of a contact, newest first
	List(ctx context.Context, contactID int64) ([]Consent, error)
}

type service struct {
	store     store.Store
	auditor   audit.Recorder
	clock     adapter.Clock
	cfg       config.ConsentConfig
	writeBack chatwoot.Client
}

// NewService creates a consent service. writeBack is optional; when set, changes
// are mirrored onto the contact's custom attributes.
func NewService(st store.Store, auditor audit.Recorder, clock adapter.Clock, cfg config.ConsentConfig, writeBack chatwoot.Client) Service {
	return &service{
		store:     st,
		auditor:   auditor,
		clock:     clock,
		cfg:       cfg,
		writeBack: writeBack,
	}
}

func (s *service) validity(consentType domain.ConsentType) time.Duration {
	return s.cfg.ValidityFor(string(consentType))
}

func (s *service) HasValidConsent(ctx context.Context, contactID int64, consentType domain.ConsentType) (bool, error) {
	record, err := s.store.GetActiveConsent(ctx, contactID, consentType)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}

	now := s.clock.Now()
	if record.ValidAt(now, s.validity(consentType)) {
		return true, nil
	}

	if err := s.store.ExpireConsent(ctx, record.ID, now); err != nil {
		logger.WarnCtx(ctx, "Failed to mark consent expired",
			zap.Uint64("consent_id", record.ID),
			zap.Error(err))
		return false, nil
	}
	s.auditor.Record(ctx, audit.Entry{
		Action:      domain.AuditActionConsentExpired,
		TargetModel: domain.AuditTargetConsent,
		TargetID:    strconv.FormatUint(record.ID, 10),
		Changes: map[string]interface{}{
			"contact_id":   contactID,
			"consent_type": consentType,
			"granted_at":   record.GrantedAt,
		},
		OccurredAt: now,
	})
	return false, nil
}

func (s *service) Require(ctx context.Context, contactID int64, consentType domain.ConsentType) error {
	if !s.cfg.RequireForSync {
		return nil
	}
	ok, err := s.HasValidConsent(ctx, contactID, consentType)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: contact %d has no valid %s consent", domain.ErrConsentRequired, contactID, consentType)
	}
	return nil
}

func (s *service) Grant(ctx context.Context, input GrantInput) (*Consent, error) {
	now := s.clock.Now()
	record, err := schema.NewGrantedConsent(input.ContactID, input.ConsentType, now, input.Source, input.Actor.IPAddress, input.Actor.UserAgent)
	if err != nil {
		return nil, err
	}

	validity := s.validity(record.ConsentType)
	if err := s.store.GrantConsent(ctx, record, now.Add(-validity)); err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Consent granted",
		zap.Int64("contact_id", record.ChatwootContactID),
		zap.String("consent_type", string(record.ConsentType)),
		zap.Uint64("consent_id", record.ID))

	s.auditor.Record(ctx, audit.Entry{
		ActorID:     input.Actor.ID,
		Action:      domain.AuditActionConsentGranted,
		TargetModel: domain.AuditTargetConsent,
		TargetID:    strconv.FormatUint(record.ID, 10),
		Changes: map[string]interface{}{
			"contact_id":   record.ChatwootContactID,
			"consent_type": record.ConsentType,
			"status":       record.Status,
			"source":       record.Source,
		},
		IPAddress:  input.Actor.IPAddress,
		UserAgent:  input.Actor.UserAgent,
		OccurredAt: now,
	})
	s.mirror(ctx, record.ChatwootContactID, record.ConsentType, record.Status)

	view := toView(*record, now, validity)
	return &view, nil
}

func (s *service) Withdraw(ctx context.Context, input WithdrawInput) (*Consent, error) {
	consentType, err := domain.NewConsentType(input.ConsentType)
	if err != nil {
		return nil, err
	}
	if input.ContactID <= 0 {
		return nil, fmt.Errorf("%w: contact id is required", domain.ErrValidation)
	}

	now := s.clock.Now()
	validity := s.validity(consentType)
	record, err := s.store.WithdrawConsent(ctx, input.ContactID, consentType, now, input.Reason, now.Add(-validity))
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Consent withdrawn",
		zap.Int64("contact_id", input.ContactID),
		zap.String("consent_type", string(consentType)),
		zap.Uint64("consent_id", record.ID))

	s.auditor.Record(ctx, audit.Entry{
		ActorID:     input.Actor.ID,
		Action:      domain.AuditActionConsentWithdrawn,
		TargetModel: domain.AuditTargetConsent,
		TargetID:    strconv.FormatUint(record.ID, 10),
		Changes: map[string]interface{}{
			"contact_id":   input.ContactID,
			"consent_type": consentType,
			"status":       record.Status,
			"reason":       input.Reason,
		},
		IPAddress:  input.Actor.IPAddress,
		UserAgent:  input.Actor.UserAgent,
		OccurredAt: now,
	})
	s.mirror(ctx, input.ContactID, consentType, record.Status)

	view := toView(*record, now, validity)
	return &view, nil
}

func (s *service) List(ctx context.Context, contactID int64) ([]Consent, error) {
	records, err := s.store.ListConsents(ctx, contactID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	views := make([]Consent, 0, len(records))
	for _, r := range records {
		views = append(views, toView(r, now, s.validity(r.ConsentType)))
	}
	return views, nil
}

// mirror writes the consent status onto the contact. Failures are logged only:
// the local record is the source of truth.
func (s *service) mirror(ctx context.Context, contactID int64, consentType domain.ConsentType, status domain.ConsentStatus) {
	if s.writeBack == nil {
		return
	}
	_, err := s.writeBack.UpdateConsentAttributes(ctx, contactID, map[string]interface{}{
		AttributePrefix + string(consentType): string(status),
	})
	if err != nil {
		logger.WarnCtx(ctx, "Failed to mirror consent onto contact",
			zap.Int64("contact_id", contactID),
			zap.String("consent_type", string(consentType)),
			zap.String("error_code", string(domain.ErrorCodeOf(err))),
			zap.Error(err))
	}
}

func toView(r schema.ConsentRecord, now time.Time, validity time.Duration) Consent {
	v := Consent{
		ID:          r.ID,
		ContactID:   r.ChatwootContactID,
		ConsentType: r.ConsentType,
		Status:      r.Status,
		Valid:       r.ValidAt(now, validity),
		GrantedAt:   r.GrantedAt,
		WithdrawnAt: r.WithdrawnAt,
		ExpiredAt:   r.ExpiredAt,
		Source:      r.Source,
		Reason:      r.WithdrawalReason,
	}
	if r.GrantedAt != nil && r.Status == domain.ConsentStatusGranted {
		expires := r.GrantedAt.Add(validity)
		v.ExpiresAt = &expires
	}
	return v
}
