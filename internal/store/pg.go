package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"

	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/store/schema"
)

const (
	// maxErrorMessageLength bounds the error text stored with a dead letter
	maxErrorMessageLength = 4096
	defaultListLimit      = 50
	maxListLimit          = 500
)

type pgStore struct {
	db *gorm.DB
}

func hasDBResolver(db *gorm.DB) bool {
	return db != nil && db.Callback().Query().Get("gorm:db_resolver") != nil
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// RegisterReadReplica routes read queries to a replica. Writes and transactions stay on the primary.
func RegisterReadReplica(db *gorm.DB, readDSN string) error {
	return db.Use(dbresolver.Register(dbresolver.Config{
		Replicas: []gorm.Dialector{postgres.Open(readDSN)},
		Policy:   dbresolver.RandomPolicy{},
	}))
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// Zero values fall back to the defaults of NormalizeConnectionPoolSettings.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// Ping checks the database connection
func (s *pgStore) Ping(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec("SELECT 1").Error
}

// first runs query against the default connection and, when a replica is configured
// and nothing was found, once more against the primary since the replica can lag.
// Returns false when no row was found on either.
func (s *pgStore) first(ctx context.Context, query func(db *gorm.DB) error) (bool, error) {
	err := query(s.db.WithContext(ctx))
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if !hasDBResolver(s.db) {
		return false, nil
	}

	err = query(s.db.WithContext(ctx).Clauses(dbresolver.Write))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// =============================================================================
// Mappings
// =============================================================================

// GetContactMapping returns the mapping for a chat contact
func (s *pgStore) GetContactMapping(ctx context.Context, chatwootContactID int64) (*schema.ContactMapping, error) {
	var mapping schema.ContactMapping
	found, err := s.first(ctx, func(db *gorm.DB) error {
		return db.Where("chatwoot_contact_id = ?", chatwootContactID).First(&mapping).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get contact mapping: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &mapping, nil
}

// GetConversationMapping returns the mapping for a chat conversation
func (s *pgStore) GetConversationMapping(ctx context.Context, chatwootConversationID int64) (*schema.ConversationMapping, error) {
	var mapping schema.ConversationMapping
	found, err := s.first(ctx, func(db *gorm.DB) error {
		return db.Where("chatwoot_conversation_id = ?", chatwootConversationID).First(&mapping).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation mapping: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &mapping, nil
}

// GetActivityMapping returns the mapping for a chat message
func (s *pgStore) GetActivityMapping(ctx context.Context, chatwootMessageID int64) (*schema.ActivityMapping, error) {
	var mapping schema.ActivityMapping
	found, err := s.first(ctx, func(db *gorm.DB) error {
		return db.Where("chatwoot_message_id = ?", chatwootMessageID).First(&mapping).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get activity mapping: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &mapping, nil
}

// GetStageChangeLog returns the stage change recorded for a webhook
func (s *pgStore) GetStageChangeLog(ctx context.Context, webhookID string, chatwootConversationID int64) (*schema.StageChangeLog, error) {
	var entry schema.StageChangeLog
	found, err := s.first(ctx, func(db *gorm.DB) error {
		return db.Where("webhook_id = ? AND chatwoot_conversation_id = ?", webhookID, chatwootConversationID).
			First(&entry).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get stage change log: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &entry, nil
}

// CreateLeadMappings creates the contact and conversation mappings atomically
func (s *pgStore) CreateLeadMappings(ctx context.Context, contact *schema.ContactMapping, conversation *schema.ConversationMapping) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chatwoot_contact_id"}},
			DoNothing: true,
		}).Create(contact)
		if res.Error != nil {
			return fmt.Errorf("failed to create contact mapping: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			// Another delivery won the race; attach the conversation to its lead
			var existing schema.ContactMapping
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("chatwoot_contact_id = ?", contact.ChatwootContactID).
				First(&existing).Error; err != nil {
				return fmt.Errorf("failed to load existing contact mapping: %w", err)
			}
			if existing.KrayinLeadID == nil && contact.KrayinLeadID != nil {
				// Person-only mapping: the new lead becomes the contact's lead
				if err := tx.Model(&existing).Update("krayin_lead_id", *contact.KrayinLeadID).Error; err != nil {
					return fmt.Errorf("failed to attach lead to contact mapping: %w", err)
				}
				existing.KrayinLeadID = contact.KrayinLeadID
				created = true
			}
			*contact = existing
			if existing.KrayinLeadID != nil {
				conversation.KrayinLeadID = *existing.KrayinLeadID
			}
		} else {
			created = true
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chatwoot_conversation_id"}},
			DoNothing: true,
		}).Create(conversation).Error; err != nil {
			return fmt.Errorf("failed to create conversation mapping: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// EnsureConversationMapping creates the conversation mapping if missing
func (s *pgStore) EnsureConversationMapping(ctx context.Context, conversation *schema.ConversationMapping) (*schema.ConversationMapping, bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chatwoot_conversation_id"}},
		DoNothing: true,
	}).Create(conversation)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to create conversation mapping: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return conversation, true, nil
	}

	var existing schema.ConversationMapping
	if err := s.db.WithContext(ctx).Clauses(dbresolver.Write).
		Where("chatwoot_conversation_id = ?", conversation.ChatwootConversationID).
		First(&existing).Error; err != nil {
		return nil, false, fmt.Errorf("failed to load conversation mapping: %w", err)
	}
	return &existing, false, nil
}

// RecordActivity stores the activity mapping and bumps the conversation counters
func (s *pgStore) RecordActivity(ctx context.Context, activity *schema.ActivityMapping, occurredAt time.Time) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chatwoot_message_id"}},
			DoNothing: true,
		}).Create(activity)
		if res.Error != nil {
			return fmt.Errorf("failed to create activity mapping: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		updates := map[string]interface{}{
			"message_count":   gorm.Expr("message_count + 1"),
			"last_message_at": gorm.Expr("GREATEST(COALESCE(last_message_at, ?::timestamptz), ?::timestamptz)", occurredAt, occurredAt),
			"updated_at":      gorm.Expr("now()"),
		}
		if activity.MessageType == domain.MessageTypeOutgoing {
			updates["first_response_at"] = gorm.Expr("COALESCE(first_response_at, ?::timestamptz)", occurredAt)
		}

		upd := tx.Model(&schema.ConversationMapping{}).
			Where("chatwoot_conversation_id = ?", activity.ConversationID).
			Updates(updates)
		if upd.Error != nil {
			return fmt.Errorf("failed to update conversation counters: %w", upd.Error)
		}
		if upd.RowsAffected == 0 {
			return fmt.Errorf("conversation %d: %w", activity.ConversationID, domain.ErrMissingMapping)
		}

		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// ApplyStatusChange records the stage change and moves the conversation status
func (s *pgStore) ApplyStatusChange(ctx context.Context, input StatusChangeInput) (*schema.ConversationMapping, bool, error) {
	if !input.NewStatus.Valid() {
		return nil, false, fmt.Errorf("%w: conversation status %q", domain.ErrInvalidEnum, input.NewStatus)
	}

	var mapping schema.ConversationMapping
	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("chatwoot_conversation_id = ?", input.ConversationID).
			First(&mapping).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("conversation %d: %w", input.ConversationID, domain.ErrMissingMapping)
			}
			return fmt.Errorf("failed to lock conversation mapping: %w", err)
		}

		entry := schema.StageChangeLog{
			WebhookID:              input.WebhookID,
			ChatwootConversationID: input.ConversationID,
			KrayinLeadID:           input.LeadID,
			PreviousStatus:         input.PreviousStatus,
			NewStatus:              input.NewStatus,
			StageName:              input.StageName,
			StageID:                input.StageID,
			CreatedAt:              input.ChangedAt,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "webhook_id"}, {Name: "chatwoot_conversation_id"}},
			DoNothing: true,
		}).Create(&entry)
		if res.Error != nil {
			return fmt.Errorf("failed to append stage change log: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		updates := map[string]interface{}{
			"status":     input.NewStatus,
			"updated_at": gorm.Expr("now()"),
		}
		// resolved_at is stamped once and kept across reopen cycles
		if input.NewStatus == domain.ConversationStatusResolved && mapping.ResolvedAt == nil {
			resolvedAt := input.ChangedAt
			updates["resolved_at"] = resolvedAt
			mapping.ResolvedAt = &resolvedAt
		}
		if err := tx.Model(&schema.ConversationMapping{}).
			Where("id = ?", mapping.ID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update conversation status: %w", err)
		}

		mapping.Status = input.NewStatus
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &mapping, applied, nil
}

// =============================================================================
// Consent
// =============================================================================

// lockConsent serializes consent writes for one contact and type within a transaction
func lockConsent(tx *gorm.DB, contactID int64, consentType domain.ConsentType) error {
	key := fmt.Sprintf("consent:%d:%s", contactID, consentType)
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}

// GetActiveConsent returns the latest granted, non withdrawn consent
func (s *pgStore) GetActiveConsent(ctx context.Context, chatwootContactID int64, consentType domain.ConsentType) (*schema.ConsentRecord, error) {
	var record schema.ConsentRecord
	found, err := s.first(ctx, func(db *gorm.DB) error {
		return db.Where("chatwoot_contact_id = ? AND consent_type = ? AND status = ? AND withdrawn_at IS NULL",
			chatwootContactID, consentType, domain.ConsentStatusGranted).
			Order("granted_at DESC").
			First(&record).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get active consent: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &record, nil
}

// ListConsents returns every consent record of a contact
func (s *pgStore) ListConsents(ctx context.Context, chatwootContactID int64) ([]schema.ConsentRecord, error) {
	var records []schema.ConsentRecord
	err := s.db.WithContext(ctx).
		Where("chatwoot_contact_id = ?", chatwootContactID).
		Order("created_at DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list consents: %w", err)
	}
	return records, nil
}

// GrantConsent stores a granted consent unless a valid one already exists
func (s *pgStore) GrantConsent(ctx context.Context, record *schema.ConsentRecord, validFrom time.Time) error {
	if err := record.Validate(); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockConsent(tx, record.ChatwootContactID, record.ConsentType); err != nil {
			return fmt.Errorf("failed to lock consent: %w", err)
		}

		active := tx.Model(&schema.ConsentRecord{}).
			Where("chatwoot_contact_id = ? AND consent_type = ? AND status = ? AND withdrawn_at IS NULL",
				record.ChatwootContactID, record.ConsentType, domain.ConsentStatusGranted)

		var valid int64
		if err := active.Session(&gorm.Session{}).Where("granted_at > ?", validFrom).Count(&valid).Error; err != nil {
			return fmt.Errorf("failed to check active consent: %w", err)
		}
		if valid > 0 {
			return domain.ErrConsentConflict
		}

		if err := active.Session(&gorm.Session{}).Where("granted_at <= ?", validFrom).Updates(map[string]interface{}{
			"status":     domain.ConsentStatusExpired,
			"expired_at": record.GrantedAt,
			"updated_at": gorm.Expr("now()"),
		}).Error; err != nil {
			return fmt.Errorf("failed to expire stale consent: %w", err)
		}

		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to create consent: %w", err)
		}
		return nil
	})
}

// WithdrawConsent withdraws the currently valid consent
func (s *pgStore) WithdrawConsent(ctx context.Context, chatwootContactID int64, consentType domain.ConsentType, withdrawnAt time.Time, reason string, validFrom time.Time) (*schema.ConsentRecord, error) {
	var record schema.ConsentRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockConsent(tx, chatwootContactID, consentType); err != nil {
			return fmt.Errorf("failed to lock consent: %w", err)
		}

		err := tx.Where("chatwoot_contact_id = ? AND consent_type = ? AND status = ? AND withdrawn_at IS NULL AND granted_at > ?",
			chatwootContactID, consentType, domain.ConsentStatusGranted, validFrom).
			Order("granted_at DESC").
			First(&record).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrConsentNotFound
			}
			return fmt.Errorf("failed to load active consent: %w", err)
		}

		record.Status = domain.ConsentStatusWithdrawn
		record.WithdrawnAt = &withdrawnAt
		record.WithdrawalReason = reason
		if err := record.Validate(); err != nil {
			return err
		}
		if err := tx.Model(&schema.ConsentRecord{}).Where("id = ?", record.ID).Updates(map[string]interface{}{
			"status":            record.Status,
			"withdrawn_at":      withdrawnAt,
			"withdrawal_reason": reason,
			"updated_at":        gorm.Expr("now()"),
		}).Error; err != nil {
			return fmt.Errorf("failed to withdraw consent: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ExpireConsent marks a consent record as expired
func (s *pgStore) ExpireConsent(ctx context.Context, id uint64, expiredAt time.Time) error {
	err := s.db.WithContext(ctx).Model(&schema.ConsentRecord{}).
		Where("id = ? AND status = ?", id, domain.ConsentStatusGranted).
		Updates(map[string]interface{}{
			"status":     domain.ConsentStatusExpired,
			"expired_at": expiredAt,
			"updated_at": gorm.Expr("now()"),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to expire consent: %w", err)
	}
	return nil
}

// =============================================================================
// Audit
// =============================================================================

// CreateAuditLog appends an audit log
func (s *pgStore) CreateAuditLog(ctx context.Context, log *schema.AuditLog) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(log).Error
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// ListAuditLogs returns audit logs matching the filter
func (s *pgStore) ListAuditLogs(ctx context.Context, filter AuditLogFilter) ([]schema.AuditLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&schema.AuditLog{})
	if filter.TargetModel != "" {
		query = query.Where("target_model = ?", filter.TargetModel)
	}
	if filter.TargetID != "" {
		query = query.Where("target_id = ?", filter.TargetID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	var logs []schema.AuditLog
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}

// DeleteAuditLogsBefore removes audit logs older than before
func (s *pgStore) DeleteAuditLogsBefore(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", before).Delete(&schema.AuditLog{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete audit logs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// =============================================================================
// Dead letters
// =============================================================================

// CreateDeadLetter persists a failed job
func (s *pgStore) CreateDeadLetter(ctx context.Context, kind domain.JobKind, entry *schema.DeadLetter) error {
	table, err := schema.DeadLetterTable(kind)
	if err != nil {
		return err
	}

	if len(entry.ErrorMessage) > maxErrorMessageLength {
		entry.ErrorMessage = entry.ErrorMessage[:maxErrorMessageLength]
	}
	if len(entry.Payload) == 0 {
		entry.Payload = []byte("{}")
	}

	if err := s.db.WithContext(ctx).Table(table).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create dead letter in %s: %w", table, err)
	}

	logger.DebugCtx(ctx, "Stored dead letter",
		zap.String("table", table),
		zap.String("job_id", entry.JobID),
		zap.Uint64("id", entry.ID))
	return nil
}

// ListDeadLetters lists failed jobs of a kind
func (s *pgStore) ListDeadLetters(ctx context.Context, kind domain.JobKind, filter DeadLetterFilter) ([]schema.DeadLetter, int64, error) {
	table, err := schema.DeadLetterTable(kind)
	if err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Table(table)
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count dead letters: %w", err)
	}

	var entries []schema.DeadLetter
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	if err := query.Order("failed_at DESC, id DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list dead letters: %w", err)
	}
	return entries, total, nil
}

// GetDeadLetter returns a failed job
func (s *pgStore) GetDeadLetter(ctx context.Context, kind domain.JobKind, id uint64) (*schema.DeadLetter, error) {
	table, err := schema.DeadLetterTable(kind)
	if err != nil {
		return nil, err
	}

	var entry schema.DeadLetter
	found, err := s.first(ctx, func(db *gorm.DB) error {
		return db.Table(table).Where("id = ?", id).First(&entry).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get dead letter: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &entry, nil
}

// DeleteDeadLetter removes a failed job
func (s *pgStore) DeleteDeadLetter(ctx context.Context, kind domain.JobKind, id uint64) (bool, error) {
	table, err := schema.DeadLetterTable(kind)
	if err != nil {
		return false, err
	}

	res := s.db.WithContext(ctx).Table(table).Where("id = ?", id).Delete(&schema.DeadLetter{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete dead letter: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// =============================================================================
// LGPD
// =============================================================================

// CollectContactData gathers everything stored about a contact
func (s *pgStore) CollectContactData(ctx context.Context, chatwootContactID int64) (*ContactData, error) {
	data := &ContactData{ChatwootContactID: chatwootContactID}
	db := s.db.WithContext(ctx).Clauses(dbresolver.Write)

	var contact schema.ContactMapping
	err := db.Where("chatwoot_contact_id = ?", chatwootContactID).First(&contact).Error
	switch {
	case err == nil:
		data.ContactMapping = &contact
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to load contact mapping: %w", err)
	}

	if err := db.Where("chatwoot_contact_id = ?", chatwootContactID).
		Order("id").Find(&data.Conversations).Error; err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}

	conversationIDs := make([]int64, 0, len(data.Conversations))
	for _, c := range data.Conversations {
		conversationIDs = append(conversationIDs, c.ChatwootConversationID)
	}
	if len(conversationIDs) > 0 {
		if err := db.Where("conversation_id IN ?", conversationIDs).
			Order("id").Find(&data.Activities).Error; err != nil {
			return nil, fmt.Errorf("failed to load activities: %w", err)
		}
		if err := db.Where("chatwoot_conversation_id IN ?", conversationIDs).
			Order("id").Find(&data.StageChanges).Error; err != nil {
			return nil, fmt.Errorf("failed to load stage changes: %w", err)
		}
	}

	if err := db.Where("chatwoot_contact_id = ?", chatwootContactID).
		Order("id").Find(&data.Consents).Error; err != nil {
		return nil, fmt.Errorf("failed to load consents: %w", err)
	}

	if err := db.Where("target_model = ? AND target_id = ?", domain.AuditTargetContact, strconv.FormatInt(chatwootContactID, 10)).
		Order("id").Find(&data.AuditLogs).Error; err != nil {
		return nil, fmt.Errorf("failed to load audit logs: %w", err)
	}

	return data, nil
}

// EraseContactData removes every row tied to a contact
func (s *pgStore) EraseContactData(ctx context.Context, chatwootContactID int64) (*ErasureResult, error) {
	result := &ErasureResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conversationIDs []int64
		if err := tx.Model(&schema.ConversationMapping{}).
			Where("chatwoot_contact_id = ?", chatwootContactID).
			Pluck("chatwoot_conversation_id", &conversationIDs).Error; err != nil {
			return fmt.Errorf("failed to collect conversations: %w", err)
		}

		if len(conversationIDs) > 0 {
			res := tx.Where("conversation_id IN ?", conversationIDs).Delete(&schema.ActivityMapping{})
			if res.Error != nil {
				return fmt.Errorf("failed to erase activity mappings: %w", res.Error)
			}
			result.ActivityMappings = res.RowsAffected

			res = tx.Where("chatwoot_conversation_id IN ?", conversationIDs).Delete(&schema.StageChangeLog{})
			if res.Error != nil {
				return fmt.Errorf("failed to erase stage change logs: %w", res.Error)
			}
			result.StageChangeLogs = res.RowsAffected

			res = tx.Where("chatwoot_conversation_id IN ?", conversationIDs).Delete(&schema.ConversationMapping{})
			if res.Error != nil {
				return fmt.Errorf("failed to erase conversation mappings: %w", res.Error)
			}
			result.ConversationMappings = res.RowsAffected
		}

		res := tx.Where("chatwoot_contact_id = ?", chatwootContactID).Delete(&schema.ContactMapping{})
		if res.Error != nil {
			return fmt.Errorf("failed to erase contact mapping: %w", res.Error)
		}
		result.ContactMappings = res.RowsAffected

		res = tx.Where("chatwoot_contact_id = ?", chatwootContactID).Delete(&schema.ConsentRecord{})
		if res.Error != nil {
			return fmt.Errorf("failed to erase consent records: %w", res.Error)
		}
		result.ConsentRecords = res.RowsAffected

		res = tx.Where("target_model = ? AND target_id = ?", domain.AuditTargetContact, strconv.FormatInt(chatwootContactID, 10)).
			Delete(&schema.AuditLog{})
		if res.Error != nil {
			return fmt.Errorf("failed to erase audit logs: %w", res.Error)
		}
		result.AuditLogs = res.RowsAffected

		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
