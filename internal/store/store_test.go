package store

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

func buildContactMapping(t *testing.T, contactID, leadID int64) *schema.ContactMapping {
	contact, err := schema.NewContactMapping(contactID, &leadID, nil)
	require.NoError(t, err)
	return contact
}

func buildConversationMapping(t *testing.T, conversationID, contactID, leadID int64) *schema.ConversationMapping {
	conv, err := schema.NewConversationMapping(conversationID, &contactID, leadID, "open")
	require.NoError(t, err)
	return conv
}

func seedConversation(t *testing.T, store Store, conversationID, contactID, leadID int64) {
	created, err := store.CreateLeadMappings(context.Background(),
		buildContactMapping(t, contactID, leadID),
		buildConversationMapping(t, conversationID, contactID, leadID))
	require.NoError(t, err)
	require.True(t, created)
}

func buildDeadLetter(jobID string) *schema.DeadLetter {
	return &schema.DeadLetter{
		JobID:        jobID,
		EventType:    string(domain.EventTypeMessageCreated),
		Payload:      datatypes.JSON(`{"id":555}`),
		ErrorMessage: "krayin unavailable",
		Attempts:     5,
		FailedAt:     time.Now().UTC(),
	}
}

// =============================================================================
// Test: Mappings
// =============================================================================

func testCreateLeadMappings(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("creates contact and conversation mappings together", func(t *testing.T) {
		seedConversation(t, store, 42, 7, 9)

		contact, err := store.GetContactMapping(ctx, 7)
		require.NoError(t, err)
		require.NotNil(t, contact)
		require.NotNil(t, contact.KrayinLeadID)
		assert.Equal(t, int64(9), *contact.KrayinLeadID)

		conv, err := store.GetConversationMapping(ctx, 42)
		require.NoError(t, err)
		require.NotNil(t, conv)
		assert.Equal(t, int64(9), conv.KrayinLeadID)
		assert.Equal(t, domain.ConversationStatusOpen, conv.Status)
		assert.Equal(t, 0, conv.MessageCount)
		assert.Nil(t, conv.ResolvedAt)
	})

	t.Run("second delivery attaches to the existing lead", func(t *testing.T) {
		seedConversation(t, store, 100, 70, 900)

		contact := buildContactMapping(t, 70, 901)
		conv := buildConversationMapping(t, 101, 70, 901)
		created, err := store.CreateLeadMappings(ctx, contact, conv)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, int64(900), *contact.KrayinLeadID)

		stored, err := store.GetConversationMapping(ctx, 101)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, int64(900), stored.KrayinLeadID)
	})

	t.Run("mapping with only a person takes the new lead", func(t *testing.T) {
		personID := int64(55)
		personOnly, err := schema.NewContactMapping(90, nil, &personID)
		require.NoError(t, err)
		require.NoError(t, store.(*pgStore).db.WithContext(ctx).Create(personOnly).Error)

		contact := buildContactMapping(t, 90, 950)
		created, err := store.CreateLeadMappings(ctx, contact, buildConversationMapping(t, 300, 90, 950))
		require.NoError(t, err)
		assert.True(t, created)

		stored, err := store.GetContactMapping(ctx, 90)
		require.NoError(t, err)
		require.NotNil(t, stored.KrayinLeadID)
		assert.Equal(t, int64(950), *stored.KrayinLeadID)
		require.NotNil(t, stored.KrayinPersonID)
		assert.Equal(t, int64(55), *stored.KrayinPersonID)

		conv, err := store.GetConversationMapping(ctx, 300)
		require.NoError(t, err)
		require.NotNil(t, conv)
		assert.Equal(t, int64(950), conv.KrayinLeadID)
	})

	t.Run("replaying the same conversation is a no-op", func(t *testing.T) {
		seedConversation(t, store, 200, 80, 800)

		created, err := store.CreateLeadMappings(ctx,
			buildContactMapping(t, 80, 800),
			buildConversationMapping(t, 200, 80, 800))
		require.NoError(t, err)
		assert.False(t, created)
	})
}

func testGetMappingsNotFound(t *testing.T, store Store) {
	ctx := context.Background()

	contact, err := store.GetContactMapping(ctx, 123456)
	require.NoError(t, err)
	assert.Nil(t, contact)

	conv, err := store.GetConversationMapping(ctx, 123456)
	require.NoError(t, err)
	assert.Nil(t, conv)

	activity, err := store.GetActivityMapping(ctx, 123456)
	require.NoError(t, err)
	assert.Nil(t, activity)

	entry, err := store.GetStageChangeLog(ctx, "missing", 123456)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func testEnsureConversationMapping(t *testing.T, store Store) {
	ctx := context.Background()

	conv := buildConversationMapping(t, 300, 30, 3)
	stored, created, err := store.EnsureConversationMapping(ctx, conv)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(3), stored.KrayinLeadID)

	again, created, err := store.EnsureConversationMapping(ctx, buildConversationMapping(t, 300, 30, 4))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(3), again.KrayinLeadID)
}

func testRecordActivity(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("records message 555 on conversation 42", func(t *testing.T) {
		seedConversation(t, store, 42, 7, 9)

		activity, err := schema.NewActivityMapping(555, 1001, 9, 42, "incoming")
		require.NoError(t, err)
		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		created, err := store.RecordActivity(ctx, activity, at)
		require.NoError(t, err)
		assert.True(t, created)

		conv, err := store.GetConversationMapping(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, 1, conv.MessageCount)
		require.NotNil(t, conv.LastMessageAt)
		assert.True(t, conv.LastMessageAt.Equal(at))
		assert.Nil(t, conv.FirstResponseAt)

		stored, err := store.GetActivityMapping(ctx, 555)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, int64(1001), stored.KrayinActivityID)
		assert.Equal(t, int64(9), stored.KrayinLeadID)
	})

	t.Run("duplicate message does not bump the counter", func(t *testing.T) {
		seedConversation(t, store, 43, 8, 10)

		activity, err := schema.NewActivityMapping(556, 1002, 10, 43, "outgoing")
		require.NoError(t, err)
		at := time.Now().UTC()

		created, err := store.RecordActivity(ctx, activity, at)
		require.NoError(t, err)
		assert.True(t, created)

		dup, err := schema.NewActivityMapping(556, 1003, 10, 43, "outgoing")
		require.NoError(t, err)
		created, err = store.RecordActivity(ctx, dup, at)
		require.NoError(t, err)
		assert.False(t, created)

		conv, err := store.GetConversationMapping(ctx, 43)
		require.NoError(t, err)
		assert.Equal(t, 1, conv.MessageCount)
		assert.NotNil(t, conv.FirstResponseAt)
	})

	t.Run("last_message_at never moves backwards", func(t *testing.T) {
		seedConversation(t, store, 44, 9, 11)

		later := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
		earlier := later.Add(-time.Hour)

		a1, _ := schema.NewActivityMapping(601, 2001, 11, 44, "incoming")
		_, err := store.RecordActivity(ctx, a1, later)
		require.NoError(t, err)
		a2, _ := schema.NewActivityMapping(602, 2002, 11, 44, "incoming")
		_, err = store.RecordActivity(ctx, a2, earlier)
		require.NoError(t, err)

		conv, err := store.GetConversationMapping(ctx, 44)
		require.NoError(t, err)
		assert.Equal(t, 2, conv.MessageCount)
		assert.True(t, conv.LastMessageAt.Equal(later))
	})

	t.Run("missing conversation mapping fails", func(t *testing.T) {
		activity, err := schema.NewActivityMapping(700, 3001, 12, 999, "incoming")
		require.NoError(t, err)

		_, err = store.RecordActivity(ctx, activity, time.Now())
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrMissingMapping)
	})
}

func testApplyStatusChange(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("resolved stamps resolved_at and reopen keeps it", func(t *testing.T) {
		seedConversation(t, store, 42, 7, 9)
		resolvedAt := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
		open := domain.ConversationStatusOpen

		conv, applied, err := store.ApplyStatusChange(ctx, StatusChangeInput{
			WebhookID:      "wh-1",
			ConversationID: 42,
			LeadID:         9,
			PreviousStatus: &open,
			NewStatus:      domain.ConversationStatusResolved,
			StageName:      domain.StageFollowUp,
			ChangedAt:      resolvedAt,
		})
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, domain.ConversationStatusResolved, conv.Status)
		require.NotNil(t, conv.ResolvedAt)

		resolved := domain.ConversationStatusResolved
		conv, applied, err = store.ApplyStatusChange(ctx, StatusChangeInput{
			WebhookID:      "wh-2",
			ConversationID: 42,
			LeadID:         9,
			PreviousStatus: &resolved,
			NewStatus:      domain.ConversationStatusOpen,
			StageName:      domain.StageInProgress,
			ChangedAt:      resolvedAt.Add(time.Hour),
		})
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, domain.ConversationStatusOpen, conv.Status)

		stored, err := store.GetConversationMapping(ctx, 42)
		require.NoError(t, err)
		require.NotNil(t, stored.ResolvedAt)
		assert.True(t, stored.ResolvedAt.Equal(resolvedAt))

		// resolving again keeps the first timestamp
		_, _, err = store.ApplyStatusChange(ctx, StatusChangeInput{
			WebhookID:      "wh-3",
			ConversationID: 42,
			LeadID:         9,
			NewStatus:      domain.ConversationStatusResolved,
			StageName:      domain.StageFollowUp,
			ChangedAt:      resolvedAt.Add(2 * time.Hour),
		})
		require.NoError(t, err)
		stored, err = store.GetConversationMapping(ctx, 42)
		require.NoError(t, err)
		assert.True(t, stored.ResolvedAt.Equal(resolvedAt))
	})

	t.Run("same webhook applied twice is a no-op", func(t *testing.T) {
		seedConversation(t, store, 50, 15, 16)
		input := StatusChangeInput{
			WebhookID:      "wh-dup",
			ConversationID: 50,
			LeadID:         16,
			NewStatus:      domain.ConversationStatusPending,
			StageName:      domain.StageWaiting,
			ChangedAt:      time.Now().UTC(),
		}

		_, applied, err := store.ApplyStatusChange(ctx, input)
		require.NoError(t, err)
		assert.True(t, applied)

		_, applied, err = store.ApplyStatusChange(ctx, input)
		require.NoError(t, err)
		assert.False(t, applied)

		entry, err := store.GetStageChangeLog(ctx, "wh-dup", 50)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, domain.StageWaiting, entry.StageName)
	})

	t.Run("missing mapping", func(t *testing.T) {
		_, _, err := store.ApplyStatusChange(ctx, StatusChangeInput{
			WebhookID:      "wh-missing",
			ConversationID: 4242,
			NewStatus:      domain.ConversationStatusOpen,
			StageName:      domain.StageInProgress,
			ChangedAt:      time.Now(),
		})
		assert.ErrorIs(t, err, domain.ErrMissingMapping)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, _, err := store.ApplyStatusChange(ctx, StatusChangeInput{
			WebhookID:      "wh-bad",
			ConversationID: 42,
			NewStatus:      domain.ConversationStatus("archived"),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidEnum)
	})
}

// =============================================================================
// Test: Consent
// =============================================================================

func testConsent(t *testing.T, store Store) {
	ctx := context.Background()
	validity := 365 * 24 * time.Hour

	t.Run("grant, conflict, withdraw, not found", func(t *testing.T) {
		now := time.Now().UTC()
		record, err := schema.NewGrantedConsent(7, "marketing", now, "form", "10.0.0.1", "test")
		require.NoError(t, err)

		require.NoError(t, store.GrantConsent(ctx, record, now.Add(-validity)))
		assert.NotZero(t, record.ID)

		active, err := store.GetActiveConsent(ctx, 7, domain.ConsentTypeMarketing)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.True(t, active.ValidAt(now, validity))

		dup, err := schema.NewGrantedConsent(7, "marketing", now, "form", "", "")
		require.NoError(t, err)
		err = store.GrantConsent(ctx, dup, now.Add(-validity))
		assert.ErrorIs(t, err, domain.ErrConsentConflict)

		withdrawn, err := store.WithdrawConsent(ctx, 7, domain.ConsentTypeMarketing, now, "user request", now.Add(-validity))
		require.NoError(t, err)
		assert.Equal(t, domain.ConsentStatusWithdrawn, withdrawn.Status)
		assert.Equal(t, "user request", withdrawn.WithdrawalReason)

		_, err = store.WithdrawConsent(ctx, 7, domain.ConsentTypeMarketing, now, "", now.Add(-validity))
		assert.ErrorIs(t, err, domain.ErrConsentNotFound)

		active, err = store.GetActiveConsent(ctx, 7, domain.ConsentTypeMarketing)
		require.NoError(t, err)
		assert.Nil(t, active)
	})

	t.Run("stale grant is expired and replaced", func(t *testing.T) {
		now := time.Now().UTC()
		old := now.Add(-400 * 24 * time.Hour)
		stale, err := schema.NewGrantedConsent(8, "analytics", old, "import", "", "")
		require.NoError(t, err)
		require.NoError(t, store.GrantConsent(ctx, stale, old.Add(-validity)))

		_, err = store.WithdrawConsent(ctx, 8, domain.ConsentTypeAnalytics, now, "", now.Add(-validity))
		assert.ErrorIs(t, err, domain.ErrConsentNotFound)

		fresh, err := schema.NewGrantedConsent(8, "analytics", now, "form", "", "")
		require.NoError(t, err)
		require.NoError(t, store.GrantConsent(ctx, fresh, now.Add(-validity)))

		records, err := store.ListConsents(ctx, 8)
		require.NoError(t, err)
		require.Len(t, records, 2)

		statuses := map[domain.ConsentStatus]int{}
		for _, r := range records {
			statuses[r.Status]++
		}
		assert.Equal(t, 1, statuses[domain.ConsentStatusGranted])
		assert.Equal(t, 1, statuses[domain.ConsentStatusExpired])
	})

	t.Run("types are independent", func(t *testing.T) {
		now := time.Now().UTC()
		for _, ct := range []string{"data_processing", "communication"} {
			record, err := schema.NewGrantedConsent(9, ct, now, "form", "", "")
			require.NoError(t, err)
			require.NoError(t, store.GrantConsent(ctx, record, now.Add(-validity)))
		}

		records, err := store.ListConsents(ctx, 9)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("expire", func(t *testing.T) {
		now := time.Now().UTC()
		record, err := schema.NewGrantedConsent(10, "marketing", now, "form", "", "")
		require.NoError(t, err)
		require.NoError(t, store.GrantConsent(ctx, record, now.Add(-validity)))

		require.NoError(t, store.ExpireConsent(ctx, record.ID, now))
		active, err := store.GetActiveConsent(ctx, 10, domain.ConsentTypeMarketing)
		require.NoError(t, err)
		assert.Nil(t, active)
	})
}

// =============================================================================
// Test: Audit
// =============================================================================

func testAuditLogs(t *testing.T, store Store) {
	ctx := context.Background()

	changes, err := json.Marshal(map[string]string{"status": "granted"})
	require.NoError(t, err)

	log := &schema.AuditLog{
		EventID:     "01JAUDIT0000000000000000001",
		Action:      domain.AuditActionConsentGranted,
		TargetModel: domain.AuditTargetContact,
		TargetID:    "7",
		Changes:     changes,
	}
	require.NoError(t, store.CreateAuditLog(ctx, log))

	// same event id is ignored
	require.NoError(t, store.CreateAuditLog(ctx, &schema.AuditLog{
		EventID:     "01JAUDIT0000000000000000001",
		Action:      domain.AuditActionConsentGranted,
		TargetModel: domain.AuditTargetContact,
		TargetID:    "7",
	}))

	require.NoError(t, store.CreateAuditLog(ctx, &schema.AuditLog{
		EventID:     "01JAUDIT0000000000000000002",
		Action:      domain.AuditActionWebhookProcessed,
		TargetModel: domain.AuditTargetConversation,
		TargetID:    "42",
	}))

	logs, total, err := store.ListAuditLogs(ctx, AuditLogFilter{TargetModel: domain.AuditTargetContact, TargetID: "7"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.AuditActionConsentGranted, logs[0].Action)

	deleted, err := store.DeleteAuditLogsBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}

// =============================================================================
// Test: Dead letters
// =============================================================================

func testDeadLetters(t *testing.T, store Store) {
	ctx := context.Background()

	entry := buildDeadLetter("webhook-message_created-555")
	require.NoError(t, store.CreateDeadLetter(ctx, domain.JobKindWebhook, entry))
	require.NotZero(t, entry.ID)

	require.NoError(t, store.CreateDeadLetter(ctx, domain.JobKindDataExport, buildDeadLetter("export-1")))

	entries, total, err := store.ListDeadLetters(ctx, domain.JobKindWebhook, DeadLetterFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, "webhook-message_created-555", entries[0].JobID)
	assert.Equal(t, 5, entries[0].Attempts)

	got, err := store.GetDeadLetter(ctx, domain.JobKindWebhook, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, `{"id":555}`, string(got.Payload))

	deleted, err := store.DeleteDeadLetter(ctx, domain.JobKindWebhook, entry.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteDeadLetter(ctx, domain.JobKindWebhook, entry.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	got, err = store.GetDeadLetter(ctx, domain.JobKindWebhook, entry.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, _, err = store.ListDeadLetters(ctx, domain.JobKind("bogus"), DeadLetterFilter{})
	assert.ErrorIs(t, err, domain.ErrInvalidEnum)

	long := buildDeadLetter("webhook-long")
	long.ErrorMessage = strings.Repeat("x", maxErrorMessageLength+10)
	require.NoError(t, store.CreateDeadLetter(ctx, domain.JobKindWebhook, long))
	assert.Len(t, long.ErrorMessage, maxErrorMessageLength)
}

// =============================================================================
// Test: LGPD
// =============================================================================

func testContactData(t *testing.T, store Store) {
	ctx := context.Background()
	now := time.Now().UTC()

	seedConversation(t, store, 42, 7, 9)
	activity, err := schema.NewActivityMapping(555, 1001, 9, 42, "incoming")
	require.NoError(t, err)
	_, err = store.RecordActivity(ctx, activity, now)
	require.NoError(t, err)
	_, _, err = store.ApplyStatusChange(ctx, StatusChangeInput{
		WebhookID:      "wh-erase",
		ConversationID: 42,
		LeadID:         9,
		NewStatus:      domain.ConversationStatusResolved,
		StageName:      domain.StageFollowUp,
		ChangedAt:      now,
	})
	require.NoError(t, err)
	consent, err := schema.NewGrantedConsent(7, "data_processing", now, "form", "", "")
	require.NoError(t, err)
	require.NoError(t, store.GrantConsent(ctx, consent, now.Add(-365*24*time.Hour)))
	require.NoError(t, store.CreateAuditLog(ctx, &schema.AuditLog{
		EventID:     "01JERASE00000000000000000001",
		Action:      domain.AuditActionConsentGranted,
		TargetModel: domain.AuditTargetContact,
		TargetID:    strconv.Itoa(7),
	}))

	// unrelated contact survives erasure
	seedConversation(t, store, 43, 8, 10)

	data, err := store.CollectContactData(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, data.ContactMapping)
	assert.Len(t, data.Conversations, 1)
	assert.Len(t, data.Activities, 1)
	assert.Len(t, data.StageChanges, 1)
	assert.Len(t, data.Consents, 1)
	assert.Len(t, data.AuditLogs, 1)

	result, err := store.EraseContactData(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.ContactMappings)
	assert.Equal(t, int64(1), result.ConversationMappings)
	assert.Equal(t, int64(1), result.ActivityMappings)
	assert.Equal(t, int64(1), result.StageChangeLogs)
	assert.Equal(t, int64(1), result.ConsentRecords)
	assert.Equal(t, int64(1), result.AuditLogs)

	data, err = store.CollectContactData(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, data.ContactMapping)
	assert.Empty(t, data.Conversations)

	other, err := store.GetConversationMapping(ctx, 43)
	require.NoError(t, err)
	assert.NotNil(t, other)
}

// RunStoreTests runs every store test against the given implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"CreateLeadMappings", testCreateLeadMappings},
		{"GetMappingsNotFound", testGetMappingsNotFound},
		{"EnsureConversationMapping", testEnsureConversationMapping},
		{"RecordActivity", testRecordActivity},
		{"ApplyStatusChange", testApplyStatusChange},
		{"Consent", testConsent},
		{"AuditLogs", testAuditLogs},
		{"DeadLetters", testDeadLetters},
		{"ContactData", testContactData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
