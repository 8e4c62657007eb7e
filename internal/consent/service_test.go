package consent_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/crm-bridge/internal/audit"
	"github.com/feral-file/crm-bridge/internal/config"
	"github.com/feral-file/crm-bridge/internal/consent"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/mocks"
	"github.com/feral-file/crm-bridge/internal/providers/chatwoot"
	"github.com/feral-file/crm-bridge/internal/store/schema"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type serviceMocks struct {
	store    *mocks.MockStore
	auditor  *mocks.MockAuditRecorder
	clock    *mocks.MockClock
	chatwoot *mocks.MockChatwootClient
}

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func setupService(t *testing.T, cfg config.ConsentConfig, withWriteBack bool) (consent.Service, *serviceMocks) {
	ctrl := gomock.NewController(t)
	m := &serviceMocks{
		store:    mocks.NewMockStore(ctrl),
		auditor:  mocks.NewMockAuditRecorder(ctrl),
		clock:    mocks.NewMockClock(ctrl),
		chatwoot: mocks.NewMockChatwootClient(ctrl),
	}
	m.clock.EXPECT().Now().Return(now).AnyTimes()

	var writeBack chatwoot.Client
	if withWriteBack {
		writeBack = m.chatwoot
	}
	return consent.NewService(m.store, m.auditor, m.clock, cfg, writeBack), m
}

func granted(id uint64, contactID int64, ct domain.ConsentType, at time.Time) *schema.ConsentRecord {
	return &schema.ConsentRecord{
		ID:                id,
		ChatwootContactID: contactID,
		ConsentType:       ct,
		Status:            domain.ConsentStatusGranted,
		GrantedAt:         &at,
	}
}

func TestHasValidConsent(t *testing.T) {
	cfg := config.ConsentConfig{DefaultValidityDays: 365, ValidityDays: map[string]int{"marketing": 30}}

	t.Run("no record", func(t *testing.T) {
		svc, m := setupService(t, cfg, false)
		m.store.EXPECT().GetActiveConsent(gomock.Any(), int64(7), domain.ConsentTypeDataProcessing).Return(nil, nil)

		ok, err := svc.HasValidConsent(context.Background(), 7, domain.ConsentTypeDataProcessing)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("inside window", func(t *testing.T) {
		svc, m := setupService(t, cfg, false)
		m.store.EXPECT().GetActiveConsent(gomock.Any(), int64(7), domain.ConsentTypeMarketing).
			Return(granted(3, 7, domain.ConsentTypeMarketing, now.Add(-29*24*time.Hour)), nil)

		ok, err := svc.HasValidConsent(context.Background(), 7, domain.ConsentTypeMarketing)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("past window is expired and audited", func(t *testing.T) {
		svc, m := setupService(t, cfg, false)
		m.store.EXPECT().GetActiveConsent(gomock.Any(), int64(7), domain.ConsentTypeMarketing).
			Return(granted(3, 7, domain.ConsentTypeMarketing, now.Add(-31*24*time.Hour)), nil)
		m.store.EXPECT().ExpireConsent(gomock.Any(), uint64(3), now).Return(nil)
		m.auditor.EXPECT().Record(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e audit.Entry) {
			assert.Equal(t, domain.AuditActionConsentExpired, e.Action)
			assert.Equal(t, "3", e.TargetID)
		})

		ok, err := svc.HasValidConsent(context.Background(), 7, domain.ConsentTypeMarketing)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("store error", func(t *testing.T) {
		svc, m := setupService(t, cfg, false)
		m.store.EXPECT().GetActiveConsent(gomock.Any(), int64(7), domain.ConsentTypeMarketing).Return(nil, errors.New("db down"))

		_, err := svc.HasValidConsent(context.Background(), 7, domain.ConsentTypeMarketing)
		assert.Error(t, err)
	})
}

func TestRequire(t *testing.T) {
	t.Run("disabled enforcement skips lookup", func(t *testing.T) {
		svc, _ := setupService(t, config.ConsentConfig{}, false)
		assert.NoError(t, svc.Require(context.Background(), 7, domain.ConsentTypeDataProcessing))
	})

	t.Run("enforced without consent", func(t *testing.T) {
		svc, m := setupService(t, config.ConsentConfig{RequireForSync: true}, false)
		m.store.EXPECT().GetActiveConsent(gomock.Any(), int64(7), domain.ConsentTypeDataProcessing).Return(nil, nil)

		err := svc.Require(context.Background(), 7, domain.ConsentTypeDataProcessing)
		assert.ErrorIs(t, err, domain.ErrConsentRequired)
	})

	t.Run("enforced with consent", func(t *testing.T) {
		svc, m := setupService(t, config.ConsentConfig{RequireForSync: true}, false)
		m.store.EXPECT().GetActiveConsent(gomock.Any(), int64(7), domain.ConsentTypeDataProcessing).
			Return(granted(1, 7, domain.ConsentTypeDataProcessing, now.Add(-time.Hour)), nil)

		assert.NoError(t, svc.Require(context.Background(), 7, domain.ConsentTypeDataProcessing))
	})
}

func TestGrant(t *testing.T) {
	cfg := config.ConsentConfig{DefaultValidityDays: 365}

	t.Run("grants and mirrors onto the contact", func(t *testing.T) {
		svc, m := setupService(t, cfg, true)
		m.store.EXPECT().GrantConsent(gomock.Any(), gomock.Any(), now.Add(-365*24*time.Hour)).
			DoAndReturn(func(_ context.Context, rec *schema.ConsentRecord, _ time.Time) error {
				assert.Equal(t, int64(7), rec.ChatwootContactID)
				assert.Equal(t, "10.0.0.1", rec.IPAddress)
				rec.ID = 11
				return nil
			})
		m.auditor.EXPECT().Record(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e audit.Entry) {
			assert.Equal(t, domain.AuditActionConsentGranted, e.Action)
			assert.Equal(t, "11", e.TargetID)
			require.NotNil(t, e.ActorID)
			assert.Equal(t, "agent-1", *e.ActorID)
		})
		m.chatwoot.EXPECT().UpdateConsentAttributes(gomock.Any(), int64(7), map[string]interface{}{
			"lgpd_consent_marketing": "granted",
		}).Return(&chatwoot.Contact{ID: 7}, nil)

		actor := "agent-1"
		got, err := svc.Grant(context.Background(), consent.GrantInput{
			ContactID:   7,
			ConsentType: "marketing",
			Source:      "widget",
			Actor:       consent.Actor{ID: &actor, IPAddress: "10.0.0.1"},
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(11), got.ID)
		assert.True(t, got.Valid)
		require.NotNil(t, got.ExpiresAt)
		assert.Equal(t, now.Add(365*24*time.Hour), *got.ExpiresAt)
	})

	t.Run("write-back failure is not fatal", func(t *testing.T) {
		svc, m := setupService(t, cfg, true)
		m.store.EXPECT().GrantConsent(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		m.auditor.EXPECT().Record(gomock.Any(), gomock.Any())
		m.chatwoot.EXPECT().UpdateConsentAttributes(gomock.Any(), int64(7), gomock.Any()).
			Return(nil, domain.NewUpstreamError("chatwoot", "update_contact", domain.IntPtr(503), "unavailable", nil))

		_, err := svc.Grant(context.Background(), consent.GrantInput{ContactID: 7, ConsentType: "analytics"})
		assert.NoError(t, err)
	})

	t.Run("conflict", func(t *testing.T) {
		svc, m := setupService(t, cfg, false)
		m.store.EXPECT().GrantConsent(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.ErrConsentConflict)

		_, err := svc.Grant(context.Background(), consent.GrantInput{ContactID: 7, ConsentType: "marketing"})
		assert.ErrorIs(t, err, domain.ErrConsentConflict)
	})

	t.Run("unknown type", func(t *testing.T) {
		svc, _ := setupService(t, cfg, false)

		_, err := svc.Grant(context.Background(), consent.GrantInput{ContactID: 7, ConsentType: "telepathy"})
		assert.ErrorIs(t, err, domain.ErrInvalidEnum)
	})

	t.Run("missing contact", func(t *testing.T) {
		svc, _ := setupService(t, cfg, false)

		_, err := svc.Grant(context.Background(), consent.GrantInput{ConsentType: "marketing"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestWithdraw(t *testing.T) {
	cfg := config.ConsentConfig{DefaultValidityDays: 365}

	t.Run("withdraws", func(t *testing.T) {
		svc, m := setupService(t, cfg, false)
		grantedAt := now.Add(-time.Hour)
		m.store.EXPECT().
			WithdrawConsent(gomock.Any(), int64(7), domain.ConsentTypeMarketing, now, "no longer interested", now.Add(-365*24*time.Hour)).
			Return(&schema.ConsentRecord{
				ID:                4,
				ChatwootContactID: 7,
				ConsentType:       domain.ConsentTypeMarketing,
				Status:            domain.ConsentStatusWithdrawn,
				GrantedAt:         &grantedAt,
				WithdrawnAt:       &now,
				WithdrawalReason:  "no longer interested",
			}, nil)
		m.auditor.EXPECT().Record(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e audit.Entry) {
			assert.Equal(t, domain.AuditActionConsentWithdrawn, e.Action)
			assert.Equal(t, "no longer interested", e.Changes["reason"])
		})

		got, err := svc.Withdraw(context.Background(), consent.WithdrawInput{
			ContactID:   7,
			ConsentType: "marketing",
			Reason:      "no longer interested",
		})
		require.NoError(t, err)
		assert.False(t, got.Valid)
		assert.Nil(t, got.ExpiresAt)
		assert.Equal(t, domain.ConsentStatusWithdrawn, got.Status)
	})

	t.Run("nothing active", func(t *testing.T) {
		svc, m := setupService(t, cfg, false)
		m.store.EXPECT().WithdrawConsent(gomock.Any(), int64(7), domain.ConsentTypeMarketing, now, "", gomock.Any()).
			Return(nil, domain.ErrConsentNotFound)

		_, err := svc.Withdraw(context.Background(), consent.WithdrawInput{ContactID: 7, ConsentType: "marketing"})
		assert.ErrorIs(t, err, domain.ErrConsentNotFound)
	})

	t.Run("invalid type", func(t *testing.T) {
		svc, _ := setupService(t, cfg, false)

		_, err := svc.Withdraw(context.Background(), consent.WithdrawInput{ContactID: 7, ConsentType: ""})
		assert.ErrorIs(t, err, domain.ErrInvalidEnum)
	})
}

func TestList(t *testing.T) {
	svc, m := setupService(t, config.ConsentConfig{DefaultValidityDays: 365, ValidityDays: map[string]int{"marketing": 30}}, false)
	expiredAt := now.Add(-24 * time.Hour)
	m.store.EXPECT().ListConsents(gomock.Any(), int64(7)).Return([]schema.ConsentRecord{
		*granted(2, 7, domain.ConsentTypeDataProcessing, now.Add(-10*24*time.Hour)),
		*granted(1, 7, domain.ConsentTypeMarketing, now.Add(-40*24*time.Hour)),
		{ID: 0, ChatwootContactID: 7, ConsentType: domain.ConsentTypeAnalytics, Status: domain.ConsentStatusExpired, ExpiredAt: &expiredAt},
	}, nil)

	got, err := svc.List(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Valid)
	assert.False(t, got[1].Valid)
	assert.False(t, got[2].Valid)
	assert.Nil(t, got[2].ExpiresAt)
}
