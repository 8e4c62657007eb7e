package audit_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/audit"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/mocks"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestAuditor_Record(t *testing.T) {
	ctrl := gomock.NewController(t)
	orchestrator := mocks.NewMockTemporalOrchestrator(ctrl)
	clock := mocks.NewMockClock(ctrl)
	run := mocks.NewMockWorkflowRun(ctrl)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock.EXPECT().Now().Return(now)

	var started audit.Entry
	orchestrator.EXPECT().
		ExecuteWorkflow(gomock.Any(), gomock.Any(), audit.WorkflowRecordAudit, gomock.Any()).
		DoAndReturn(func(_ context.Context, options client.StartWorkflowOptions, _ interface{}, args ...interface{}) (client.WorkflowRun, error) {
			assert.Equal(t, "webhooks", options.TaskQueue)
			started = args[0].(audit.Entry)
			assert.Equal(t, audit.WorkflowID(started.EventID), options.ID)
			return run, nil
		})
	run.EXPECT().GetID().Return("audit-x").AnyTimes()

	auditor := audit.NewAuditor(orchestrator, "webhooks", clock, 0)
	auditor.Record(context.Background(), audit.Entry{
		Action:      domain.AuditActionConsentGranted,
		TargetModel: domain.AuditTargetConsent,
		TargetID:    "7:marketing",
	})

	assert.Equal(t, now, started.OccurredAt)
	assert.Len(t, started.EventID, 26)
}

func TestAuditor_RecordKeepsEventID(t *testing.T) {
	ctrl := gomock.NewController(t)
	orchestrator := mocks.NewMockTemporalOrchestrator(ctrl)
	run := mocks.NewMockWorkflowRun(ctrl)
	run.EXPECT().GetID().Return("audit-01").AnyTimes()

	orchestrator.EXPECT().
		ExecuteWorkflow(gomock.Any(), gomock.Any(), audit.WorkflowRecordAudit, gomock.Any()).
		DoAndReturn(func(_ context.Context, options client.StartWorkflowOptions, _ interface{}, _ ...interface{}) (client.WorkflowRun, error) {
			assert.Equal(t, "audit-01HX", options.ID)
			return run, nil
		})

	auditor := audit.NewAuditor(orchestrator, "webhooks", adapter.NewClock(), time.Hour)
	auditor.Record(context.Background(), audit.Entry{EventID: "01HX", OccurredAt: time.Now()})
}

func TestAuditor_StartFailureIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	orchestrator := mocks.NewMockTemporalOrchestrator(ctrl)

	orchestrator.EXPECT().
		ExecuteWorkflow(gomock.Any(), gomock.Any(), audit.WorkflowRecordAudit, gomock.Any()).
		Return(nil, errors.New("temporal unavailable"))

	auditor := audit.NewAuditor(orchestrator, "webhooks", adapter.NewClock(), 0)
	assert.NotPanics(t, func() {
		auditor.Record(context.Background(), audit.Entry{Action: domain.AuditActionDataErased})
	})
}

func TestEntryToSchema(t *testing.T) {
	actor := "operator@example.com"
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	entry := audit.Entry{
		EventID:     audit.NewEventID(at),
		ActorID:     &actor,
		Action:      domain.AuditActionWebhookProcessed,
		TargetModel: domain.AuditTargetMessage,
		TargetID:    "555",
		Changes:     map[string]interface{}{"krayin_lead_id": 9},
		IPAddress:   "10.0.0.1",
		OccurredAt:  at,
	}

	row, err := entry.ToSchema(adapter.NewJSON())
	require.NoError(t, err)
	assert.Equal(t, entry.EventID, row.EventID)
	assert.Equal(t, &actor, row.ActorID)
	assert.JSONEq(t, `{"krayin_lead_id":9}`, string(row.Changes))
	assert.Equal(t, at, row.CreatedAt)

	empty, err := audit.Entry{EventID: "x"}.ToSchema(adapter.NewJSON())
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(empty.Changes))
}
