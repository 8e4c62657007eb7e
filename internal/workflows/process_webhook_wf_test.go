package workflows_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/feral-file/crm-bridge/internal/audit"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/mocks"
	"github.com/feral-file/crm-bridge/internal/webhook"
	"github.com/feral-file/crm-bridge/internal/workflows"
)

// ProcessWebhookTestSuite is the test suite for the webhook scheduler workflows
type ProcessWebhookTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite

	env        *testsuite.TestWorkflowEnvironment
	ctrl       *gomock.Controller
	executor   *mocks.MockCoreExecutor
	workerCore workflows.WorkerCore
}

// SetupTest is called before each test
func (s *ProcessWebhookTestSuite) SetupTest() {
	_ = logger.Initialize(logger.Config{
		Debug: true,
	})

	s.env = s.NewTestWorkflowEnvironment()
	s.ctrl = gomock.NewController(s.T())
	s.executor = mocks.NewMockCoreExecutor(s.ctrl)
	s.workerCore = workflows.NewWorkerCore(s.executor, workflows.WorkerCoreConfig{
		AuditTaskQueue: "webhooks",
	})
}

// TearDownTest is called after each test
func (s *ProcessWebhookTestSuite) TearDownTest() {
	s.env.AssertExpectations(s.T())
	s.ctrl.Finish()
}

// TestProcessWebhookTestSuite runs the test suite
func TestProcessWebhookTestSuite(t *testing.T) {
	suite.Run(t, new(ProcessWebhookTestSuite))
}

func webhookMessageJob() webhook.Job {
	return webhook.Job{
		WebhookID: "555",
		EventType: domain.EventTypeMessageCreated,
		Payload: json.RawMessage(`{"event":"message_created","id":555,"conversation_id":42,"message_type":"incoming",` +
			`"content_type":"text","content":"hi","sender":{"name":"Ana","type":"contact"},"created_at":"2024-01-01T00:00:00Z"}`),
		IPAddress:  "10.0.0.1",
		UserAgent:  "Chatwoot",
		ReceivedAt: time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC),
	}
}

func attemptIs(n int) interface{} {
	return mock.MatchedBy(func(job webhook.Job) bool { return job.Attempt == n })
}

func auditAction(action string) interface{} {
	return mock.MatchedBy(func(entry audit.Entry) bool {
		return entry.Action == action && len(entry.EventID) == 26 && !entry.OccurredAt.IsZero()
	})
}

// ====================================================================================
// ProcessWebhook
// ====================================================================================

func (s *ProcessWebhookTestSuite) TestProcessWebhook_Success() {
	job := webhookMessageJob()

	s.env.OnActivity(s.executor.HandleMessageCreated, mock.Anything, attemptIs(1)).
		Return(&workflows.HandleResult{
			Outcome:     workflows.OutcomeApplied,
			TargetModel: domain.AuditTargetMessage,
			TargetID:    "555",
			LeadID:      9,
			ActivityID:  77,
		}, nil).Once()
	s.env.OnWorkflow(s.workerCore.RecordAudit, mock.Anything, mock.MatchedBy(func(entry audit.Entry) bool {
		return entry.Action == domain.AuditActionWebhookProcessed &&
			entry.TargetModel == domain.AuditTargetMessage &&
			entry.TargetID == "555" &&
			entry.IPAddress == "10.0.0.1" &&
			entry.Changes["outcome"] == workflows.OutcomeApplied
	})).Return(nil).Once()

	s.env.ExecuteWorkflow(s.workerCore.ProcessWebhook, job)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *ProcessWebhookTestSuite) TestProcessWebhook_RetriesOnScheduleThenSucceeds() {
	job := webhookMessageJob()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.env.SetStartTime(start)

	s.env.OnActivity(s.executor.HandleMessageCreated, mock.Anything, attemptIs(1)).
		Return(nil, errors.New("krayin unavailable")).Once()
	s.env.OnActivity(s.executor.HandleMessageCreated, mock.Anything, attemptIs(2)).
		Return(nil, errors.New("krayin unavailable")).Once()
	s.env.OnActivity(s.executor.HandleMessageCreated, mock.Anything, attemptIs(3)).
		Return(&workflows.HandleResult{Outcome: workflows.OutcomeApplied, TargetModel: domain.AuditTargetMessage, TargetID: "555"}, nil).Once()
	s.env.OnWorkflow(s.workerCore.RecordAudit, mock.Anything, auditAction(domain.AuditActionWebhookProcessed)).Return(nil).Once()

	s.env.ExecuteWorkflow(s.workerCore.ProcessWebhook, job)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
	// 60s after the first failure and 120s after the second
	s.GreaterOrEqual(s.env.Now().Sub(start), 180*time.Second)
}

func (s *ProcessWebhookTestSuite) TestProcessWebhook_ExhaustedAttemptsDeadLetter() {
	job := webhookMessageJob()

	s.env.OnActivity(s.executor.HandleMessageCreated, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused")).Times(5)
	s.env.OnActivity(s.executor.DeadLetterWebhook, mock.Anything,
		mock.MatchedBy(func(j webhook.Job) bool { return j.WebhookID == "555" && string(j.Payload) == string(job.Payload) }),
		mock.MatchedBy(func(msg string) bool { return strings.Contains(msg, "connection refused") }),
		5,
	).Return(uint64(12), nil).Once()
	s.env.OnWorkflow(s.workerCore.RecordAudit, mock.Anything, mock.MatchedBy(func(entry audit.Entry) bool {
		return entry.Action == domain.AuditActionWebhookDeadLettered &&
			entry.TargetModel == domain.AuditTargetDeadLetter &&
			entry.TargetID == "12"
	})).Return(nil).Once()

	s.env.ExecuteWorkflow(s.workerCore.ProcessWebhook, job)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *ProcessWebhookTestSuite) TestProcessWebhook_TerminalErrorDeadLettersImmediately() {
	job := webhookMessageJob()

	s.env.OnActivity(s.executor.HandleMessageCreated, mock.Anything, attemptIs(1)).
		Return(nil, temporal.NewNonRetryableApplicationError("validation failed: message type", string(domain.ErrorCodeValidation), nil)).Once()
	s.env.OnActivity(s.executor.DeadLetterWebhook, mock.Anything, mock.Anything,
		mock.MatchedBy(func(msg string) bool { return strings.Contains(msg, "validation failed") }),
		1,
	).Return(uint64(3), nil).Once()
	s.env.OnWorkflow(s.workerCore.RecordAudit, mock.Anything, auditAction(domain.AuditActionWebhookDeadLettered)).Return(nil).Once()

	s.env.ExecuteWorkflow(s.workerCore.ProcessWebhook, job)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *ProcessWebhookTestSuite) TestProcessWebhook_UnsupportedEvent() {
	job := webhookMessageJob()
	job.EventType = "contact_updated"

	s.env.OnActivity(s.executor.DeadLetterWebhook, mock.Anything, mock.Anything,
		mock.MatchedBy(func(msg string) bool { return strings.Contains(msg, "unsupported webhook event") }),
		1,
	).Return(uint64(4), nil).Once()
	s.env.OnWorkflow(s.workerCore.RecordAudit, mock.Anything, auditAction(domain.AuditActionWebhookDeadLettered)).Return(nil).Once()

	s.env.ExecuteWorkflow(s.workerCore.ProcessWebhook, job)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *ProcessWebhookTestSuite) TestProcessWebhook_MissingMappingParkedByHandler() {
	job := webhookMessageJob()

	s.env.OnActivity(s.executor.HandleMessageCreated, mock.Anything, attemptIs(1)).
		Return(&workflows.HandleResult{
			Outcome:        workflows.OutcomeDeadLettered,
			TargetModel:    domain.AuditTargetMessage,
			TargetID:       "42",
			DeadLetterID:   8,
			MissingMapping: "conversation",
		}, nil).Once()
	s.env.OnWorkflow(s.workerCore.RecordAudit, mock.Anything, mock.MatchedBy(func(entry audit.Entry) bool {
		return entry.Action == domain.AuditActionWebhookDeadLettered && entry.Changes["missing_mapping"] == "conversation"
	})).Return(nil).Once()

	s.env.ExecuteWorkflow(s.workerCore.ProcessWebhook, job)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *ProcessWebhookTestSuite) TestProcessWebhook_RoutesConversationEvents() {
	job := webhook.Job{
		WebhookID: "42",
		EventType: domain.EventTypeContactCreated,
		Payload:   json.RawMessage(`{"event":"contact_created","id":7,"conversation":{"id":42}}`),
	}

	s.env.OnActivity(s.executor.HandleConversationCreated, mock.Anything, attemptIs(1)).
		Return(&workflows.HandleResult{Outcome: workflows.OutcomeApplied, TargetModel: domain.AuditTargetConversation, TargetID: "42", LeadID: 9}, nil).Once()
	s.env.OnWorkflow(s.workerCore.RecordAudit, mock.Anything, auditAction(domain.AuditActionWebhookProcessed)).Return(nil).Once()

	s.env.ExecuteWorkflow(s.workerCore.ProcessWebhook, job)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *ProcessWebhookTestSuite) TestProcessWebhook_AuditStartFailureDoesNotFailJob() {
	job := webhookMessageJob()
	job.EventType = domain.EventTypeConversationStatusChanged

	s.env.OnActivity(s.executor.HandleConversationStatusChanged, mock.Anything, attemptIs(1)).
		Return(&workflows.HandleResult{Outcome: workflows.OutcomeDuplicate, TargetModel: domain.AuditTargetConversation, TargetID: "42"}, nil).Once()
	s.env.OnWorkflow(s.workerCore.RecordAudit, mock.Anything, mock.Anything).Return(testsuite.ErrMockStartChildWorkflowFailed).Once()

	s.env.ExecuteWorkflow(s.workerCore.ProcessWebhook, job)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *ProcessWebhookTestSuite) TestProcessWebhook_DeadLetterFailureFailsWorkflow() {
	job := webhookMessageJob()

	s.env.OnActivity(s.executor.HandleMessageCreated, mock.Anything, attemptIs(1)).
		Return(nil, temporal.NewNonRetryableApplicationError("bad payload", string(domain.ErrorCodeValidation), nil)).Once()
	s.env.OnActivity(s.executor.DeadLetterWebhook, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(uint64(0), temporal.NewNonRetryableApplicationError("database down", "DB", nil))

	s.env.ExecuteWorkflow(s.workerCore.ProcessWebhook, job)

	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

// ====================================================================================
// RecordAudit
// ====================================================================================

func auditEntry() audit.Entry {
	return audit.Entry{
		EventID:     "01J00000000000000000000000",
		Action:      domain.AuditActionConsentGranted,
		TargetModel: domain.AuditTargetConsent,
		TargetID:    "11",
		OccurredAt:  time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC),
	}
}

func (s *ProcessWebhookTestSuite) TestRecordAudit_Success() {
	entry := auditEntry()
	s.env.OnActivity(s.executor.PersistAuditLog, mock.Anything, mock.MatchedBy(func(e audit.Entry) bool {
		return e.EventID == entry.EventID && e.Action == entry.Action
	})).Return(nil).Once()

	s.env.ExecuteWorkflow(s.workerCore.RecordAudit, entry)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *ProcessWebhookTestSuite) TestRecordAudit_DeadLettersOnExhaustion() {
	entry := auditEntry()
	s.env.OnActivity(s.executor.PersistAuditLog, mock.Anything, mock.Anything).
		Return(errors.New("deadlock detected")).Times(5)
	s.env.OnActivity(s.executor.DeadLetterAudit, mock.Anything, mock.Anything,
		mock.MatchedBy(func(msg string) bool { return strings.Contains(msg, "deadlock detected") }), 5).
		Return(uint64(1), nil).Once()

	s.env.ExecuteWorkflow(s.workerCore.RecordAudit, entry)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *ProcessWebhookTestSuite) TestRecordAudit_NeverFails() {
	entry := auditEntry()
	s.env.OnActivity(s.executor.PersistAuditLog, mock.Anything, mock.Anything).
		Return(temporal.NewNonRetryableApplicationError("bad changes", string(domain.ErrorCodeValidation), nil)).Once()
	s.env.OnActivity(s.executor.DeadLetterAudit, mock.Anything, mock.Anything, mock.Anything, 1).
		Return(uint64(0), temporal.NewNonRetryableApplicationError("database down", "DB", nil))

	s.env.ExecuteWorkflow(s.workerCore.RecordAudit, entry)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

// ====================================================================================
// PurgeExpiredAuditLogs
// ====================================================================================

func (s *ProcessWebhookTestSuite) TestPurgeExpiredAuditLogs_DefaultRetention() {
	start := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)
	s.env.SetStartTime(start)

	s.env.OnActivity(s.executor.PurgeAuditLogs, mock.Anything, mock.MatchedBy(func(before time.Time) bool {
		return before.Equal(start.AddDate(0, 0, -workflows.DefaultRetentionDays))
	})).Return(int64(40), nil).Once()

	s.env.ExecuteWorkflow(s.workerCore.PurgeExpiredAuditLogs, 0)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
	var deleted int64
	s.NoError(s.env.GetWorkflowResult(&deleted))
	s.Equal(int64(40), deleted)
}

func (s *ProcessWebhookTestSuite) TestPurgeExpiredAuditLogs_ExplicitWindow() {
	start := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)
	s.env.SetStartTime(start)

	s.env.OnActivity(s.executor.PurgeAuditLogs, mock.Anything, mock.MatchedBy(func(before time.Time) bool {
		return before.Equal(start.AddDate(0, 0, -30))
	})).Return(int64(0), nil).Once()

	s.env.ExecuteWorkflow(s.workerCore.PurgeExpiredAuditLogs, 30)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}
