// Package audit records state changing operations asynchronously.
// Record never fails the caller: the write runs in its own workflow with retries
// and lands in failed_audit_logs when it cannot be persisted.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/providers/temporal"
	"github.com/feral-file/crm-bridge/internal/store/schema"
)

// WorkflowRecordAudit is the registered name of the audit workflow
const WorkflowRecordAudit = "RecordAudit"

const startTimeout = 5 * time.Second

// Entry is one audit record
type Entry struct {
	EventID     string                 `json:"event_id"`
	ActorID     *string                `json:"actor_id,omitempty"`
	Action      string                 `json:"action"`
	TargetModel string                 `json:"target_model"`
	TargetID    string                 `json:"target_id"`
	Changes     map[string]interface{} `json:"changes,omitempty"`
	IPAddress   string                 `json:"ip_address,omitempty"`
	UserAgent   string                 `json:"user_agent,omitempty"`
	OccurredAt  time.Time              `json:"occurred_at"`
}

// ToSchema converts the entry into its table row
func (e Entry) ToSchema(json adapter.JSON) (*schema.AuditLog, error) {
	changes := []byte("{}")
	if len(e.Changes) > 0 {
		b, err := json.Marshal(e.Changes)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal audit changes: %w", err)
		}
		changes = b
	}
	return &schema.AuditLog{
		EventID:     e.EventID,
		ActorID:     e.ActorID,
		Action:      e.Action,
		TargetModel: e.TargetModel,
		TargetID:    e.TargetID,
		Changes:     datatypes.JSON(changes),
		IPAddress:   e.IPAddress,
		UserAgent:   e.UserAgent,
		CreatedAt:   e.OccurredAt,
	}, nil
}

// NewEventID returns a time sortable audit event id
func NewEventID(t time.Time) string {
	return ulid.MustNewDefault(t).String()
}

// WorkflowID returns the audit workflow id of an event
func WorkflowID(eventID string) string {
	return "audit-" + eventID
}

// Recorder emits audit records
//
//go:generate mockgen -source=audit.go -destination=../mocks/audit_recorder.go -package=mocks -mock_names=Recorder=MockAuditRecorder
type Recorder interface {
	// Record queues entry for persistence. It never returns an error.
	Record(ctx context.Context, entry Entry)
}

type auditor struct {
	orchestrator temporal.TemporalOrchestrator
	taskQueue    string
	clock        adapter.Clock
	runTimeout   time.Duration
}

// NewAuditor creates a Recorder that starts one audit workflow per entry on taskQueue
func NewAuditor(orchestrator temporal.TemporalOrchestrator, taskQueue string, clock adapter.Clock, runTimeout time.Duration) Recorder {
	if runTimeout <= 0 {
		runTimeout = 2 * time.Hour
	}
	return &auditor{
		orchestrator: orchestrator,
		taskQueue:    taskQueue,
		clock:        clock,
		runTimeout:   runTimeout,
	}
}

func (a *auditor) Record(ctx context.Context, entry Entry) {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = a.clock.Now().UTC()
	}
	if entry.EventID == "" {
		entry.EventID = NewEventID(entry.OccurredAt)
	}

	// the caller's request may end before the start call returns
	startCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), startTimeout)
	defer cancel()

	options := client.StartWorkflowOptions{
		ID:                    WorkflowID(entry.EventID),
		TaskQueue:             a.taskQueue,
		WorkflowRunTimeout:    a.runTimeout,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	run, err := a.orchestrator.ExecuteWorkflow(startCtx, options, WorkflowRecordAudit, entry)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to start audit workflow",
			zap.String("event_id", entry.EventID),
			zap.String("action", entry.Action),
			zap.String("target_model", entry.TargetModel),
			zap.String("target_id", entry.TargetID),
			zap.Error(err))
		return
	}

	logger.DebugCtx(ctx, "Audit workflow started",
		zap.String("event_id", entry.EventID),
		zap.String("action", entry.Action),
		zap.String("workflow_id", run.GetID()))
}
