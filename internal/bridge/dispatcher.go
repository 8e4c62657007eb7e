package bridge

import (
	"context"
	"fmt"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/providers/temporal"
	"github.com/feral-file/crm-bridge/internal/webhook"
	"github.com/feral-file/crm-bridge/internal/workflows"
)

// Queues names the task queues webhook jobs are routed to
type Queues struct {
	High   string
	Normal string
}

// Dispatcher starts the handler workflow of a webhook job
//
//go:generate mockgen -source=dispatcher.go -destination=../mocks/dispatcher.go -package=mocks -mock_names=Dispatcher=MockDispatcher
type Dispatcher interface {
	// Dispatch starts the job workflow. A job whose workflow already completed
	// returns started=false without error.
	Dispatch(ctx context.Context, job webhook.Job) (started bool, err error)
}

type dispatcher struct {
	orchestrator temporal.TemporalOrchestrator
	queues       Queues
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(orchestrator temporal.TemporalOrchestrator, queues Queues) Dispatcher {
	return &dispatcher{
		orchestrator: orchestrator,
		queues:       queues,
	}
}

// QueueFor returns the task queue of an event
func (q Queues) QueueFor(job webhook.Job) string {
	if job.EventType.HighPriority() {
		return q.High
	}
	return q.Normal
}

// Dispatch starts ProcessWebhook for the job
func (d *dispatcher) Dispatch(ctx context.Context, job webhook.Job) (bool, error) {
	w := workflows.NewWorkerCore(nil, workflows.WorkerCoreConfig{})

	opt := client.StartWorkflowOptions{
		ID:                    job.WorkflowID(),
		TaskQueue:             d.queues.QueueFor(job),
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY,
	}
	run, err := d.orchestrator.ExecuteWorkflow(ctx, opt, w.ProcessWebhook, job)
	if err != nil {
		if temporal.IsAlreadyStarted(err) {
			logger.InfoCtx(ctx, "Webhook already processed, skipping",
				zap.String("workflow_id", opt.ID))
			return false, nil
		}
		return false, fmt.Errorf("failed to execute workflow: %w", err)
	}

	logger.InfoCtx(ctx, "Webhook forwarded to worker",
		zap.String("workflow_id", run.GetID()),
		zap.String("run_id", run.GetRunID()),
		zap.String("task_queue", opt.TaskQueue),
		zap.String("event_type", string(job.EventType)))

	return true, nil
}
