package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/audit"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/webhook"
)

// handlerFor returns the activity handling an event type, nil when none does
func (w *workerCore) handlerFor(eventType domain.EventType) interface{} {
	switch eventType {
	case domain.EventTypeConversationCreated, domain.EventTypeContactCreated:
		return w.executor.HandleConversationCreated
	case domain.EventTypeMessageCreated:
		return w.executor.HandleMessageCreated
	case domain.EventTypeConversationStatusChanged:
		return w.executor.HandleConversationStatusChanged
	}
	return nil
}

// ProcessWebhook runs the handler of a webhook job under the retry schedule
func (w *workerCore) ProcessWebhook(ctx workflow.Context, job webhook.Job) error {
	logger.InfoWf(ctx, "Processing webhook",
		zap.String("webhook_id", job.WebhookID),
		zap.String("event_type", string(job.EventType)),
		zap.Uint64p("replay_of", job.ReplayOf))

	handler := w.handlerFor(job.EventType)

	var result HandleResult
	attempts, err := w.runScheduled(ctx, "webhook:"+string(job.EventType), w.webhookPolicy(),
		func(activityCtx workflow.Context, n int) error {
			if handler == nil {
				return temporal.NewNonRetryableApplicationError(
					fmt.Sprintf("%s: %s", domain.ErrUnsupportedEvent, job.EventType),
					string(domain.ErrorCodeValidation), nil)
			}
			attemptJob := job
			attemptJob.Attempt = n
			return workflow.ExecuteActivity(activityCtx, handler, attemptJob).Get(activityCtx, &result)
		})

	if err != nil {
		return w.deadLetterWebhook(ctx, job, err, attempts)
	}

	logger.InfoWf(ctx, "Webhook processed",
		zap.String("webhook_id", job.WebhookID),
		zap.String("outcome", string(result.Outcome)),
		zap.Int("attempts", attempts),
		zap.Int64("lead_id", result.LeadID))

	action := domain.AuditActionWebhookProcessed
	if result.Outcome == OutcomeDeadLettered {
		action = domain.AuditActionWebhookDeadLettered
	}
	changes := map[string]interface{}{
		"event_type": job.EventType,
		"webhook_id": job.WebhookID,
		"outcome":    result.Outcome,
		"attempts":   attempts,
	}
	if result.LeadID > 0 {
		changes["lead_id"] = result.LeadID
	}
	if result.ActivityID > 0 {
		changes["activity_id"] = result.ActivityID
	}
	if result.StageName != "" {
		changes["stage"] = result.StageName
	}
	if result.MissingMapping != "" {
		changes["missing_mapping"] = result.MissingMapping
		changes["dead_letter_id"] = result.DeadLetterID
	}
	if job.ReplayOf != nil {
		changes["replay_of"] = *job.ReplayOf
	}

	w.recordAudit(ctx, audit.Entry{
		Action:      action,
		TargetModel: result.TargetModel,
		TargetID:    result.TargetID,
		Changes:     changes,
		IPAddress:   job.IPAddress,
		UserAgent:   job.UserAgent,
	})

	return nil
}

// deadLetterWebhook parks a job that failed for good. The workflow completes so
// redeliveries of the same webhook are not processed again.
func (w *workerCore) deadLetterWebhook(ctx workflow.Context, job webhook.Job, cause error, attempts int) error {
	msg := failureMessage(cause)

	var deadLetterID uint64
	dlCtx := deadLetterOptions(ctx)
	if err := workflow.ExecuteActivity(dlCtx, w.executor.DeadLetterWebhook, job, msg, attempts).Get(dlCtx, &deadLetterID); err != nil {
		logger.CriticalWf(ctx, fmt.Errorf("failed to dead-letter webhook %s: %w", job.WebhookID, err),
			zap.String("event_type", string(job.EventType)),
			zap.String("cause", msg))
		return err
	}

	logger.CriticalWf(ctx, fmt.Errorf("webhook %s dead-lettered after %d attempts: %s", job.WebhookID, attempts, msg),
		zap.String("event_type", string(job.EventType)),
		zap.Uint64("dead_letter_id", deadLetterID))

	w.recordAudit(ctx, audit.Entry{
		Action:      domain.AuditActionWebhookDeadLettered,
		TargetModel: domain.AuditTargetDeadLetter,
		TargetID:    fmt.Sprintf("%d", deadLetterID),
		Changes: map[string]interface{}{
			"event_type": job.EventType,
			"webhook_id": job.WebhookID,
			"attempts":   attempts,
			"error":      msg,
		},
		IPAddress: job.IPAddress,
		UserAgent: job.UserAgent,
	})
	return nil
}

// recordAudit starts RecordAudit as an abandoned child so the parent never waits on it
func (w *workerCore) recordAudit(ctx workflow.Context, entry audit.Entry) {
	if entry.EventID == "" {
		encoded := workflow.SideEffect(ctx, func(workflow.Context) interface{} {
			return audit.NewEventID(time.Now())
		})
		if err := encoded.Get(&entry.EventID); err != nil {
			logger.WarnWf(ctx, "Failed to generate audit event id", zap.Error(err))
			return
		}
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = workflow.Now(ctx)
	}

	childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID:            audit.WorkflowID(entry.EventID),
		TaskQueue:             w.config.AuditTaskQueue,
		WorkflowRunTimeout:    w.auditRunTimeout(),
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		ParentClosePolicy:     enums.PARENT_CLOSE_POLICY_ABANDON,
	})

	child := workflow.ExecuteChildWorkflow(childCtx, w.RecordAudit, entry)

	var execution workflow.Execution
	if err := child.GetChildWorkflowExecution().Get(ctx, &execution); err != nil {
		logger.WarnWf(ctx, "Failed to start audit workflow",
			zap.String("action", entry.Action),
			zap.String("event_id", entry.EventID),
			zap.Error(err))
		return
	}

	logger.DebugWf(ctx, "Audit workflow started",
		zap.String("action", entry.Action),
		zap.String("workflow_id", execution.ID))
}

// auditRunTimeout leaves room for every scheduled retry
func (w *workerCore) auditRunTimeout() time.Duration {
	total := time.Duration(0)
	for n := 1; n <= w.config.WebhookMaxAttempts; n++ {
		total += w.config.WebhookTimeout
		if n < w.config.WebhookMaxAttempts {
			total += w.delay(n)
		}
	}
	return total + time.Hour
}
