package workflows

import (
	"fmt"

	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/audit"
	"github.com/feral-file/crm-bridge/internal/logger"
)

// RecordAudit persists an audit entry under the webhook retry schedule and
// dead-letters it on exhaustion. Losing an audit entry is reported, not raised.
func (w *workerCore) RecordAudit(ctx workflow.Context, entry audit.Entry) error {
	attempts, err := w.runScheduled(ctx, "audit:"+entry.Action, w.webhookPolicy(),
		func(activityCtx workflow.Context, _ int) error {
			return workflow.ExecuteActivity(activityCtx, w.executor.PersistAuditLog, entry).Get(activityCtx, nil)
		})
	if err == nil {
		return nil
	}

	msg := failureMessage(err)
	var deadLetterID uint64
	dlCtx := deadLetterOptions(ctx)
	if dlErr := workflow.ExecuteActivity(dlCtx, w.executor.DeadLetterAudit, entry, msg, attempts).Get(dlCtx, &deadLetterID); dlErr != nil {
		logger.CriticalWf(ctx, fmt.Errorf("audit entry %s lost: %w", entry.EventID, dlErr),
			zap.String("action", entry.Action),
			zap.String("cause", msg))
		return nil
	}

	logger.CriticalWf(ctx, fmt.Errorf("audit entry %s dead-lettered after %d attempts: %s", entry.EventID, attempts, msg),
		zap.String("action", entry.Action),
		zap.Uint64("dead_letter_id", deadLetterID))
	return nil
}

// PurgeExpiredAuditLogs removes audit logs older than the retention window
func (w *workerCore) PurgeExpiredAuditLogs(ctx workflow.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = w.config.AuditRetentionDays
	}
	before := workflow.Now(ctx).AddDate(0, 0, -retentionDays)

	activityCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: w.config.BulkTimeout,
	})

	var deleted int64
	if err := workflow.ExecuteActivity(activityCtx, w.executor.PurgeAuditLogs, before).Get(activityCtx, &deleted); err != nil {
		return 0, err
	}

	logger.InfoWf(ctx, "Audit retention applied",
		zap.Int("retention_days", retentionDays),
		zap.Time("before", before),
		zap.Int64("deleted", deleted))
	return deleted, nil
}
