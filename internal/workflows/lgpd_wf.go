package workflows

import (
	"fmt"
	"strconv"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/audit"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/store"
)

// Workflow id prefixes of data subject requests
const (
	ExportWorkflowPrefix  = "lgpd-export-"
	ErasureWorkflowPrefix = "lgpd-erase-"
)

// ExportContactData builds a data subject export and returns its download link
func (w *workerCore) ExportContactData(ctx workflow.Context, req DataRequest) (*ExportResult, error) {
	logger.InfoWf(ctx, "Exporting contact data",
		zap.String("request_id", req.RequestID),
		zap.Int64("contact_id", req.ContactID))

	var result ExportResult
	attempts, err := w.runScheduled(ctx, "data_export", w.bulkPolicy(),
		func(activityCtx workflow.Context, _ int) error {
			return workflow.ExecuteActivity(activityCtx, w.executor.ExportContactData, req).Get(activityCtx, &result)
		})
	if err != nil {
		return nil, w.deadLetterRequest(ctx, domain.JobKindDataExport, w.executor.DeadLetterExport, req, err, attempts)
	}

	w.recordAudit(ctx, audit.Entry{
		ActorID:     req.ActorID,
		Action:      domain.AuditActionDataExported,
		TargetModel: domain.AuditTargetContact,
		TargetID:    strconv.FormatInt(req.ContactID, 10),
		Changes: map[string]interface{}{
			"request_id": req.RequestID,
			"file":       result.Filename,
			"expires_at": result.Link.ExpiresAt,
		},
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
	})

	return &result, nil
}

// EraseContactData removes everything held about a data subject
func (w *workerCore) EraseContactData(ctx workflow.Context, req DataRequest) (*store.ErasureResult, error) {
	logger.InfoWf(ctx, "Erasing contact data",
		zap.String("request_id", req.RequestID),
		zap.Int64("contact_id", req.ContactID))

	var result store.ErasureResult
	attempts, err := w.runScheduled(ctx, "data_deletion", w.bulkPolicy(),
		func(activityCtx workflow.Context, _ int) error {
			return workflow.ExecuteActivity(activityCtx, w.executor.EraseContactData, req).Get(activityCtx, &result)
		})
	if err != nil {
		return nil, w.deadLetterRequest(ctx, domain.JobKindDataDeletion, w.executor.DeadLetterDeletion, req, err, attempts)
	}

	// Recorded after the erasure so the proof of deletion survives it
	w.recordAudit(ctx, audit.Entry{
		ActorID:     req.ActorID,
		Action:      domain.AuditActionDataErased,
		TargetModel: domain.AuditTargetContact,
		TargetID:    strconv.FormatInt(req.ContactID, 10),
		Changes: map[string]interface{}{
			"request_id": req.RequestID,
			"erased":     result,
		},
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
	})

	return &result, nil
}

// deadLetterRequest parks a failed data subject request and returns the error
// the workflow fails with, so the request shows as failed to whoever polls it
func (w *workerCore) deadLetterRequest(ctx workflow.Context, kind domain.JobKind, activity interface{}, req DataRequest, cause error, attempts int) error {
	msg := failureMessage(cause)

	var deadLetterID uint64
	dlCtx := deadLetterOptions(ctx)
	if err := workflow.ExecuteActivity(dlCtx, activity, req, msg, attempts).Get(dlCtx, &deadLetterID); err != nil {
		logger.CriticalWf(ctx, fmt.Errorf("failed to dead-letter %s request %s: %w", kind, req.RequestID, err),
			zap.Int64("contact_id", req.ContactID),
			zap.String("cause", msg))
		return err
	}

	logger.CriticalWf(ctx, fmt.Errorf("%s request %s dead-lettered after %d attempts: %s", kind, req.RequestID, attempts, msg),
		zap.Int64("contact_id", req.ContactID),
		zap.Uint64("dead_letter_id", deadLetterID))

	return temporal.NewNonRetryableApplicationError(
		fmt.Sprintf("%s request dead-lettered: %s", kind, msg), "DEAD_LETTERED", nil)
}
