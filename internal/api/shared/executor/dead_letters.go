package executor

import (
	"context"
	"fmt"
	"strconv"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/api/shared/dto"
	apierrors "github.com/feral-file/crm-bridge/internal/api/shared/errors"
	"github.com/feral-file/crm-bridge/internal/audit"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/providers/temporal"
	"github.com/feral-file/crm-bridge/internal/store"
	"github.com/feral-file/crm-bridge/internal/store/schema"
	"github.com/feral-file/crm-bridge/internal/webhook"
	"github.com/feral-file/crm-bridge/internal/workflows"
)

func mapDeadLetter(kind domain.JobKind, dl *schema.DeadLetter) dto.DeadLetterResponse {
	return dto.DeadLetterResponse{
		ID:           dl.ID,
		Kind:         kind,
		JobID:        dl.JobID,
		EventType:    dl.EventType,
		Payload:      []byte(dl.Payload),
		ErrorMessage: dl.ErrorMessage,
		Attempts:     dl.Attempts,
		IPAddress:    dl.IPAddress,
		UserAgent:    dl.UserAgent,
		FailedAt:     dl.FailedAt,
		CreatedAt:    dl.CreatedAt,
	}
}

func (e *executor) ListDeadLetters(ctx context.Context, kind domain.JobKind, eventType string, limit, offset int) (*dto.DeadLetterListResponse, error) {
	entries, total, err := e.Store.ListDeadLetters(ctx, kind, store.DeadLetterFilter{
		EventType: eventType,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, apierrors.NewInternalError(fmt.Sprintf("Failed to list dead letters: %v", err))
	}

	items := make([]dto.DeadLetterResponse, len(entries))
	for i := range entries {
		items[i] = mapDeadLetter(kind, &entries[i])
	}
	return &dto.DeadLetterListResponse{
		Success: true,
		Items:   items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

func (e *executor) GetDeadLetter(ctx context.Context, kind domain.JobKind, id uint64) (*dto.DeadLetterResponse, error) {
	entry, err := e.Store.GetDeadLetter(ctx, kind, id)
	if err != nil {
		return nil, apierrors.NewInternalError(fmt.Sprintf("Failed to get dead letter: %v", err))
	}
	if entry == nil {
		return nil, apierrors.NewNotFoundError("Dead letter not found", strconv.FormatUint(id, 10))
	}
	resp := mapDeadLetter(kind, entry)
	return &resp, nil
}

func (e *executor) RetryDeadLetter(ctx context.Context, kind domain.JobKind, id uint64, actor Actor) (*dto.RetryResponse, error) {
	result, err := e.retry(ctx, kind, id, actor)
	if err != nil {
		return nil, err
	}
	return &dto.RetryResponse{Success: true, RetryResult: result}, nil
}

func (e *executor) RetryDeadLetters(ctx context.Context, kind domain.JobKind, ids []uint64, actor Actor) (*dto.BulkRetryResponse, error) {
	group := e.pool.NewGroup()
	for _, id := range ids {
		group.Submit(func() dto.RetryResult {
			result, err := e.retry(ctx, kind, id, actor)
			if err != nil {
				apiErr := apierrors.FromError(err, "Failed to retry dead letter")
				return dto.RetryResult{
					DeadLetterID: id,
					Error:        apiErr.Message,
					ErrorCode:    string(apiErr.Code),
				}
			}
			return result
		})
	}

	results, err := group.Wait()
	if err != nil {
		return nil, apierrors.NewInternalError(fmt.Sprintf("Failed to retry dead letters: %v", err))
	}

	resp := &dto.BulkRetryResponse{Success: true, Results: results}
	for _, r := range results {
		if r.Error == "" {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	return resp, nil
}

// retry re-dispatches one dead letter. The row is removed once the job has
// a workflow, whether it was started now or by an earlier replay.
func (e *executor) retry(ctx context.Context, kind domain.JobKind, id uint64, actor Actor) (dto.RetryResult, error) {
	result := dto.RetryResult{DeadLetterID: id}

	entry, err := e.Store.GetDeadLetter(ctx, kind, id)
	if err != nil {
		return result, apierrors.NewInternalError(fmt.Sprintf("Failed to get dead letter: %v", err))
	}
	if entry == nil {
		return result, apierrors.NewNotFoundError("Dead letter not found", strconv.FormatUint(id, 10))
	}

	var started bool
	switch kind {
	case domain.JobKindWebhook:
		result.WorkflowID, started, err = e.replayWebhook(ctx, entry)
	case domain.JobKindDataExport, domain.JobKindDataDeletion:
		result.WorkflowID, started, err = e.replayDataRequest(ctx, kind, entry)
	case domain.JobKindAudit:
		result.WorkflowID, started, err = e.replayAudit(ctx, entry)
	default:
		return result, apierrors.NewBadRequestError("Unsupported dead-letter kind", string(kind))
	}
	if err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("kind", string(kind)),
			zap.Uint64("dead_letter_id", id))
		return result, apierrors.FromError(err, "Failed to re-dispatch dead letter")
	}
	result.Started = started

	deleted, err := e.Store.DeleteDeadLetter(ctx, kind, id)
	if err != nil {
		// the job is running; a later retry resolves to the same workflow id
		logger.WarnCtx(ctx, "Failed to delete re-dispatched dead letter",
			zap.String("kind", string(kind)),
			zap.Uint64("dead_letter_id", id),
			zap.Error(err))
	}
	result.Deleted = deleted

	e.Auditor.Record(ctx, audit.Entry{
		ActorID:     actor.ID,
		Action:      domain.AuditActionWebhookReplayed,
		TargetModel: domain.AuditTargetDeadLetter,
		TargetID:    strconv.FormatUint(id, 10),
		Changes: map[string]interface{}{
			"kind":        string(kind),
			"job_id":      entry.JobID,
			"workflow_id": result.WorkflowID,
			"started":     started,
		},
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
	})

	logger.InfoCtx(ctx, "Dead letter re-dispatched",
		zap.String("kind", string(kind)),
		zap.Uint64("dead_letter_id", id),
		zap.String("workflow_id", result.WorkflowID),
		zap.Bool("started", started))

	return result, nil
}

func (e *executor) replayWebhook(ctx context.Context, entry *schema.DeadLetter) (string, bool, error) {
	eventType, err := domain.NewEventType(entry.EventType)
	if err != nil {
		return "", false, err
	}
	id := entry.ID
	job := webhook.Job{
		WebhookID:  entry.JobID,
		EventType:  eventType,
		Payload:    []byte(entry.Payload),
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
		ReceivedAt: e.Clock.Now().UTC(),
		ReplayOf:   &id,
	}
	started, err := e.Dispatcher.Dispatch(ctx, job)
	return job.WorkflowID(), started, err
}

func (e *executor) replayDataRequest(ctx context.Context, kind domain.JobKind, entry *schema.DeadLetter) (string, bool, error) {
	var req workflows.DataRequest
	if err := e.JSON.Unmarshal(entry.Payload, &req); err != nil {
		return "", false, fmt.Errorf("%w: corrupt dead letter payload: %v", domain.ErrValidation, err)
	}

	w := workflows.NewWorkerCore(nil, workflows.WorkerCoreConfig{})
	var fn interface{} = w.ExportContactData
	prefix := workflows.ExportWorkflowPrefix
	if kind == domain.JobKindDataDeletion {
		fn = w.EraseContactData
		prefix = workflows.ErasureWorkflowPrefix
	}

	workflowID := fmt.Sprintf("%s%s-replay-%d", prefix, req.RequestID, entry.ID)
	return e.start(ctx, workflowID, e.config.BulkTaskQueue, fn, req)
}

func (e *executor) replayAudit(ctx context.Context, entry *schema.DeadLetter) (string, bool, error) {
	var ae audit.Entry
	if err := e.JSON.Unmarshal(entry.Payload, &ae); err != nil {
		return "", false, fmt.Errorf("%w: corrupt dead letter payload: %v", domain.ErrValidation, err)
	}
	workflowID := fmt.Sprintf("%s-replay-%d", audit.WorkflowID(ae.EventID), entry.ID)
	return e.start(ctx, workflowID, e.config.AuditTaskQueue, audit.WorkflowRecordAudit, ae)
}

// start runs a workflow once per id; an id that already ran reports started=false
func (e *executor) start(ctx context.Context, workflowID, taskQueue string, workflow interface{}, arg interface{}) (string, bool, error) {
	opt := client.StartWorkflowOptions{
		ID:                    workflowID,
		TaskQueue:             taskQueue,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY,
	}
	if _, err := e.Orchestrator.ExecuteWorkflow(ctx, opt, workflow, arg); err != nil {
		if temporal.IsAlreadyStarted(err) {
			return workflowID, false, nil
		}
		return workflowID, false, fmt.Errorf("failed to execute workflow: %w", err)
	}
	return workflowID, true, nil
}
