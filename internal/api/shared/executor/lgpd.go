package executor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/api/shared/dto"
	apierrors "github.com/feral-file/crm-bridge/internal/api/shared/errors"
	"github.com/feral-file/crm-bridge/internal/audit"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/workflows"
)

// StatusPath is the API route reporting the state of an export request
const StatusPath = "/api/v1/exports/"

func (e *executor) RequestExport(ctx context.Context, contactID int64, actor Actor) (*dto.DataRequestResponse, error) {
	w := workflows.NewWorkerCore(nil, workflows.WorkerCoreConfig{})
	resp, err := e.startDataRequest(ctx, contactID, actor, workflows.ExportWorkflowPrefix, w.ExportContactData)
	if err != nil {
		return nil, err
	}
	resp.StatusURL = StatusPath + resp.RequestID

	e.auditRequest(ctx, domain.AuditActionDataExportRequested, contactID, resp, actor)
	return resp, nil
}

func (e *executor) RequestErasure(ctx context.Context, contactID int64, actor Actor) (*dto.DataRequestResponse, error) {
	w := workflows.NewWorkerCore(nil, workflows.WorkerCoreConfig{})
	resp, err := e.startDataRequest(ctx, contactID, actor, workflows.ErasureWorkflowPrefix, w.EraseContactData)
	if err != nil {
		return nil, err
	}

	e.auditRequest(ctx, domain.AuditActionDataErasureRequest, contactID, resp, actor)
	return resp, nil
}

func (e *executor) startDataRequest(ctx context.Context, contactID int64, actor Actor, prefix string, workflow interface{}) (*dto.DataRequestResponse, error) {
	if contactID <= 0 {
		return nil, apierrors.NewValidationError("contact_id must be positive")
	}

	req := workflows.DataRequest{
		RequestID: uuid.NewString(),
		ContactID: contactID,
		ActorID:   actor.ID,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
	}
	opt := client.StartWorkflowOptions{
		ID:                    prefix + req.RequestID,
		TaskQueue:             e.config.BulkTaskQueue,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	run, err := e.Orchestrator.ExecuteWorkflow(ctx, opt, workflow, req)
	if err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("workflow_id", opt.ID),
			zap.Int64("contact_id", contactID))
		return nil, apierrors.NewServiceError("Failed to start data request")
	}

	return &dto.DataRequestResponse{
		Success:    true,
		RequestID:  req.RequestID,
		ContactID:  contactID,
		WorkflowID: run.GetID(),
		RunID:      run.GetRunID(),
	}, nil
}

func (e *executor) auditRequest(ctx context.Context, action string, contactID int64, resp *dto.DataRequestResponse, actor Actor) {
	e.Auditor.Record(ctx, audit.Entry{
		ActorID:     actor.ID,
		Action:      action,
		TargetModel: domain.AuditTargetContact,
		TargetID:    strconv.FormatInt(contactID, 10),
		Changes: map[string]interface{}{
			"request_id":  resp.RequestID,
			"workflow_id": resp.WorkflowID,
		},
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
	})
}

func (e *executor) GetExportStatus(ctx context.Context, requestID string) (*dto.ExportStatusResponse, error) {
	if _, err := uuid.Parse(requestID); err != nil {
		return nil, apierrors.NewValidationError("request_id must be a UUID")
	}
	workflowID := workflows.ExportWorkflowPrefix + requestID

	desc, err := e.Orchestrator.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil {
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) {
			return nil, apierrors.NewNotFoundError("Export request not found", requestID)
		}
		return nil, apierrors.NewInternalError(fmt.Sprintf("Failed to describe workflow: %v", err))
	}

	info := desc.GetWorkflowExecutionInfo()
	resp := &dto.ExportStatusResponse{
		Success:   true,
		RequestID: requestID,
		WorkflowStatusResponse: dto.WorkflowStatusResponse{
			WorkflowID: info.GetExecution().GetWorkflowId(),
			RunID:      info.GetExecution().GetRunId(),
			Status:     info.GetStatus().String(),
		},
	}
	if info.GetStartTime() != nil {
		start := info.GetStartTime().AsTime()
		resp.StartTime = &start
	}
	if info.GetCloseTime() != nil {
		closed := info.GetCloseTime().AsTime()
		resp.CloseTime = &closed
		if resp.StartTime != nil {
			ms := uint64(closed.Sub(*resp.StartTime).Milliseconds()) //nolint:gosec,G115
			resp.ExecutionTime = &ms
		}
	}

	if info.GetStatus() != enums.WORKFLOW_EXECUTION_STATUS_COMPLETED {
		return resp, nil
	}

	var result *workflows.ExportResult
	run := e.Orchestrator.GetWorkflow(ctx, workflowID, resp.RunID)
	if err := run.Get(ctx, &result); err != nil {
		return nil, apierrors.NewInternalError(fmt.Sprintf("Failed to get export result: %v", err))
	}
	if result != nil {
		// the link is signed when the export finishes; an expired one is reported without a URL
		expiresAt := result.Link.ExpiresAt
		resp.ExpiresAt = &expiresAt
		if e.Clock.Now().Before(expiresAt) {
			resp.DownloadURL = result.Link.URL
		}
	}
	return resp, nil
}

func (e *executor) OpenExport(ctx context.Context, filename, timestamp, token string, actor Actor) (*Download, error) {
	if err := e.Signer.Verify(filename, timestamp, token); err != nil {
		if errors.Is(err, domain.ErrExpiredToken) {
			return nil, apierrors.NewForbiddenError("Download link expired")
		}
		return nil, apierrors.NewUnauthorizedError("Invalid download link")
	}

	body, err := e.Archive.Open(ctx, filename)
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.String("file", filename))
		return nil, apierrors.NewNotFoundError("Export not found", filename)
	}

	e.Auditor.Record(ctx, audit.Entry{
		ActorID:     actor.ID,
		Action:      domain.AuditActionExportDownloaded,
		TargetModel: domain.AuditTargetContact,
		TargetID:    contactFromFilename(filename),
		Changes: map[string]interface{}{
			"file":       filename,
			"downloaded": e.Clock.Now().UTC().Format(time.RFC3339),
		},
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
	})

	return &Download{
		Filename:    filename,
		ContentType: e.Archive.ContentType(),
		Body:        body,
	}, nil
}

// contactFromFilename extracts the contact id of contact-<id>-<stamp>.json
func contactFromFilename(filename string) string {
	rest, ok := strings.CutPrefix(filename, "contact-")
	if !ok {
		return filename
	}
	id, _, _ := strings.Cut(rest, "-")
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return filename
	}
	return id
}
