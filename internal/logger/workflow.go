package logger

import (
	"context"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"
)

// WorkflowInfo identifies a workflow execution in logs and sentry events
type WorkflowInfo struct {
	WorkflowType string
	WorkflowID   string
	RunID        string
	Namespace    string
	TaskQueue    string
	Attempt      int32
}

// fields returns the zap fields describing the workflow
func (w WorkflowInfo) fields() []zap.Field {
	return []zap.Field{
		zap.String("workflow_type", w.WorkflowType),
		zap.String("workflow_id", w.WorkflowID),
		zap.String("run_id", w.RunID),
		zap.String("namespace", w.Namespace),
		zap.String("task_queue", w.TaskQueue),
	}
}

// GetWorkflowInfo extracts workflow information from workflow.Context.
// Returns nil if workflow info is not available.
func GetWorkflowInfo(ctx workflow.Context) *WorkflowInfo {
	info := workflow.GetInfo(ctx)
	if info == nil {
		return nil
	}

	workflowTypeName := info.WorkflowType.Name
	if workflowTypeName == "" {
		workflowTypeName = "unknown"
	}

	return &WorkflowInfo{
		WorkflowType: workflowTypeName,
		WorkflowID:   info.WorkflowExecution.ID,
		RunID:        info.WorkflowExecution.RunID,
		Namespace:    info.Namespace,
		TaskQueue:    info.TaskQueueName,
		Attempt:      info.Attempt,
	}
}

// WithWorkflowInfo returns a logger whose sentry events are tagged with the workflow
func WithWorkflowInfo(info WorkflowInfo) *zap.Logger {
	l := log.With(info.fields()...)
	if sentryClient == nil {
		return l
	}

	hub := sentry.NewHub(sentryClient, sentry.NewScope())
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("workflow_type", info.WorkflowType)
		scope.SetTag("workflow_id", info.WorkflowID)
		scope.SetTag("task_queue", info.TaskQueue)
	})
	return l.With(zapsentry.Context(sentry.SetHubOnContext(context.Background(), hub)))
}

// FromWorkflow returns a logger with workflow fields attached.
// Usage:
//
//	logger.FromWorkflow(ctx, nil).Info("Processing webhook", ...)
func FromWorkflow(ctx workflow.Context, info *WorkflowInfo) *zap.Logger {
	if info == nil {
		info = GetWorkflowInfo(ctx)
	}
	if info == nil {
		return log
	}
	return WithWorkflowInfo(*info)
}

// InfoWorkflow logs an info message for a workflow
func InfoWorkflow(info WorkflowInfo, msg string, fields ...zap.Field) {
	WithWorkflowInfo(info).Info(msg, fields...)
}

// ErrorWorkflow logs an error for a workflow
func ErrorWorkflow(info WorkflowInfo, err error, fields ...zap.Field) {
	WithWorkflowInfo(info).Error(errorMessage(err), fields...)
}

// WarnWorkflow logs a warning for a workflow
func WarnWorkflow(info WorkflowInfo, msg string, fields ...zap.Field) {
	WithWorkflowInfo(info).Warn(msg, fields...)
}

// DebugWorkflow logs a debug message for a workflow
func DebugWorkflow(info WorkflowInfo, msg string, fields ...zap.Field) {
	WithWorkflowInfo(info).Debug(msg, fields...)
}

// InfoWf logs an info message with workflow context (shortcut for workflows)
func InfoWf(ctx workflow.Context, msg string, fields ...zap.Field) {
	if workflow.IsReplaying(ctx) {
		return
	}
	if info := GetWorkflowInfo(ctx); info != nil {
		InfoWorkflow(*info, msg, fields...)
		return
	}
	Info(msg, fields...)
}

// ErrorWf logs an error with workflow context (shortcut for workflows)
func ErrorWf(ctx workflow.Context, err error, fields ...zap.Field) {
	if workflow.IsReplaying(ctx) {
		return
	}
	if info := GetWorkflowInfo(ctx); info != nil {
		ErrorWorkflow(*info, err, fields...)
		return
	}
	Error(err, fields...)
}

// CriticalWf logs an error needing operator attention with workflow context
func CriticalWf(ctx workflow.Context, err error, fields ...zap.Field) {
	ErrorWf(ctx, err, append(fields, zap.String("severity", SeverityCritical))...)
}

// WarnWf logs a warning message with workflow context (shortcut for workflows)
func WarnWf(ctx workflow.Context, msg string, fields ...zap.Field) {
	if workflow.IsReplaying(ctx) {
		return
	}
	if info := GetWorkflowInfo(ctx); info != nil {
		WarnWorkflow(*info, msg, fields...)
		return
	}
	Warn(msg, fields...)
}

// DebugWf logs a debug message with workflow context (shortcut for workflows)
func DebugWf(ctx workflow.Context, msg string, fields ...zap.Field) {
	if workflow.IsReplaying(ctx) {
		return
	}
	if info := GetWorkflowInfo(ctx); info != nil {
		DebugWorkflow(*info, msg, fields...)
		return
	}
	Debug(msg, fields...)
}
