package temporal

import (
	"context"

	"github.com/getsentry/sentry-go"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/interceptor"
)

// NewSentryActivityInterceptor returns a worker interceptor that gives each
// activity execution its own Sentry hub, tagged with the activity and workflow
func NewSentryActivityInterceptor() interceptor.WorkerInterceptor {
	return &sentryWorkerInterceptor{}
}

type sentryWorkerInterceptor struct {
	interceptor.WorkerInterceptorBase
}

func (s *sentryWorkerInterceptor) InterceptActivity(_ context.Context, next interceptor.ActivityInboundInterceptor) interceptor.ActivityInboundInterceptor {
	return &sentryActivityInterceptor{
		ActivityInboundInterceptorBase: interceptor.ActivityInboundInterceptorBase{Next: next},
	}
}

type sentryActivityInterceptor struct {
	interceptor.ActivityInboundInterceptorBase
}

func (s *sentryActivityInterceptor) ExecuteActivity(ctx context.Context, in *interceptor.ExecuteActivityInput) (interface{}, error) {
	hub := sentry.CurrentHub().Clone()

	info := activity.GetInfo(ctx)
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("activity_type", info.ActivityType.Name)
		if info.WorkflowType != nil {
			scope.SetTag("workflow_type", info.WorkflowType.Name)
		}
		scope.SetTag("task_queue", info.TaskQueue)
		scope.SetContext("temporal", sentry.Context{
			"workflow_id": info.WorkflowExecution.ID,
			"run_id":      info.WorkflowExecution.RunID,
			"attempt":     info.Attempt,
		})
	})

	return s.Next.ExecuteActivity(sentry.SetHubOnContext(ctx, hub), in)
}
