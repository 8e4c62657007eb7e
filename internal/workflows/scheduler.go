package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/logger"
)

// schedulePolicy bounds one family of jobs
type schedulePolicy struct {
	maxAttempts int
	timeout     time.Duration
}

func (w *workerCore) webhookPolicy() schedulePolicy {
	return schedulePolicy{maxAttempts: w.config.WebhookMaxAttempts, timeout: w.config.WebhookTimeout}
}

func (w *workerCore) bulkPolicy() schedulePolicy {
	return schedulePolicy{maxAttempts: w.config.BulkMaxAttempts, timeout: w.config.BulkTimeout}
}

// delay returns the wait after the given failed attempt (1-based)
func (w *workerCore) delay(attempt int) time.Duration {
	i := attempt - 1
	if i >= len(w.config.Schedule) {
		i = len(w.config.Schedule) - 1
	}
	return w.config.Schedule[i]
}

// isTerminal reports whether an activity failure must not be retried
func isTerminal(err error) bool {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.NonRetryable() {
		return true
	}
	var canceledErr *temporal.CanceledError
	return errors.As(err, &canceledErr)
}

// failureMessage unwraps the activity error down to the message of its cause
func failureMessage(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Error()
	}
	return err.Error()
}

// runScheduled executes attempt once per try. Each try is a single activity
// execution bounded by the policy timeout; failed tries wait the configured
// delay. Returns the number of attempts made and the last error.
func (w *workerCore) runScheduled(ctx workflow.Context, name string, policy schedulePolicy, attempt func(ctx workflow.Context, n int) error) (int, error) {
	activityCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: policy.timeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	var err error
	for n := 1; n <= policy.maxAttempts; n++ {
		err = attempt(activityCtx, n)
		if err == nil {
			return n, nil
		}

		if isTerminal(err) {
			logger.WarnWf(ctx, "Job failed with a terminal error",
				zap.String("job", name),
				zap.Int("attempt", n),
				zap.Error(err))
			return n, err
		}

		if n == policy.maxAttempts {
			break
		}

		wait := w.delay(n)
		logger.WarnWf(ctx, "Job attempt failed, retrying",
			zap.String("job", name),
			zap.Int("attempt", n),
			zap.Int("max_attempts", policy.maxAttempts),
			zap.Duration("retry_in", wait),
			zap.Error(err))

		if sleepErr := workflow.Sleep(ctx, wait); sleepErr != nil {
			return n, sleepErr
		}
	}

	return policy.maxAttempts, err
}

// deadLetterOptions is used for the activities that park failed jobs
func deadLetterOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Minute,
			MaximumAttempts:    10,
		},
	})
}
