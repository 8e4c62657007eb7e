package workflows

import (
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/feral-file/crm-bridge/internal/audit"
	"github.com/feral-file/crm-bridge/internal/store"
	"github.com/feral-file/crm-bridge/internal/webhook"
)

// WorkerCore defines the workflows run by worker-core
//
//go:generate mockgen -source=worker.go -destination=../mocks/worker_core.go -package=mocks -mock_names=WorkerCore=MockCoreWorker
type WorkerCore interface {
	// ProcessWebhook runs the handler of a webhook job under the retry schedule and
	// dead-letters it once attempts are exhausted
	ProcessWebhook(ctx workflow.Context, job webhook.Job) error

	// RecordAudit persists an audit entry under the retry schedule. It never fails.
	RecordAudit(ctx workflow.Context, entry audit.Entry) error

	// ExportContactData builds a data subject export and returns its download link
	ExportContactData(ctx workflow.Context, req DataRequest) (*ExportResult, error)

	// EraseContactData removes everything held about a data subject
	EraseContactData(ctx workflow.Context, req DataRequest) (*store.ErasureResult, error)

	// PurgeExpiredAuditLogs removes audit logs older than the retention window
	PurgeExpiredAuditLogs(ctx workflow.Context, retentionDays int) (int64, error)
}

// WorkerCoreConfig holds the scheduling settings of the workflows
type WorkerCoreConfig struct {
	// WebhookMaxAttempts bounds webhook and audit jobs
	WebhookMaxAttempts int
	// BulkMaxAttempts bounds export and erasure jobs
	BulkMaxAttempts int
	// Schedule is the delay before each retry; the last entry repeats
	Schedule []time.Duration
	// WebhookTimeout is the per-attempt timeout of webhook and audit jobs
	WebhookTimeout time.Duration
	// BulkTimeout is the per-attempt timeout of export and erasure jobs
	BulkTimeout time.Duration
	// AuditTaskQueue is where audit child workflows run; empty inherits the parent queue
	AuditTaskQueue string
	// AuditRetentionDays is used when PurgeExpiredAuditLogs gets no explicit window
	AuditRetentionDays int
}

// Defaults
const (
	DefaultWebhookMaxAttempts = 5
	DefaultBulkMaxAttempts    = 3
	DefaultWebhookTimeout     = 120 * time.Second
	DefaultBulkTimeout        = 3600 * time.Second
	DefaultRetentionDays      = 1825
)

// DefaultSchedule is the delay before retries 1 to 5
var DefaultSchedule = []time.Duration{
	60 * time.Second,
	120 * time.Second,
	300 * time.Second,
	600 * time.Second,
	1800 * time.Second,
}

// workerCore is the concrete implementation of WorkerCore
type workerCore struct {
	config   WorkerCoreConfig
	executor Executor
}

// NewWorkerCore creates a new worker core instance
func NewWorkerCore(executor Executor, config WorkerCoreConfig) WorkerCore {
	if config.WebhookMaxAttempts <= 0 {
		config.WebhookMaxAttempts = DefaultWebhookMaxAttempts
	}
	if config.BulkMaxAttempts <= 0 {
		config.BulkMaxAttempts = DefaultBulkMaxAttempts
	}
	if len(config.Schedule) == 0 {
		config.Schedule = DefaultSchedule
	}
	if config.WebhookTimeout <= 0 {
		config.WebhookTimeout = DefaultWebhookTimeout
	}
	if config.BulkTimeout <= 0 {
		config.BulkTimeout = DefaultBulkTimeout
	}
	if config.AuditRetentionDays <= 0 {
		config.AuditRetentionDays = DefaultRetentionDays
	}
	return &workerCore{
		executor: executor,
		config:   config,
	}
}
