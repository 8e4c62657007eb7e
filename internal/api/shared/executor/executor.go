package executor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/api/shared/constants"
	"github.com/feral-file/crm-bridge/internal/api/shared/dto"
	apierrors "github.com/feral-file/crm-bridge/internal/api/shared/errors"
	"github.com/feral-file/crm-bridge/internal/audit"
	"github.com/feral-file/crm-bridge/internal/bridge"
	"github.com/feral-file/crm-bridge/internal/consent"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/export"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/messaging"
	"github.com/feral-file/crm-bridge/internal/providers/insights"
	"github.com/feral-file/crm-bridge/internal/providers/temporal"
	"github.com/feral-file/crm-bridge/internal/store"
)

// Actor identifies who issued an API request
type Actor = consent.Actor

// WebhookRequest is an inbound webhook delivery
type WebhookRequest struct {
	Body      []byte
	Signature string
	Timestamp string
	IPAddress string
	UserAgent string
}

// Download is an export artifact being streamed to the client
type Download struct {
	Filename    string
	ContentType string
	Body        io.ReadCloser
}

// Executor is the interface for the API executor
//
//go:generate mockgen -source=executor.go -destination=../../../mocks/api_executor.go -package=mocks -mock_names=Executor=MockAPIExecutor
type Executor interface {
	// AcceptWebhook verifies, validates and queues a webhook delivery
	AcceptWebhook(ctx context.Context, req WebhookRequest) (*dto.WebhookAcceptedResponse, error)

	// ListDeadLetters lists failed jobs of a kind
	ListDeadLetters(ctx context.Context, kind domain.JobKind, eventType string, limit, offset int) (*dto.DeadLetterListResponse, error)

	// GetDeadLetter returns one failed job
	GetDeadLetter(ctx context.Context, kind domain.JobKind, id uint64) (*dto.DeadLetterResponse, error)

	// RetryDeadLetter re-dispatches a failed job and removes it from its table
	RetryDeadLetter(ctx context.Context, kind domain.JobKind, id uint64, actor Actor) (*dto.RetryResponse, error)

	// RetryDeadLetters re-dispatches several failed jobs concurrently. Per-id failures are reported, not returned.
	RetryDeadLetters(ctx context.Context, kind domain.JobKind, ids []uint64, actor Actor) (*dto.BulkRetryResponse, error)

	// ListConsents returns the consents of a contact
	ListConsents(ctx context.Context, contactID int64) (*dto.ConsentListResponse, error)

	// CheckConsent reports whether a contact holds a valid consent of a type
	CheckConsent(ctx context.Context, contactID int64, consentType string) (*dto.ConsentValidityResponse, error)

	// GrantConsent records a new consent
	GrantConsent(ctx context.Context, contactID int64, req dto.GrantConsentRequest, actor Actor) (*dto.ConsentResponse, error)

	// WithdrawConsent withdraws the active consent of a type
	WithdrawConsent(ctx context.Context, contactID int64, consentType string, reason string, actor Actor) (*dto.ConsentResponse, error)

	// RequestExport starts a data subject export
	RequestExport(ctx context.Context, contactID int64, actor Actor) (*dto.DataRequestResponse, error)

	// RequestErasure starts a data subject erasure
	RequestErasure(ctx context.Context, contactID int64, actor Actor) (*dto.DataRequestResponse, error)

	// GetExportStatus returns the state of an export request and its link once completed
	GetExportStatus(ctx context.Context, requestID string) (*dto.ExportStatusResponse, error)

	// OpenExport verifies a download link and opens the artifact. The caller closes Body.
	OpenExport(ctx context.Context, filename, timestamp, token string, actor Actor) (*Download, error)

	// GetInsightsSummary returns the reporting summary of [since, until]
	GetInsightsSummary(ctx context.Context, since, until time.Time) (*dto.InsightsSummaryResponse, error)

	// ListAuditLogs lists audit records, newest first
	ListAuditLogs(ctx context.Context, filter store.AuditLogFilter) (*dto.AuditLogListResponse, error)

	// Health checks the dependencies of the API
	Health(ctx context.Context) *dto.HealthResponse
}

// Config holds the executor settings
type Config struct {
	WebhookSecret    string
	WebhookTolerance time.Duration
	// SkipSignature accepts unsigned webhooks; local development only
	SkipSignature bool
	// BulkTaskQueue runs export and erasure workflows
	BulkTaskQueue string
	// AuditTaskQueue runs replayed audit workflows
	AuditTaskQueue string
	// RetryWorkers bounds concurrent re-dispatches of a bulk retry
	RetryWorkers int
}

// Dependencies are the collaborators of the executor
type Dependencies struct {
	Store        store.Store
	Consent      consent.Service
	Publisher    messaging.Publisher
	Dispatcher   bridge.Dispatcher
	Orchestrator temporal.TemporalOrchestrator
	Signer       *export.Signer
	Archive      *export.Archive
	Insights     insights.Client
	Auditor      audit.Recorder
	Clock        adapter.Clock
	JSON         adapter.JSON
}

type executor struct {
	Dependencies
	config Config
	pool   pond.ResultPool[dto.RetryResult]
}

// NewExecutor creates a new API executor
func NewExecutor(deps Dependencies, config Config) Executor {
	if config.RetryWorkers <= 0 {
		config.RetryWorkers = constants.DEFAULT_BULK_RETRY_WORKERS
	}
	if config.AuditTaskQueue == "" {
		config.AuditTaskQueue = config.BulkTaskQueue
	}
	return &executor{
		Dependencies: deps,
		config:       config,
		pool:         pond.NewResultPool[dto.RetryResult](config.RetryWorkers),
	}
}

func (e *executor) GetInsightsSummary(ctx context.Context, since, until time.Time) (*dto.InsightsSummaryResponse, error) {
	if e.Insights == nil {
		return nil, apierrors.NewServiceError("Insights are not configured")
	}
	summary, err := e.Insights.GetAccountSummary(ctx, since, until)
	if err != nil {
		return nil, apierrors.FromError(err, "Failed to get insights summary")
	}
	return &dto.InsightsSummaryResponse{
		Success: true,
		Since:   since,
		Until:   until,
		Summary: summary,
	}, nil
}

func (e *executor) ListAuditLogs(ctx context.Context, filter store.AuditLogFilter) (*dto.AuditLogListResponse, error) {
	logs, total, err := e.Store.ListAuditLogs(ctx, filter)
	if err != nil {
		return nil, apierrors.NewInternalError(fmt.Sprintf("Failed to list audit logs: %v", err))
	}

	items := make([]dto.AuditLogResponse, len(logs))
	for i, l := range logs {
		items[i] = dto.AuditLogResponse{
			EventID:     l.EventID,
			ActorID:     l.ActorID,
			Action:      l.Action,
			TargetModel: l.TargetModel,
			TargetID:    l.TargetID,
			Changes:     []byte(l.Changes),
			IPAddress:   l.IPAddress,
			UserAgent:   l.UserAgent,
			CreatedAt:   l.CreatedAt,
		}
	}
	return &dto.AuditLogListResponse{
		Success: true,
		Items:   items,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

func (e *executor) Health(ctx context.Context) *dto.HealthResponse {
	resp := &dto.HealthResponse{
		Status:    "ok",
		Checks:    map[string]string{"database": "ok"},
		Timestamp: e.Clock.Now().UTC(),
	}
	if err := e.Store.Ping(ctx); err != nil {
		logger.WarnCtx(ctx, "Database health check failed", zap.Error(err))
		resp.Status = "degraded"
		resp.Checks["database"] = "unreachable"
	}
	return resp
}
