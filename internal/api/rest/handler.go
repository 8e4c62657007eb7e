package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/api/middleware"
	"github.com/feral-file/crm-bridge/internal/api/shared/constants"
	"github.com/feral-file/crm-bridge/internal/api/shared/dto"
	"github.com/feral-file/crm-bridge/internal/api/shared/executor"
	"github.com/feral-file/crm-bridge/internal/logger"
	"github.com/feral-file/crm-bridge/internal/webhook"
)

// Handler defines the interface for REST API handlers
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// ReceiveWebhook accepts a chat platform webhook
	// POST /webhooks/chatwoot
	ReceiveWebhook(c *gin.Context)

	// ListDeadLetters lists failed jobs of a queue
	// GET /api/v1/dead-letters/:kind?event_type=<event>&limit=<limit>&offset=<offset>
	ListDeadLetters(c *gin.Context)

	// GetDeadLetter returns a failed job
	// GET /api/v1/dead-letters/:kind/:id
	GetDeadLetter(c *gin.Context)

	// RetryDeadLetter re-dispatches a failed job
	// POST /api/v1/dead-letters/:kind/:id/retry
	RetryDeadLetter(c *gin.Context)

	// RetryDeadLetters re-dispatches several failed jobs
	// POST /api/v1/dead-letters/:kind/retry
	RetryDeadLetters(c *gin.Context)

	// ListConsents lists the consents of a contact
	// GET /api/v1/contacts/:contact_id/consents
	ListConsents(c *gin.Context)

	// CheckConsent reports whether a consent is valid
	// GET /api/v1/contacts/:contact_id/consents/:type/valid
	CheckConsent(c *gin.Context)

	// GrantConsent grants a consent
	// POST /api/v1/contacts/:contact_id/consents
	GrantConsent(c *gin.Context)

	// WithdrawConsent withdraws a consent
	// DELETE /api/v1/contacts/:contact_id/consents/:type
	WithdrawConsent(c *gin.Context)

	// RequestExport starts a data export
	// POST /api/v1/contacts/:contact_id/export
	RequestExport(c *gin.Context)

	// RequestErasure starts a data erasure
	// POST /api/v1/contacts/:contact_id/erase
	RequestErasure(c *gin.Context)

	// GetExportStatus returns the state of an export
	// GET /api/v1/exports/:request_id
	GetExportStatus(c *gin.Context)

	// DownloadExport streams an export artifact (signed link, no authentication)
	// GET /api/v1/exports/download?file=<file>&ts=<unix>&token=<token>
	DownloadExport(c *gin.Context)

	// GetInsightsSummary returns the reporting summary
	// GET /api/v1/insights/summary?since=<time>&until=<time>
	GetInsightsSummary(c *gin.Context)

	// ListAuditLogs lists audit records
	// GET /api/v1/audit-logs?target_model=<model>&target_id=<id>&action=<action>&limit=<limit>&offset=<offset>
	ListAuditLogs(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	executor executor.Executor
	clock    adapter.Clock
}

// NewHandler creates a new REST API handler using the shared executor
func NewHandler(exec executor.Executor, clock adapter.Clock) Handler {
	return &handler{
		executor: exec,
		clock:    clock,
	}
}

// ReceiveWebhook accepts a chat platform webhook
func (h *handler) ReceiveWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, constants.MAX_WEBHOOK_BODY_BYTES))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondBadRequest(c, "Webhook body too large")
			return
		}
		respondBadRequest(c, "Failed to read webhook body")
		return
	}

	resp, err := h.executor.AcceptWebhook(c.Request.Context(), executor.WebhookRequest{
		Body:      body,
		Signature: c.GetHeader(webhook.HeaderSignature),
		Timestamp: c.GetHeader(webhook.HeaderTimestamp),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		respondError(c, err, "Failed to accept webhook")
		return
	}

	if resp.Status == dto.WebhookStatusIgnored {
		c.JSON(http.StatusOK, resp)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// ListDeadLetters lists failed jobs of a queue
func (h *handler) ListDeadLetters(c *gin.Context) {
	kind, err := dto.ParseJobKind(c.Param("kind"))
	if err != nil {
		respondError(c, err, "Unknown dead-letter queue")
		return
	}

	params, err := ParseListDeadLettersQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	resp, err := h.executor.ListDeadLetters(c.Request.Context(), kind, params.EventType, params.Limit, params.Offset)
	if err != nil {
		respondError(c, err, "Failed to list dead letters")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetDeadLetter returns a failed job
func (h *handler) GetDeadLetter(c *gin.Context) {
	kind, err := dto.ParseJobKind(c.Param("kind"))
	if err != nil {
		respondError(c, err, "Unknown dead-letter queue")
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	resp, err := h.executor.GetDeadLetter(c.Request.Context(), kind, uint64(id))
	if err != nil {
		respondError(c, err, "Failed to get dead letter")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RetryDeadLetter re-dispatches a failed job
func (h *handler) RetryDeadLetter(c *gin.Context) {
	kind, err := dto.ParseJobKind(c.Param("kind"))
	if err != nil {
		respondError(c, err, "Unknown dead-letter queue")
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	resp, err := h.executor.RetryDeadLetter(c.Request.Context(), kind, uint64(id), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err, "Failed to retry dead letter")
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// RetryDeadLetters re-dispatches several failed jobs
func (h *handler) RetryDeadLetters(c *gin.Context) {
	kind, err := dto.ParseJobKind(c.Param("kind"))
	if err != nil {
		respondError(c, err, "Unknown dead-letter queue")
		return
	}

	var req dto.BulkRetryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, err, "Invalid request body")
		return
	}

	resp, err := h.executor.RetryDeadLetters(c.Request.Context(), kind, req.IDs, middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err, "Failed to retry dead letters")
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// ListConsents lists the consents of a contact
func (h *handler) ListConsents(c *gin.Context) {
	contactID, err := parseID(c, "contact_id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	resp, err := h.executor.ListConsents(c.Request.Context(), contactID)
	if err != nil {
		respondError(c, err, "Failed to list consents")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CheckConsent reports whether a consent is valid
func (h *handler) CheckConsent(c *gin.Context) {
	contactID, err := parseID(c, "contact_id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	resp, err := h.executor.CheckConsent(c.Request.Context(), contactID, c.Param("type"))
	if err != nil {
		respondError(c, err, "Failed to check consent")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GrantConsent grants a consent
func (h *handler) GrantConsent(c *gin.Context) {
	contactID, err := parseID(c, "contact_id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	var req dto.GrantConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, err, "Invalid request body")
		return
	}

	resp, err := h.executor.GrantConsent(c.Request.Context(), contactID, req, middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err, "Failed to grant consent")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// WithdrawConsent withdraws a consent. The body is optional.
func (h *handler) WithdrawConsent(c *gin.Context) {
	contactID, err := parseID(c, "contact_id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	var req dto.WithdrawConsentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
			return
		}
	}
	if err := req.Validate(); err != nil {
		respondError(c, err, "Invalid request body")
		return
	}

	resp, err := h.executor.WithdrawConsent(c.Request.Context(), contactID, c.Param("type"), req.Reason, middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err, "Failed to withdraw consent")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RequestExport starts a data export
func (h *handler) RequestExport(c *gin.Context) {
	contactID, err := parseID(c, "contact_id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	resp, err := h.executor.RequestExport(c.Request.Context(), contactID, middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err, "Failed to request export")
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// RequestErasure starts a data erasure
func (h *handler) RequestErasure(c *gin.Context) {
	contactID, err := parseID(c, "contact_id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	resp, err := h.executor.RequestErasure(c.Request.Context(), contactID, middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err, "Failed to request erasure")
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// GetExportStatus returns the state of an export
func (h *handler) GetExportStatus(c *gin.Context) {
	resp, err := h.executor.GetExportStatus(c.Request.Context(), c.Param("request_id"))
	if err != nil {
		respondError(c, err, "Failed to get export status")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DownloadExport streams an export artifact
func (h *handler) DownloadExport(c *gin.Context) {
	download, err := h.executor.OpenExport(c.Request.Context(),
		c.Query("file"), c.Query("ts"), c.Query("token"), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err, "Failed to open export")
		return
	}
	defer func() {
		if err := download.Body.Close(); err != nil {
			logger.WarnCtx(c.Request.Context(), "Failed to close export body", zap.Error(err))
		}
	}()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, -1, download.ContentType, download.Body, nil)
}

// GetInsightsSummary returns the reporting summary
func (h *handler) GetInsightsSummary(c *gin.Context) {
	since, until, err := ParseInsightsQuery(c, h.clock.Now())
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	resp, err := h.executor.GetInsightsSummary(c.Request.Context(), since, until)
	if err != nil {
		respondError(c, err, "Failed to get insights summary")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListAuditLogs lists audit records
func (h *handler) ListAuditLogs(c *gin.Context) {
	filter, err := ParseListAuditLogsQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	resp, err := h.executor.ListAuditLogs(c.Request.Context(), *filter)
	if err != nil {
		respondError(c, err, "Failed to list audit logs")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	resp := h.executor.Health(c.Request.Context())
	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
