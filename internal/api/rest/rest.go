package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/crm-bridge/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// Webhook intake (signature verified by the executor)
	router.POST("/webhooks/chatwoot", handler.ReceiveWebhook)

	v1 := router.Group("/api/v1")
	{
		// Signed download links carry their own token
		v1.GET("/exports/download", handler.DownloadExport)

		operator := v1.Group("", middleware.Auth(authCfg))

		// Dead letters: webhooks, exports, deletions, audit
		operator.GET("/dead-letters/:kind", handler.ListDeadLetters)
		operator.POST("/dead-letters/:kind/retry", handler.RetryDeadLetters)
		operator.GET("/dead-letters/:kind/:id", handler.GetDeadLetter)
		operator.POST("/dead-letters/:kind/:id/retry", handler.RetryDeadLetter)

		// Consent
		operator.GET("/contacts/:contact_id/consents", handler.ListConsents)
		operator.POST("/contacts/:contact_id/consents", handler.GrantConsent)
		operator.GET("/contacts/:contact_id/consents/:type/valid", handler.CheckConsent)
		operator.DELETE("/contacts/:contact_id/consents/:type", handler.WithdrawConsent)

		// Data subject requests
		operator.POST("/contacts/:contact_id/export", handler.RequestExport)
		operator.POST("/contacts/:contact_id/erase", handler.RequestErasure)
		operator.GET("/exports/:request_id", handler.GetExportStatus)

		operator.GET("/insights/summary", handler.GetInsightsSummary)
		operator.GET("/audit-logs", handler.ListAuditLogs)
	}
}
