package domain

// Audit target models
const (
	AuditTargetContact      = "contact"
	AuditTargetConversation = "conversation"
	AuditTargetMessage      = "message"
	AuditTargetConsent      = "consent"
	AuditTargetDeadLetter   = "dead_letter"
)

// Audit actions
const (
	AuditActionWebhookProcessed    = "webhook.processed"
	AuditActionWebhookDeadLettered = "webhook.dead_lettered"
	AuditActionWebhookReplayed     = "webhook.replayed"
	AuditActionConsentGranted      = "consent.granted"
	AuditActionConsentWithdrawn    = "consent.withdrawn"
	AuditActionConsentExpired      = "consent.expired"
	AuditActionDataExported        = "data.exported"
	AuditActionDataExportRequested = "data.export_requested"
	AuditActionDataErased          = "data.erased"
	AuditActionDataErasureRequest  = "data.erasure_requested"
	AuditActionExportDownloaded    = "data.export_downloaded"
)
