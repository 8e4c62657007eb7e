package constants

const (
	MAX_PAGE_SIZE              = 100
	DEFAULT_PAGE_SIZE          = 20
	MAX_BULK_RETRY_IDS         = 100
	DEFAULT_BULK_RETRY_WORKERS = 8
	MAX_INSIGHTS_RANGE_DAYS    = 90
	DEFAULT_INSIGHTS_DAYS      = 7
	MAX_WEBHOOK_BODY_BYTES     = 1 << 20
)
