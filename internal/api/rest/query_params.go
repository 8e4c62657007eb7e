package rest

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/crm-bridge/internal/api/shared/constants"
	"github.com/feral-file/crm-bridge/internal/store"
)

// PageQueryParams holds pagination parameters
type PageQueryParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// normalize caps the page size and rejects negative values
func (p *PageQueryParams) normalize() error {
	if p.Limit < 0 || p.Offset < 0 {
		return fmt.Errorf("limit and offset must not be negative")
	}
	if p.Limit == 0 {
		p.Limit = constants.DEFAULT_PAGE_SIZE
	}
	if p.Limit > constants.MAX_PAGE_SIZE {
		p.Limit = constants.MAX_PAGE_SIZE
	}
	return nil
}

// ListDeadLettersQueryParams holds query parameters for GET /dead-letters/:kind
type ListDeadLettersQueryParams struct {
	PageQueryParams
	EventType string `form:"event_type"`
}

// ParseListDeadLettersQuery parses query parameters for GET /dead-letters/:kind
func ParseListDeadLettersQuery(c *gin.Context) (*ListDeadLettersQueryParams, error) {
	var params ListDeadLettersQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	if err := params.normalize(); err != nil {
		return nil, err
	}
	return &params, nil
}

// ListAuditLogsQueryParams holds query parameters for GET /audit-logs
type ListAuditLogsQueryParams struct {
	PageQueryParams
	TargetModel string `form:"target_model"`
	TargetID    string `form:"target_id"`
	Action      string `form:"action"`
}

// ParseListAuditLogsQuery parses query parameters for GET /audit-logs
func ParseListAuditLogsQuery(c *gin.Context) (*store.AuditLogFilter, error) {
	var params ListAuditLogsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	if err := params.normalize(); err != nil {
		return nil, err
	}
	return &store.AuditLogFilter{
		TargetModel: params.TargetModel,
		TargetID:    params.TargetID,
		Action:      params.Action,
		Limit:       params.Limit,
		Offset:      params.Offset,
	}, nil
}

// InsightsQueryParams holds query parameters for GET /insights/summary.
// since and until are RFC 3339 or unix seconds; both default to the last 7 days.
type InsightsQueryParams struct {
	Since string `form:"since"`
	Until string `form:"until"`
}

// ParseInsightsQuery parses and bounds the reporting window
func ParseInsightsQuery(c *gin.Context, now time.Time) (since, until time.Time, err error) {
	var params InsightsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return time.Time{}, time.Time{}, err
	}

	until = now.UTC()
	if params.Until != "" {
		if until, err = parseTime(params.Until); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid until: %w", err)
		}
	}
	since = until.AddDate(0, 0, -constants.DEFAULT_INSIGHTS_DAYS)
	if params.Since != "" {
		if since, err = parseTime(params.Since); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid since: %w", err)
		}
	}

	if !since.Before(until) {
		return time.Time{}, time.Time{}, fmt.Errorf("since must be before until")
	}
	if until.Sub(since) > time.Duration(constants.MAX_INSIGHTS_RANGE_DAYS)*24*time.Hour {
		return time.Time{}, time.Time{}, fmt.Errorf("range must not exceed %d days", constants.MAX_INSIGHTS_RANGE_DAYS)
	}
	return since, until, nil
}

func parseTime(s string) (time.Time, error) {
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Parse(time.RFC3339, s)
}

// parseID parses a positive numeric path parameter
func parseID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}
