// Package insights reads conversation metrics from the chat platform reports API.
package insights

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/providers/restapi"
	"github.com/feral-file/crm-bridge/internal/resilience"
)

// Upstream is the name used for logging, breaker and limiter keys
const Upstream = "insights"

const nsSummary = "summary"

// Metrics are the account level counters of one reporting window
type Metrics struct {
	AvgFirstResponseTime  string `json:"avg_first_response_time"`
	AvgResolutionTime     string `json:"avg_resolution_time"`
	ConversationsCount    int64  `json:"conversations_count"`
	IncomingMessagesCount int64  `json:"incoming_messages_count"`
	OutgoingMessagesCount int64  `json:"outgoing_messages_count"`
	ResolutionsCount      int64  `json:"resolutions_count"`
}

// Summary is the account summary for a window plus the preceding window of equal length
type Summary struct {
	Metrics
	Previous *Metrics `json:"previous,omitempty"`
}

// Client defines the reporting operations
//
//go:generate mockgen -source=client.go -destination=../../mocks/insights_client.go -package=mocks -mock_names=Client=MockInsightsClient
type Client interface {
	// GetAccountSummary returns the account summary for [since, until]. Served stale while a refresh runs.
	GetAccountSummary(ctx context.Context, since, until time.Time) (*Summary, error)
}

type client struct {
	caller    *restapi.Caller
	guard     *resilience.Client
	accountID int64
	ttl       time.Duration
	staleTTL  time.Duration
}

// NewClient creates a reporting client for one account
func NewClient(caller *restapi.Caller, guard *resilience.Client, accountID int64, ttl, staleTTL time.Duration) Client {
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	if staleTTL <= ttl {
		staleTTL = 12 * ttl
	}
	return &client{caller: caller, guard: guard, accountID: accountID, ttl: ttl, staleTTL: staleTTL}
}

func (c *client) GetAccountSummary(ctx context.Context, since, until time.Time) (*Summary, error) {
	sinceUnix := strconv.FormatInt(since.Unix(), 10)
	untilUnix := strconv.FormatInt(until.Unix(), 10)
	key := sinceUnix + "-" + untilUnix

	return resilience.ReadSWR(ctx, c.guard, resilience.Operation{Name: "account_summary"}, nsSummary, key, c.ttl, c.staleTTL,
		func(ctx context.Context) (*Summary, error) {
			var summary Summary
			err := c.caller.Call(ctx, "account_summary", adapter.HTTPRequest{
				Method: http.MethodGet,
				Path:   fmt.Sprintf("/api/v2/accounts/%d/reports/summary", c.accountID),
				Query: map[string]string{
					"type":  "account",
					"since": sinceUnix,
					"until": untilUnix,
				},
			}, &summary)
			return &summary, err
		})
}
