package krayin

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/providers/restapi"
	"github.com/feral-file/crm-bridge/internal/resilience"
)

// Upstream is the name used for logging, breaker and limiter keys
const Upstream = "krayin"

// Cache namespaces
const (
	nsLeads     = "leads"
	nsLeadLists = "lead_lists"
	nsPipelines = "pipelines"
	nsStages    = "stages"
)

// CacheTTLs holds read cache lifetimes
type CacheTTLs struct {
	Lead      time.Duration
	Stages    time.Duration
	Pipelines time.Duration
}

// Client defines the CRM operations used by the bridge
//
//go:generate mockgen -source=client.go -destination=../../mocks/krayin_client.go -package=mocks -mock_names=Client=MockKrayinClient
type Client interface {
	// CreateLead creates a lead with its person
	CreateLead(ctx context.Context, input LeadInput) (*Lead, error)
	// GetLead fetches a lead by id (cached)
	GetLead(ctx context.Context, id int64) (*Lead, error)
	// UpdateLeadStage moves a lead to a pipeline stage
	UpdateLeadStage(ctx context.Context, leadID, stageID int64) (*Lead, error)
	// CreateActivity logs an activity on a lead
	CreateActivity(ctx context.Context, input ActivityInput) (*Activity, error)
	// ListPipelines lists lead pipelines (cached)
	ListPipelines(ctx context.Context) ([]Pipeline, error)
	// ListStages lists the stages of a pipeline (cached)
	ListStages(ctx context.Context, pipelineID int64) ([]Stage, error)
	// ResolveStageID finds the stage of pipelineID whose name matches, case-insensitively
	ResolveStageID(ctx context.Context, pipelineID int64, name string) (int64, error)
}

type client struct {
	caller *restapi.Caller
	guard  *resilience.Client
	json   adapter.JSON
	ttls   CacheTTLs
}

// NewClient creates a CRM client behind the given guard
func NewClient(caller *restapi.Caller, guard *resilience.Client, json adapter.JSON, ttls CacheTTLs) Client {
	if ttls.Lead <= 0 {
		ttls.Lead = 300 * time.Second
	}
	if ttls.Stages <= 0 {
		ttls.Stages = 86400 * time.Second
	}
	if ttls.Pipelines <= 0 {
		ttls.Pipelines = 3600 * time.Second
	}
	return &client{caller: caller, guard: guard, json: json, ttls: ttls}
}

// call performs the request and unwraps the data envelope into out
func (c *client) call(ctx context.Context, operation string, req adapter.HTTPRequest, out interface{}) error {
	var env envelope
	if err := c.caller.Call(ctx, operation, req, &env); err != nil {
		return err
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := c.json.Unmarshal(env.Data, out); err != nil {
		return domain.NewUpstreamError(Upstream, operation, domain.IntPtr(http.StatusOK),
			fmt.Sprintf("failed to decode data: %v", err), err)
	}
	return nil
}

func idempotencyHeaders(key string) map[string]string {
	if key == "" {
		return nil
	}
	return map[string]string{restapi.HeaderIdempotencyKey: key}
}

func (c *client) CreateLead(ctx context.Context, input LeadInput) (*Lead, error) {
	input.Title = resilience.SanitizeString(input.Title)
	input.Description = resilience.SanitizeString(input.Description)
	input.Person.Name = resilience.SanitizeString(input.Person.Name)
	for i := range input.Person.Emails {
		input.Person.Emails[i].Value = resilience.SanitizeString(input.Person.Emails[i].Value)
	}
	for i := range input.Person.ContactNumbers {
		input.Person.ContactNumbers[i].Value = resilience.SanitizeString(input.Person.ContactNumbers[i].Value)
	}
	input.CustomAttributes = resilience.SanitizeMap(input.CustomAttributes)

	lead, err := resilience.Do(ctx, c.guard, resilience.Operation{Name: "create_lead"}, func(ctx context.Context) (*Lead, error) {
		var lead Lead
		err := c.call(ctx, "create_lead", adapter.HTTPRequest{
			Method:  http.MethodPost,
			Path:    "/api/v1/leads",
			Headers: idempotencyHeaders(input.IdempotencyKey),
			Body:    input,
		}, &lead)
		return &lead, err
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, nsLeadLists, "")
	return lead, nil
}

func (c *client) GetLead(ctx context.Context, id int64) (*Lead, error) {
	key := strconv.FormatInt(id, 10)
	return resilience.Read(ctx, c.guard, resilience.Operation{Name: "get_lead"}, nsLeads, key, c.ttls.Lead,
		func(ctx context.Context) (*Lead, error) {
			var lead Lead
			err := c.call(ctx, "get_lead", adapter.HTTPRequest{
				Method: http.MethodGet,
				Path:   fmt.Sprintf("/api/v1/leads/%d", id),
			}, &lead)
			return &lead, err
		})
}

func (c *client) UpdateLeadStage(ctx context.Context, leadID, stageID int64) (*Lead, error) {
	lead, err := resilience.Do(ctx, c.guard, resilience.Operation{Name: "update_lead_stage"}, func(ctx context.Context) (*Lead, error) {
		var lead Lead
		err := c.call(ctx, "update_lead_stage", adapter.HTTPRequest{
			Method: http.MethodPut,
			Path:   fmt.Sprintf("/api/v1/leads/%d/stage", leadID),
			Body:   map[string]interface{}{"lead_pipeline_stage_id": stageID},
		}, &lead)
		return &lead, err
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, nsLeads, strconv.FormatInt(leadID, 10))
	c.invalidate(ctx, nsLeadLists, "")
	return lead, nil
}

func (c *client) CreateActivity(ctx context.Context, input ActivityInput) (*Activity, error) {
	input.Title = resilience.SanitizeString(input.Title)
	input.Comment = resilience.SanitizeString(input.Comment)

	activity, err := resilience.Do(ctx, c.guard, resilience.Operation{Name: "create_activity"}, func(ctx context.Context) (*Activity, error) {
		var activity Activity
		err := c.call(ctx, "create_activity", adapter.HTTPRequest{
			Method:  http.MethodPost,
			Path:    "/api/v1/activities",
			Headers: idempotencyHeaders(input.IdempotencyKey),
			Body:    input,
		}, &activity)
		return &activity, err
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, nsLeads, strconv.FormatInt(input.LeadID, 10))
	return activity, nil
}

func (c *client) ListPipelines(ctx context.Context) ([]Pipeline, error) {
	return resilience.Read(ctx, c.guard, resilience.Operation{Name: "list_pipelines"}, nsPipelines, "all", c.ttls.Pipelines,
		func(ctx context.Context) ([]Pipeline, error) {
			var pipelines []Pipeline
			err := c.call(ctx, "list_pipelines", adapter.HTTPRequest{
				Method: http.MethodGet,
				Path:   "/api/v1/settings/pipelines",
			}, &pipelines)
			return pipelines, err
		})
}

func (c *client) ListStages(ctx context.Context, pipelineID int64) ([]Stage, error) {
	key := strconv.FormatInt(pipelineID, 10)
	return resilience.Read(ctx, c.guard, resilience.Operation{Name: "list_stages"}, nsStages, key, c.ttls.Stages,
		func(ctx context.Context) ([]Stage, error) {
			var pipeline Pipeline
			err := c.call(ctx, "list_stages", adapter.HTTPRequest{
				Method: http.MethodGet,
				Path:   fmt.Sprintf("/api/v1/settings/pipelines/%d", pipelineID),
			}, &pipeline)
			return pipeline.Stages, err
		})
}

func (c *client) ResolveStageID(ctx context.Context, pipelineID int64, name string) (int64, error) {
	stages, err := c.ListStages(ctx, pipelineID)
	if err != nil {
		return 0, err
	}
	for _, s := range stages {
		if strings.EqualFold(strings.TrimSpace(s.Name), name) {
			return s.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: pipeline %d has no stage named %q", domain.ErrValidation, pipelineID, name)
}

// invalidate drops one entry, or the whole namespace when key is empty. Failures only cost freshness.
func (c *client) invalidate(ctx context.Context, namespace, key string) {
	cache := c.guard.Cache()
	if key == "" {
		_ = cache.Invalidate(ctx, namespace)
		return
	}
	_ = cache.Delete(ctx, namespace, key)
}
