package krayin

import "encoding/json"

// Email is a labelled email address of a person
type Email struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ContactNumber is a labelled phone number of a person
type ContactNumber struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// PersonInput is the person embedded in a lead creation request
type PersonInput struct {
	// ID links the lead to an existing person instead of creating one
	ID             int64           `json:"id,omitempty"`
	Name           string          `json:"name"`
	Emails         []Email         `json:"emails,omitempty"`
	ContactNumbers []ContactNumber `json:"contact_numbers,omitempty"`
}

// LeadInput is the request to create a lead
type LeadInput struct {
	Title               string                 `json:"title"`
	Description         string                 `json:"description,omitempty"`
	LeadValue           float64                `json:"lead_value"`
	LeadSourceID        int                    `json:"lead_source_id,omitempty"`
	LeadTypeID          int                    `json:"lead_type_id,omitempty"`
	UserID              int                    `json:"user_id,omitempty"`
	LeadPipelineID      int                    `json:"lead_pipeline_id,omitempty"`
	LeadPipelineStageID int                    `json:"lead_pipeline_stage_id,omitempty"`
	Person              PersonInput            `json:"person"`
	CustomAttributes    map[string]interface{} `json:"custom_attributes,omitempty"`

	// IdempotencyKey is sent as a header, not in the body
	IdempotencyKey string `json:"-"`
}

// Person is a CRM person
type Person struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Lead is a CRM lead
type Lead struct {
	ID                  int64   `json:"id"`
	Title               string  `json:"title"`
	Status              *int    `json:"status"`
	LeadPipelineID      int64   `json:"lead_pipeline_id"`
	LeadPipelineStageID int64   `json:"lead_pipeline_stage_id"`
	PersonID            *int64  `json:"person_id"`
	Person              *Person `json:"person,omitempty"`
}

// ActivityInput is the request to log an activity on a lead
type ActivityInput struct {
	LeadID       int64  `json:"lead_id"`
	Type         string `json:"type"`
	Title        string `json:"title"`
	Comment      string `json:"comment"`
	ScheduleFrom string `json:"schedule_from"`
	ScheduleTo   string `json:"schedule_to"`
	IsDone       int    `json:"is_done"`

	IdempotencyKey string `json:"-"`
}

// Activity is a CRM activity
type Activity struct {
	ID     int64  `json:"id"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	IsDone int    `json:"is_done"`
}

// Stage is a pipeline stage
type Stage struct {
	ID             int64  `json:"id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	Probability    int    `json:"probability"`
	SortOrder      int    `json:"sort_order"`
	LeadPipelineID int64  `json:"lead_pipeline_id"`
}

// Pipeline is a lead pipeline with its stages
type Pipeline struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	IsDefault  int     `json:"is_default"`
	RottenDays int     `json:"rotten_days"`
	Stages     []Stage `json:"stages"`
}

// envelope is the { "data": ... } wrapper of every CRM response
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}
