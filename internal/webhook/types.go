package webhook

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/feral-file/crm-bridge/internal/domain"
)

var validate = validator.New()

// FlexString decodes a JSON string or number into its string form.
// The platform sends ids and message types either way depending on the event.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// FlexTime decodes an RFC 3339 string or a unix timestamp in seconds
type FlexTime struct {
	time.Time
}

func (f *FlexTime) UnmarshalJSON(b []byte) error {
	var raw FlexString
	if err := raw.UnmarshalJSON(b); err != nil {
		return err
	}
	s := string(raw)
	if s == "" {
		f.Time = time.Time{}
		return nil
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		f.Time = time.Unix(sec, 0).UTC()
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	f.Time = t.UTC()
	return nil
}

// Sender is the author of a message or the contact of a conversation
type Sender struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Type        string `json:"type"`
}

// Contact is the contact carried by conversation events
type Contact struct {
	ID               int64                  `json:"id" validate:"required,gt=0"`
	Name             string                 `json:"name"`
	Email            string                 `json:"email" validate:"omitempty,email"`
	PhoneNumber      string                 `json:"phone_number"`
	Identifier       string                 `json:"identifier"`
	CustomAttributes map[string]interface{} `json:"custom_attributes"`
}

// Conversation is the conversation reference nested in message events
type Conversation struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// Envelope is the part shared by every event
type Envelope struct {
	Event string     `json:"event"`
	ID    FlexString `json:"id"`
}

// ConversationCreated is the conversation_created (and contact_created) payload
type ConversationCreated struct {
	ID      int64    `json:"id" validate:"required,gt=0"`
	Status  string   `json:"status"`
	InboxID int64    `json:"inbox_id"`
	Contact *Contact `json:"contact"`
	Meta    struct {
		Sender *Contact `json:"sender"`
	} `json:"meta"`
	CustomAttributes map[string]interface{} `json:"custom_attributes"`
	CreatedAt        FlexTime               `json:"created_at"`
}

// ContactInfo returns the conversation contact from either location it is sent in
func (p *ConversationCreated) ContactInfo() *Contact {
	if p.Contact != nil {
		return p.Contact
	}
	return p.Meta.Sender
}

// ContactCreated is the contact_created payload. It syncs like a new
// conversation only when a conversation is attached.
type ContactCreated struct {
	Contact
	Conversation *struct {
		ID      int64  `json:"id"`
		Status  string `json:"status"`
		InboxID int64  `json:"inbox_id"`
	} `json:"conversation"`
}

// ConversationPayload decodes a conversation_created or contact_created body into
// the conversation flow input. A contact without a conversation yields
// domain.ErrUnsupportedEvent.
func ConversationPayload(eventType domain.EventType, raw []byte) (*ConversationCreated, error) {
	if eventType != domain.EventTypeContactCreated {
		var p ConversationCreated
		if err := Decode(raw, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}

	var c ContactCreated
	if err := Decode(raw, &c); err != nil {
		return nil, err
	}
	if c.Conversation == nil || c.Conversation.ID <= 0 {
		return nil, fmt.Errorf("%w: contact %d has no conversation", domain.ErrUnsupportedEvent, c.ID)
	}
	contact := c.Contact
	return &ConversationCreated{
		ID:      c.Conversation.ID,
		Status:  c.Conversation.Status,
		InboxID: c.Conversation.InboxID,
		Contact: &contact,
	}, nil
}

// MessageCreated is the message_created payload
type MessageCreated struct {
	ID             int64         `json:"id" validate:"required,gt=0"`
	ConversationID int64         `json:"conversation_id"`
	Conversation   *Conversation `json:"conversation"`
	MessageType    FlexString    `json:"message_type" validate:"required"`
	ContentType    string        `json:"content_type"`
	Content        string        `json:"content"`
	Private        bool          `json:"private"`
	Sender         *Sender       `json:"sender"`
	CreatedAt      FlexTime      `json:"created_at"`
}

// ConversationRef returns the conversation id from either location it is sent in
func (p *MessageCreated) ConversationRef() int64 {
	if p.ConversationID > 0 {
		return p.ConversationID
	}
	if p.Conversation != nil {
		return p.Conversation.ID
	}
	return 0
}

// StatusChanged is the conversation_status_changed payload
type StatusChanged struct {
	ID                int64  `json:"id" validate:"required,gt=0"`
	Status            string `json:"status" validate:"required"`
	PreviousStatus    string `json:"previous_status"`
	ChangedAttributes []map[string]struct {
		PreviousValue interface{} `json:"previous_value"`
		CurrentValue  interface{} `json:"current_value"`
	} `json:"changed_attributes"`
	UpdatedAt FlexTime `json:"updated_at"`
}

// Previous returns the previous status, falling back to changed_attributes
func (p *StatusChanged) Previous() string {
	if p.PreviousStatus != "" {
		return p.PreviousStatus
	}
	for _, change := range p.ChangedAttributes {
		if c, ok := change["status"]; ok {
			if s, ok := c.PreviousValue.(string); ok {
				return s
			}
		}
	}
	return ""
}

// ParseEnvelope reads the event name and id of a raw webhook body
func ParseEnvelope(raw []byte) (*Envelope, domain.EventType, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, "", fmt.Errorf("%w: malformed body: %v", domain.ErrValidation, err)
	}
	if strings.TrimSpace(env.Event) == "" {
		return nil, "", fmt.Errorf("%w: event is required", domain.ErrValidation)
	}
	eventType, err := domain.NewEventType(env.Event)
	if err != nil {
		return &env, "", err
	}
	if env.ID == "" {
		return &env, eventType, fmt.Errorf("%w: id is required", domain.ErrValidation)
	}
	return &env, eventType, nil
}

// Decode unmarshals raw into out and validates it
func Decode(raw []byte, out interface{}) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// WebhookID derives the delivery id. Created events use the entity id. Status
// changes reuse the conversation id, so the new status and a body digest are
// appended: redeliveries of one change collide, distinct changes do not.
func WebhookID(eventType domain.EventType, id string, raw []byte) string {
	if eventType != domain.EventTypeConversationStatusChanged {
		return id
	}
	var p StatusChanged
	_ = json.Unmarshal(raw, &p)
	digest := sha256.Sum256(raw)
	return fmt.Sprintf("%s-%s-%s", id, strings.ToLower(p.Status), hex.EncodeToString(digest[:6]))
}

// Job is an accepted webhook travelling from intake to the handler workflow
type Job struct {
	WebhookID  string           `json:"webhook_id"`
	EventType  domain.EventType `json:"event_type"`
	Payload    json.RawMessage  `json:"payload"`
	IPAddress  string           `json:"ip_address,omitempty"`
	UserAgent  string           `json:"user_agent,omitempty"`
	ReceivedAt time.Time        `json:"received_at"`
	// ReplayOf is the dead letter id when the job is an operator replay
	ReplayOf *uint64 `json:"replay_of,omitempty"`
	// Attempt is the scheduler attempt the job is running under
	Attempt int `json:"attempt,omitempty"`
}

// WorkflowID returns the deterministic workflow id of the job
func (j Job) WorkflowID() string {
	id := fmt.Sprintf("webhook-%s-%s", j.EventType, j.WebhookID)
	if j.ReplayOf != nil {
		id += fmt.Sprintf("-replay-%d", *j.ReplayOf)
	}
	return id
}
