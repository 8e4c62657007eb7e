package chatwoot

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/feral-file/crm-bridge/internal/adapter"
	"github.com/feral-file/crm-bridge/internal/domain"
	"github.com/feral-file/crm-bridge/internal/providers/restapi"
	"github.com/feral-file/crm-bridge/internal/resilience"
)

// Upstream is the name used for logging, breaker and limiter keys
const Upstream = "chatwoot"

// HeaderAccessToken is the platform's API token header
const HeaderAccessToken = "api_access_token"

const (
	nsContacts      = "contacts"
	contactCacheTTL = 300 * time.Second

	nsConversations      = "conversations"
	nsMessages           = "messages"
	conversationCacheTTL = 60 * time.Second
	messagesCacheTTL     = 30 * time.Second
)

// Client defines the chat platform operations used by the bridge
//
//go:generate mockgen -source=client.go -destination=../../mocks/chatwoot_client.go -package=mocks -mock_names=Client=MockChatwootClient
type Client interface {
	// GetConversation fetches a conversation (cached)
	GetConversation(ctx context.Context, conversationID int64) (*Conversation, error)
	// GetContact fetches a contact (cached)
	GetContact(ctx context.Context, contactID int64) (*Contact, error)
	// UpdateContactAttributes merges custom attributes into a contact
	UpdateContactAttributes(ctx context.Context, contactID int64, attributes map[string]interface{}) (*Contact, error)
	// UpdateConsentAttributes is UpdateContactAttributes behind the consent breaker and limiter
	UpdateConsentAttributes(ctx context.Context, contactID int64, attributes map[string]interface{}) (*Contact, error)
	// ListConversationMessages lists the messages of a conversation (cached)
	ListConversationMessages(ctx context.Context, conversationID int64) ([]Message, error)
}

type client struct {
	caller    *restapi.Caller
	guard     *resilience.Client
	json      adapter.JSON
	accountID int64
}

// NewClient creates a chat platform client for one account
func NewClient(caller *restapi.Caller, guard *resilience.Client, json adapter.JSON, accountID int64) Client {
	return &client{caller: caller, guard: guard, json: json, accountID: accountID}
}

// AuthHeaders returns the headers the platform expects on every request
func AuthHeaders(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{HeaderAccessToken: token}
}

func (c *client) path(format string, args ...interface{}) string {
	return fmt.Sprintf("/api/v1/accounts/%d", c.accountID) + fmt.Sprintf(format, args...)
}

// callPayload performs the request and unwraps the payload envelope into out
func (c *client) callPayload(ctx context.Context, operation string, req adapter.HTTPRequest, out interface{}) error {
	var env payload
	if err := c.caller.Call(ctx, operation, req, &env); err != nil {
		return err
	}
	if len(env.Payload) == 0 {
		return nil
	}
	if err := c.json.Unmarshal(env.Payload, out); err != nil {
		return domain.NewUpstreamError(Upstream, operation, domain.IntPtr(http.StatusOK),
			fmt.Sprintf("failed to decode payload: %v", err), err)
	}
	return nil
}

func (c *client) GetConversation(ctx context.Context, conversationID int64) (*Conversation, error) {
	key := strconv.FormatInt(conversationID, 10)
	return resilience.Read(ctx, c.guard, resilience.Operation{Name: "get_conversation"}, nsConversations, key, conversationCacheTTL,
		func(ctx context.Context) (*Conversation, error) {
			var conversation Conversation
			err := c.caller.Call(ctx, "get_conversation", adapter.HTTPRequest{
				Method: http.MethodGet,
				Path:   c.path("/conversations/%d", conversationID),
			}, &conversation)
			return &conversation, err
		})
}

func (c *client) GetContact(ctx context.Context, contactID int64) (*Contact, error) {
	key := strconv.FormatInt(contactID, 10)
	return resilience.Read(ctx, c.guard, resilience.Operation{Name: "get_contact"}, nsContacts, key, contactCacheTTL,
		func(ctx context.Context) (*Contact, error) {
			var contact Contact
			err := c.callPayload(ctx, "get_contact", adapter.HTTPRequest{
				Method: http.MethodGet,
				Path:   c.path("/contacts/%d", contactID),
			}, &contact)
			return &contact, err
		})
}

func (c *client) UpdateContactAttributes(ctx context.Context, contactID int64, attributes map[string]interface{}) (*Contact, error) {
	return c.updateAttributes(ctx, resilience.Operation{Name: "update_contact_attributes"}, contactID, attributes)
}

func (c *client) UpdateConsentAttributes(ctx context.Context, contactID int64, attributes map[string]interface{}) (*Contact, error) {
	return c.updateAttributes(ctx, resilience.Operation{Name: "update_consent_attributes", Consent: true}, contactID, attributes)
}

func (c *client) updateAttributes(ctx context.Context, op resilience.Operation, contactID int64, attributes map[string]interface{}) (*Contact, error) {
	attributes = resilience.SanitizeMap(attributes)

	contact, err := resilience.Do(ctx, c.guard, op, func(ctx context.Context) (*Contact, error) {
		var contact Contact
		err := c.callPayload(ctx, op.Name, adapter.HTTPRequest{
			Method: http.MethodPut,
			Path:   c.path("/contacts/%d", contactID),
			Body:   map[string]interface{}{"custom_attributes": attributes},
		}, &contact)
		return &contact, err
	})
	if err != nil {
		return nil, err
	}

	_ = c.guard.Cache().Delete(ctx, nsContacts, strconv.FormatInt(contactID, 10))
	return contact, nil
}

func (c *client) ListConversationMessages(ctx context.Context, conversationID int64) ([]Message, error) {
	key := strconv.FormatInt(conversationID, 10)
	return resilience.Read(ctx, c.guard, resilience.Operation{Name: "list_messages"}, nsMessages, key, messagesCacheTTL,
		func(ctx context.Context) ([]Message, error) {
			var messages []Message
			err := c.callPayload(ctx, "list_messages", adapter.HTTPRequest{
				Method: http.MethodGet,
				Path:   c.path("/conversations/%d/messages", conversationID),
			}, &messages)
			return messages, err
		})
}
