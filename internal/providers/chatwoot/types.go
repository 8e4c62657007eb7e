package chatwoot

import "encoding/json"

// Contact is a chat platform contact
type Contact struct {
	ID               int64                  `json:"id"`
	Name             string                 `json:"name"`
	Email            string                 `json:"email"`
	PhoneNumber      string                 `json:"phone_number"`
	Identifier       string                 `json:"identifier"`
	CustomAttributes map[string]interface{} `json:"custom_attributes"`
}

// Conversation is a chat platform conversation
type Conversation struct {
	ID        int64  `json:"id"`
	AccountID int64  `json:"account_id"`
	InboxID   int64  `json:"inbox_id"`
	Status    string `json:"status"`
	Meta      struct {
		Sender *Contact `json:"sender"`
	} `json:"meta"`
	CustomAttributes map[string]interface{} `json:"custom_attributes"`
}

// Message is a chat platform message. MessageType is kept raw because the
// platform sends it either as a name or as its integer code.
type Message struct {
	ID             int64           `json:"id"`
	Content        string          `json:"content"`
	MessageType    json.RawMessage `json:"message_type"`
	CreatedAt      int64           `json:"created_at"`
	ConversationID int64           `json:"conversation_id"`
	Private        bool            `json:"private"`
}

// payload is the { "payload": ... } wrapper of contact and message responses
type payload struct {
	Payload json.RawMessage `json:"payload"`
}
