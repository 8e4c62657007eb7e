package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ConversationStatus is the chat platform conversation status
type ConversationStatus string

const (
	ConversationStatusOpen     ConversationStatus = "open"
	ConversationStatusResolved ConversationStatus = "resolved"
	ConversationStatusPending  ConversationStatus = "pending"
	ConversationStatusSnoozed  ConversationStatus = "snoozed"
)

// NewConversationStatus validates and returns a ConversationStatus
func NewConversationStatus(s string) (ConversationStatus, error) {
	status := ConversationStatus(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case ConversationStatusOpen, ConversationStatusResolved, ConversationStatusPending, ConversationStatusSnoozed:
		return status, nil
	}
	return "", fmt.Errorf("%w: conversation status %q", ErrInvalidEnum, s)
}

// Valid reports whether the status is one of the known values
func (s ConversationStatus) Valid() bool {
	_, err := NewConversationStatus(string(s))
	return err == nil
}

// MessageType is the direction of a chat message
type MessageType string

const (
	MessageTypeIncoming MessageType = "incoming"
	MessageTypeOutgoing MessageType = "outgoing"
	MessageTypeActivity MessageType = "activity"
)

// NewMessageType validates and returns a MessageType.
// Chatwoot sends the type either as a name or as its integer code (0 incoming, 1 outgoing, 2 activity).
func NewMessageType(s string) (MessageType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(v); err == nil {
		switch n {
		case 0:
			return MessageTypeIncoming, nil
		case 1:
			return MessageTypeOutgoing, nil
		case 2:
			return MessageTypeActivity, nil
		}
		return "", fmt.Errorf("%w: message type %q", ErrInvalidEnum, s)
	}

	mt := MessageType(v)
	switch mt {
	case MessageTypeIncoming, MessageTypeOutgoing, MessageTypeActivity:
		return mt, nil
	}
	return "", fmt.Errorf("%w: message type %q", ErrInvalidEnum, s)
}

// Valid reports whether the message type is one of the known values
func (m MessageType) Valid() bool {
	_, err := NewMessageType(string(m))
	return err == nil
}

// ConsentStatus is the lifecycle state of a consent record
type ConsentStatus string

const (
	ConsentStatusGranted   ConsentStatus = "granted"
	ConsentStatusDenied    ConsentStatus = "denied"
	ConsentStatusWithdrawn ConsentStatus = "withdrawn"
	ConsentStatusExpired   ConsentStatus = "expired"
)

// NewConsentStatus validates and returns a ConsentStatus
func NewConsentStatus(s string) (ConsentStatus, error) {
	status := ConsentStatus(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case ConsentStatusGranted, ConsentStatusDenied, ConsentStatusWithdrawn, ConsentStatusExpired:
		return status, nil
	}
	return "", fmt.Errorf("%w: consent status %q", ErrInvalidEnum, s)
}

// ConsentType is the purpose a consent covers
type ConsentType string

const (
	ConsentTypeDataProcessing ConsentType = "data_processing"
	ConsentTypeMarketing      ConsentType = "marketing"
	ConsentTypeCommunication  ConsentType = "communication"
	ConsentTypeAnalytics      ConsentType = "analytics"
)

// ConsentTypes lists every known consent type
var ConsentTypes = []ConsentType{
	ConsentTypeDataProcessing,
	ConsentTypeMarketing,
	ConsentTypeCommunication,
	ConsentTypeAnalytics,
}

// NewConsentType validates and returns a ConsentType
func NewConsentType(s string) (ConsentType, error) {
	ct := ConsentType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ConsentTypes {
		if ct == known {
			return ct, nil
		}
	}
	return "", fmt.Errorf("%w: consent type %q", ErrInvalidEnum, s)
}

// EventType is a chat platform webhook event name
type EventType string

const (
	EventTypeConversationCreated       EventType = "conversation_created"
	EventTypeContactCreated            EventType = "contact_created"
	EventTypeMessageCreated            EventType = "message_created"
	EventTypeConversationStatusChanged EventType = "conversation_status_changed"
)

// NewEventType validates and returns a supported EventType
func NewEventType(s string) (EventType, error) {
	et := EventType(strings.TrimSpace(s))
	switch et {
	case EventTypeConversationCreated, EventTypeContactCreated, EventTypeMessageCreated, EventTypeConversationStatusChanged:
		return et, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedEvent, s)
}

// HighPriority reports whether the event should be routed to the high priority queue
func (e EventType) HighPriority() bool {
	return e == EventTypeConversationCreated || e == EventTypeContactCreated || e == EventTypeMessageCreated
}

// JobKind identifies a scheduled job family and its dead-letter table
type JobKind string

const (
	JobKindWebhook      JobKind = "webhook"
	JobKindDataDeletion JobKind = "data_deletion"
	JobKindDataExport   JobKind = "data_export"
	JobKindAudit        JobKind = "audit"
)

// NewJobKind validates and returns a JobKind
func NewJobKind(s string) (JobKind, error) {
	k := JobKind(strings.TrimSpace(s))
	switch k {
	case JobKindWebhook, JobKindDataDeletion, JobKindDataExport, JobKindAudit:
		return k, nil
	}
	return "", fmt.Errorf("%w: job kind %q", ErrInvalidEnum, s)
}

// CRM pipeline stage names a conversation status maps onto
const (
	StageInProgress = "In Progress"
	StageFollowUp   = "Follow-up"
	StageWaiting    = "Waiting"
)

// StageForStatus returns the CRM pipeline stage name for a conversation status.
// Unknown statuses map to the same stage as open.
func StageForStatus(status ConversationStatus) string {
	switch status {
	case ConversationStatusResolved:
		return StageFollowUp
	case ConversationStatusPending, ConversationStatusSnoozed:
		return StageWaiting
	default:
		return StageInProgress
	}
}

// CRM activity categories derived from message direction
const (
	ActivityTypeCall  = "call"
	ActivityTypeEmail = "email"
	ActivityTypeNote  = "note"
)

// ActivityTypeFor returns the CRM activity category for a message direction
func ActivityTypeFor(mt MessageType) string {
	switch mt {
	case MessageTypeIncoming:
		return ActivityTypeCall
	case MessageTypeOutgoing:
		return ActivityTypeEmail
	default:
		return ActivityTypeNote
	}
}
