package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeMessageCreated   = "message.created"
	TypeMessageEdited    = "message.edited"
	TypeMessageDeleted   = "message.deleted"
	TypeAssistantReplied = "assistant.replied"
	TypeWorkspaceCreated = "workspace.created"
	TypeWorkspaceDeleted = "workspace.deleted"
	TypeWorkspaceJoined  = "workspace.joined"
	TypeThreadCreated    = "thread.created"
	TypeThreadDeleted    = "thread.deleted"
)

// Event is what the bus carries. EventType doubles as the subject suffix and
// EventID deduplicates redeliveries.
type Event interface {
	EventType() string
	EventID() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

// ChatEvent is the only Event implementation: a typed bag of fields describing
// something that happened to a workspace, thread or message.
type ChatEvent struct {
	ID         string
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

// NewChatEvent stamps a new event with a fresh id and the current time.
func NewChatEvent(eventType string, data map[string]interface{}) ChatEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return ChatEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

func (e ChatEvent) EventType() string               { return e.Type }
func (e ChatEvent) EventID() string                 { return e.ID }
func (e ChatEvent) Payload() map[string]interface{} { return e.Data }
func (e ChatEvent) Timestamp() time.Time            { return e.OccurredAt }

// Publisher is satisfied by the NATS publisher and by test doubles.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops events. Used when the bus is unavailable.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
