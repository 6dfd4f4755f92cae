package events

import (
	"context"
	"time"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "IDEA_STAGE_CHANGED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Handler processes one delivered event.
type Handler func(ctx context.Context, event Event) error

// Publisher puts an event on a bus. id lets the bus drop duplicates.
type Publisher interface {
	Publish(ctx context.Context, id string, event Event) error
}

// Subscriber delivers events matching subject to handler.
type Subscriber interface {
	Subscribe(subject string, durableName string, handler Handler) error
}
