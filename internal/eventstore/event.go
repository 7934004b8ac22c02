package eventstore

import "time"

// Event represents something that happened to the watched configuration.
type Event interface {
	// ID returns the store-assigned identifier; zero before Append.
	ID() int64
	// ReloadID returns the identifier of the reload this event belongs to.
	ReloadID() string
	// Type returns the event type name.
	Type() string
	// Timestamp returns when the event occurred.
	Timestamp() time.Time
	// Payload returns the event data as JSON.
	Payload() []byte
	// Metadata returns optional event metadata.
	Metadata() map[string]string
}

// BaseEvent provides a default implementation of Event.
type BaseEvent struct {
	EventID        int64
	EventReloadID  string
	EventType      string
	EventTimestamp time.Time
	EventPayload   []byte
	EventMetadata  map[string]string
}

func (e *BaseEvent) ID() int64                   { return e.EventID }
func (e *BaseEvent) ReloadID() string            { return e.EventReloadID }
func (e *BaseEvent) Type() string                { return e.EventType }
func (e *BaseEvent) Timestamp() time.Time        { return e.EventTimestamp }
func (e *BaseEvent) Payload() []byte             { return e.EventPayload }
func (e *BaseEvent) Metadata() map[string]string { return e.EventMetadata }
