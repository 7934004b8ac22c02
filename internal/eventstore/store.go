package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving reload events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, event Event) error

	// GetByReloadID retrieves all events recorded for one reload.
	GetByReloadID(ctx context.Context, reloadID string) ([]Event, error)

	// GetRange retrieves events within a time range, oldest first.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Recent retrieves the newest events, newest first.
	Recent(ctx context.Context, limit int) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}
