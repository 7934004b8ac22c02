package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-based event store.
// Use ":memory:" for in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, wrap(ErrDatabaseOpenFailed, err)
	}
	// One connection: every ":memory:" connection would get its own database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, wrap(ErrInitializeSchemaFailed, err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reload_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		payload BLOB NOT NULL,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_reload_id ON events(reload_id);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_event_type ON events(event_type);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append adds a new event to the store. Events without a timestamp are
// stamped with the current time.
func (s *SQLiteStore) Append(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var metadataJSON []byte
	if md := event.Metadata(); md != nil {
		var err error
		metadataJSON, err = json.Marshal(md)
		if err != nil {
			return wrap(ErrEventAppendFailed, fmt.Errorf("marshal metadata: %w", err))
		}
	}

	ts := event.Timestamp()
	if ts.IsZero() {
		ts = time.Now()
	}
	payload := event.Payload()
	if payload == nil {
		payload = []byte("{}")
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (reload_id, event_type, timestamp, payload, metadata) VALUES (?, ?, ?, ?, ?)",
		event.ReloadID(), event.Type(), ts.UnixMilli(), payload, metadataJSON,
	)
	if err != nil {
		return wrap(ErrEventAppendFailed, err)
	}
	return nil
}

// GetByReloadID retrieves all events recorded for one reload.
func (s *SQLiteStore) GetByReloadID(ctx context.Context, reloadID string) ([]Event, error) {
	return s.query(ctx,
		"SELECT id, reload_id, event_type, timestamp, payload, metadata FROM events WHERE reload_id = ? ORDER BY id",
		reloadID,
	)
}

// GetRange retrieves events within a time range.
func (s *SQLiteStore) GetRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	return s.query(ctx,
		"SELECT id, reload_id, event_type, timestamp, payload, metadata FROM events WHERE timestamp >= ? AND timestamp <= ? ORDER BY id",
		start.UnixMilli(), end.UnixMilli(),
	)
}

// Recent retrieves the newest events. A non-positive limit defaults to 20.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.query(ctx,
		"SELECT id, reload_id, event_type, timestamp, payload, metadata FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrap(ErrEventQueryFailed, err)
	}
	defer func() { _ = rows.Close() }()

	return s.scanEvents(rows)
}

func (s *SQLiteStore) scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e BaseEvent
		var timestampMillis int64
		var metadataJSON []byte

		err := rows.Scan(&e.EventID, &e.EventReloadID, &e.EventType, &timestampMillis, &e.EventPayload, &metadataJSON)
		if err != nil {
			return nil, wrap(ErrEventQueryFailed, fmt.Errorf("scan event: %w", err))
		}

		e.EventTimestamp = time.UnixMilli(timestampMillis)

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.EventMetadata); err != nil {
				return nil, wrap(ErrUnmarshalPayloadFailed, fmt.Errorf("unmarshal metadata: %w", err))
			}
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, wrap(ErrEventQueryFailed, err)
	}

	return events, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
