// Package eventstore records what the watcher did with each configuration
// change: loads, unchanged reloads and failures.
package eventstore

import (
	"context"
	"encoding/json"
	"time"
)

// ReloadSummary is a read model of one stored event, decoded for listing.
type ReloadSummary struct {
	ID          int64     `json:"id"`
	ReloadID    string    `json:"reload_id"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	Trigger     string    `json:"trigger,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	SiteName    string    `json:"site_name,omitempty"`
	NavLeaves   int       `json:"nav_leaves,omitempty"`
	NavNodes    int       `json:"nav_nodes,omitempty"`
	DurationMS  int64     `json:"duration_ms,omitempty"`
	Error       string    `json:"error,omitempty"`
}

type summaryPayload struct {
	Trigger     string     `json:"trigger"`
	Fingerprint string     `json:"fingerprint"`
	Stats       *LoadStats `json:"stats"`
	DurationMS  int64      `json:"duration_ms"`
	Error       string     `json:"error"`
}

// Summarize decodes the payload of a stored event.
func Summarize(e Event) (ReloadSummary, error) {
	s := ReloadSummary{
		ID:        e.ID(),
		ReloadID:  e.ReloadID(),
		Type:      e.Type(),
		Timestamp: e.Timestamp(),
	}
	var p summaryPayload
	if len(e.Payload()) > 0 {
		if err := json.Unmarshal(e.Payload(), &p); err != nil {
			return s, wrap(ErrUnmarshalPayloadFailed, err)
		}
	}
	s.Trigger = p.Trigger
	s.Fingerprint = p.Fingerprint
	s.DurationMS = p.DurationMS
	s.Error = p.Error
	if p.Stats != nil {
		s.Fingerprint = p.Stats.Fingerprint
		s.SiteName = p.Stats.SiteName
		s.NavLeaves = p.Stats.NavLeaves
		s.NavNodes = p.Stats.NavNodes
	}
	return s, nil
}

// History returns the newest limit events as summaries, newest first.
func History(ctx context.Context, store Store, limit int) ([]ReloadSummary, error) {
	events, err := store.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ReloadSummary, 0, len(events))
	for _, e := range events {
		s, err := Summarize(e)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
