package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/sitenav/internal/foundation/errors"
)

// Event type names.
const (
	TypeConfigLoaded    = "ConfigLoaded"
	TypeConfigUnchanged = "ConfigUnchanged"
	TypeReloadFailed    = "ReloadFailed"
)

// LoadStats summarizes a successfully loaded configuration.
type LoadStats struct {
	SiteName    string `json:"site_name"`
	Fingerprint string `json:"fingerprint"`
	NavLeaves   int    `json:"nav_leaves"`
	NavNodes    int    `json:"nav_nodes"`
	Pages       int    `json:"pages"`
	Issues      int    `json:"issues"`
}

// ConfigLoaded is emitted when a load produced a configuration that differs
// from the previous one (or is the first one).
type ConfigLoaded struct {
	BaseEvent
	Trigger  string        `json:"trigger"`
	Stats    LoadStats     `json:"stats"`
	Duration time.Duration `json:"duration_ms"`
}

// NewConfigLoaded creates a ConfigLoaded event.
func NewConfigLoaded(reloadID, trigger string, stats LoadStats, duration time.Duration) (*ConfigLoaded, error) {
	payload, err := json.Marshal(map[string]any{
		"trigger":     trigger,
		"stats":       stats,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal ConfigLoaded payload").
			WithCause(err).
			WithContext("reload_id", reloadID).
			Build()
	}

	return &ConfigLoaded{
		BaseEvent: BaseEvent{
			EventReloadID:  reloadID,
			EventType:      TypeConfigLoaded,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Trigger:  trigger,
		Stats:    stats,
		Duration: duration,
	}, nil
}

// ConfigUnchanged is emitted when a reload produced the same fingerprint as
// the configuration already in use.
type ConfigUnchanged struct {
	BaseEvent
	Trigger     string `json:"trigger"`
	Fingerprint string `json:"fingerprint"`
}

// NewConfigUnchanged creates a ConfigUnchanged event.
func NewConfigUnchanged(reloadID, trigger, fingerprint string) (*ConfigUnchanged, error) {
	payload, err := json.Marshal(map[string]any{
		"trigger":     trigger,
		"fingerprint": fingerprint,
	})
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal ConfigUnchanged payload").
			WithCause(err).
			WithContext("reload_id", reloadID).
			Build()
	}

	return &ConfigUnchanged{
		BaseEvent: BaseEvent{
			EventReloadID:  reloadID,
			EventType:      TypeConfigUnchanged,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Trigger:     trigger,
		Fingerprint: fingerprint,
	}, nil
}

// ReloadFailed is emitted when a reload could not produce a configuration.
// The previous configuration stays in use.
type ReloadFailed struct {
	BaseEvent
	Trigger  string `json:"trigger"`
	Category string `json:"category"`
	Message  string `json:"error"`
}

// NewReloadFailed creates a ReloadFailed event from the load error.
func NewReloadFailed(reloadID, trigger string, cause error) (*ReloadFailed, error) {
	category := string(errors.GetCategory(cause))
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	payload, err := json.Marshal(map[string]any{
		"trigger":  trigger,
		"category": category,
		"error":    msg,
	})
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal ReloadFailed payload").
			WithCause(err).
			WithContext("reload_id", reloadID).
			Build()
	}

	return &ReloadFailed{
		BaseEvent: BaseEvent{
			EventReloadID:  reloadID,
			EventType:      TypeReloadFailed,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Trigger:  trigger,
		Category: category,
		Message:  msg,
	}, nil
}
