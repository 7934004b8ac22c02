// Package notify publishes reload outcomes so an external renderer can rebuild
// the site when its configuration changes.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
	"git.home.luguber.info/inful/sitenav/internal/logfields"
)

// DefaultSubject is the subject reload messages are published on.
const DefaultSubject = "sitenav.reload"

// Message is the JSON document published for every reload.
type Message struct {
	ReloadID    string    `json:"reload_id"`
	Type        string    `json:"type"`
	Trigger     string    `json:"trigger"`
	Timestamp   time.Time `json:"timestamp"`
	ConfigPath  string    `json:"config_path"`
	SiteName    string    `json:"site_name,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	NavLeaves   int       `json:"nav_leaves,omitempty"`
	NavNodes    int       `json:"nav_nodes,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Publisher delivers reload messages.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Noop discards every message.
type Noop struct{}

func (Noop) Publish(context.Context, Message) error { return nil }
func (Noop) Close() error                           { return nil }

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes messages on a core NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
}

// NewNATSPublisher connects to url. An empty subject uses DefaultSubject.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("sitenav"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS connection lost", logfields.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS connection restored", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to connect to NATS").
			Retryable().
			WithContext("url", url).
			Build()
	}

	p := newPublisher(nc, subject)
	slog.Info("NATS publisher connected", slog.String("url", url), logfields.Subject(p.subject))
	return p, nil
}

func newPublisher(c conn, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: c, subject: subject}
}

// Subject returns the subject messages are published on.
func (p *NATSPublisher) Subject() string { return p.subject }

// Publish encodes msg as JSON and publishes it. It waits for the server to
// acknowledge the flush, bounded by ctx.
func (p *NATSPublisher) Publish(ctx context.Context, msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode reload message").
			WithContext("reload_id", msg.ReloadID).
			Build()
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to publish reload message").
			Retryable().
			WithContext("subject", p.subject).
			WithContext("reload_id", msg.ReloadID).
			Build()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to flush reload message").
			Retryable().
			WithContext("subject", p.subject).
			Build()
	}

	slog.Debug("Published reload message",
		logfields.Subject(p.subject),
		logfields.ReloadID(msg.ReloadID),
		slog.String("type", msg.Type))
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
