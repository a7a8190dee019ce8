// Package notify announces finished build sessions on a NATS subject so
// static-site deployers can pick up new output.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/logfields"
)

// Completion statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Completion is the message published after each session.
type Completion struct {
	RunID        string    `json:"run_id"`
	Repository   string    `json:"repository"`
	URL          string    `json:"url,omitempty"`
	Status       string    `json:"status"`
	OutputRoot   string    `json:"output_root"`
	ManifestPath string    `json:"manifest_path,omitempty"`
	Versions     []string  `json:"versions"`
	Failed       int       `json:"failed"`
	Error        string    `json:"error,omitempty"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Publisher delivers completion messages.
type Publisher interface {
	Publish(ctx context.Context, c Completion) error
	Close() error
}

// NopPublisher drops every message.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Completion) error { return nil }
func (NopPublisher) Close() error                             { return nil }

// conn is the subset of *nats.Conn the publisher uses.
type conn interface {
	PublishMsg(m *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes completions as JSON on one subject. The run id is
// sent as Nats-Msg-Id so a JetStream stream on the subject deduplicates
// redeliveries.
type NATSPublisher struct {
	conn    conn
	subject string
}

// NewNATSPublisher connects to url.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("docversions"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, errors.NetworkError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", url).
			Build()
	}
	slog.Info("NATS publisher connected", logfields.URL(url), slog.String("subject", subject))
	return newPublisher(nc, subject), nil
}

func newPublisher(c conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: c, subject: subject}
}

// Publish sends c and waits until the server acknowledged the flush or ctx ends.
func (p *NATSPublisher) Publish(ctx context.Context, c Completion) error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal completion").Build()
	}
	msg := nats.NewMsg(p.subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, c.RunID)
	msg.Header.Set("Docversions-Repository", c.Repository)

	if err := p.conn.PublishMsg(msg); err != nil {
		return errors.NetworkError("failed to publish completion").
			WithCause(err).
			WithContext("subject", p.subject).
			Build()
	}
	flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.conn.FlushWithContext(flushCtx); err != nil {
		return errors.NetworkError("failed to flush completion").
			WithCause(err).
			WithContext("subject", p.subject).
			Build()
	}
	slog.Debug("Published completion", logfields.RunID(c.RunID), logfields.Repository(c.Repository))
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
