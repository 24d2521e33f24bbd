// Package events announces finished generation runs on NATS so that
// downstream jobs (a Sphinx build, a docs deploy) can react.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Aeva/whisperscope/internal/logfields"
	"github.com/Aeva/whisperscope/internal/retry"
)

// Generated is published after every generation run.
type Generated struct {
	BuildID    string    `json:"build_id"`
	OutputDir  string    `json:"output_dir"`
	Pages      []string  `json:"pages"`
	Fragments  int       `json:"fragments"`
	Failed     int       `json:"failed"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Encode returns the JSON payload for e.
func (e Generated) Encode() ([]byte, error) {
	if e.Pages == nil {
		e.Pages = []string{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

// Publisher delivers Generated events.
type Publisher interface {
	Publish(ctx context.Context, e Generated) error
	Close() error
}

// Noop discards events. It is used when no NATS URL is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Generated) error { return nil }
func (Noop) Close() error                             { return nil }

// flushTimeout bounds each flush. nats.go rejects a flush context without a
// deadline.
const flushTimeout = 5 * time.Second

// NATSPublisher publishes events on a core NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	policy  retry.Policy
}

// NewNATSPublisher connects to url. The connection is named after the tool
// so it can be told apart in server monitoring.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("docshound"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS publisher connected", "url", url, logfields.Subject(subject))
	return &NATSPublisher{conn: conn, subject: subject, policy: retry.DefaultPolicy()}, nil
}

// Publish sends e and waits for the server to acknowledge the flush. A failed
// flush is retried with a fresh publish, so delivery is at least once.
func (p *NATSPublisher) Publish(ctx context.Context, e Generated) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	data, err := e.Encode()
	if err != nil {
		return err
	}
	err = p.policy.Do(ctx, func() error {
		if err := p.conn.Publish(p.subject, data); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}
		fctx, cancel := context.WithTimeout(ctx, flushTimeout)
		defer cancel()
		if err := p.conn.FlushWithContext(fctx); err != nil {
			return fmt.Errorf("failed to flush event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.Debug("Published generation event", logfields.BuildID(e.BuildID), logfields.Subject(p.subject))
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// New returns a NATS publisher for url, or Noop when url is empty.
func New(url, subject string) (Publisher, error) {
	if url == "" {
		return Noop{}, nil
	}
	return NewNATSPublisher(url, subject)
}
