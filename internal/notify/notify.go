// Package notify announces finished builds to other systems.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
)

// BuildEvent is published once per finished build.
type BuildEvent struct {
	BuildID     string    `json:"build_id"`
	Outcome     string    `json:"outcome"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Revision    string    `json:"revision,omitempty"`
	Rendered    int       `json:"rendered"`
	Failed      int       `json:"failed"`
	DurationMS  int64     `json:"duration_ms"`
	FinishedAt  time.Time `json:"finished_at"`
	Error       string    `json:"error,omitempty"`
}

// Notifier publishes build events.
type Notifier interface {
	Publish(ctx context.Context, ev BuildEvent) error
	Close()
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, BuildEvent) error { return nil }
func (Noop) Close()                                    {}

// conn is the subset of *nats.Conn used by NATSPublisher.
type conn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes build events as JSON on a NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	retry   retry.Policy
}

// NewNATSPublisher connects to url and publishes on subject.
func NewNATSPublisher(url, subject string, opts ...nats.Option) (*NATSPublisher, error) {
	opts = append([]nats.Option{nats.Name("sitebuilder"), nats.Timeout(5 * time.Second)}, opts...)
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS notifier connected", "url", url, "subject", subject)
	return newPublisher(nc, subject), nil
}

func newPublisher(c conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: c, subject: subject, retry: retry.DefaultPolicy()}
}

// WithRetry sets the policy applied when a publish or flush fails.
func (p *NATSPublisher) WithRetry(policy retry.Policy) *NATSPublisher {
	p.retry = policy
	return p
}

// Publish sends ev and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, ev BuildEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	attempt := 0
	err = p.retry.Do(ctx, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			slog.Debug("Retrying build event publish", logfields.BuildID(ev.BuildID), "attempt", attempt)
		}
		return p.send(ctx, data)
	})
	if err != nil {
		return err
	}
	slog.Debug("Published build event", logfields.BuildID(ev.BuildID), "subject", p.subject, "outcome", ev.Outcome)
	return nil
}

func (p *NATSPublisher) send(ctx context.Context, data []byte) error {
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	return nil
}

// Close closes the connection.
func (p *NATSPublisher) Close() {
	p.conn.Close()
}
