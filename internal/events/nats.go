package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "didagoals"

// conn is the subset of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes events on NATS core subjects.
type NATSPublisher struct {
	nc     conn
	prefix string
}

// NATSConfig configures NewNATSPublisher.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

// NewNATSPublisher connects to the server at cfg.URL. The connection
// reconnects indefinitely.
func NewNATSPublisher(cfg NATSConfig) (*NATSPublisher, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url,
		nats.Name("didagoals"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return newNATSPublisher(nc, cfg.SubjectPrefix), nil
}

func newNATSPublisher(nc conn, prefix string) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{nc: nc, prefix: prefix}
}

// Subject returns the subject an event of type t is published on.
func (p *NATSPublisher) Subject(t Type) string {
	return p.prefix + ".goal." + string(t)
}

func (p *NATSPublisher) Publish(ctx context.Context, evt Event) error {
	if evt.ID == "" || evt.GoalID == "" || evt.Type == "" {
		return fmt.Errorf("invalid event: missing required fields")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.nc.Publish(p.Subject(evt.Type), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}
