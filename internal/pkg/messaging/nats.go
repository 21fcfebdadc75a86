package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// ErrNATSURLRequired is returned when the NATS server URL is missing.
var ErrNATSURLRequired = errors.New("messaging: nats url is required")

// NATSConfig configures the NATS implementation.
type NATSConfig struct {
	// URL is the NATS server address.
	URL string
	// Name identifies the connection on the server.
	Name string

	// Options are passed to the NATS client after the defaults.
	Options []nats.Option
}

// NATS publishes envelopes as core NATS messages with headers.
type NATS struct {
	lifecycle

	conn *nats.Conn
}

// NewNATS connects to the configured server.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	opts := []nats.Option{nats.MaxReconnects(-1)}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	opts = append(opts, cfg.Options...)

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

// Close drains pending publishes and closes the connection.
func (n *NATS) Close() error {
	if !n.markClosed() {
		return nil
	}

	err := n.conn.Drain()
	n.conn.Close()
	return err
}

// Publish sends the envelope to a subject and flushes within ctx.
func (n *NATS) Publish(ctx context.Context, destination string, env Envelope) (Receipt, error) {
	if err := n.precheck(ctx, destination); err != nil {
		return Receipt{}, err
	}

	msg := nats.NewMsg(destination)
	msg.Data = env.Body
	for _, name := range env.headerNames() {
		msg.Header.Set(name, env.Headers[name])
	}

	if err := n.conn.PublishMsg(msg); err != nil {
		return Receipt{}, fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return Receipt{}, fmt.Errorf("messaging: nats flush: %w", err)
	}

	return Receipt{
		Destination: destination,
		AcceptedAt:  time.Now(),
	}, nil
}
