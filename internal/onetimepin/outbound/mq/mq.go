// Package mq publishes one-time pin outcomes to the configured message broker.
package mq

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/onetimepin/internal/onetimepin/entity"
	"github.com/shandysiswandi/onetimepin/internal/pkg/idempotency"
	"github.com/shandysiswandi/onetimepin/internal/pkg/instrument"
	"github.com/shandysiswandi/onetimepin/internal/pkg/messaging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// DefaultTopic receives OneTimePinValidated events when no topic is configured.
	DefaultTopic = "onetimepin.validated"

	// EventValidated is the value of the "event" header.
	EventValidated = "OneTimePinValidated"

	keyOfEvent         = "event"
	keyOfDialogID      = "dialog_id"
	keyOfRequestID     = "request_id"
	keyOfPurpose       = "purpose"
	keyOfValidatedAt   = "validated_at"
	keyOfCorrelationID = "cID"
)

// Config tunes the publisher.
type Config struct {
	Topic string
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint64
	// Backoff is the first retry delay. It doubles per attempt up to MaxBackoff.
	Backoff    time.Duration
	MaxBackoff time.Duration
	// DedupTTL is how long a delivered request id is remembered.
	DedupTTL time.Duration
}

// Messaging publishes validation events. Each RequestID is delivered at most
// once when an idempotency store is configured.
type Messaging struct {
	client messaging.Publisher
	idem   idempotency.Idempotency
	ins    instrument.Instrumentation
	cfg    Config
}

// NewMessaging fills zero config values with defaults. idem may be nil.
func NewMessaging(client messaging.Publisher, idem idempotency.Idempotency, ins instrument.Instrumentation, cfg Config) *Messaging {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = 24 * time.Hour
	}

	return &Messaging{client: client, idem: idem, ins: ins, cfg: cfg}
}

// PublishValidated sends an empty-bodied OneTimePinValidated message with the
// dialog identity in its headers.
func (m *Messaging) PublishValidated(ctx context.Context, v entity.Validation) error {
	ctx, span := m.ins.Tracer("onetimepin.outbound.mq").Start(ctx, "PublishValidated")
	defer span.End()

	span.SetAttributes(
		attribute.String("messaging.destination", m.cfg.Topic),
		attribute.String("onetimepin.dialog_id", v.DialogID),
		attribute.String("onetimepin.request_id", v.RequestID),
	)

	env := messaging.Envelope{
		Key: v.DialogID,
		Headers: map[string]string{
			keyOfEvent:         EventValidated,
			keyOfDialogID:      v.DialogID,
			keyOfRequestID:     v.RequestID,
			keyOfPurpose:       v.Purpose,
			keyOfCorrelationID: instrument.GetCorrelationID(ctx),
		},
	}
	if !v.ValidatedAt.IsZero() {
		env.Headers[keyOfValidatedAt] = v.ValidatedAt.UTC().Format(time.RFC3339Nano)
	}

	publish := func(ctx context.Context) error {
		return m.publishWithRetry(ctx, env)
	}

	var err error
	if m.idem == nil {
		err = publish(ctx)
	} else {
		err = m.idem.Exec(ctx, "onetimepin:validated:"+v.RequestID, publish, idempotency.WithStateTTL(m.cfg.DedupTTL))
	}

	switch {
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.InfoContext(ctx, "validated one-time pin already published", "request_id", v.RequestID, "reason", err.Error())
		return nil
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) publishWithRetry(ctx context.Context, env messaging.Envelope) error {
	b := retry.NewExponential(m.cfg.Backoff)
	b = retry.WithCappedDuration(m.cfg.MaxBackoff, b)
	b = retry.WithMaxRetries(m.cfg.MaxRetries, b)

	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		_, err := m.client.Publish(ctx, m.cfg.Topic, env)
		if err == nil {
			return nil
		}
		if errors.Is(err, messaging.ErrClosed) || errors.Is(err, messaging.ErrDestinationRequired) {
			return err
		}

		slog.WarnContext(ctx, "failed to publish validated one-time pin", "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})
}
