package mq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/onetimepin/internal/onetimepin/entity"
	"github.com/shandysiswandi/onetimepin/internal/pkg/idempotency"
	"github.com/shandysiswandi/onetimepin/internal/pkg/instrument"
	"github.com/shandysiswandi/onetimepin/internal/pkg/messaging"
)

type published struct {
	destination string
	env         messaging.Envelope
}

type fakePublisher struct {
	mu       sync.Mutex
	failures int
	err      error
	calls    []published
}

func (f *fakePublisher) Publish(_ context.Context, destination string, env messaging.Envelope) (messaging.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, published{destination: destination, env: env})
	if f.failures > 0 {
		f.failures--
		return messaging.Receipt{}, f.err
	}
	return messaging.Receipt{Destination: destination}, nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// memoryIdempotency mirrors the Redis state tracker in memory.
type memoryIdempotency struct {
	mu   sync.Mutex
	done map[string]bool
	keys []string
}

func (m *memoryIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	m.mu.Lock()
	m.keys = append(m.keys, key)
	if m.done[key] {
		m.mu.Unlock()
		return idempotency.ErrAlreadyCompleted
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.done[key] = true
	m.mu.Unlock()
	return nil
}

func validation() entity.Validation {
	return entity.Validation{
		DialogID:    "d1",
		Purpose:     "Block & Replace",
		RequestID:   "REQ1",
		ValidatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestMessaging_PublishValidated(t *testing.T) {
	t.Parallel()

	t.Run("PublishesHeadersWithEmptyBody", func(t *testing.T) {
		t.Parallel()

		// Arrange
		pub := &fakePublisher{}
		m := NewMessaging(pub, nil, instrument.NewNoop(), Config{})
		ctx := instrument.SetCorrelationID(context.Background(), "corr-1")

		// Act
		err := m.PublishValidated(ctx, validation())

		// Assert
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if pub.count() != 1 {
			t.Fatalf("expected 1 publish, got %d", pub.count())
		}
		got := pub.calls[0]
		if got.destination != DefaultTopic {
			t.Fatalf("expected destination %q, got %q", DefaultTopic, got.destination)
		}
		if len(got.env.Body) != 0 {
			t.Fatalf("expected empty body, got %q", got.env.Body)
		}
		if got.env.Key != "d1" {
			t.Fatalf("expected key d1, got %q", got.env.Key)
		}
		want := map[string]string{
			"event":        "OneTimePinValidated",
			"dialog_id":    "d1",
			"request_id":   "REQ1",
			"purpose":      "Block & Replace",
			"cID":          "corr-1",
			"validated_at": "2026-01-02T03:04:05Z",
		}
		for k, v := range want {
			if got.env.Header(k) != v {
				t.Fatalf("expected header %s=%q, got %q", k, v, got.env.Header(k))
			}
		}
	})

	t.Run("UsesConfiguredTopic", func(t *testing.T) {
		t.Parallel()

		// Arrange
		pub := &fakePublisher{}
		m := NewMessaging(pub, nil, instrument.NewNoop(), Config{Topic: "host.otp"})

		// Act
		err := m.PublishValidated(context.Background(), validation())

		// Assert
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if pub.calls[0].destination != "host.otp" {
			t.Fatalf("expected destination host.otp, got %q", pub.calls[0].destination)
		}
	})

	t.Run("RetriesTransientFailures", func(t *testing.T) {
		t.Parallel()

		// Arrange
		pub := &fakePublisher{failures: 2, err: errors.New("broker unavailable")}
		m := NewMessaging(pub, nil, instrument.NewNoop(), Config{MaxRetries: 3, Backoff: time.Millisecond})

		// Act
		err := m.PublishValidated(context.Background(), validation())

		// Assert
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if pub.count() != 3 {
			t.Fatalf("expected 3 attempts, got %d", pub.count())
		}
	})

	t.Run("GivesUpAfterMaxRetries", func(t *testing.T) {
		t.Parallel()

		// Arrange
		brokerErr := errors.New("broker unavailable")
		pub := &fakePublisher{failures: 10, err: brokerErr}
		m := NewMessaging(pub, nil, instrument.NewNoop(), Config{MaxRetries: 2, Backoff: time.Millisecond})

		// Act
		err := m.PublishValidated(context.Background(), validation())

		// Assert
		if !errors.Is(err, brokerErr) {
			t.Fatalf("expected broker error, got %v", err)
		}
		if pub.count() != 3 {
			t.Fatalf("expected 3 attempts, got %d", pub.count())
		}
	})

	t.Run("DoesNotRetryClosedPublisher", func(t *testing.T) {
		t.Parallel()

		// Arrange
		pub := &fakePublisher{failures: 10, err: messaging.ErrClosed}
		m := NewMessaging(pub, nil, instrument.NewNoop(), Config{MaxRetries: 5, Backoff: time.Millisecond})

		// Act
		err := m.PublishValidated(context.Background(), validation())

		// Assert
		if !errors.Is(err, messaging.ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
		if pub.count() != 1 {
			t.Fatalf("expected 1 attempt, got %d", pub.count())
		}
	})

	t.Run("PublishesEachRequestOnce", func(t *testing.T) {
		t.Parallel()

		// Arrange
		pub := &fakePublisher{}
		idem := &memoryIdempotency{done: map[string]bool{}}
		m := NewMessaging(pub, idem, instrument.NewNoop(), Config{})

		// Act
		first := m.PublishValidated(context.Background(), validation())
		second := m.PublishValidated(context.Background(), validation())

		// Assert
		if first != nil || second != nil {
			t.Fatalf("expected nil errors, got %v and %v", first, second)
		}
		if pub.count() != 1 {
			t.Fatalf("expected 1 publish, got %d", pub.count())
		}
		if idem.keys[0] != "onetimepin:validated:REQ1" {
			t.Fatalf("expected idempotency key onetimepin:validated:REQ1, got %q", idem.keys[0])
		}
	})

	t.Run("FailedPublishCanBeRetriedLater", func(t *testing.T) {
		t.Parallel()

		// Arrange
		pub := &fakePublisher{failures: 1, err: errors.New("broker unavailable")}
		idem := &memoryIdempotency{done: map[string]bool{}}
		m := NewMessaging(pub, idem, instrument.NewNoop(), Config{MaxRetries: 0, Backoff: time.Millisecond})

		// Act
		first := m.PublishValidated(context.Background(), validation())
		second := m.PublishValidated(context.Background(), validation())

		// Assert
		if first == nil {
			t.Fatalf("expected first publish to fail")
		}
		if second != nil {
			t.Fatalf("expected second publish to succeed, got %v", second)
		}
		if pub.count() != 2 {
			t.Fatalf("expected 2 publishes, got %d", pub.count())
		}
	})
}
