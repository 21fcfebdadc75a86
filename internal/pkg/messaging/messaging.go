package messaging

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"time"
)

var (
	// ErrDestinationRequired is returned when Publish is called without a topic or subject.
	ErrDestinationRequired = errors.New("messaging: destination is required")
	// ErrClosed is returned when Publish is called after Close.
	ErrClosed = errors.New("messaging: publisher is closed")
)

// Publisher sends envelopes to a destination (topic or subject).
type Publisher interface {
	io.Closer

	// Publish blocks until the broker accepted the envelope or ctx is done.
	Publish(ctx context.Context, destination string, env Envelope) (Receipt, error)
}

// Envelope is a broker-agnostic outgoing message.
//
// Headers become native headers on Kafka and NATS and attributes on Pub/Sub.
// NSQ has no headers, so the NSQ driver frames headers and body together.
type Envelope struct {
	// Key picks the Kafka partition and the Pub/Sub ordering key.
	Key string
	// Headers are string metadata. Empty names are dropped.
	Headers map[string]string
	// Body is the payload. It may be empty.
	Body []byte
}

// Header returns the value stored under name.
func (e Envelope) Header(name string) string {
	return e.Headers[name]
}

// headerNames returns the non-empty header names in stable order.
func (e Envelope) headerNames() []string {
	names := make([]string, 0, len(e.Headers))
	for name := range e.Headers {
		if strings.TrimSpace(name) == "" {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Receipt describes where the broker accepted an envelope.
type Receipt struct {
	// ID is the broker message id when the broker assigns one.
	ID string
	// Destination is the topic or subject used.
	Destination string
	// Partition and Offset are set by partitioned brokers.
	Partition int
	Offset    int64
	// AcceptedAt is when the publish call returned successfully.
	AcceptedAt time.Time
}

// lifecycle is shared by drivers to reject publishes after Close.
type lifecycle struct {
	mu     sync.Mutex
	closed bool
}

// markClosed flips the state and reports whether this call closed it.
func (l *lifecycle) markClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.closed = true
	return true
}

func (l *lifecycle) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// precheck runs the validations every driver applies before talking to the broker.
func (l *lifecycle) precheck(ctx context.Context, destination string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(destination) == "" {
		return ErrDestinationRequired
	}
	if l.isClosed() {
		return ErrClosed
	}
	return nil
}
