package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// ErrKafkaBrokersRequired is returned when no Kafka brokers are configured.
var ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")

// KafkaConfig configures the Kafka implementation.
type KafkaConfig struct {
	// Brokers lists Kafka broker addresses.
	Brokers []string
	// BatchTimeout bounds how long the writer waits to fill a batch.
	// Zero uses 10ms, since envelopes are published one at a time.
	BatchTimeout time.Duration
	// Transport overrides the default kafka.Transport (TLS, SASL).
	Transport kafka.RoundTripper
}

// Kafka publishes envelopes through one kafka.Writer per topic.
type Kafka struct {
	lifecycle

	brokers      []string
	batchTimeout time.Duration
	transport    kafka.RoundTripper

	writersMu sync.Mutex
	writers   map[string]*kafka.Writer
}

// NewKafka constructs a Kafka publisher. Connections are opened lazily.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}

	return &Kafka{
		brokers:      append([]string{}, cfg.Brokers...),
		batchTimeout: batchTimeout,
		transport:    cfg.Transport,
		writers:      map[string]*kafka.Writer{},
	}, nil
}

// Close flushes and closes every writer.
func (k *Kafka) Close() error {
	if !k.markClosed() {
		return nil
	}

	k.writersMu.Lock()
	writers := k.writers
	k.writers = nil
	k.writersMu.Unlock()

	var closeErr error
	for _, w := range writers {
		closeErr = errors.Join(closeErr, w.Close())
	}
	return closeErr
}

// Publish writes the envelope synchronously. Envelopes with the same Key land
// on the same partition.
func (k *Kafka) Publish(ctx context.Context, destination string, env Envelope) (Receipt, error) {
	if err := k.precheck(ctx, destination); err != nil {
		return Receipt{}, err
	}

	w, err := k.writer(destination)
	if err != nil {
		return Receipt{}, err
	}

	msg := kafka.Message{
		Value: env.Body,
		Time:  time.Now(),
	}
	if env.Key != "" {
		msg.Key = []byte(env.Key)
	}
	for _, name := range env.headerNames() {
		msg.Headers = append(msg.Headers, kafka.Header{Key: name, Value: []byte(env.Headers[name])})
	}

	if err := w.WriteMessages(ctx, msg); err != nil {
		return Receipt{}, fmt.Errorf("messaging: kafka publish: %w", err)
	}

	return Receipt{
		Destination: destination,
		AcceptedAt:  msg.Time,
	}, nil
}

func (k *Kafka) writer(topic string) (*kafka.Writer, error) {
	k.writersMu.Lock()
	defer k.writersMu.Unlock()

	if k.writers == nil {
		return nil, ErrClosed
	}
	if w, ok := k.writers[topic]; ok {
		return w, nil
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(k.brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           k.batchTimeout,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		Transport:              k.transport,
	}
	k.writers[topic] = w
	return w, nil
}
