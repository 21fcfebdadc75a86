package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

// ErrNSQProducerAddrRequired is returned when the nsqd address is missing.
var ErrNSQProducerAddrRequired = errors.New("messaging: nsq producer address is required")

// NSQConfig configures the NSQ implementation.
type NSQConfig struct {
	// ProducerAddr is the nsqd TCP address.
	ProducerAddr string
	// ProducerConfig overrides the default producer config.
	ProducerConfig *nsq.Config
}

// NSQFrame is the body written to NSQ. NSQ messages carry no headers, so the
// envelope is framed as JSON.
type NSQFrame struct {
	Key     string            `json:"key,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    []byte            `json:"body,omitempty"`
}

// EncodeNSQFrame frames an envelope for NSQ.
func EncodeNSQFrame(env Envelope) ([]byte, error) {
	frame := NSQFrame{Key: env.Key, Body: env.Body}
	if names := env.headerNames(); len(names) > 0 {
		frame.Headers = make(map[string]string, len(names))
		for _, name := range names {
			frame.Headers[name] = env.Headers[name]
		}
	}
	return json.Marshal(frame)
}

// NSQ publishes framed envelopes to nsqd.
type NSQ struct {
	lifecycle

	producer *nsq.Producer
}

// NewNSQ constructs an NSQ producer. The connection is opened on first publish.
func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.ProducerAddr == "" {
		return nil, ErrNSQProducerAddrRequired
	}

	pcfg := cfg.ProducerConfig
	if pcfg == nil {
		pcfg = nsq.NewConfig()
	}

	p, err := nsq.NewProducer(cfg.ProducerAddr, pcfg)
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq new producer: %w", err)
	}
	p.SetLoggerLevel(nsq.LogLevelError)

	return &NSQ{producer: p}, nil
}

// Close stops the producer.
func (n *NSQ) Close() error {
	if n.markClosed() {
		n.producer.Stop()
	}
	return nil
}

// Publish frames the envelope and publishes it asynchronously, waiting for the
// nsqd response or ctx.
func (n *NSQ) Publish(ctx context.Context, destination string, env Envelope) (Receipt, error) {
	if err := n.precheck(ctx, destination); err != nil {
		return Receipt{}, err
	}

	body, err := EncodeNSQFrame(env)
	if err != nil {
		return Receipt{}, err
	}

	done := make(chan *nsq.ProducerTransaction, 1)
	if err := n.producer.PublishAsync(destination, body, done); err != nil {
		return Receipt{}, fmt.Errorf("messaging: nsq publish: %w", err)
	}

	select {
	case <-ctx.Done():
		return Receipt{}, ctx.Err()
	case trx := <-done:
		if trx.Error != nil {
			return Receipt{}, fmt.Errorf("messaging: nsq publish: %w", trx.Error)
		}
	}

	return Receipt{
		Destination: destination,
		AcceptedAt:  time.Now(),
	}, nil
}
