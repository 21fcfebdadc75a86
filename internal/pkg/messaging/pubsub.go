package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"
)

// ErrPubSubProjectIDRequired is returned when neither a client nor a project id is given.
var ErrPubSubProjectIDRequired = errors.New("messaging: pubsub project id is required")

// PubSubConfig configures the Google Pub/Sub implementation.
type PubSubConfig struct {
	// ProjectID is the Google Cloud project ID.
	ProjectID string
	// CredentialsFile points at a service account key. Empty uses ADC.
	CredentialsFile string
	// Endpoint overrides the API endpoint, e.g. for the emulator.
	Endpoint string

	// Client provides an existing Pub/Sub client.
	Client *pubsub.Client
}

// PubSub publishes envelopes with headers as attributes and Key as ordering key.
type PubSub struct {
	lifecycle

	client *pubsub.Client
	owned  bool

	pubMu      sync.Mutex
	publishers map[string]*pubsub.Publisher
}

// NewPubSub constructs a Pub/Sub publisher.
func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.Client != nil {
		return &PubSub{client: cfg.Client, publishers: map[string]*pubsub.Publisher{}}, nil
	}
	if cfg.ProjectID == "" {
		return nil, ErrPubSubProjectIDRequired
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	c, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("messaging: pubsub new client: %w", err)
	}

	return &PubSub{client: c, owned: true, publishers: map[string]*pubsub.Publisher{}}, nil
}

// Close stops every publisher and closes the client when this package created it.
func (p *PubSub) Close() error {
	if !p.markClosed() {
		return nil
	}

	p.pubMu.Lock()
	pubs := p.publishers
	p.publishers = nil
	p.pubMu.Unlock()

	for _, pub := range pubs {
		pub.Stop()
	}

	if !p.owned {
		return nil
	}
	return p.client.Close()
}

// Publish sends the envelope and waits for the server-assigned id.
func (p *PubSub) Publish(ctx context.Context, destination string, env Envelope) (Receipt, error) {
	if err := p.precheck(ctx, destination); err != nil {
		return Receipt{}, err
	}

	pub, err := p.publisher(destination, env.Key != "")
	if err != nil {
		return Receipt{}, err
	}

	attrs := make(map[string]string, len(env.Headers))
	for _, name := range env.headerNames() {
		attrs[name] = env.Headers[name]
	}

	res := pub.Publish(ctx, &pubsub.Message{
		Data:        env.Body,
		Attributes:  attrs,
		OrderingKey: env.Key,
	})
	id, err := res.Get(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("messaging: pubsub publish: %w", err)
	}

	return Receipt{
		ID:          id,
		Destination: destination,
		AcceptedAt:  time.Now(),
	}, nil
}

func (p *PubSub) publisher(topic string, ordered bool) (*pubsub.Publisher, error) {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()

	if p.publishers == nil {
		return nil, ErrClosed
	}
	if pub, ok := p.publishers[topic]; ok {
		return pub, nil
	}

	pub := p.client.Publisher(topic)
	pub.EnableMessageOrdering = ordered
	p.publishers[topic] = pub
	return pub, nil
}
