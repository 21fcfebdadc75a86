// Package idempotency runs side effects at most once per key across
// replicas. Redis holds a marker per key that is either in progress or
// completed.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrAlreadyInProgress is returned by Exec while another caller holds the key.
	ErrAlreadyInProgress = errors.New("idempotency: operation already in progress")
	// ErrAlreadyCompleted is returned by Exec when the key finished successfully before.
	ErrAlreadyCompleted = errors.New("idempotency: operation already completed")
	// ErrInvalidState is returned when the stored marker is not a known State.
	ErrInvalidState = errors.New("idempotency: invalid state")
)

// State is the stored progress of a keyed operation.
type State string

const (
	// StateNone means the caller just took ownership of the key.
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// Idempotency is what callers depend on; StateTracker implements it.
type Idempotency interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// Option tunes Exec.
type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

// WithLockDuration bounds how long an in-progress marker outlives a crashed caller.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) {
		if d > 0 {
			o.lockDuration = d
		}
	}
}

// WithStateTTL sets how long a completed marker is remembered.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) {
		if d > 0 {
			o.stateTTL = d
		}
	}
}

// StateTracker stores markers under a key prefix in Redis.
type StateTracker struct {
	client redis.UniversalClient
	prefix string
}

// New returns a StateTracker storing keys under "idempotency:".
func New(client redis.UniversalClient) *StateTracker {
	return &StateTracker{client: client, prefix: "idempotency:"}
}

// Acquire sets the in-progress marker unless one exists, and reports the
// marker that was there before in the same round trip.
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	prev, err := s.client.SetArgs(ctx, s.prefix+key, string(StateInProgress), redis.SetArgs{
		Mode: "NX",
		Get:  true,
		TTL:  lockDuration,
	}).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return StateNone, nil
	case err != nil:
		return "", err
	}

	switch State(prev) {
	case StateInProgress, StateCompleted:
		return State(prev), nil
	default:
		return "", ErrInvalidState
	}
}

// Exec runs fn unless key is held or done. A failed fn drops the marker so a
// later call may retry; success is remembered for the state TTL.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := execOptions{lockDuration: time.Minute, stateTTL: time.Hour}
	for _, opt := range opts {
		opt(&o)
	}

	state, err := s.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}
	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	}

	if err := fn(ctx); err != nil {
		return errors.Join(err, s.client.Del(ctx, s.prefix+key).Err())
	}
	return s.client.Set(ctx, s.prefix+key, string(StateCompleted), o.stateTTL).Err()
}
