package usecase

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/shandysiswandi/onetimepin/internal/pkg/goerror"
)

const (
	EventSurface   = "surface"
	EventValidated = "validated"
)

// StreamEvent is a dialog update sent over SSE. Event names the SSE event
// and Payload is its data.
type StreamEvent struct {
	Event    string
	DialogID string
	Payload  any
}

type StreamDialogInput struct {
	ID string `validate:"required,uuid"`
}

type subscriber struct {
	ch     chan StreamEvent
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once
}

// close ends the stream once; callers hold streamMu for writing so publish
// never sends on a closed channel.
func (sub *subscriber) close() {
	sub.once.Do(func() {
		sub.closed.Store(true)
		close(sub.done)
		close(sub.ch)
	})
}

// StreamDialog registers a stream for the caller's dialog. The stream closes
// when ctx is done or the dialog is closed, cancelled or swept.
func (s *Usecase) StreamDialog(ctx context.Context, in StreamDialogInput) (<-chan StreamEvent, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if _, err := s.lookup(ctx, in.ID); err != nil {
		return nil, err
	}

	sub := &subscriber{ch: make(chan StreamEvent, 64), done: make(chan struct{})}

	s.streamMu.Lock()
	if s.streams[in.ID] == nil {
		s.streams[in.ID] = make(map[*subscriber]struct{})
	}
	s.streams[in.ID][sub] = struct{}{}
	s.streamMu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-sub.done:
			return
		}

		s.streamMu.Lock()
		defer s.streamMu.Unlock()
		if subs := s.streams[in.ID]; subs != nil {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(s.streams, in.ID)
			}
		}
		sub.close()
	}()

	return sub.ch, nil
}

// endStreams closes every stream of the dialog. Events already queued are
// still delivered before the channel reports closed.
func (s *Usecase) endStreams(id string) {
	s.streamMu.Lock()
	defer s.streamMu.Unlock()

	for sub := range s.streams[id] {
		sub.close()
	}
	delete(s.streams, id)
}

// publish fans evt out to the dialog's subscribers, dropping it for slow ones.
func (s *Usecase) publish(evt StreamEvent) {
	s.streamMu.RLock()
	defer s.streamMu.RUnlock()

	for sub := range s.streams[evt.DialogID] {
		if sub.closed.Load() {
			continue
		}

		select {
		case sub.ch <- evt:
		default:
		}
	}
}
