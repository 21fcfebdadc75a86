package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/shandysiswandi/onetimepin/internal/onetimepin/dialog"
	"github.com/shandysiswandi/onetimepin/internal/pkg/goerror"
)

var errDialogNotFound = goerror.NewBusiness("dialog not found", goerror.CodeNotFound)

// DialogOutput is a dialog with a snapshot of its session.
type DialogOutput struct {
	ID      string
	Session dialog.Session
}

type dialogEntry struct {
	id    string
	owner string
	ctrl  *dialog.Controller
	// lastSeen is a unix nano timestamp refreshed on every lookup.
	lastSeen atomic.Int64
}

func (s *Usecase) register(e *dialogEntry) {
	e.lastSeen.Store(s.clock.Now().UnixNano())

	s.dialogMu.Lock()
	defer s.dialogMu.Unlock()
	s.dialogs[e.id] = e
}

// countOwned returns how many dialogs owner holds open.
func (s *Usecase) countOwned(owner string) int {
	s.dialogMu.RLock()
	defer s.dialogMu.RUnlock()

	n := 0
	for _, e := range s.dialogs {
		if e.owner == owner {
			n++
		}
	}
	return n
}

// lookup returns the caller's dialog. Dialogs of other users are reported as missing.
func (s *Usecase) lookup(ctx context.Context, id string) (*dialogEntry, error) {
	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	s.dialogMu.RLock()
	e, ok := s.dialogs[id]
	s.dialogMu.RUnlock()

	if !ok || e.owner != clm.Subject {
		return nil, errDialogNotFound
	}
	e.lastSeen.Store(s.clock.Now().UnixNano())

	return e, nil
}

// remove forgets the dialog and ends its streams.
func (s *Usecase) remove(id string) {
	s.dialogMu.Lock()
	delete(s.dialogs, id)
	s.dialogMu.Unlock()

	s.endStreams(id)
}

func (s *Usecase) output(e *dialogEntry) (*DialogOutput, error) {
	sess, ok := e.ctrl.Snapshot()
	if !ok {
		return nil, errDialogNotFound
	}
	return &DialogOutput{ID: e.id, Session: sess}, nil
}

// mapDialogError translates controller errors into API errors.
func mapDialogError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, dialog.ErrNoSession):
		return errDialogNotFound
	case errors.Is(err, dialog.ErrIllegalTransition),
		errors.Is(err, dialog.ErrInFlight),
		errors.Is(err, dialog.ErrSuperseded):
		return goerror.WrapBusiness(err, err.Error(), goerror.CodeConflict)
	case errors.Is(err, dialog.ErrNoChannels), errors.Is(err, dialog.ErrInvalidChannel):
		return goerror.NewInvalidInput(nil, "channels", err.Error())
	case errors.Is(err, dialog.ErrUnknownChannel):
		return goerror.NewInvalidInput(nil, "channel_id", err.Error())
	case errors.Is(err, dialog.ErrInvalidPin):
		return goerror.NewInvalidInput(nil, "value", dialog.ErrInvalidPin.Error())
	default:
		slog.ErrorContext(ctx, "failed to run dialog operation", "error", err)
		return goerror.NewServer(err)
	}
}
