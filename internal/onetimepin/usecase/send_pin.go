package usecase

import (
	"context"
	"errors"

	"github.com/shandysiswandi/onetimepin/internal/onetimepin/dialog"
	"github.com/shandysiswandi/onetimepin/internal/pkg/goerror"
)

type SendPinInput struct {
	ID string `validate:"required,uuid"`
}

// SendPin requests a pin for the selected channel. A backend failure is not an
// API error: the returned session carries the failure message and stays Idle.
func (s *Usecase) SendPin(ctx context.Context, in SendPinInput) (*DialogOutput, error) {
	ctx, span := s.startSpan(ctx, "SendPin")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	e, err := s.lookup(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := s.remoteContext(ctx)
	defer cancel()
	if err := e.ctrl.RequestSend(callCtx); err != nil && !errors.Is(err, dialog.ErrServiceFailure) {
		return nil, mapDialogError(ctx, err)
	}

	return s.output(e)
}
