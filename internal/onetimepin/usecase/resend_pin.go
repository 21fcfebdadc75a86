package usecase

import (
	"context"

	"github.com/shandysiswandi/onetimepin/internal/pkg/goerror"
)

type ResendPinInput struct {
	ID string `validate:"required,uuid"`
}

// ResendPin returns the dialog to channel selection so a new pin can be sent.
func (s *Usecase) ResendPin(ctx context.Context, in ResendPinInput) (*DialogOutput, error) {
	ctx, span := s.startSpan(ctx, "ResendPin")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	e, err := s.lookup(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if err := e.ctrl.Resend(); err != nil {
		return nil, mapDialogError(ctx, err)
	}

	return s.output(e)
}
