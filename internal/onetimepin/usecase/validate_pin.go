package usecase

import (
	"context"
	"errors"

	"github.com/shandysiswandi/onetimepin/internal/onetimepin/dialog"
	"github.com/shandysiswandi/onetimepin/internal/pkg/goerror"
)

type ValidatePinInput struct {
	ID string `validate:"required,uuid"`
}

// ValidatePin submits the entered pin. Mismatches and backend failures are
// dialog outcomes and come back as session state, not as errors.
func (s *Usecase) ValidatePin(ctx context.Context, in ValidatePinInput) (*DialogOutput, error) {
	ctx, span := s.startSpan(ctx, "ValidatePin")
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
	if _, err := e.ctrl.RequestValidate(callCtx); err != nil && !errors.Is(err, dialog.ErrServiceFailure) {
		return nil, mapDialogError(ctx, err)
	}

	return s.output(e)
}
