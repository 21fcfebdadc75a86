package usecase

import (
	"context"

	"github.com/shandysiswandi/onetimepin/internal/pkg/goerror"
)

type CloseDialogInput struct {
	ID string `validate:"required,uuid"`
}

// CloseDialog discards a dialog in any phase.
func (s *Usecase) CloseDialog(ctx context.Context, in CloseDialogInput) error {
	ctx, span := s.startSpan(ctx, "CloseDialog")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	e, err := s.lookup(ctx, in.ID)
	if err != nil {
		return err
	}

	e.ctrl.Close()
	s.remove(e.id)

	return nil
}
