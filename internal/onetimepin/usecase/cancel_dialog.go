package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/onetimepin/internal/pkg/goerror"
)

type CancelDialogInput struct {
	ID string `validate:"required,uuid"`
}

// CancelDialog abandons a dialog that has not finished and forgets it.
func (s *Usecase) CancelDialog(ctx context.Context, in CancelDialogInput) error {
	ctx, span := s.startSpan(ctx, "CancelDialog")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	e, err := s.lookup(ctx, in.ID)
	if err != nil {
		return err
	}

	if err := e.ctrl.Cancel(); err != nil {
		return mapDialogError(ctx, err)
	}
	s.remove(e.id)
	slog.InfoContext(ctx, "dialog cancelled", "dialog_id", e.id)

	return nil
}
