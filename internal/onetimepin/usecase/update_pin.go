package usecase

import (
	"context"

	"github.com/shandysiswandi/onetimepin/internal/pkg/goerror"
)

type UpdatePinInput struct {
	ID    string `validate:"required,uuid"`
	Value string `validate:"max=32"`
}

// UpdatePin records the typed pin and reports whether it may be confirmed.
func (s *Usecase) UpdatePin(ctx context.Context, in UpdatePinInput) (bool, error) {
	ctx, span := s.startSpan(ctx, "UpdatePin")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return false, goerror.NewInvalidInput(err)
	}

	e, err := s.lookup(ctx, in.ID)
	if err != nil {
		return false, err
	}

	return e.ctrl.UpdateEnteredValue(in.Value), nil
}
