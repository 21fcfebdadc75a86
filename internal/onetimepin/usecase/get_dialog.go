package usecase

import (
	"context"

	"github.com/shandysiswandi/onetimepin/internal/pkg/goerror"
)

type GetDialogInput struct {
	ID string `validate:"required,uuid"`
}

func (s *Usecase) GetDialog(ctx context.Context, in GetDialogInput) (*DialogOutput, error) {
	ctx, span := s.startSpan(ctx, "GetDialog")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	e, err := s.lookup(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	return s.output(e)
}
