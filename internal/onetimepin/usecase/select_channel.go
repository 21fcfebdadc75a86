package usecase

import (
	"context"
	"strings"

	"github.com/shandysiswandi/onetimepin/internal/pkg/goerror"
)

type SelectChannelInput struct {
	ID        string `validate:"required,uuid"`
	ChannelID string `validate:"required"`
}

func (s *Usecase) SelectChannel(ctx context.Context, in SelectChannelInput) (*DialogOutput, error) {
	ctx, span := s.startSpan(ctx, "SelectChannel")
	defer span.End()

	in.ChannelID = strings.TrimSpace(in.ChannelID)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	e, err := s.lookup(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if err := e.ctrl.SelectChannel(in.ChannelID); err != nil {
		return nil, mapDialogError(ctx, err)
	}

	return s.output(e)
}
