package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/onetimepin/internal/onetimepin/dialog"
	"github.com/shandysiswandi/onetimepin/internal/onetimepin/entity"
	"github.com/shandysiswandi/onetimepin/internal/pkg/goerror"
)

type (
	OpenDialogInput struct {
		Purpose  string         `validate:"max=120"`
		Channels []ChannelInput `validate:"required,min=1,max=10,dive"`
	}

	ChannelInput struct {
		ID    string `validate:"required,max=30"`
		Value string `validate:"required,max=241"`
	}
)

func (s *Usecase) OpenDialog(ctx context.Context, in OpenDialogInput) (*DialogOutput, error) {
	ctx, span := s.startSpan(ctx, "OpenDialog")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	in.Purpose = strings.TrimSpace(in.Purpose)
	for i := range in.Channels {
		in.Channels[i].ID = strings.TrimSpace(in.Channels[i].ID)
		in.Channels[i].Value = strings.TrimSpace(in.Channels[i].Value)
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if limit := s.cfg.GetInt("modules.onetimepin.max_dialogs_per_user"); limit > 0 && s.countOwned(clm.Subject) >= limit {
		return nil, goerror.NewBusiness("too many open dialogs", goerror.CodeTooManyRequest)
	}

	id := s.uuid.Generate()
	ctrl, err := dialog.New(dialog.Dependency{
		DialogID:   id,
		Config:     s.dialogConfig(),
		Remote:     s.repoRemote,
		Surface:    &streamSurface{s: s, dialogID: id},
		Notifier:   &hostNotifier{s: s},
		Texts:      s.texts,
		Clock:      s.clock,
		RequestID:  s.guid,
		Validator:  s.validator,
		Instrument: s.ins,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create dialog controller", "error", err)
		return nil, goerror.NewServer(err)
	}

	channels := make([]entity.Channel, 0, len(in.Channels))
	for _, ch := range in.Channels {
		channels = append(channels, entity.Channel{ID: ch.ID, Value: ch.Value})
	}
	if err := ctrl.Open(in.Purpose, channels); err != nil {
		return nil, mapDialogError(ctx, err)
	}

	e := &dialogEntry{id: id, owner: clm.Subject, ctrl: ctrl}
	s.register(e)
	slog.InfoContext(ctx, "dialog opened", "dialog_id", id, "owner", clm.Subject, "channels", len(channels))

	return s.output(e)
}
