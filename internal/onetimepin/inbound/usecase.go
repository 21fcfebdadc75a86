package inbound

import (
	"context"

	"github.com/shandysiswandi/onetimepin/internal/onetimepin/usecase"
)

type ucStream interface {
	StreamDialog(ctx context.Context, in usecase.StreamDialogInput) (<-chan usecase.StreamEvent, error)
}

type uc interface {
	ucStream

	OpenDialog(ctx context.Context, in usecase.OpenDialogInput) (*usecase.DialogOutput, error)
	GetDialog(ctx context.Context, in usecase.GetDialogInput) (*usecase.DialogOutput, error)
	SelectChannel(ctx context.Context, in usecase.SelectChannelInput) (*usecase.DialogOutput, error)
	SendPin(ctx context.Context, in usecase.SendPinInput) (*usecase.DialogOutput, error)
	UpdatePin(ctx context.Context, in usecase.UpdatePinInput) (bool, error)
	ValidatePin(ctx context.Context, in usecase.ValidatePinInput) (*usecase.DialogOutput, error)
	ResendPin(ctx context.Context, in usecase.ResendPinInput) (*usecase.DialogOutput, error)
	CancelDialog(ctx context.Context, in usecase.CancelDialogInput) error
	CloseDialog(ctx context.Context, in usecase.CloseDialogInput) error
}
