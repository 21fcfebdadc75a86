package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/onetimepin/internal/onetimepin/dialog"
	"github.com/shandysiswandi/onetimepin/internal/onetimepin/entity"
)

// ValidatedEvent is the stream payload of a successful validation.
type ValidatedEvent struct {
	DialogID    string    `json:"dialog_id"`
	Purpose     string    `json:"purpose"`
	RequestID   string    `json:"request_id"`
	ValidatedAt time.Time `json:"validated_at"`
}

// hostNotifier tells the dialog's stream and the message broker that a pin
// was accepted.
type hostNotifier struct {
	s *Usecase
}

func (hn *hostNotifier) OneTimePinValidated(ctx context.Context, n dialog.Notification) {
	s := hn.s
	v := entity.Validation{
		DialogID:    n.DialogID,
		Purpose:     n.Purpose,
		RequestID:   n.RequestID,
		ValidatedAt: s.clock.Now(),
	}

	s.publish(StreamEvent{
		Event:    EventValidated,
		DialogID: n.DialogID,
		Payload: ValidatedEvent{
			DialogID:    v.DialogID,
			Purpose:     v.Purpose,
			RequestID:   v.RequestID,
			ValidatedAt: v.ValidatedAt,
		},
	})

	if s.repoNotify == nil {
		return
	}

	// the request context ends with the HTTP response; the broker publish must not
	ctx = context.WithoutCancel(ctx)
	task := func(ctx context.Context) error {
		return s.repoNotify.PublishValidated(ctx, v)
	}
	if s.goroutine.Go(ctx, "onetimepin.notify_validated", task) {
		return
	}
	if err := task(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to publish validated one-time pin", "dialog_id", v.DialogID, "request_id", v.RequestID, "error", err)
	}
}
