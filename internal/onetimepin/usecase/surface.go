package usecase

import (
	"time"

	"github.com/shandysiswandi/onetimepin/internal/onetimepin/dialog"
)

// SurfaceKind names a presentation instruction.
type SurfaceKind string

const (
	SurfaceResetForm     SurfaceKind = "reset_form"
	SurfaceFieldEnabled  SurfaceKind = "field_enabled"
	SurfaceFieldVisible  SurfaceKind = "field_visible"
	SurfaceMessage       SurfaceKind = "message"
	SurfaceMessageHidden SurfaceKind = "message_hidden"
	SurfaceCountdown     SurfaceKind = "countdown"
	SurfaceBusy          SurfaceKind = "busy"
)

// SurfaceEvent is one presentation instruction pushed to a dialog's stream.
type SurfaceEvent struct {
	ID        int64           `json:"id"`
	DialogID  string          `json:"dialog_id"`
	Kind      SurfaceKind     `json:"kind"`
	Field     dialog.Field    `json:"field,omitempty"`
	Enabled   *bool           `json:"enabled,omitempty"`
	Visible   *bool           `json:"visible,omitempty"`
	Busy      *bool           `json:"busy,omitempty"`
	Text      *string         `json:"text,omitempty"`
	Severity  dialog.Severity `json:"severity,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// streamSurface renders a dialog by publishing to its stream subscribers.
// Calls arrive with the controller lock held, so publishing never blocks.
type streamSurface struct {
	s        *Usecase
	dialogID string
}

func (ss *streamSurface) emit(evt SurfaceEvent) {
	evt.ID = ss.s.uid.Generate()
	evt.DialogID = ss.dialogID
	evt.CreatedAt = ss.s.clock.Now()
	ss.s.publish(StreamEvent{Event: EventSurface, DialogID: ss.dialogID, Payload: evt})
}

func (ss *streamSurface) ResetForm() {
	ss.emit(SurfaceEvent{Kind: SurfaceResetForm})
}

func (ss *streamSurface) SetFieldEnabled(field dialog.Field, enabled bool) {
	ss.emit(SurfaceEvent{Kind: SurfaceFieldEnabled, Field: field, Enabled: &enabled})
}

func (ss *streamSurface) SetFieldVisible(field dialog.Field, visible bool) {
	ss.emit(SurfaceEvent{Kind: SurfaceFieldVisible, Field: field, Visible: &visible})
}

func (ss *streamSurface) ShowMessage(text string, severity dialog.Severity) {
	ss.emit(SurfaceEvent{Kind: SurfaceMessage, Text: &text, Severity: severity})
}

func (ss *streamSurface) HideMessage() {
	ss.emit(SurfaceEvent{Kind: SurfaceMessageHidden})
}

func (ss *streamSurface) ShowCountdown(text string) {
	ss.emit(SurfaceEvent{Kind: SurfaceCountdown, Text: &text})
}

func (ss *streamSurface) SetBusy(busy bool) {
	ss.emit(SurfaceEvent{Kind: SurfaceBusy, Busy: &busy})
}
