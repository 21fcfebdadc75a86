package inbound

import (
	"net/http"

	"github.com/shandysiswandi/onetimepin/internal/onetimepin/usecase"
)

type ChannelRequest struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

type OpenDialogRequest struct {
	Purpose  string           `json:"purpose"`
	Channels []ChannelRequest `json:"channels"`
}

type SelectChannelRequest struct {
	ChannelID string `json:"channel_id"`
}

type UpdatePinRequest struct {
	Value string `json:"value"`
}

type ChannelResponse struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

type MessageResponse struct {
	Text     string `json:"text"`
	Severity string `json:"severity"`
}

type DialogResponse struct {
	DialogID          string            `json:"dialog_id"`
	Phase             string            `json:"phase"`
	Purpose           string            `json:"purpose"`
	RequestID         string            `json:"request_id,omitempty"`
	Channels          []ChannelResponse `json:"channels"`
	SelectedChannelID string            `json:"selected_channel_id"`
	RemainingSeconds  *int              `json:"remaining_seconds"`
	ConfirmEnabled    bool              `json:"confirm_enabled"`
	Message           *MessageResponse  `json:"message,omitempty"`

	created bool
}

func (r DialogResponse) StatusCode() int {
	if r.created {
		return http.StatusCreated
	}
	return http.StatusOK
}

type UpdatePinResponse struct {
	ConfirmEnabled bool `json:"confirm_enabled"`
}

func toDialogResponse(out *usecase.DialogOutput) DialogResponse {
	s := out.Session
	channels := make([]ChannelResponse, 0, len(s.Channels))
	for _, ch := range s.Channels {
		channels = append(channels, ChannelResponse{ID: ch.ID, Value: ch.Value})
	}

	resp := DialogResponse{
		DialogID:          out.ID,
		Phase:             s.Phase.String(),
		Purpose:           s.Purpose,
		RequestID:         s.RequestID,
		Channels:          channels,
		SelectedChannelID: s.SelectedChannelID,
		RemainingSeconds:  s.RemainingSeconds,
		ConfirmEnabled:    s.ConfirmEnabled,
	}
	if s.Message != nil {
		resp.Message = &MessageResponse{Text: s.Message.Text, Severity: string(s.Message.Severity)}
	}

	return resp
}
