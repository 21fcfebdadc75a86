package dialog

import (
	"slices"

	"github.com/shandysiswandi/onetimepin/internal/onetimepin/entity"
)

// Message is the last text shown in the dialog message strip.
type Message struct {
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
}

// Session is the state of one dialog invocation.
type Session struct {
	RequestID         string           `json:"request_id,omitempty"`
	Purpose           string           `json:"purpose"`
	Channels          []entity.Channel `json:"channels"`
	SelectedChannelID string           `json:"selected_channel_id"`
	// RemainingSeconds is set only while a pin is outstanding.
	RemainingSeconds *int         `json:"remaining_seconds"`
	EnteredValue     string       `json:"-"`
	Phase            entity.Phase `json:"phase"`
	ConfirmEnabled   bool         `json:"confirm_enabled"`
	Message          *Message     `json:"message,omitempty"`
}

func (s *Session) clone() Session {
	out := *s
	out.Channels = slices.Clone(s.Channels)
	if s.RemainingSeconds != nil {
		n := *s.RemainingSeconds
		out.RemainingSeconds = &n
	}
	if s.Message != nil {
		m := *s.Message
		out.Message = &m
	}
	return out
}

func (s *Session) selectedChannel() (entity.Channel, bool) {
	for _, ch := range s.Channels {
		if ch.ID == s.SelectedChannelID {
			return ch, true
		}
	}
	return entity.Channel{}, false
}
