package entity

import "strings"

// Channel is a means of communication the pin can be delivered through.
type Channel struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// ChannelKind tells phone channels (whose value is normalized) from the rest.
type ChannelKind int16

const (
	ChannelKindUnknown ChannelKind = 0
	ChannelKindPhone   ChannelKind = 1
	ChannelKindEmail   ChannelKind = 2
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelKindPhone:
		return "phone"
	case ChannelKindEmail:
		return "email"
	default:
		return "unknown"
	}
}

// Scheme is the channel identifier convention used by the OTP backend.
type Scheme int16

const (
	// SchemeNumeric identifies the phone as "0" and e-mail as "1".
	SchemeNumeric Scheme = 0
	// SchemeSemantic identifies the phone as "CellPhone" and e-mail as "eMail".
	SchemeSemantic Scheme = 1
)

// SchemeFromString parses a configured scheme name; anything unknown is numeric.
func SchemeFromString(raw string) Scheme {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "semantic":
		return SchemeSemantic
	default:
		return SchemeNumeric
	}
}

func (s Scheme) String() string {
	switch s {
	case SchemeSemantic:
		return "semantic"
	default:
		return "numeric"
	}
}

// KindOf classifies a channel ID under the scheme.
func (s Scheme) KindOf(channelID string) ChannelKind {
	switch s {
	case SchemeSemantic:
		switch channelID {
		case "CellPhone":
			return ChannelKindPhone
		case "eMail":
			return ChannelKindEmail
		}
	default:
		switch channelID {
		case "0":
			return ChannelKindPhone
		case "1":
			return ChannelKindEmail
		}
	}

	return ChannelKindUnknown
}

var phoneReplacer = strings.NewReplacer("(0)", "", "-", "", "(", "", ")", "", " ", "")

// FormatPhone normalizes a displayed phone number for the backend: the "(0)"
// trunk marker, hyphens, parentheses and spaces are removed and a leading "+"
// becomes the "00" international prefix.
//
//	"+27 (0)82-977-7444" -> "0027829777444"
func FormatPhone(raw string) string {
	v := phoneReplacer.Replace(strings.TrimSpace(raw))
	if rest, ok := strings.CutPrefix(v, "+"); ok {
		return "00" + rest
	}
	return v
}

// DeliveryValue is the value sent to the backend for a channel: phone numbers
// are normalized, everything else passes through unchanged.
func (s Scheme) DeliveryValue(ch Channel) string {
	if s.KindOf(ch.ID) == ChannelKindPhone {
		return FormatPhone(ch.Value)
	}
	return ch.Value
}
