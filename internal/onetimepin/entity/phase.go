package entity

// Phase is the step a dialog session is in.
type Phase int16

const (
	PhaseIdle       Phase = 0
	PhaseSent       Phase = 1
	PhaseValidating Phase = 2
	PhaseValidated  Phase = 3
	PhaseExpired    Phase = 4
)

func (p Phase) String() string {
	switch p {
	case PhaseSent:
		return "sent"
	case PhaseValidating:
		return "validating"
	case PhaseValidated:
		return "validated"
	case PhaseExpired:
		return "expired"
	default:
		return "idle"
	}
}

// MarshalText renders the phase by name in JSON payloads.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
