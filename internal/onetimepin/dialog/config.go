package dialog

import (
	"errors"
	"time"

	"github.com/shandysiswandi/onetimepin/internal/onetimepin/entity"
)

const (
	// DefaultCodeLength is used when Config.CodeLength is zero.
	DefaultCodeLength = 6
	// DefaultValidityWindow is the countdown shown after a successful send.
	DefaultValidityWindow = 60 * time.Second
	// DefaultTickInterval is the countdown step.
	DefaultTickInterval = time.Second
	// DefaultPurpose is used when a dialog is opened without a purpose.
	DefaultPurpose = "Not specified"
)

// ErrCodeLength is returned for a pin length other than 4 or 6.
var ErrCodeLength = errors.New("code length must be 4 or 6")

// Config parameterizes the dialog flow per deployment.
type Config struct {
	// CodeLength is the number of digits of a pin.
	CodeLength int
	// ChannelScheme decides which channel IDs are phone numbers.
	ChannelScheme entity.Scheme
	// ValidityWindow is the client side estimate of the pin lifetime.
	ValidityWindow time.Duration
	// TickInterval is how often the countdown is decremented by one second.
	TickInterval time.Duration
}

func (c Config) withDefaults() (Config, error) {
	if c.CodeLength == 0 {
		c.CodeLength = DefaultCodeLength
	}
	if c.CodeLength != 4 && c.CodeLength != 6 {
		return Config{}, ErrCodeLength
	}
	if c.ValidityWindow < time.Second {
		c.ValidityWindow = DefaultValidityWindow
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	return c, nil
}

func (c Config) validitySeconds() int {
	return int(c.ValidityWindow / time.Second)
}
