package dialog

import "errors"

var (
	// ErrNoChannels is returned by Open when there is nothing to deliver to.
	ErrNoChannels = errors.New("dialog needs at least one channel")
	// ErrInvalidChannel is returned by Open for a channel without ID or with a duplicate ID.
	ErrInvalidChannel = errors.New("channel ids must be non-empty and unique")
	// ErrUnknownChannel is returned by SelectChannel for an ID not offered by the dialog.
	ErrUnknownChannel = errors.New("channel is not offered by this dialog")
	// ErrNoSession is returned when the dialog is not open.
	ErrNoSession = errors.New("dialog is not open")
	// ErrIllegalTransition is returned when the operation is not allowed in the current phase.
	ErrIllegalTransition = errors.New("operation not allowed in the current phase")
	// ErrInFlight is returned while a send or validate call is outstanding.
	ErrInFlight = errors.New("a request is already in flight")
	// ErrInvalidPin is returned by RequestValidate for a missing or malformed pin.
	ErrInvalidPin = errors.New("pin is missing or malformed")
	// ErrSuperseded is returned when the dialog was reopened, cancelled or closed
	// while the caller's remote call was running. The response was discarded.
	ErrSuperseded = errors.New("dialog was superseded while the request was running")
	// ErrServiceFailure wraps remote failures. The session stays retryable.
	ErrServiceFailure = errors.New("otp service failure")
)
