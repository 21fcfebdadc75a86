package dialog

import (
	"context"
	"strconv"
)

// SendRequest carries the parameters of a pin delivery.
type SendRequest struct {
	RequestID    string
	Purpose      string
	ChannelID    string
	ChannelValue string
}

// ValidateRequest carries the parameters of a pin check.
type ValidateRequest struct {
	RequestID    string
	EnteredValue string
}

// ValidateResult is the backend verdict on an entered pin.
type ValidateResult int16

const (
	NotMatched ValidateResult = 0
	Matched    ValidateResult = 1
)

func (r ValidateResult) String() string {
	if r == Matched {
		return "matched"
	}
	return "not_matched"
}

// ServiceError is a failure reported by the remote OTP service.
type ServiceError struct {
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	if e.Detail == "" {
		return "otp service failed with status " + strconv.Itoa(e.StatusCode)
	}
	return "otp service failed with status " + strconv.Itoa(e.StatusCode) + ": " + e.Detail
}

// RemoteService issues and checks pins. Both calls are keyed by RequestID;
// a send with a new RequestID supersedes any earlier pin of the session.
type RemoteService interface {
	Send(ctx context.Context, req SendRequest) error
	Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error)
}

// Field is a control of the dialog form.
type Field string

const (
	FieldChannel Field = "channel"
	FieldSend    Field = "send"
	FieldResend  Field = "resend"
	FieldPin     Field = "pin"
	FieldConfirm Field = "confirm"
	// FieldForm addresses every input and action of the form at once.
	FieldForm Field = "form"
)

// Severity classifies a surface message.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Surface renders dialog state. The controller only pushes to it and never
// reads widget state back.
type Surface interface {
	ResetForm()
	SetFieldEnabled(field Field, enabled bool)
	SetFieldVisible(field Field, visible bool)
	ShowMessage(text string, severity Severity)
	HideMessage()
	ShowCountdown(text string)
	SetBusy(busy bool)
}

// Notification describes a successful validation.
type Notification struct {
	DialogID  string
	Purpose   string
	RequestID string
}

// HostNotifier is told once per successful validation.
type HostNotifier interface {
	OneTimePinValidated(ctx context.Context, n Notification)
}
