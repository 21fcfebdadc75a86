package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/shandysiswandi/onetimepin/internal/onetimepin/entity"
	"github.com/shandysiswandi/onetimepin/internal/pkg/clock"
	"github.com/shandysiswandi/onetimepin/internal/pkg/instrument"
	"github.com/shandysiswandi/onetimepin/internal/pkg/uid"
	"github.com/shandysiswandi/onetimepin/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Dependency holds everything a Controller talks to.
type Dependency struct {
	// DialogID identifies the dialog in host notifications and logs.
	DialogID   string
	Config     Config
	Remote     RemoteService
	Surface    Surface
	Notifier   HostNotifier
	Texts      Texts
	Clock      clock.Clocker
	RequestID  uid.StringID
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

// Controller runs the one-time pin flow of a single dialog.
//
// All methods are safe for concurrent use. Transitions are serialized by a
// mutex that is never held across a remote call; responses that return after
// the session was reopened, cancelled or closed are dropped.
type Controller struct {
	mu sync.Mutex

	dialogID  string
	cfg       Config
	pinTag    string
	remote    RemoteService
	surface   Surface
	notifier  HostNotifier
	texts     Texts
	clock     clock.Clocker
	requestID uid.StringID
	validator validator.Validator

	sendCounter     metric.Int64Counter
	validateCounter metric.Int64Counter
	expiryCounter   metric.Int64Counter

	session *Session
	// gen changes whenever the session is replaced or discarded.
	gen        uint64
	inFlight   bool
	countdown  *countdown
	pinExpired bool
}

// New builds a Controller. Texts defaults to DefaultTexts and Instrument to a noop.
func New(dep Dependency) (*Controller, error) {
	cfg, err := dep.Config.withDefaults()
	if err != nil {
		return nil, err
	}
	if dep.Remote == nil || dep.Surface == nil || dep.Clock == nil || dep.RequestID == nil || dep.Validator == nil {
		return nil, errors.New("dialog: remote, surface, clock, request id and validator are required")
	}

	texts := dep.Texts
	if texts == nil {
		texts = NewCatalog(nil)
	}
	ins := dep.Instrument
	if ins == nil {
		ins = instrument.NewNoop()
	}

	c := &Controller{
		dialogID:  dep.DialogID,
		cfg:       cfg,
		pinTag:    "required,digits=" + strconv.Itoa(cfg.CodeLength),
		remote:    dep.Remote,
		surface:   dep.Surface,
		notifier:  dep.Notifier,
		texts:     texts,
		clock:     dep.Clock,
		requestID: dep.RequestID,
		validator: dep.Validator,
	}

	meter := ins.Meter("onetimepin.dialog")
	if c.sendCounter, err = meter.Int64Counter("onetimepin.dialog.sends", metric.WithDescription("Pin send requests by outcome")); err != nil {
		slog.Error("failed to create dialog send counter", "error", err)
	}
	if c.validateCounter, err = meter.Int64Counter("onetimepin.dialog.validations", metric.WithDescription("Pin validations by outcome")); err != nil {
		slog.Error("failed to create dialog validation counter", "error", err)
	}
	if c.expiryCounter, err = meter.Int64Counter("onetimepin.dialog.expiries", metric.WithDescription("Pins that ran out of time on the client")); err != nil {
		slog.Error("failed to create dialog expiry counter", "error", err)
	}

	return c, nil
}

// Open starts a new session in Idle, superseding any previous one.
func (c *Controller) Open(purpose string, channels []entity.Channel) error {
	if len(channels) == 0 {
		return ErrNoChannels
	}
	seen := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		if _, dup := seen[ch.ID]; dup || strings.TrimSpace(ch.ID) == "" {
			return ErrInvalidChannel
		}
		seen[ch.ID] = struct{}{}
	}

	if strings.TrimSpace(purpose) == "" {
		purpose = DefaultPurpose
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.discard()
	c.session = &Session{
		Purpose:           purpose,
		Channels:          append([]entity.Channel(nil), channels...),
		SelectedChannelID: channels[0].ID,
		Phase:             entity.PhaseIdle,
	}
	c.renderIdle()

	return nil
}

// SelectChannel picks the delivery channel while no pin has been requested.
func (c *Controller) SelectChannel(channelID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.current()
	if err != nil {
		return err
	}
	if s.Phase != entity.PhaseIdle || c.inFlight {
		return ErrIllegalTransition
	}
	for _, ch := range s.Channels {
		if ch.ID == channelID {
			s.SelectedChannelID = channelID
			return nil
		}
	}

	return ErrUnknownChannel
}

// RequestSend asks the backend to deliver a new pin to the selected channel.
//
// On success the session is Sent and the countdown runs. A backend failure
// leaves the session Idle, shows the failure text and returns an error
// wrapping ErrServiceFailure.
func (c *Controller) RequestSend(ctx context.Context) error {
	c.mu.Lock()
	s, err := c.current()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if c.inFlight {
		c.mu.Unlock()
		return ErrInFlight
	}
	if s.Phase != entity.PhaseIdle && s.Phase != entity.PhaseExpired {
		c.mu.Unlock()
		return ErrIllegalTransition
	}
	ch, ok := s.selectedChannel()
	if !ok {
		c.mu.Unlock()
		return ErrUnknownChannel
	}

	c.stopCountdown()
	c.pinExpired = false
	s.Phase = entity.PhaseIdle
	s.RequestID = c.requestID.Generate()
	s.EnteredValue = ""
	s.RemainingSeconds = nil
	s.ConfirmEnabled = false
	c.inFlight = true

	req := SendRequest{
		RequestID:    s.RequestID,
		Purpose:      s.Purpose,
		ChannelID:    ch.ID,
		ChannelValue: c.cfg.ChannelScheme.DeliveryValue(ch),
	}
	gen := c.gen

	c.surface.SetBusy(true)
	c.surface.SetFieldEnabled(FieldSend, false)
	c.surface.SetFieldEnabled(FieldChannel, false)
	c.hideMessage()
	c.mu.Unlock()

	sendErr := c.remote.Send(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.matches(gen, req.RequestID) {
		slog.WarnContext(ctx, "discarding send response of a superseded dialog", "dialog_id", c.dialogID, "request_id", req.RequestID)
		return ErrSuperseded
	}
	c.inFlight = false
	c.surface.SetBusy(false)

	if sendErr != nil {
		c.count(ctx, c.sendCounter, "failed")
		slog.WarnContext(ctx, "failed to send one-time pin", "dialog_id", c.dialogID, "request_id", req.RequestID, "error", sendErr)
		c.renderIdle()
		c.showMessage(c.failureText(sendErr), SeverityError)
		return fmt.Errorf("%w: %w", ErrServiceFailure, sendErr)
	}

	c.count(ctx, c.sendCounter, "sent")
	remaining := c.cfg.validitySeconds()
	s.Phase = entity.PhaseSent
	s.RemainingSeconds = &remaining

	c.surface.SetFieldVisible(FieldPin, true)
	c.surface.SetFieldVisible(FieldConfirm, true)
	c.surface.SetFieldVisible(FieldSend, false)
	c.surface.SetFieldVisible(FieldResend, true)
	c.surface.SetFieldEnabled(FieldResend, true)
	c.surface.SetFieldEnabled(FieldConfirm, false)
	c.showMessage(c.texts.Text(TextSent, req.ChannelValue), SeveritySuccess)
	c.surface.ShowCountdown(c.texts.Text(TextCountdown, strconv.Itoa(remaining)))
	c.startCountdown()

	return nil
}

// UpdateEnteredValue records the typed pin and reports whether confirm is now
// enabled: only in Sent and only for exactly CodeLength ASCII digits.
func (c *Controller) UpdateEnteredValue(candidate string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.current()
	if err != nil || s.Phase != entity.PhaseSent {
		return false
	}

	s.EnteredValue = candidate
	s.ConfirmEnabled = c.validator.ValidateVar(candidate, c.pinTag) == nil
	c.surface.SetFieldEnabled(FieldConfirm, s.ConfirmEnabled)

	return s.ConfirmEnabled
}

// RequestValidate submits the entered pin and returns the phase it lands in.
//
// A missing or malformed pin is rejected locally with ErrInvalidPin. A
// mismatch returns Sent and no error. A backend failure returns Sent with an
// error wrapping ErrServiceFailure. When the countdown ran out while the call
// was in flight, anything but a match lands in Expired.
func (c *Controller) RequestValidate(ctx context.Context) (entity.Phase, error) {
	c.mu.Lock()
	s, err := c.current()
	if err != nil {
		c.mu.Unlock()
		return entity.PhaseIdle, err
	}
	if c.inFlight {
		phase := s.Phase
		c.mu.Unlock()
		return phase, ErrInFlight
	}
	if s.Phase != entity.PhaseSent {
		phase := s.Phase
		c.mu.Unlock()
		return phase, ErrIllegalTransition
	}
	if verr := c.validator.ValidateVar(s.EnteredValue, c.pinTag); verr != nil {
		s.ConfirmEnabled = false
		c.surface.SetFieldEnabled(FieldConfirm, false)
		c.showMessage(c.texts.Text(TextInputCheckedErrors), SeverityError)
		c.mu.Unlock()
		return entity.PhaseSent, fmt.Errorf("%w: %w", ErrInvalidPin, verr)
	}

	req := ValidateRequest{RequestID: s.RequestID, EnteredValue: s.EnteredValue}
	gen := c.gen
	s.Phase = entity.PhaseValidating
	c.inFlight = true
	c.surface.SetBusy(true)
	c.surface.SetFieldEnabled(FieldConfirm, false)
	c.mu.Unlock()

	result, valErr := c.remote.Validate(ctx, req)

	c.mu.Lock()

	if !c.matches(gen, req.RequestID) {
		c.mu.Unlock()
		slog.WarnContext(ctx, "discarding validate response of a superseded dialog", "dialog_id", c.dialogID, "request_id", req.RequestID)
		return entity.PhaseIdle, ErrSuperseded
	}
	c.inFlight = false
	c.surface.SetBusy(false)

	if valErr == nil && result == Matched {
		c.count(ctx, c.validateCounter, "matched")
		c.stopCountdown()
		c.pinExpired = false
		s.Phase = entity.PhaseValidated
		s.RemainingSeconds = nil
		s.ConfirmEnabled = false
		c.showMessage(c.texts.Text(TextValidated), SeveritySuccess)
		c.surface.SetFieldEnabled(FieldForm, false)
		c.surface.SetFieldEnabled(FieldConfirm, false)

		n := Notification{DialogID: c.dialogID, Purpose: s.Purpose, RequestID: req.RequestID}
		notifier := c.notifier
		c.mu.Unlock()

		if notifier != nil {
			notifier.OneTimePinValidated(ctx, n)
		}
		return entity.PhaseValidated, nil
	}
	defer c.mu.Unlock()

	var text string
	if valErr != nil {
		c.count(ctx, c.validateCounter, "failed")
		slog.WarnContext(ctx, "failed to validate one-time pin", "dialog_id", c.dialogID, "request_id", req.RequestID, "error", valErr)
		text = c.failureText(valErr)
		valErr = fmt.Errorf("%w: %w", ErrServiceFailure, valErr)
	} else {
		c.count(ctx, c.validateCounter, "not_matched")
		text = c.texts.Text(TextInvalidPin)
	}

	if c.pinExpired {
		c.expire()
		c.showMessage(text, SeverityError)
		return entity.PhaseExpired, valErr
	}

	s.Phase = entity.PhaseSent
	s.ConfirmEnabled = c.validator.ValidateVar(s.EnteredValue, c.pinTag) == nil
	c.surface.SetFieldEnabled(FieldConfirm, s.ConfirmEnabled)
	c.showMessage(text, SeverityError)

	return entity.PhaseSent, valErr
}

// Resend returns a Sent, Expired or Validated session to Idle so a new pin
// can be requested, possibly through another channel.
func (c *Controller) Resend() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.current()
	if err != nil {
		return err
	}
	if c.inFlight {
		return ErrInFlight
	}
	switch s.Phase {
	case entity.PhaseSent, entity.PhaseExpired, entity.PhaseValidated:
	default:
		return ErrIllegalTransition
	}

	c.stopCountdown()
	c.pinExpired = false
	s.Phase = entity.PhaseIdle
	s.EnteredValue = ""
	s.RemainingSeconds = nil
	s.ConfirmEnabled = false
	c.renderIdle()

	return nil
}

// Cancel discards a session that has not reached Validated or Expired.
// A call in flight is not interrupted; its response is dropped.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.current()
	if err != nil {
		return err
	}
	if s.Phase == entity.PhaseValidated || s.Phase == entity.PhaseExpired {
		return ErrIllegalTransition
	}

	c.discard()
	c.surface.SetBusy(false)
	c.surface.ResetForm()
	c.surface.ShowCountdown("")

	return nil
}

// Close discards the session in any phase without touching the surface.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.discard()
}

// Snapshot returns a copy of the current session, false when none is open.
func (c *Controller) Snapshot() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return Session{}, false
	}
	return c.session.clone(), true
}

func (c *Controller) current() (*Session, error) {
	if c.session == nil {
		return nil, ErrNoSession
	}
	return c.session, nil
}

// matches reports whether a response still belongs to the live session.
func (c *Controller) matches(gen uint64, requestID string) bool {
	return c.session != nil && c.gen == gen && c.session.RequestID == requestID
}

func (c *Controller) discard() {
	c.stopCountdown()
	c.gen++
	c.session = nil
	c.inFlight = false
	c.pinExpired = false
}

// renderIdle puts the surface in its initial layout: channel choice and send.
func (c *Controller) renderIdle() {
	c.surface.ResetForm()
	c.surface.SetFieldEnabled(FieldForm, true)
	c.surface.SetFieldVisible(FieldSend, true)
	c.surface.SetFieldEnabled(FieldSend, true)
	c.surface.SetFieldEnabled(FieldChannel, true)
	c.surface.SetFieldVisible(FieldPin, false)
	c.surface.SetFieldVisible(FieldConfirm, false)
	c.surface.SetFieldVisible(FieldResend, false)
	c.surface.SetFieldEnabled(FieldConfirm, false)
	c.surface.ShowCountdown("")
	c.hideMessage()
	c.surface.SetBusy(false)
}

// expire moves the session to Expired; the countdown is already stopped.
func (c *Controller) expire() {
	c.count(context.Background(), c.expiryCounter, "")
	c.pinExpired = false
	c.session.Phase = entity.PhaseExpired
	c.session.RemainingSeconds = nil
	c.session.ConfirmEnabled = false
	c.surface.ShowCountdown(c.texts.Text(TextExpired))
	c.hideMessage()
	c.surface.SetFieldVisible(FieldPin, false)
	c.surface.SetFieldVisible(FieldConfirm, false)
	c.surface.SetFieldEnabled(FieldConfirm, false)
}

func (c *Controller) showMessage(text string, severity Severity) {
	c.session.Message = &Message{Text: text, Severity: severity}
	c.surface.ShowMessage(text, severity)
}

func (c *Controller) hideMessage() {
	if c.session != nil {
		c.session.Message = nil
	}
	c.surface.HideMessage()
}

// failureText turns a remote failure into the text shown to the user.
func (c *Controller) failureText(err error) string {
	var se *ServiceError
	if errors.As(err, &se) {
		if se.StatusCode == http.StatusGatewayTimeout {
			return c.texts.Text(TextSocketTimeout)
		}
		if detail := strings.TrimSpace(se.Detail); detail != "" {
			return detail
		}
	}
	return c.texts.Text(TextErrorOccurred)
}

func (c *Controller) count(ctx context.Context, counter metric.Int64Counter, outcome string) {
	if counter == nil {
		return
	}
	if outcome == "" {
		counter.Add(ctx, 1)
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
