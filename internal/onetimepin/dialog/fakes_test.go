package dialog

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shandysiswandi/onetimepin/internal/onetimepin/entity"
	"github.com/shandysiswandi/onetimepin/internal/pkg/clock"
	"github.com/shandysiswandi/onetimepin/internal/pkg/validator"
)

const waitTimeout = 2 * time.Second

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

// fire delivers one tick and reports whether the countdown goroutine took it.
func (t *fakeTicker) fire() bool {
	select {
	case t.ch <- time.Now():
		return true
	case <-time.After(50 * time.Millisecond):
		return false
	}
}

type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (c *fakeClock) Now() time.Time { return time.Now() }

func (c *fakeClock) NewTicker(time.Duration) clock.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) last(t *testing.T) *fakeTicker {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickers) == 0 {
		t.Fatalf("expected a countdown ticker to be started")
	}
	return c.tickers[len(c.tickers)-1]
}

type seqID struct{ n atomic.Int64 }

func (s *seqID) Generate() string { return "REQ" + strconv.FormatInt(s.n.Add(1), 10) }

type fakeRemote struct {
	mu         sync.Mutex
	sends      []SendRequest
	validates  []ValidateRequest
	sendFn     func(ctx context.Context, req SendRequest) error
	validateFn func(ctx context.Context, req ValidateRequest) (ValidateResult, error)
}

func (r *fakeRemote) Send(ctx context.Context, req SendRequest) error {
	r.mu.Lock()
	r.sends = append(r.sends, req)
	fn := r.sendFn
	r.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, req)
}

func (r *fakeRemote) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	r.mu.Lock()
	r.validates = append(r.validates, req)
	fn := r.validateFn
	r.mu.Unlock()
	if fn == nil {
		return Matched, nil
	}
	return fn(ctx, req)
}

func (r *fakeRemote) sendCalls() []SendRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SendRequest(nil), r.sends...)
}

func (r *fakeRemote) validateCalls() []ValidateRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ValidateRequest(nil), r.validates...)
}

type recordingSurface struct {
	mu         sync.Mutex
	enabled    map[Field]bool
	visible    map[Field]bool
	message    *Message
	busy       bool
	resets     int
	countdowns chan string
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{
		enabled:    make(map[Field]bool),
		visible:    make(map[Field]bool),
		countdowns: make(chan string, 1024),
	}
}

func (s *recordingSurface) ResetForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
}

func (s *recordingSurface) SetFieldEnabled(f Field, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled[f] = enabled
}

func (s *recordingSurface) SetFieldVisible(f Field, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible[f] = visible
}

func (s *recordingSurface) ShowMessage(text string, severity Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = &Message{Text: text, Severity: severity}
}

func (s *recordingSurface) HideMessage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = nil
}

func (s *recordingSurface) ShowCountdown(text string) { s.countdowns <- text }

func (s *recordingSurface) SetBusy(busy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = busy
}

func (s *recordingSurface) isEnabled(f Field) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled[f]
}

func (s *recordingSurface) isVisible(f Field) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible[f]
}

func (s *recordingSurface) lastMessage() *Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.message == nil {
		return nil
	}
	m := *s.message
	return &m
}

func (s *recordingSurface) isBusy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *recordingSurface) drainCountdowns() {
	for {
		select {
		case <-s.countdowns:
		default:
			return
		}
	}
}

func (s *recordingSurface) nextCountdown(t *testing.T) string {
	t.Helper()
	select {
	case text := <-s.countdowns:
		return text
	case <-time.After(waitTimeout):
		t.Fatalf("expected a countdown update")
		return ""
	}
}

func (s *recordingSurface) noCountdown(t *testing.T) {
	t.Helper()
	select {
	case text := <-s.countdowns:
		t.Fatalf("expected no countdown update, got %q", text)
	case <-time.After(50 * time.Millisecond):
	}
}

type countingNotifier struct {
	mu    sync.Mutex
	calls []Notification
}

func (n *countingNotifier) OneTimePinValidated(_ context.Context, nt Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, nt)
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type harness struct {
	ctrl     *Controller
	remote   *fakeRemote
	surface  *recordingSurface
	clock    *fakeClock
	notifier *countingNotifier
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	h := &harness{
		remote:   &fakeRemote{},
		surface:  newRecordingSurface(),
		clock:    &fakeClock{},
		notifier: &countingNotifier{},
	}
	h.ctrl, err = New(Dependency{
		DialogID:  "dialog-1",
		Config:    cfg,
		Remote:    h.remote,
		Surface:   h.surface,
		Notifier:  h.notifier,
		Clock:     h.clock,
		RequestID: &seqID{},
		Validator: v,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(h.ctrl.Close)

	return h
}

// sent opens a dialog on a phone channel and completes a send.
func (h *harness) sent(t *testing.T) {
	t.Helper()
	if err := h.ctrl.Open("Block & Replace", []entity.Channel{{ID: "0", Value: "082-9777444"}}); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := h.ctrl.RequestSend(context.Background()); err != nil {
		t.Fatalf("RequestSend() error = %v", err)
	}
	h.surface.drainCountdowns()
}

func (h *harness) snapshot(t *testing.T) Session {
	t.Helper()
	s, ok := h.ctrl.Snapshot()
	if !ok {
		t.Fatalf("expected an open session")
	}
	return s
}

// tick fires one countdown tick and returns the text it rendered.
func (h *harness) tick(t *testing.T) string {
	t.Helper()
	if !h.clock.last(t).fire() {
		t.Fatalf("expected the countdown to accept a tick")
	}
	return h.surface.nextCountdown(t)
}
