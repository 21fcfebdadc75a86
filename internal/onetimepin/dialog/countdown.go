package dialog

import (
	"strconv"
	"sync"

	"github.com/shandysiswandi/onetimepin/internal/onetimepin/entity"
	"github.com/shandysiswandi/onetimepin/internal/pkg/clock"
)

// countdown is the repeating task that ticks a session's remaining seconds.
type countdown struct {
	ticker clock.Ticker
	done   chan struct{}
	once   sync.Once
}

func (cd *countdown) cancel() {
	cd.once.Do(func() {
		close(cd.done)
		cd.ticker.Stop()
	})
}

// startCountdown must be called with c.mu held.
func (c *Controller) startCountdown() {
	cd := &countdown{
		ticker: c.clock.NewTicker(c.cfg.TickInterval),
		done:   make(chan struct{}),
	}
	c.countdown = cd

	go func() {
		for {
			select {
			case <-cd.done:
				return
			case <-cd.ticker.C():
				c.tick(cd)
			}
		}
	}()
}

// stopCountdown must be called with c.mu held. It does not wait for the
// goroutine: a tick already past the select sees a foreign countdown and returns.
func (c *Controller) stopCountdown() {
	if c.countdown == nil {
		return
	}
	c.countdown.cancel()
	c.countdown = nil
}

func (c *Controller) tick(cd *countdown) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.countdown != cd || c.session == nil || c.session.RemainingSeconds == nil {
		return
	}

	s := c.session
	remaining := *s.RemainingSeconds - 1
	if remaining > 0 {
		s.RemainingSeconds = &remaining
		c.surface.ShowCountdown(c.texts.Text(TextCountdown, strconv.Itoa(remaining)))
		return
	}

	c.stopCountdown()
	switch s.Phase {
	case entity.PhaseSent:
		c.expire()
	case entity.PhaseValidating:
		// the validate response decides between Validated and Expired
		c.pinExpired = true
		s.RemainingSeconds = nil
		c.surface.ShowCountdown(c.texts.Text(TextExpired))
	}
}
