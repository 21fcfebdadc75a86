package usecase

import (
	"context"
	"log/slog"
	"time"
)

// SweepDialogs closes dialogs idle for longer than the configured TTL until ctx is done.
func (s *Usecase) SweepDialogs(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.sweepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			if n := s.sweepIdle(s.clock.Now()); n > 0 {
				slog.InfoContext(ctx, "idle dialogs closed", "count", n)
			}
		}
	}
}

func (s *Usecase) sweepIdle(now time.Time) int {
	cutoff := now.Add(-s.dialogTTL()).UnixNano()

	s.dialogMu.Lock()
	var stale []*dialogEntry
	for id, e := range s.dialogs {
		if e.lastSeen.Load() < cutoff {
			stale = append(stale, e)
			delete(s.dialogs, id)
		}
	}
	s.dialogMu.Unlock()

	for _, e := range stale {
		e.ctrl.Close()
		s.endStreams(e.id)
	}

	return len(stale)
}
