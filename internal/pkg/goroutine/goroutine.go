package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/onetimepin/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 100

// maxKeptErrors bounds the task errors retained for Wait.
const maxKeptErrors = 32

// ErrPanic is reported by Wait for tasks that panicked.
var ErrPanic = errors.New("goroutine panicked")

// Manager runs background tasks with a concurrency limit.
//
// Task errors are logged as they happen and the first few are returned by Wait.
type Manager struct {
	mu      sync.Mutex
	errs    []error
	wg      sync.WaitGroup
	sema    chan struct{}
	stateMu sync.RWMutex
	closed  bool
}

// NewManager creates a new Manager with the provided maximum concurrency.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{
		sema: make(chan struct{}, maxGoroutine),
	}
}

// Go schedules f under name and reports whether it was started.
//
// It refuses work once Wait has been called or when the concurrency limit is
// reached; callers decide whether to run the work inline instead.
func (g *Manager) Go(pCtx context.Context, name string, f func(ctx context.Context) error) bool {
	if g == nil {
		return false
	}

	g.stateMu.RLock()
	defer g.stateMu.RUnlock()

	if g.closed {
		slog.WarnContext(pCtx, "goroutine manager is closed, skipping new goroutine", "task", name)
		return false
	}

	select {
	case g.sema <- struct{}{}:
	default:
		slog.WarnContext(pCtx, "maximum goroutine limit reached, failed to start new goroutine", "task", name)
		return false
	}

	g.wg.Go(func() {
		defer func() {
			<-g.sema

			if rvr := recover(); rvr != nil {
				stack := debug.Stack()
				if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
					slog.ErrorContext(pCtx, "panic occurred in goroutine", "task", name, "because", rvr, "stack", paths)
				} else {
					slog.ErrorContext(pCtx, "panic occurred in goroutine", "task", name, "because", rvr, "stack", string(stack))
				}
				g.keep(ErrPanic)
			}
		}()

		if err := pCtx.Err(); err != nil {
			slog.WarnContext(pCtx, "goroutine canceled", "task", name, "because", err)
			return
		}

		if err := f(pCtx); err != nil {
			slog.ErrorContext(pCtx, "goroutine task failed", "task", name, "error", err)
			g.keep(err)
		}
	})

	return true
}

func (g *Manager) keep(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.errs) < maxKeptErrors {
		g.errs = append(g.errs, err)
	}
}

// Wait stops accepting tasks, blocks until running ones finish and returns
// the retained errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	g.closed = true
	g.stateMu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
