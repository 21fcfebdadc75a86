package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
)

type namedServer struct {
	name string
	srv  *http.Server
}

// servers lists the listeners in start order. The SSE listener carries no
// write timeout so dialog streams stay open for the whole countdown.
func (a *App) servers() []namedServer {
	return []namedServer{
		{name: "http", srv: a.httpServer},
		{name: "sse", srv: a.sseServer},
	}
}

// Start launches every server and returns a channel closed once a termination
// signal arrives.
func (a *App) Start() <-chan struct{} {
	for _, s := range a.servers() {
		go func() {
			slog.Info("server listening", "server", s.name, "address", s.srv.Addr)
			if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				slog.Error("server stopped unexpectedly", "server", s.name, "error", err)
				os.Exit(1)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()

		<-ctx.Done()
		slog.Info("termination requested, shutting down")
		close(done)
	}()

	return done
}

// Stop cancels the application context, which ends open dialog streams and
// the sweeper, then drains the servers and closes resources in order.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}

	for _, s := range a.servers() {
		if err := s.srv.Shutdown(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to shut down server", "server", s.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "waiting for background goroutines")
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background goroutine failed", "error", err)
	}

	for _, c := range slices.Backward(a.closers) {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resource", "name", c.name, "error", err)
		}
	}
	slog.InfoContext(ctx, "application stopped")
}
