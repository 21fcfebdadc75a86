package router

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/shandysiswandi/onetimepin/internal/pkg/stacktrace"
)

// headerTracker remembers whether a response has started so a recovered panic
// does not write a second status line into it.
type headerTracker struct {
	http.ResponseWriter
	started bool
}

func (w *headerTracker) WriteHeader(code int) {
	w.started = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *headerTracker) Write(p []byte) (int, error) {
	w.started = true
	return w.ResponseWriter.Write(p)
}

func (w *headerTracker) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *headerTracker) Flush() {
	w.started = true
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &headerTracker{ResponseWriter: w}

		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:err113,errorlint // sentinel is compared by identity
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(r.Context(), "panic recovered", "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(r.Context(), "panic recovered", "panic", rvr, "stack", string(stack))
			}

			if tw.started {
				return
			}
			writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(tw, r)
	})
}
