package inbound

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/onetimepin/internal/onetimepin/usecase"
	"github.com/shandysiswandi/onetimepin/internal/pkg/goerror"
)

// StreamDialog streams surface updates and validation of a dialog using SSE.
// @Summary Stream dialog
// @Description Streams `surface` and `validated` events using Server-Sent Events (SSE).
// @Tags OneTimePin
// @Security BearerAuth
// @Produce text/event-stream
// @Param id path string true "Dialog ID"
// @Param access_token query string false "Bearer token for clients that cannot set headers"
// @Success 200 {string} string "SSE stream"
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "Dialog not found"
// @Router /api/v1/onetimepin/dialogs/{id}/stream [get]
func (h *HTTPEndpoint) StreamDialog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stream, err := h.uc.StreamDialog(ctx, usecase.StreamDialogInput{ID: httprouter.ParamsFromContext(ctx).ByName("id")})
	if err != nil {
		status, msg := http.StatusInternalServerError, "Internal server error"
		var gerr *goerror.Error
		if errors.As(err, &gerr) {
			status, msg = gerr.StatusCode(), gerr.Msg()
		}
		http.Error(w, msg, status)
		return
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	out := eventWriter{w: w, rc: http.NewResponseController(w)}
	if err := out.comment("connected"); err != nil {
		slog.ErrorContext(ctx, "failed to open dialog stream", "error", err)
		return
	}

	// keeps idle proxies from dropping the connection
	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if err := out.comment("ping"); err != nil {
				return
			}
		case evt, ok := <-stream:
			if !ok {
				return
			}
			if err := out.event(evt.Event, evt.Payload); err != nil {
				slog.ErrorContext(ctx, "failed to write dialog event", "event", evt.Event, "error", err)
				if !errors.Is(err, errMarshalEvent) {
					return
				}
			}
		}
	}
}

const sseHeartbeat = 25 * time.Second

var errMarshalEvent = errors.New("inbound: marshal event")

// eventWriter frames Server-Sent Events and flushes after each one.
type eventWriter struct {
	w  io.Writer
	rc *http.ResponseController
}

func (e eventWriter) comment(text string) error {
	if _, err := fmt.Fprintf(e.w, ": %s\n\n", text); err != nil {
		return err
	}
	return e.rc.Flush()
}

func (e eventWriter) event(name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", errMarshalEvent, err)
	}
	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	return e.rc.Flush()
}
