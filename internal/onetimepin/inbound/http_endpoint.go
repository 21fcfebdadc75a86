package inbound

import (
	"github.com/shandysiswandi/onetimepin/internal/onetimepin/usecase"
	"github.com/shandysiswandi/onetimepin/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// OpenDialog opens a one-time pin dialog for the caller.
// @Summary Open dialog
// @Description Opens a dialog offering the given channels. The first channel is preselected.
// @Tags OneTimePin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body OpenDialogRequest true "Dialog payload"
// @Success 201 {object} router.successResponse{data=DialogResponse} "Dialog opened"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many open dialogs"
// @Router /api/v1/onetimepin/dialogs [post]
func (h *HTTPEndpoint) OpenDialog(r *router.Request) (any, error) {
	var req OpenDialogRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	channels := make([]usecase.ChannelInput, 0, len(req.Channels))
	for _, ch := range req.Channels {
		channels = append(channels, usecase.ChannelInput{ID: ch.ID, Value: ch.Value})
	}

	out, err := h.uc.OpenDialog(r.Context(), usecase.OpenDialogInput{
		Purpose:  req.Purpose,
		Channels: channels,
	})
	if err != nil {
		return nil, err
	}

	resp := toDialogResponse(out)
	resp.created = true

	return resp, nil
}

// GetDialog returns the dialog state.
// @Summary Get dialog
// @Tags OneTimePin
// @Security BearerAuth
// @Produce json
// @Param id path string true "Dialog ID"
// @Success 200 {object} router.successResponse{data=DialogResponse} "Dialog state"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Dialog not found"
// @Router /api/v1/onetimepin/dialogs/{id} [get]
func (h *HTTPEndpoint) GetDialog(r *router.Request) (any, error) {
	out, err := h.uc.GetDialog(r.Context(), usecase.GetDialogInput{ID: r.GetParam("id")})
	if err != nil {
		return nil, err
	}

	return toDialogResponse(out), nil
}

// SelectChannel changes the delivery channel before a pin is sent.
// @Summary Select channel
// @Tags OneTimePin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Dialog ID"
// @Param request body SelectChannelRequest true "Channel payload"
// @Success 200 {object} router.successResponse{data=DialogResponse} "Dialog state"
// @Failure 404 {object} router.errorResponse "Dialog not found"
// @Failure 409 {object} router.errorResponse "Not allowed in the current phase"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/onetimepin/dialogs/{id}/channel [put]
func (h *HTTPEndpoint) SelectChannel(r *router.Request) (any, error) {
	var req SelectChannelRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.SelectChannel(r.Context(), usecase.SelectChannelInput{
		ID:        r.GetParam("id"),
		ChannelID: req.ChannelID,
	})
	if err != nil {
		return nil, err
	}

	return toDialogResponse(out), nil
}

// SendPin asks the backend to deliver a pin to the selected channel.
// @Summary Send pin
// @Description A backend failure is returned as dialog state with an error message.
// @Tags OneTimePin
// @Security BearerAuth
// @Produce json
// @Param id path string true "Dialog ID"
// @Success 200 {object} router.successResponse{data=DialogResponse} "Dialog state"
// @Failure 404 {object} router.errorResponse "Dialog not found"
// @Failure 409 {object} router.errorResponse "Not allowed in the current phase"
// @Router /api/v1/onetimepin/dialogs/{id}/send [post]
func (h *HTTPEndpoint) SendPin(r *router.Request) (any, error) {
	out, err := h.uc.SendPin(r.Context(), usecase.SendPinInput{ID: r.GetParam("id")})
	if err != nil {
		return nil, err
	}

	return toDialogResponse(out), nil
}

// UpdatePin records the typed pin.
// @Summary Update pin
// @Tags OneTimePin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Dialog ID"
// @Param request body UpdatePinRequest true "Pin payload"
// @Success 200 {object} router.successResponse{data=UpdatePinResponse} "Confirm availability"
// @Failure 404 {object} router.errorResponse "Dialog not found"
// @Router /api/v1/onetimepin/dialogs/{id}/pin [put]
func (h *HTTPEndpoint) UpdatePin(r *router.Request) (any, error) {
	var req UpdatePinRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	enabled, err := h.uc.UpdatePin(r.Context(), usecase.UpdatePinInput{
		ID:    r.GetParam("id"),
		Value: req.Value,
	})
	if err != nil {
		return nil, err
	}

	return UpdatePinResponse{ConfirmEnabled: enabled}, nil
}

// ValidatePin submits the entered pin.
// @Summary Validate pin
// @Description A mismatch or backend failure is returned as dialog state with an error message.
// @Tags OneTimePin
// @Security BearerAuth
// @Produce json
// @Param id path string true "Dialog ID"
// @Success 200 {object} router.successResponse{data=DialogResponse} "Dialog state"
// @Failure 404 {object} router.errorResponse "Dialog not found"
// @Failure 409 {object} router.errorResponse "Not allowed in the current phase"
// @Failure 422 {object} router.errorResponse "Pin missing or malformed"
// @Router /api/v1/onetimepin/dialogs/{id}/validate [post]
func (h *HTTPEndpoint) ValidatePin(r *router.Request) (any, error) {
	out, err := h.uc.ValidatePin(r.Context(), usecase.ValidatePinInput{ID: r.GetParam("id")})
	if err != nil {
		return nil, err
	}

	return toDialogResponse(out), nil
}

// ResendPin returns the dialog to channel selection.
// @Summary Resend pin
// @Tags OneTimePin
// @Security BearerAuth
// @Produce json
// @Param id path string true "Dialog ID"
// @Success 200 {object} router.successResponse{data=DialogResponse} "Dialog state"
// @Failure 404 {object} router.errorResponse "Dialog not found"
// @Failure 409 {object} router.errorResponse "Not allowed in the current phase"
// @Router /api/v1/onetimepin/dialogs/{id}/resend [post]
func (h *HTTPEndpoint) ResendPin(r *router.Request) (any, error) {
	out, err := h.uc.ResendPin(r.Context(), usecase.ResendPinInput{ID: r.GetParam("id")})
	if err != nil {
		return nil, err
	}

	return toDialogResponse(out), nil
}

// CancelDialog abandons an unfinished dialog.
// @Summary Cancel dialog
// @Tags OneTimePin
// @Security BearerAuth
// @Param id path string true "Dialog ID"
// @Success 204 "No Content"
// @Failure 404 {object} router.errorResponse "Dialog not found"
// @Failure 409 {object} router.errorResponse "Dialog already finished"
// @Router /api/v1/onetimepin/dialogs/{id}/cancel [post]
func (h *HTTPEndpoint) CancelDialog(r *router.Request) (any, error) {
	return nil, h.uc.CancelDialog(r.Context(), usecase.CancelDialogInput{ID: r.GetParam("id")})
}

// CloseDialog discards a dialog in any phase.
// @Summary Close dialog
// @Tags OneTimePin
// @Security BearerAuth
// @Param id path string true "Dialog ID"
// @Success 204 "No Content"
// @Failure 404 {object} router.errorResponse "Dialog not found"
// @Router /api/v1/onetimepin/dialogs/{id} [delete]
func (h *HTTPEndpoint) CloseDialog(r *router.Request) (any, error) {
	return nil, h.uc.CloseDialog(r.Context(), usecase.CloseDialogInput{ID: r.GetParam("id")})
}
