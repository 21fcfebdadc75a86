package inbound

import (
	"net/http"

	"github.com/shandysiswandi/onetimepin/internal/pkg/router"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/onetimepin/dialogs", end.OpenDialog)
	r.GET("/api/v1/onetimepin/dialogs/:id", end.GetDialog)
	r.DELETE("/api/v1/onetimepin/dialogs/:id", end.CloseDialog)

	r.PUT("/api/v1/onetimepin/dialogs/:id/channel", end.SelectChannel)
	r.POST("/api/v1/onetimepin/dialogs/:id/send", end.SendPin)
	r.PUT("/api/v1/onetimepin/dialogs/:id/pin", end.UpdatePin)
	r.POST("/api/v1/onetimepin/dialogs/:id/validate", end.ValidatePin)
	r.POST("/api/v1/onetimepin/dialogs/:id/resend", end.ResendPin)
	r.POST("/api/v1/onetimepin/dialogs/:id/cancel", end.CancelDialog)

	r.GETRaw("/api/v1/onetimepin/dialogs/:id/stream", http.HandlerFunc(end.StreamDialog))
}
