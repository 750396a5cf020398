// Package track serves the public, unauthenticated tracking endpoint. The
// response is deliberately sparse: no internal IDs, no private notes, no
// staff names beyond what the timeline already shows.
package track

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mpetrakis/repair-api/internal/handler"
	"github.com/mpetrakis/repair-api/internal/service/device"
	"github.com/mpetrakis/repair-api/internal/service/timeline"
)

type Handler struct {
	service device.Service
}

func NewHandler(service device.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/track", h.TrackDevice)
}

type trackResponse struct {
	TrackingCode string           `json:"tracking_code"`
	Model        string           `json:"model"`
	Brand        *string          `json:"brand,omitempty"`
	Status       string           `json:"status"`
	Timeline     []timeline.Entry `json:"timeline"`
}

func (h *Handler) TrackDevice(c *gin.Context) {
	code := c.Query("id")
	if code == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("missing tracking code"))
		return
	}

	dev, entries, err := h.service.Track(c.Request.Context(), code)
	if err != nil {
		c.JSON(handler.ErrorStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	// Staff attribution stays internal.
	for i := range entries {
		entries[i].Staff = ""
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(trackResponse{
		TrackingCode: dev.TrackingCode,
		Model:        dev.Model,
		Brand:        dev.Brand,
		Status:       dev.Status.Label(),
		Timeline:     entries,
	}))
}
