package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mpetrakis/repair-api/internal/handler"
	"github.com/mpetrakis/repair-api/internal/service/settings"
)

type Handler struct {
	service settings.Service
}

func NewHandler(service settings.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/settings", h.GetSettings)
	r.PUT("/settings", h.UpdateSettings)
}

func (h *Handler) GetSettings(c *gin.Context) {
	current, err := h.service.Get(c.Request.Context())
	if err != nil {
		c.JSON(handler.ErrorStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(current))
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	// Start from the stored settings so a partial payload does not blank
	// out credentials the admin did not touch.
	current, err := h.service.Get(c.Request.Context())
	if err != nil {
		c.JSON(handler.ErrorStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	updated := *current
	if err := c.ShouldBindJSON(&updated); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	updated.ID = current.ID

	if err := h.service.Update(c.Request.Context(), &updated); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(&updated))
}
