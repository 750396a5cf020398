package staff

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mpetrakis/repair-api/internal/handler"
	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/service/staff"
)

type Handler struct {
	service *staff.Service
}

func NewHandler(service *staff.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/staff")
	{
		users.GET("", h.ListStaff)
		users.POST("", h.CreateStaff)
		users.DELETE("/:id", h.DeleteStaff)
	}
}

func (h *Handler) ListStaff(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(handler.ErrorStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(users))
}

func (h *Handler) CreateStaff(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	user, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		c.JSON(handler.ErrorStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(user))
}

func (h *Handler) DeleteStaff(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		c.JSON(handler.ErrorStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
