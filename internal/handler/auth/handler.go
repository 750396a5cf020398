package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mpetrakis/repair-api/internal/handler"
	"github.com/mpetrakis/repair-api/internal/middleware"
	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/service/auth"
)

type Handler struct {
	service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/auth/login", h.Login)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/auth/change-password", h.ChangePassword)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid credentials"))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("login failed"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(token))
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	userID, err := uuid.Parse(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid user"))
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), userID, req.NewPassword); err != nil {
		c.JSON(handler.ErrorStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
