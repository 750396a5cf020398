package device

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mpetrakis/repair-api/internal/handler"
	"github.com/mpetrakis/repair-api/internal/middleware"
	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/repository"
	"github.com/mpetrakis/repair-api/internal/service/device"
)

type Handler struct {
	service    device.Service
	outboxRepo repository.OutboxRepository
}

func NewHandler(service device.Service, outboxRepo repository.OutboxRepository) *Handler {
	return &Handler{
		service:    service,
		outboxRepo: outboxRepo,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats", h.GetStats)

	devices := r.Group("/devices")
	{
		devices.POST("", h.RegisterDevice)
		devices.GET("", h.ListDevices)
		devices.GET("/:id", h.GetDevice)
		devices.GET("/:id/details", h.GetDeviceDetails)
		devices.POST("/:id/status", h.TransitionStatus)
		devices.PUT("/:id/notes", h.UpdateTechnicianNotes)
		devices.GET("/:id/timeline", h.GetTimeline)
		devices.GET("/:id/notifications", h.ListNotifications)
	}
}

func (h *Handler) RegisterDevice(c *gin.Context) {
	var req model.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	dev, err := h.service.Register(c.Request.Context(), &req, middleware.ActorID(c))
	if err != nil {
		c.JSON(handler.ErrorStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	h.emitEvent(c, model.EventDeviceRegistered, dev)

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(dev))
}

func (h *Handler) ListDevices(c *gin.Context) {
	filters := &model.DeviceFilters{
		Bucket: c.Query("bucket"),
	}
	if c.Query("mine") == "true" {
		filters.UserID = middleware.ActorID(c)
	}

	devices, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		c.JSON(handler.ErrorStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(devices))
}

func (h *Handler) GetStats(c *gin.Context) {
	var userID *uuid.UUID
	if c.Query("mine") == "true" {
		userID = middleware.ActorID(c)
	}

	stats, err := h.service.Stats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(handler.ErrorStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func (h *Handler) GetDevice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid device ID"))
		return
	}

	dev, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.ErrorStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(dev))
}

func (h *Handler) GetDeviceDetails(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid device ID"))
		return
	}

	details, err := h.service.Details(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.ErrorStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(details))
}

func (h *Handler) TransitionStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid device ID"))
		return
	}

	var req model.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	// Snapshot the pre-transition state for the integration event.
	before, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.ErrorStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	actorID := middleware.ActorID(c)
	outcome, err := h.service.Transition(c.Request.Context(), id, &req, actorID)
	if err != nil {
		c.JSON(handler.ErrorStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	if outcome == model.OutcomeApplied && before.Status != req.Status {
		h.emitEvent(c, model.EventDeviceStatusChanged, &model.StatusChangedEvent{
			DeviceID:     before.ID,
			TrackingCode: before.TrackingCode,
			From:         before.Status,
			To:           req.Status,
			ActorID:      actorID,
			OccurredAt:   time.Now(),
		})
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"outcome": outcome}))
}

func (h *Handler) UpdateTechnicianNotes(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid device ID"))
		return
	}

	var req model.UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.UpdateTechnicianNotes(c.Request.Context(), id, req.TechnicianNotes); err != nil {
		c.JSON(handler.ErrorStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) GetTimeline(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid device ID"))
		return
	}

	entries, err := h.service.Timeline(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.ErrorStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}

func (h *Handler) ListNotifications(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid device ID"))
		return
	}

	logs, err := h.service.Notifications(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.ErrorStatus(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(logs))
}

// emitEvent queues an integration event; a queue failure never fails the
// request that produced it.
func (h *Handler) emitEvent(c *gin.Context, eventType string, payload interface{}) {
	if h.outboxRepo == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal outbox payload")
		return
	}

	if err := h.outboxRepo.Create(c.Request.Context(), &model.OutboxEvent{
		EventType: eventType,
		Payload:   data,
	}); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to create outbox event")
	}
}
