// Package device implements the repair-ticket lifecycle: intake with
// customer upsert and tracking-code generation, the status-transition
// controller with duplicate suppression, and the display timeline.
package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/repository"
	"github.com/mpetrakis/repair-api/internal/service/notifier"
	"github.com/mpetrakis/repair-api/internal/service/timeline"
	apperrors "github.com/mpetrakis/repair-api/pkg/errors"
	"github.com/mpetrakis/repair-api/pkg/logger"
	"github.com/mpetrakis/repair-api/pkg/metrics"
)

type Service interface {
	Register(ctx context.Context, req *model.RegisterDeviceRequest, actorID *uuid.UUID) (*model.Device, error)
	Transition(ctx context.Context, deviceID uuid.UUID, req *model.TransitionRequest, actorID *uuid.UUID) (model.TransitionOutcome, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Device, error)
	Details(ctx context.Context, id uuid.UUID) (*model.DeviceDetails, error)
	List(ctx context.Context, filters *model.DeviceFilters) ([]*model.Device, error)
	Stats(ctx context.Context, userID *uuid.UUID) (*model.DeviceStats, error)
	UpdateTechnicianNotes(ctx context.Context, id uuid.UUID, notes string) error
	Timeline(ctx context.Context, deviceID uuid.UUID) ([]timeline.Entry, error)
	Track(ctx context.Context, trackingCode string) (*model.Device, []timeline.Entry, error)
	Notifications(ctx context.Context, deviceID uuid.UUID) ([]*model.NotificationLog, error)
}

type service struct {
	devices       repository.DeviceRepository
	customers     repository.CustomerRepository
	timelineLogs  repository.TimelineLogRepository
	notifications repository.NotificationLogRepository
	users         repository.UserRepository
	dispatcher    notifier.Dispatcher
	logger        *logger.Logger
	metrics       *metrics.Metrics
}

func NewService(
	devices repository.DeviceRepository,
	customers repository.CustomerRepository,
	timelineLogs repository.TimelineLogRepository,
	notifications repository.NotificationLogRepository,
	users repository.UserRepository,
	dispatcher notifier.Dispatcher,
	log *logger.Logger,
	m *metrics.Metrics,
) Service {
	return &service{
		devices:       devices,
		customers:     customers,
		timelineLogs:  timelineLogs,
		notifications: notifications,
		users:         users,
		dispatcher:    dispatcher,
		logger:        log,
		metrics:       m,
	}
}

// Register performs device intake: it upserts the customer by phone,
// creates the ticket with a fresh tracking code, writes the initial
// timeline entry and fires the registration notification.
func (s *service) Register(ctx context.Context, req *model.RegisterDeviceRequest, actorID *uuid.UUID) (*model.Device, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	customer, err := s.upsertCustomer(ctx, req)
	if err != nil {
		return nil, err
	}

	device, err := s.createDevice(ctx, req, customer, actorID)
	if err != nil {
		return nil, err
	}

	initialNote := "Device registered"
	log := &model.TimelineLog{
		ID:        uuid.New(),
		DeviceID:  device.ID,
		Status:    model.StatusReceived,
		Note:      &initialNote,
		UserID:    actorID,
		CreatedAt: time.Now(),
	}
	if err := s.timelineLogs.Create(ctx, log); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to write initial log: %w", err))
	}

	if s.metrics != nil {
		s.metrics.DevicesRegistered.Inc()
	}
	s.logger.Info("device registered",
		"device_id", device.ID.String(),
		"tracking_code", device.TrackingCode)

	// Best-effort: the ticket exists whether or not the customer hears
	// about it. The dispatcher records the outcome.
	s.dispatcher.Send(ctx, device, model.TriggerRegistration)

	return device, nil
}

// Transition applies a status change. Duplicate submissions (same status,
// same notes as the latest entry) are acknowledged but ignored. The device
// mutation and the timeline entry are written atomically; notifications
// follow only a genuine status change and never fail the transition.
func (s *service) Transition(ctx context.Context, deviceID uuid.UUID, req *model.TransitionRequest, actorID *uuid.UUID) (model.TransitionOutcome, error) {
	if !req.Status.Valid() {
		return "", apperrors.BadRequest(fmt.Sprintf("unknown status: %s", req.Status), nil)
	}

	device, err := s.devices.Get(ctx, deviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperrors.NotFound("device", err)
		}
		return "", apperrors.Internal(err)
	}

	latest, err := s.timelineLogs.Latest(ctx, deviceID)
	if err != nil {
		return "", apperrors.Internal(err)
	}

	if timeline.ShouldSuppress(device.Status, latest, req.Status, req.PublicNote, req.PrivateNote) {
		if s.metrics != nil {
			s.metrics.DuplicatesSuppressed.Inc()
		}
		s.logger.Debug("duplicate status update suppressed",
			"device_id", deviceID.String(),
			"status", string(req.Status))
		return model.OutcomeIgnored, nil
	}

	previous := device.Status
	device.Status = req.Status
	device.IsArchived = req.Status == model.StatusArchived

	// Whoever moves the ticket into repair becomes its technician, once.
	if req.Status == model.StatusInRepair && device.TechnicianID == nil && actorID != nil {
		device.TechnicianID = actorID
	}

	log := &model.TimelineLog{
		ID:          uuid.New(),
		DeviceID:    deviceID,
		Status:      req.Status,
		PublicNote:  optionalNote(req.PublicNote),
		PrivateNote: optionalNote(req.PrivateNote),
		UserID:      actorID,
		CreatedAt:   time.Now(),
	}

	if err := s.devices.ApplyTransition(ctx, device, log); err != nil {
		return "", apperrors.Internal(fmt.Errorf("failed to apply transition: %w", err))
	}

	if s.metrics != nil {
		s.metrics.TransitionsTotal.WithLabelValues(string(req.Status)).Inc()
	}

	if previous != req.Status {
		if trigger, ok := transitionTrigger(req.Status); ok {
			s.dispatcher.Send(ctx, device, trigger)
		}
	}

	return model.OutcomeApplied, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*model.Device, error) {
	device, err := s.devices.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("device", err)
		}
		return nil, apperrors.Internal(err)
	}
	return device, nil
}

func (s *service) Details(ctx context.Context, id uuid.UUID) (*model.DeviceDetails, error) {
	device, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.Get(ctx, device.CustomerID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	logs, err := s.timelineLogs.ListByDevice(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	// Newest first for the detail view.
	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}

	return &model.DeviceDetails{
		Device:   device,
		Customer: customer,
		Logs:     logs,
	}, nil
}

func (s *service) List(ctx context.Context, filters *model.DeviceFilters) ([]*model.Device, error) {
	devices, err := s.devices.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return devices, nil
}

func (s *service) Stats(ctx context.Context, userID *uuid.UUID) (*model.DeviceStats, error) {
	stats, err := s.devices.Stats(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return stats, nil
}

func (s *service) UpdateTechnicianNotes(ctx context.Context, id uuid.UUID, notes string) error {
	if err := s.devices.UpdateTechnicianNotes(ctx, id, notes); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("device", err)
		}
		return apperrors.Internal(err)
	}
	return nil
}

// Timeline returns the deduplicated, newest-first display timeline.
func (s *service) Timeline(ctx context.Context, deviceID uuid.UUID) ([]timeline.Entry, error) {
	if _, err := s.Get(ctx, deviceID); err != nil {
		return nil, err
	}

	logs, err := s.timelineLogs.ListByDevice(ctx, deviceID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return timeline.Reduce(logs, s.staffResolver(ctx)), nil
}

// Track is the public lookup by tracking code.
func (s *service) Track(ctx context.Context, trackingCode string) (*model.Device, []timeline.Entry, error) {
	device, err := s.devices.GetByTrackingCode(ctx, trackingCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.NotFound("device", err)
		}
		return nil, nil, apperrors.Internal(err)
	}

	logs, err := s.timelineLogs.ListByDevice(ctx, device.ID)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}
	return device, timeline.Reduce(logs, s.staffResolver(ctx)), nil
}

func (s *service) Notifications(ctx context.Context, deviceID uuid.UUID) ([]*model.NotificationLog, error) {
	if _, err := s.Get(ctx, deviceID); err != nil {
		return nil, err
	}

	logs, err := s.notifications.ListByDevice(ctx, deviceID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return logs, nil
}

// upsertCustomer finds the customer by phone, refreshing name/email, or
// creates one. A concurrent intake racing on the phone unique constraint
// falls back to the lookup.
func (s *service) upsertCustomer(ctx context.Context, req *model.RegisterDeviceRequest) (*model.Customer, error) {
	customer, err := s.customers.GetByPhone(ctx, req.Phone)
	if err == nil {
		if customer.Name != req.CustomerName || !equalEmail(customer.Email, req.Email) {
			customer.Name = req.CustomerName
			if req.Email != nil {
				customer.Email = req.Email
			}
			if err := s.customers.Update(ctx, customer); err != nil {
				return nil, apperrors.Internal(err)
			}
		}
		return customer, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	customer = &model.Customer{
		Base:  model.Base{ID: uuid.New()},
		Name:  req.CustomerName,
		Phone: req.Phone,
		Email: req.Email,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			existing, lookupErr := s.customers.GetByPhone(ctx, req.Phone)
			if lookupErr != nil {
				return nil, apperrors.Internal(lookupErr)
			}
			return existing, nil
		}
		return nil, apperrors.Internal(err)
	}
	return customer, nil
}

// createDevice inserts the ticket, regenerating the tracking code until
// the unique constraint accepts it.
func (s *service) createDevice(ctx context.Context, req *model.RegisterDeviceRequest, customer *model.Customer, actorID *uuid.UUID) (*model.Device, error) {
	for {
		code, err := newTrackingCode()
		if err != nil {
			return nil, apperrors.Internal(err)
		}

		device := &model.Device{
			Base:         model.Base{ID: uuid.New()},
			TrackingCode: code,
			CustomerID:   customer.ID,
			Brand:        req.Brand,
			Model:        req.Model,
			Description:  req.Description,
			Status:       model.StatusReceived,
			CreatedByID:  actorID,
		}

		err = s.devices.Create(ctx, device)
		if err == nil {
			return device, nil
		}
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		return nil, apperrors.Internal(err)
	}
}

// staffResolver memoizes user lookups for one timeline rendering.
func (s *service) staffResolver(ctx context.Context) timeline.StaffResolver {
	cache := make(map[uuid.UUID]string)
	return func(id uuid.UUID) string {
		if name, ok := cache[id]; ok {
			return name
		}
		name := ""
		if user, err := s.users.Get(ctx, id); err == nil {
			name = user.Username
		}
		cache[id] = name
		return name
	}
}

func validateRegistration(req *model.RegisterDeviceRequest) error {
	if req.CustomerName == "" {
		return apperrors.BadRequest("customer name is required", nil)
	}
	if req.Phone == "" {
		return apperrors.BadRequest("phone is required", nil)
	}
	if req.Model == "" {
		return apperrors.BadRequest("device model is required", nil)
	}
	return nil
}

// transitionTrigger maps a target status to its notification trigger.
// Only "ready" and the terminal "archived" status notify the customer.
func transitionTrigger(status model.DeviceStatus) (model.TriggerType, bool) {
	switch status {
	case model.StatusReady:
		return model.TriggerReady, true
	case model.StatusArchived:
		return model.TriggerDelivered, true
	}
	return "", false
}

func optionalNote(note string) *string {
	if note == "" {
		return nil
	}
	return &note
}

func equalEmail(current, proposed *string) bool {
	if proposed == nil {
		return true
	}
	return current != nil && *current == *proposed
}
