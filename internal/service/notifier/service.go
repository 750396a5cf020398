// Package notifier dispatches customer notifications through the
// configured messaging provider. Dispatch is best-effort and single-shot:
// exactly one channel is tried per send, every attempt is recorded in the
// notification log, and no failure here is ever allowed to affect the
// status transition that triggered it.
package notifier

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/repository"
	"github.com/mpetrakis/repair-api/pkg/logger"
	"github.com/mpetrakis/repair-api/pkg/metrics"
)

// SettingsProvider yields the current settings snapshot for a dispatch.
type SettingsProvider interface {
	Get(ctx context.Context) (*model.Settings, error)
}

// Dispatcher sends a notification for a device lifecycle trigger. It
// returns whether the provider accepted the message and, when it did not,
// a human-readable detail. It never returns an error: operators detect
// delivery failures through the notification log.
type Dispatcher interface {
	Send(ctx context.Context, device *model.Device, trigger model.TriggerType) (bool, string)
}

type service struct {
	settings  SettingsProvider
	customers repository.CustomerRepository
	logs      repository.NotificationLogRepository
	channels  map[model.NotificationChannel]Channel
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewService(
	settings SettingsProvider,
	customers repository.CustomerRepository,
	logs repository.NotificationLogRepository,
	channels []Channel,
	log *logger.Logger,
	m *metrics.Metrics,
) Dispatcher {
	byName := make(map[model.NotificationChannel]Channel, len(channels))
	for _, ch := range channels {
		byName[ch.Name()] = ch
	}
	return &service{
		settings:  settings,
		customers: customers,
		logs:      logs,
		channels:  byName,
		logger:    log,
		metrics:   m,
	}
}

func (s *service) Send(ctx context.Context, device *model.Device, trigger model.TriggerType) (bool, string) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.Warn("notification skipped: settings unavailable", "error", err.Error())
		return false, "not configured"
	}
	if settings.ActiveChannel == "" {
		return false, "not configured"
	}

	template := settings.Template(trigger)
	if template == "" {
		return false, "no template"
	}

	channel, ok := s.channels[settings.ActiveChannel]
	if !ok {
		return false, "unknown channel: " + string(settings.ActiveChannel)
	}

	customer, err := s.customers.Get(ctx, device.CustomerID)
	if err != nil {
		s.logger.Error(err, "notification skipped: customer lookup failed",
			"device_id", device.ID.String())
		return false, "customer lookup failed"
	}

	message := RenderTemplate(template, device, customer)
	recipient := NormalizePhone(customer.Phone)

	start := time.Now()
	sendErr := channel.Send(ctx, settings, recipient, message, customer)
	if s.metrics != nil {
		s.metrics.DispatchLatency.Observe(time.Since(start).Seconds())
	}

	detail := ""
	if sendErr != nil {
		detail = sendErr.Error()
	}
	s.record(ctx, device, channel.Name(), message, sendErr)

	if sendErr != nil {
		s.logger.Warn("notification dispatch failed",
			"device_id", device.ID.String(),
			"channel", string(channel.Name()),
			"trigger", string(trigger),
			"error", detail)
		return false, detail
	}

	s.logger.Info("notification sent",
		"device_id", device.ID.String(),
		"channel", string(channel.Name()),
		"trigger", string(trigger))
	return true, ""
}

// record appends the notification log row for an attempt. A failure to
// write the row is only logged locally; it is not a dispatch failure.
func (s *service) record(ctx context.Context, device *model.Device, channel model.NotificationChannel, message string, sendErr error) {
	log := &model.NotificationLog{
		ID:             uuid.New(),
		DeviceID:       device.ID,
		Channel:        strings.ToUpper(string(channel)),
		Status:         model.NotificationStatusSent,
		MessageContent: message,
		CreatedAt:      time.Now(),
	}
	if sendErr != nil {
		log.Status = model.NotificationStatusFailed
		log.MessageContent = "Err: " + sendErr.Error()
	}

	if err := s.logs.Create(ctx, log); err != nil {
		s.logger.Error(err, "failed to persist notification log",
			"device_id", device.ID.String())
	}

	if s.metrics != nil {
		if sendErr != nil {
			s.metrics.NotificationsFailed.WithLabelValues(string(channel)).Inc()
		} else {
			s.metrics.NotificationsSent.WithLabelValues(string(channel)).Inc()
		}
	}
}
