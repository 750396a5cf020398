package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mpetrakis/repair-api/internal/model"
)

// All repository interfaces in one file
type (
	// CustomerRepository handles customer records. Phone is unique; Create
	// must surface unique-constraint violations as ErrDuplicate so intake
	// can retry with a lookup.
	CustomerRepository interface {
		Create(ctx context.Context, customer *model.Customer) error
		Get(ctx context.Context, id uuid.UUID) (*model.Customer, error)
		GetByPhone(ctx context.Context, phone string) (*model.Customer, error)
		Update(ctx context.Context, customer *model.Customer) error
	}

	// DeviceRepository handles repair tickets. TrackingCode is unique;
	// Create must surface unique-constraint violations as ErrDuplicate so
	// the code generator can retry.
	DeviceRepository interface {
		Create(ctx context.Context, device *model.Device) error
		Get(ctx context.Context, id uuid.UUID) (*model.Device, error)
		GetByTrackingCode(ctx context.Context, code string) (*model.Device, error)
		Update(ctx context.Context, device *model.Device) error
		// ApplyTransition persists the device mutation and appends the
		// timeline entry atomically. Both succeed or both roll back.
		ApplyTransition(ctx context.Context, device *model.Device, log *model.TimelineLog) error
		UpdateTechnicianNotes(ctx context.Context, id uuid.UUID, notes string) error
		List(ctx context.Context, filters *model.DeviceFilters) ([]*model.Device, error)
		Stats(ctx context.Context, userID *uuid.UUID) (*model.DeviceStats, error)
	}

	// TimelineLogRepository is append-only. Entries are never updated or
	// deleted once written.
	TimelineLogRepository interface {
		Create(ctx context.Context, log *model.TimelineLog) error
		ListByDevice(ctx context.Context, deviceID uuid.UUID) ([]*model.TimelineLog, error)
		Latest(ctx context.Context, deviceID uuid.UUID) (*model.TimelineLog, error)
	}

	// NotificationLogRepository records dispatch attempts.
	NotificationLogRepository interface {
		Create(ctx context.Context, log *model.NotificationLog) error
		ListByDevice(ctx context.Context, deviceID uuid.UUID) ([]*model.NotificationLog, error)
	}

	// SettingsRepository manages the singleton settings row.
	SettingsRepository interface {
		Get(ctx context.Context) (*model.Settings, error)
		Create(ctx context.Context, settings *model.Settings) error
		Update(ctx context.Context, settings *model.Settings) error
	}

	// UserRepository handles staff accounts.
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.User, error)
	}

	// OutboxRepository queues integration events for the worker.
	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
