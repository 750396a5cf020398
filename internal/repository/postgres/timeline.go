package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/repository"
)

type timelineLogRepository struct {
	BaseRepository
}

func NewTimelineLogRepository(base BaseRepository) repository.TimelineLogRepository {
	return &timelineLogRepository{BaseRepository: base}
}

func (r *timelineLogRepository) Create(ctx context.Context, log *model.TimelineLog) error {
	query := `
		INSERT INTO timeline_logs (
			id, device_id, status, note, public_note, private_note,
			user_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.DeviceID,
		log.Status,
		log.Note,
		log.PublicNote,
		log.PrivateNote,
		log.UserID,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append timeline log: %w", mapError(err))
	}
	return nil
}

// ListByDevice returns a device's logs in chronological order, the order
// the timeline engine expects.
func (r *timelineLogRepository) ListByDevice(ctx context.Context, deviceID uuid.UUID) ([]*model.TimelineLog, error) {
	query := `
		SELECT * FROM timeline_logs
		WHERE device_id = $1
		ORDER BY created_at ASC
	`
	var logs []*model.TimelineLog
	if err := r.db.SelectContext(ctx, &logs, query, deviceID); err != nil {
		return nil, fmt.Errorf("failed to list timeline logs: %w", mapError(err))
	}
	return logs, nil
}

// Latest returns the most recent log for a device, or nil when the device
// has none.
func (r *timelineLogRepository) Latest(ctx context.Context, deviceID uuid.UUID) (*model.TimelineLog, error) {
	query := `
		SELECT * FROM timeline_logs
		WHERE device_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var log model.TimelineLog
	if err := r.db.GetContext(ctx, &log, query, deviceID); err != nil {
		if errors.Is(mapError(err), repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load latest timeline log: %w", mapError(err))
	}
	return &log, nil
}
