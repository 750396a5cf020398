package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/repository"
)

type notificationLogRepository struct {
	BaseRepository
}

func NewNotificationLogRepository(base BaseRepository) repository.NotificationLogRepository {
	return &notificationLogRepository{BaseRepository: base}
}

func (r *notificationLogRepository) Create(ctx context.Context, log *model.NotificationLog) error {
	query := `
		INSERT INTO notification_logs (
			id, device_id, channel, status, message_content, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.DeviceID,
		log.Channel,
		log.Status,
		log.MessageContent,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification log: %w", mapError(err))
	}
	return nil
}

func (r *notificationLogRepository) ListByDevice(ctx context.Context, deviceID uuid.UUID) ([]*model.NotificationLog, error) {
	query := `
		SELECT * FROM notification_logs
		WHERE device_id = $1
		ORDER BY created_at DESC
	`
	var logs []*model.NotificationLog
	if err := r.db.SelectContext(ctx, &logs, query, deviceID); err != nil {
		return nil, fmt.Errorf("failed to list notification logs: %w", mapError(err))
	}
	return logs, nil
}
