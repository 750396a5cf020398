package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/repository"
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	query := `
		INSERT INTO outbox_events (
			id, event_type, payload, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	event.ID = uuid.New()
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()
	event.Status = model.OutboxStatusPending

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.Payload,
		event.Status,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := `
		SELECT id, event_type, payload, status, error_message, retry_count,
		       retry_at, processed_at, created_at, updated_at
		FROM outbox_events
		WHERE status = $1
		AND (retry_at IS NULL OR retry_at <= NOW())
		ORDER BY created_at ASC
		LIMIT $2
	`
	var events []*model.OutboxEvent
	err := r.db.SelectContext(ctx, &events, query, model.OutboxStatusPending, limit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return events, err
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error {
	query := `
		UPDATE outbox_events
		SET status = $1,
		    error_message = $2,
		    retry_at = $3,
		    retry_count = CASE WHEN $1 = 'failed' THEN retry_count + 1 ELSE retry_count END,
		    processed_at = CASE WHEN $1 = 'processed' THEN NOW() ELSE processed_at END,
		    updated_at = NOW()
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, status, errorMessage, retryAt, id)
	return err
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM outbox_events WHERE status = 'processed' AND processed_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
