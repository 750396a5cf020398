package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/repository"
)

type deviceRepository struct {
	BaseRepository
}

func NewDeviceRepository(base BaseRepository) repository.DeviceRepository {
	return &deviceRepository{BaseRepository: base}
}

func (r *deviceRepository) Create(ctx context.Context, device *model.Device) error {
	query := `
		INSERT INTO devices (
			id, tracking_code, customer_id, brand, model, description,
			technician_notes, status, is_archived, created_by_id,
			technician_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	device.CreatedAt = time.Now()
	device.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		device.ID,
		device.TrackingCode,
		device.CustomerID,
		device.Brand,
		device.Model,
		device.Description,
		device.TechnicianNotes,
		device.Status,
		device.IsArchived,
		device.CreatedByID,
		device.TechnicianID,
		device.CreatedAt,
		device.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create device: %w", mapError(err))
	}
	return nil
}

func (r *deviceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Device, error) {
	var device model.Device
	query := `SELECT * FROM devices WHERE id = $1`
	if err := r.db.GetContext(ctx, &device, query, id); err != nil {
		return nil, mapError(err)
	}
	return &device, nil
}

func (r *deviceRepository) GetByTrackingCode(ctx context.Context, code string) (*model.Device, error) {
	var device model.Device
	query := `SELECT * FROM devices WHERE tracking_code = $1`
	if err := r.db.GetContext(ctx, &device, query, code); err != nil {
		return nil, mapError(err)
	}
	return &device, nil
}

func (r *deviceRepository) Update(ctx context.Context, device *model.Device) error {
	query := `
		UPDATE devices
		SET status = $1, is_archived = $2, technician_id = $3,
		    technician_notes = $4, updated_at = $5
		WHERE id = $6
	`
	device.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		device.Status,
		device.IsArchived,
		device.TechnicianID,
		device.TechnicianNotes,
		device.UpdatedAt,
		device.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update device: %w", mapError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ApplyTransition writes the mutated device and the new timeline entry in
// one transaction. A failure on either statement rolls both back.
func (r *deviceRepository) ApplyTransition(ctx context.Context, device *model.Device, log *model.TimelineLog) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		device.UpdatedAt = time.Now()
		deviceQuery := `
			UPDATE devices
			SET status = $1, is_archived = $2, technician_id = $3, updated_at = $4
			WHERE id = $5
		`
		result, err := tx.ExecContext(ctx, deviceQuery,
			device.Status,
			device.IsArchived,
			device.TechnicianID,
			device.UpdatedAt,
			device.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update device status: %w", mapError(err))
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return repository.ErrNotFound
		}

		logQuery := `
			INSERT INTO timeline_logs (
				id, device_id, status, note, public_note, private_note,
				user_id, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err = tx.ExecContext(ctx, logQuery,
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
	})
}

func (r *deviceRepository) UpdateTechnicianNotes(ctx context.Context, id uuid.UUID, notes string) error {
	query := `UPDATE devices SET technician_notes = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, notes, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update technician notes: %w", mapError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *deviceRepository) List(ctx context.Context, filters *model.DeviceFilters) ([]*model.Device, error) {
	query := `SELECT * FROM devices WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filters != nil {
		if filters.UserID != nil {
			query += fmt.Sprintf(" AND (technician_id = $%d OR created_by_id = $%d)", idx, idx)
			args = append(args, *filters.UserID)
			idx++
		}

		switch filters.Bucket {
		case "archive":
			query += " AND is_archived = true"
		case "ready":
			query += fmt.Sprintf(" AND status = $%d AND is_archived = false", idx)
			args = append(args, model.StatusReady)
			idx++
		case "repair":
			query += fmt.Sprintf(" AND status = $%d AND is_archived = false", idx)
			args = append(args, model.StatusInRepair)
			idx++
		case "checking":
			query += fmt.Sprintf(" AND status = $%d AND is_archived = false", idx)
			args = append(args, model.StatusChecking)
			idx++
		case "active":
			query += " AND is_archived = false"
		}
	}

	query += " ORDER BY created_at DESC"

	var devices []*model.Device
	if err := r.db.SelectContext(ctx, &devices, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", mapError(err))
	}
	return devices, nil
}

func (r *deviceRepository) Stats(ctx context.Context, userID *uuid.UUID) (*model.DeviceStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE NOT is_archived) AS total,
			COUNT(*) FILTER (WHERE status = 'checking' AND NOT is_archived) AS checking,
			COUNT(*) FILTER (WHERE status = 'in_repair' AND NOT is_archived) AS in_repair,
			COUNT(*) FILTER (WHERE status = 'ready' AND NOT is_archived) AS ready,
			COUNT(*) FILTER (WHERE is_archived) AS archived
		FROM devices
	`
	args := []interface{}{}
	if userID != nil {
		query += ` WHERE technician_id = $1 OR created_by_id = $1`
		args = append(args, *userID)
	}

	var stats model.DeviceStats
	if err := r.db.GetContext(ctx, &stats, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load device stats: %w", mapError(err))
	}
	return &stats, nil
}
