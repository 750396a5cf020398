package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/repository"
)

type settingsRepository struct {
	BaseRepository
}

func NewSettingsRepository(base BaseRepository) repository.SettingsRepository {
	return &settingsRepository{BaseRepository: base}
}

// Get loads the singleton row. Returns repository.ErrNotFound when it has
// never been created.
func (r *settingsRepository) Get(ctx context.Context) (*model.Settings, error) {
	var settings model.Settings
	query := `SELECT * FROM settings ORDER BY updated_at DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &settings, query); err != nil {
		return nil, mapError(err)
	}
	return &settings, nil
}

func (r *settingsRepository) Create(ctx context.Context, settings *model.Settings) error {
	query := `
		INSERT INTO settings (
			id, active_channel,
			sms_api_key, sms_base_url, sms_sender_id,
			whatsapp_api_key, whatsapp_base_url, whatsapp_number,
			viber_api_key, viber_base_url, viber_sender,
			template_registration, template_ready, template_delivered,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	settings.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		settings.ID,
		settings.ActiveChannel,
		settings.SMSAPIKey,
		settings.SMSBaseURL,
		settings.SMSSenderID,
		settings.WhatsAppAPIKey,
		settings.WhatsAppBaseURL,
		settings.WhatsAppNumber,
		settings.ViberAPIKey,
		settings.ViberBaseURL,
		settings.ViberSender,
		settings.TemplateRegistration,
		settings.TemplateReady,
		settings.TemplateDelivered,
		settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create settings: %w", mapError(err))
	}
	return nil
}

func (r *settingsRepository) Update(ctx context.Context, settings *model.Settings) error {
	query := `
		UPDATE settings
		SET active_channel = $1,
		    sms_api_key = $2, sms_base_url = $3, sms_sender_id = $4,
		    whatsapp_api_key = $5, whatsapp_base_url = $6, whatsapp_number = $7,
		    viber_api_key = $8, viber_base_url = $9, viber_sender = $10,
		    template_registration = $11, template_ready = $12, template_delivered = $13,
		    updated_at = $14
		WHERE id = $15
	`
	settings.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		settings.ActiveChannel,
		settings.SMSAPIKey,
		settings.SMSBaseURL,
		settings.SMSSenderID,
		settings.WhatsAppAPIKey,
		settings.WhatsAppBaseURL,
		settings.WhatsAppNumber,
		settings.ViberAPIKey,
		settings.ViberBaseURL,
		settings.ViberSender,
		settings.TemplateRegistration,
		settings.TemplateReady,
		settings.TemplateDelivered,
		settings.UpdatedAt,
		settings.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", mapError(err))
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
