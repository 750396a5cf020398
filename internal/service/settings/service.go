// Package settings manages the process-wide messaging configuration
// singleton. Reads are cached; an administrative update invalidates the
// cache so the next dispatch sees the new configuration.
package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/repository"
)

const (
	cacheKey = "settings"
	cacheTTL = time.Minute
)

type Service interface {
	Get(ctx context.Context) (*model.Settings, error)
	Update(ctx context.Context, settings *model.Settings) error
}

type service struct {
	repo  repository.SettingsRepository
	cache *gocache.Cache
}

func NewService(repo repository.SettingsRepository) Service {
	return &service{
		repo:  repo,
		cache: gocache.New(cacheTTL, 5*time.Minute),
	}
}

// Get returns the settings singleton, lazily creating it with default
// templates on first use.
func (s *service) Get(ctx context.Context) (*model.Settings, error) {
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(*model.Settings), nil
	}

	settings, err := s.repo.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		settings = defaultSettings()
		if err := s.repo.Create(ctx, settings); err != nil {
			return nil, fmt.Errorf("failed to seed settings: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	s.cache.Set(cacheKey, settings, cacheTTL)
	return settings, nil
}

// Update persists an administrative change and invalidates the cache.
func (s *service) Update(ctx context.Context, settings *model.Settings) error {
	if settings.ActiveChannel != "" {
		switch settings.ActiveChannel {
		case model.ChannelSMS, model.ChannelWhatsApp, model.ChannelViber:
		default:
			return fmt.Errorf("unknown channel: %s", settings.ActiveChannel)
		}
	}

	if err := s.repo.Update(ctx, settings); err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	s.cache.Delete(cacheKey)
	return nil
}

func defaultSettings() *model.Settings {
	return &model.Settings{
		ID:                   uuid.New(),
		ActiveChannel:        model.ChannelSMS,
		SMSSenderID:          "InfoSMS",
		TemplateRegistration: model.DefaultTemplateRegistration,
		TemplateReady:        model.DefaultTemplateReady,
		TemplateDelivered:    model.DefaultTemplateDelivered,
	}
}
