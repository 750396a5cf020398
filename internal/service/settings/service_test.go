package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/repository"
)

type fakeSettingsRepo struct {
	stored  *model.Settings
	gets    int
	creates int
	updates int
}

func (f *fakeSettingsRepo) Get(context.Context) (*model.Settings, error) {
	f.gets++
	if f.stored == nil {
		return nil, repository.ErrNotFound
	}
	return f.stored, nil
}

func (f *fakeSettingsRepo) Create(_ context.Context, settings *model.Settings) error {
	f.creates++
	f.stored = settings
	return nil
}

func (f *fakeSettingsRepo) Update(_ context.Context, settings *model.Settings) error {
	f.updates++
	f.stored = settings
	return nil
}

func TestGetSeedsDefaultsOnFirstUse(t *testing.T) {
	repo := &fakeSettingsRepo{}
	svc := NewService(repo)

	settings, err := svc.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, repo.creates)
	assert.Equal(t, model.ChannelSMS, settings.ActiveChannel)
	assert.Equal(t, "InfoSMS", settings.SMSSenderID)
	assert.Equal(t, model.DefaultTemplateRegistration, settings.TemplateRegistration)
	assert.Equal(t, model.DefaultTemplateReady, settings.TemplateReady)
	assert.Equal(t, model.DefaultTemplateDelivered, settings.TemplateDelivered)
}

func TestGetCachesReads(t *testing.T) {
	repo := &fakeSettingsRepo{stored: &model.Settings{ActiveChannel: model.ChannelViber}}
	svc := NewService(repo)

	for i := 0; i < 5; i++ {
		settings, err := svc.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, model.ChannelViber, settings.ActiveChannel)
	}

	assert.Equal(t, 1, repo.gets)
}

func TestUpdateInvalidatesCache(t *testing.T) {
	repo := &fakeSettingsRepo{stored: &model.Settings{ActiveChannel: model.ChannelSMS}}
	svc := NewService(repo)

	_, err := svc.Get(context.Background())
	require.NoError(t, err)

	updated := &model.Settings{ActiveChannel: model.ChannelWhatsApp}
	require.NoError(t, svc.Update(context.Background(), updated))

	settings, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.ChannelWhatsApp, settings.ActiveChannel)
}

func TestUpdateRejectsUnknownChannel(t *testing.T) {
	repo := &fakeSettingsRepo{stored: &model.Settings{ActiveChannel: model.ChannelSMS}}
	svc := NewService(repo)

	err := svc.Update(context.Background(), &model.Settings{ActiveChannel: "telegram"})

	require.Error(t, err)
	assert.Zero(t, repo.updates)
}

func TestSettingsTemplateSelection(t *testing.T) {
	settings := &model.Settings{
		TemplateRegistration: "reg",
		TemplateReady:        "ready",
		TemplateDelivered:    "done",
	}

	assert.Equal(t, "reg", settings.Template(model.TriggerRegistration))
	assert.Equal(t, "ready", settings.Template(model.TriggerReady))
	assert.Equal(t, "done", settings.Template(model.TriggerDelivered))
	assert.Empty(t, settings.Template(model.TriggerType("bogus")))
}
