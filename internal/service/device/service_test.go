package device

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/repository"
	apperrors "github.com/mpetrakis/repair-api/pkg/errors"
	"github.com/mpetrakis/repair-api/pkg/logger"
)

type memDeviceRepo struct {
	devices       map[uuid.UUID]*model.Device
	byCode        map[string]uuid.UUID
	timeline      *memTimelineRepo
	duplicateOnce bool
	transitions   int
}

func newMemDeviceRepo(timeline *memTimelineRepo) *memDeviceRepo {
	return &memDeviceRepo{
		devices:  make(map[uuid.UUID]*model.Device),
		byCode:   make(map[string]uuid.UUID),
		timeline: timeline,
	}
}

func (r *memDeviceRepo) Create(_ context.Context, device *model.Device) error {
	if r.duplicateOnce {
		r.duplicateOnce = false
		return repository.ErrDuplicate
	}
	if _, taken := r.byCode[device.TrackingCode]; taken {
		return repository.ErrDuplicate
	}
	r.devices[device.ID] = device
	r.byCode[device.TrackingCode] = device.ID
	return nil
}

func (r *memDeviceRepo) Get(_ context.Context, id uuid.UUID) (*model.Device, error) {
	device, ok := r.devices[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *device
	return &copied, nil
}

func (r *memDeviceRepo) GetByTrackingCode(_ context.Context, code string) (*model.Device, error) {
	id, ok := r.byCode[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *r.devices[id]
	return &copied, nil
}

func (r *memDeviceRepo) Update(_ context.Context, device *model.Device) error {
	r.devices[device.ID] = device
	return nil
}

func (r *memDeviceRepo) ApplyTransition(ctx context.Context, device *model.Device, log *model.TimelineLog) error {
	r.devices[device.ID] = device
	r.transitions++
	return r.timeline.Create(ctx, log)
}

func (r *memDeviceRepo) UpdateTechnicianNotes(_ context.Context, id uuid.UUID, notes string) error {
	device, ok := r.devices[id]
	if !ok {
		return repository.ErrNotFound
	}
	device.TechnicianNotes = &notes
	return nil
}

func (r *memDeviceRepo) List(context.Context, *model.DeviceFilters) ([]*model.Device, error) {
	var out []*model.Device
	for _, d := range r.devices {
		out = append(out, d)
	}
	return out, nil
}

func (r *memDeviceRepo) Stats(context.Context, *uuid.UUID) (*model.DeviceStats, error) {
	return &model.DeviceStats{Total: len(r.devices)}, nil
}

type memCustomerRepo struct {
	customers     map[uuid.UUID]*model.Customer
	byPhone       map[string]uuid.UUID
	duplicateOnce bool
	phoneMissOnce bool
	updates       int
}

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{
		customers: make(map[uuid.UUID]*model.Customer),
		byPhone:   make(map[string]uuid.UUID),
	}
}

func (r *memCustomerRepo) Create(_ context.Context, customer *model.Customer) error {
	if r.duplicateOnce {
		r.duplicateOnce = false
		return repository.ErrDuplicate
	}
	if _, taken := r.byPhone[customer.Phone]; taken {
		return repository.ErrDuplicate
	}
	r.customers[customer.ID] = customer
	r.byPhone[customer.Phone] = customer.ID
	return nil
}

func (r *memCustomerRepo) Get(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	customer, ok := r.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return customer, nil
}

func (r *memCustomerRepo) GetByPhone(_ context.Context, phone string) (*model.Customer, error) {
	if r.phoneMissOnce {
		r.phoneMissOnce = false
		return nil, repository.ErrNotFound
	}
	id, ok := r.byPhone[phone]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.customers[id], nil
}

func (r *memCustomerRepo) Update(_ context.Context, customer *model.Customer) error {
	r.customers[customer.ID] = customer
	r.updates++
	return nil
}

type memTimelineRepo struct {
	logs map[uuid.UUID][]*model.TimelineLog
}

func newMemTimelineRepo() *memTimelineRepo {
	return &memTimelineRepo{logs: make(map[uuid.UUID][]*model.TimelineLog)}
}

func (r *memTimelineRepo) Create(_ context.Context, log *model.TimelineLog) error {
	r.logs[log.DeviceID] = append(r.logs[log.DeviceID], log)
	return nil
}

func (r *memTimelineRepo) ListByDevice(_ context.Context, deviceID uuid.UUID) ([]*model.TimelineLog, error) {
	return r.logs[deviceID], nil
}

func (r *memTimelineRepo) Latest(_ context.Context, deviceID uuid.UUID) (*model.TimelineLog, error) {
	logs := r.logs[deviceID]
	if len(logs) == 0 {
		return nil, nil
	}
	return logs[len(logs)-1], nil
}

type memNotificationRepo struct {
	logs []*model.NotificationLog
}

func (r *memNotificationRepo) Create(_ context.Context, log *model.NotificationLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func (r *memNotificationRepo) ListByDevice(_ context.Context, deviceID uuid.UUID) ([]*model.NotificationLog, error) {
	var out []*model.NotificationLog
	for _, l := range r.logs {
		if l.DeviceID == deviceID {
			out = append(out, l)
		}
	}
	return out, nil
}

type memUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) Update(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) List(context.Context) ([]*model.User, error) {
	var out []*model.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

type recordingDispatcher struct {
	triggers []model.TriggerType
}

func (d *recordingDispatcher) Send(_ context.Context, _ *model.Device, trigger model.TriggerType) (bool, string) {
	d.triggers = append(d.triggers, trigger)
	return true, ""
}

type fixture struct {
	svc        Service
	devices    *memDeviceRepo
	customers  *memCustomerRepo
	timeline   *memTimelineRepo
	dispatcher *recordingDispatcher
	users      *memUserRepo
}

func newFixture() *fixture {
	timeline := newMemTimelineRepo()
	f := &fixture{
		devices:    newMemDeviceRepo(timeline),
		customers:  newMemCustomerRepo(),
		timeline:   timeline,
		dispatcher: &recordingDispatcher{},
		users:      newMemUserRepo(),
	}
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	f.svc = NewService(f.devices, f.customers, f.timeline, &memNotificationRepo{}, f.users, f.dispatcher, log, nil)
	return f
}

func registerReq() *model.RegisterDeviceRequest {
	return &model.RegisterDeviceRequest{
		CustomerName: "Maria",
		Phone:        "6900000099",
		Model:        "iPhone 12",
	}
}

func TestRegisterCreatesDeviceWithTrackingCode(t *testing.T) {
	f := newFixture()

	device, err := f.svc.Register(context.Background(), registerReq(), nil)
	require.NoError(t, err)

	assert.Regexp(t, `^TS-[A-Z0-9]{6}$`, device.TrackingCode)
	assert.Equal(t, model.StatusReceived, device.Status)
	assert.False(t, device.IsArchived)

	// One initial timeline entry in status received.
	logs := f.timeline.logs[device.ID]
	require.Len(t, logs, 1)
	assert.Equal(t, model.StatusReceived, logs[0].Status)

	// Registration notification fired.
	assert.Equal(t, []model.TriggerType{model.TriggerRegistration}, f.dispatcher.triggers)
}

func TestRegisterUpsertsCustomerByPhone(t *testing.T) {
	f := newFixture()

	first, err := f.svc.Register(context.Background(), registerReq(), nil)
	require.NoError(t, err)

	req := registerReq()
	req.CustomerName = "Maria P."
	second, err := f.svc.Register(context.Background(), req, nil)
	require.NoError(t, err)

	// Same customer record, refreshed name, no duplicate.
	assert.Equal(t, first.CustomerID, second.CustomerID)
	assert.Len(t, f.customers.customers, 1)
	assert.Equal(t, "Maria P.", f.customers.customers[first.CustomerID].Name)
}

func TestRegisterRetriesCustomerRace(t *testing.T) {
	f := newFixture()
	// A concurrent intake wins the phone unique constraint between the
	// initial lookup and the insert: GetByPhone misses once, Create fails
	// with a duplicate, and the follow-up lookup must find the winner.
	winner := &model.Customer{Base: model.Base{ID: uuid.New()}, Name: "Maria", Phone: "6900000099"}
	f.customers.customers[winner.ID] = winner
	f.customers.byPhone[winner.Phone] = winner.ID
	f.customers.phoneMissOnce = true
	f.customers.duplicateOnce = true

	device, err := f.svc.Register(context.Background(), registerReq(), nil)
	require.NoError(t, err)

	assert.Equal(t, winner.ID, device.CustomerID)
	assert.Len(t, f.customers.customers, 1)
}

func TestRegisterRegeneratesTrackingCodeOnCollision(t *testing.T) {
	f := newFixture()
	f.devices.duplicateOnce = true

	device, err := f.svc.Register(context.Background(), registerReq(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, device.TrackingCode)
	assert.Len(t, f.devices.devices, 1)
}

func TestTransitionAppliesStatusChange(t *testing.T) {
	f := newFixture()
	device, err := f.svc.Register(context.Background(), registerReq(), nil)
	require.NoError(t, err)

	outcome, err := f.svc.Transition(context.Background(), device.ID, &model.TransitionRequest{
		Status:     model.StatusChecking,
		PublicNote: "initial inspection",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeApplied, outcome)

	updated, _ := f.devices.Get(context.Background(), device.ID)
	assert.Equal(t, model.StatusChecking, updated.Status)
	assert.False(t, updated.IsArchived)
}

func TestTransitionNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Transition(context.Background(), uuid.New(), &model.TransitionRequest{
		Status: model.StatusChecking,
	}, nil)

	assert.True(t, apperrors.IsNotFound(err))
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	f := newFixture()
	device, err := f.svc.Register(context.Background(), registerReq(), nil)
	require.NoError(t, err)

	_, err = f.svc.Transition(context.Background(), device.ID, &model.TransitionRequest{
		Status: model.DeviceStatus("shipped"),
	}, nil)

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

func TestTransitionSuppressesDuplicate(t *testing.T) {
	f := newFixture()
	device, err := f.svc.Register(context.Background(), registerReq(), nil)
	require.NoError(t, err)

	req := &model.TransitionRequest{Status: model.StatusChecking, PublicNote: "looking at it"}

	outcome, err := f.svc.Transition(context.Background(), device.ID, req, nil)
	require.NoError(t, err)
	require.Equal(t, model.OutcomeApplied, outcome)
	transitionsBefore := f.devices.transitions

	// Identical resubmission: acknowledged but ignored.
	outcome, err = f.svc.Transition(context.Background(), device.ID, req, nil)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeIgnored, outcome)
	assert.Equal(t, transitionsBefore, f.devices.transitions)
}

func TestTransitionSameStatusNewNoteIsAnnotation(t *testing.T) {
	f := newFixture()
	device, err := f.svc.Register(context.Background(), registerReq(), nil)
	require.NoError(t, err)

	_, err = f.svc.Transition(context.Background(), device.ID, &model.TransitionRequest{
		Status: model.StatusChecking, PublicNote: "first pass",
	}, nil)
	require.NoError(t, err)
	dispatchesBefore := len(f.dispatcher.triggers)

	outcome, err := f.svc.Transition(context.Background(), device.ID, &model.TransitionRequest{
		Status: model.StatusChecking, PublicNote: "waiting on parts",
	}, nil)
	require.NoError(t, err)

	// New log entry, but no notification for a same-status annotation.
	assert.Equal(t, model.OutcomeApplied, outcome)
	assert.Len(t, f.dispatcher.triggers, dispatchesBefore)
}

func TestTransitionArchivedSetsFlag(t *testing.T) {
	f := newFixture()
	device, err := f.svc.Register(context.Background(), registerReq(), nil)
	require.NoError(t, err)

	_, err = f.svc.Transition(context.Background(), device.ID, &model.TransitionRequest{
		Status: model.StatusArchived,
	}, nil)
	require.NoError(t, err)

	updated, _ := f.devices.Get(context.Background(), device.ID)
	assert.True(t, updated.IsArchived)

	// Leaving archived clears the flag again.
	_, err = f.svc.Transition(context.Background(), device.ID, &model.TransitionRequest{
		Status: model.StatusReceived,
	}, nil)
	require.NoError(t, err)

	updated, _ = f.devices.Get(context.Background(), device.ID)
	assert.False(t, updated.IsArchived)
}

func TestTransitionNotificationTriggers(t *testing.T) {
	f := newFixture()
	device, err := f.svc.Register(context.Background(), registerReq(), nil)
	require.NoError(t, err)

	steps := []model.DeviceStatus{
		model.StatusChecking,
		model.StatusInRepair,
		model.StatusReady,
		model.StatusArchived,
	}
	for _, status := range steps {
		_, err = f.svc.Transition(context.Background(), device.ID, &model.TransitionRequest{Status: status}, nil)
		require.NoError(t, err)
	}

	// Registration at intake, then ready and delivered only.
	assert.Equal(t, []model.TriggerType{
		model.TriggerRegistration,
		model.TriggerReady,
		model.TriggerDelivered,
	}, f.dispatcher.triggers)
}

func TestTransitionStickyTechnicianAssignment(t *testing.T) {
	f := newFixture()
	device, err := f.svc.Register(context.Background(), registerReq(), nil)
	require.NoError(t, err)

	first := uuid.New()
	second := uuid.New()

	_, err = f.svc.Transition(context.Background(), device.ID, &model.TransitionRequest{
		Status: model.StatusInRepair,
	}, &first)
	require.NoError(t, err)

	updated, _ := f.devices.Get(context.Background(), device.ID)
	require.NotNil(t, updated.TechnicianID)
	assert.Equal(t, first, *updated.TechnicianID)

	// A different actor re-entering in_repair does not steal the ticket.
	_, err = f.svc.Transition(context.Background(), device.ID, &model.TransitionRequest{
		Status: model.StatusChecking,
	}, &second)
	require.NoError(t, err)
	_, err = f.svc.Transition(context.Background(), device.ID, &model.TransitionRequest{
		Status: model.StatusInRepair,
	}, &second)
	require.NoError(t, err)

	updated, _ = f.devices.Get(context.Background(), device.ID)
	require.NotNil(t, updated.TechnicianID)
	assert.Equal(t, first, *updated.TechnicianID)
}

func TestTimelineCollapsesForDisplay(t *testing.T) {
	f := newFixture()
	device, err := f.svc.Register(context.Background(), registerReq(), nil)
	require.NoError(t, err)

	_, err = f.svc.Transition(context.Background(), device.ID, &model.TransitionRequest{
		Status: model.StatusChecking, PublicNote: "first",
	}, nil)
	require.NoError(t, err)
	_, err = f.svc.Transition(context.Background(), device.ID, &model.TransitionRequest{
		Status: model.StatusChecking, PublicNote: "second",
	}, nil)
	require.NoError(t, err)

	entries, err := f.svc.Timeline(context.Background(), device.ID)
	require.NoError(t, err)

	// received + collapsed checking run, newest first.
	require.Len(t, entries, 2)
	assert.Equal(t, model.StatusChecking, entries[0].Status)
	assert.Equal(t, "second", entries[0].Note)
	assert.Equal(t, model.StatusReceived, entries[1].Status)
}

func TestTrackByCode(t *testing.T) {
	f := newFixture()
	device, err := f.svc.Register(context.Background(), registerReq(), nil)
	require.NoError(t, err)

	found, entries, err := f.svc.Track(context.Background(), device.TrackingCode)
	require.NoError(t, err)
	assert.Equal(t, device.ID, found.ID)
	assert.Len(t, entries, 1)

	_, _, err = f.svc.Track(context.Background(), "TS-MISSING")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateTechnicianNotes(t *testing.T) {
	f := newFixture()
	device, err := f.svc.Register(context.Background(), registerReq(), nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateTechnicianNotes(context.Background(), device.ID, "replaced screen"))

	updated, _ := f.devices.Get(context.Background(), device.ID)
	require.NotNil(t, updated.TechnicianNotes)
	assert.Equal(t, "replaced screen", *updated.TechnicianNotes)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name string
		req  *model.RegisterDeviceRequest
	}{
		{"missing name", &model.RegisterDeviceRequest{Phone: "123", Model: "x"}},
		{"missing phone", &model.RegisterDeviceRequest{CustomerName: "a", Model: "x"}},
		{"missing model", &model.RegisterDeviceRequest{CustomerName: "a", Phone: "123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tt.req, nil)
			require.Error(t, err)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
		})
	}
}

// Transition writes must remain append-only on the timeline: a transition
// adds exactly one log and touches none of the earlier entries.
func TestTransitionAppendsSingleLog(t *testing.T) {
	f := newFixture()
	device, err := f.svc.Register(context.Background(), registerReq(), nil)
	require.NoError(t, err)

	// ApplyTransition persists the log through the repository in one
	// transaction; the fake counts invocations instead.
	before := f.devices.transitions
	_, err = f.svc.Transition(context.Background(), device.ID, &model.TransitionRequest{
		Status: model.StatusChecking,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, before+1, f.devices.transitions)
	assert.Len(t, f.timeline.logs[device.ID], 2)
}
