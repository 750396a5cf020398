package staff

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/repository"
	apperrors "github.com/mpetrakis/repair-api/pkg/errors"
)

type fakeUserRepo struct {
	users         map[uuid.UUID]*model.User
	duplicateNext bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if r.duplicateNext {
		return repository.ErrDuplicate
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(context.Context) ([]*model.User, error) {
	var out []*model.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func TestCreateDefaultsToStaffRole(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), &model.CreateUserRequest{
		Username: "nikos",
		Password: "long-enough-pass",
	})
	require.NoError(t, err)

	assert.Equal(t, model.RoleStaff, user.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("long-enough-pass")))
}

func TestCreateDuplicateUsername(t *testing.T) {
	repo := newFakeUserRepo()
	repo.duplicateNext = true
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), &model.CreateUserRequest{
		Username: "nikos",
		Password: "long-enough-pass",
	})

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

func TestDeletePrimaryAdminForbidden(t *testing.T) {
	repo := newFakeUserRepo()
	admin := &model.User{
		Base:     model.Base{ID: uuid.New()},
		Username: "admin",
		Role:     model.RoleAdmin,
	}
	require.NoError(t, repo.Create(context.Background(), admin))
	svc := NewService(repo)

	err := svc.Delete(context.Background(), admin.ID)

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)

	// Still there.
	_, err = repo.Get(context.Background(), admin.ID)
	assert.NoError(t, err)
}

func TestDeleteStaff(t *testing.T) {
	repo := newFakeUserRepo()
	user := &model.User{Base: model.Base{ID: uuid.New()}, Username: "nikos", Role: model.RoleStaff}
	require.NoError(t, repo.Create(context.Background(), user))
	svc := NewService(repo)

	require.NoError(t, svc.Delete(context.Background(), user.ID))

	_, err := repo.Get(context.Background(), user.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteMissingUser(t *testing.T) {
	svc := NewService(newFakeUserRepo())

	err := svc.Delete(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}
