package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/repository"
	pkgauth "github.com/mpetrakis/repair-api/pkg/auth"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
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

func seedUser(t *testing.T, repo *fakeUserRepo, username, password, role string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &model.User{
		Base:         model.Base{ID: uuid.New()},
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func newTestService(repo repository.UserRepository) *Service {
	return NewService(repo, pkgauth.NewJWTService("test-secret", time.Hour))
}

func TestLoginSuccess(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo, "maria", "s3cret-pass", model.RoleStaff)
	svc := newTestService(repo)

	token, err := svc.Login(context.Background(), "maria", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.True(t, token.ExpiresAt.After(time.Now()))

	// Login stamps last_login_at.
	stored, _ := repo.Get(context.Background(), user.ID)
	require.NotNil(t, stored.LastLoginAt)

	// Issued token round-trips through validation.
	claims, err := svc.ValidateToken(context.Background(), token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "maria", claims.Username)
	assert.Equal(t, model.RoleStaff, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "maria", "s3cret-pass", model.RoleStaff)
	svc := newTestService(repo)

	_, err := svc.Login(context.Background(), "maria", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	_, err := svc.Login(context.Background(), "ghost", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo, "maria", "old-password", model.RoleStaff)
	svc := newTestService(repo)

	require.NoError(t, svc.ChangePassword(context.Background(), user.ID, "new-password"))

	_, err := svc.Login(context.Background(), "maria", "old-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "maria", "new-password")
	assert.NoError(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	_, err := svc.ValidateToken(context.Background(), "not-a-token")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "maria", "pass-word-1", model.RoleAdmin)

	issuer := newTestService(repo)
	token, err := issuer.Login(context.Background(), "maria", "pass-word-1")
	require.NoError(t, err)

	verifier := NewService(repo, pkgauth.NewJWTService("other-secret", time.Hour))
	_, err = verifier.ValidateToken(context.Background(), token.AccessToken)
	assert.Error(t, err)
}
