package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/repository"
	apperrors "github.com/mpetrakis/repair-api/pkg/errors"
)

const bcryptCost = 12

// The seed admin account cannot be removed.
const primaryAdmin = "admin"

type Service struct {
	users repository.UserRepository
}

func NewService(users repository.UserRepository) *Service {
	return &Service{users: users}
}

func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return users, nil
}

func (s *Service) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	role := req.Role
	if role == "" {
		role = model.RoleStaff
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &model.User{
		Base:         model.Base{ID: uuid.New()},
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         role,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.BadRequest("user exists", err)
		}
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("user", err)
		}
		return apperrors.Internal(err)
	}

	if user.Username == primaryAdmin {
		return apperrors.Forbidden("cannot delete main admin")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}
