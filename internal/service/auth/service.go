package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mpetrakis/repair-api/internal/model"
	"github.com/mpetrakis/repair-api/internal/repository"
	"github.com/mpetrakis/repair-api/pkg/auth"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	tokenExpiry = 24 * time.Hour
	bcryptCost  = 12
)

type Service struct {
	users  repository.UserRepository
	jwtSvc auth.JWTService
}

func NewService(users repository.UserRepository, jwtSvc auth.JWTService) *Service {
	return &Service{users: users, jwtSvc: jwtSvc}
}

func (s *Service) Login(ctx context.Context, username, password string) (*model.TokenResponse, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update login timestamp: %w", err)
	}

	token, err := s.jwtSvc.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		ExpiresAt:   now.Add(tokenExpiry),
	}, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *Service) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	return s.jwtSvc.ValidateToken(token)
}
