package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eringen/storyboard/internal/domain"
)

type UserService struct {
	users   UserStore
	isAdmin func(email string) bool
	logger  *zap.Logger
}

// NewUserService builds the service. isAdmin decides which new users get
// the admin role; nil means nobody does.
func NewUserService(users UserStore, isAdmin func(email string) bool, logger *zap.Logger) *UserService {
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &UserService{users: users, isAdmin: isAdmin, logger: logger.Named("users")}
}

// GetUserByEmail returns nil and no error when nobody has that email.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*UserDTO, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if err := validateUserRow(u); err != nil {
		return nil, err
	}
	dto := NewUserDTO(u)
	return &dto, nil
}

// Profile is what a sign-in provider tells us about a person.
type Profile struct {
	Email         string
	Name          string
	Image         string
	EmailVerified bool
}

// EnsureUser loads the user with p.Email, creating it on first sign-in.
// An existing user's name, image and verification flag follow the profile.
func (s *UserService) EnsureUser(ctx context.Context, p Profile) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if !validEmail(email) {
		return domain.User{}, &domain.ValidationError{Entity: "user", Fields: map[string]string{"email": "must be a valid email"}}
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = email[:strings.IndexByte(email, '@')]
	}

	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		u.Name = name
		u.Image = optional(p.Image)
		u.EmailVerified = u.EmailVerified || p.EmailVerified
		if err := s.users.UpdateProfile(ctx, &u); err != nil {
			return domain.User{}, fmt.Errorf("ensure user: %w", err)
		}
		return u, nil
	case !errors.Is(err, domain.ErrNotFound):
		return domain.User{}, fmt.Errorf("ensure user: %w", err)
	}

	u = domain.User{
		ID:            uuid.NewString(),
		Name:          name,
		Role:          domain.RoleUser,
		Email:         email,
		EmailVerified: p.EmailVerified,
		Image:         optional(p.Image),
		Login:         uuid.NewString(),
	}
	if s.isAdmin(email) {
		u.Role = domain.RoleAdmin
	}
	if err := s.users.Insert(ctx, &u); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user created", zap.String("id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}
