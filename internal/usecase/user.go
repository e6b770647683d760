package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/FernandoZnga/schedula/internal/core/domain"
	"github.com/FernandoZnga/schedula/internal/core/port"
	"github.com/FernandoZnga/schedula/internal/repository"
)

// ErrUserNotFound indicates the requested user does not exist.
var ErrUserNotFound = errors.New("user not found")

// UserService exposes profile queries and updates.
type UserService struct {
	users port.UserRepository
}

// NewUserService constructs a user service.
func NewUserService(users port.UserRepository) *UserService {
	return &UserService{users: users}
}

// GetProfile returns the user without the password hash.
func (s *UserService) GetProfile(ctx context.Context, userID string) (domain.User, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.User{}, ErrUserNotFound
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	sanitized := *user
	sanitized.PasswordHash = ""
	return sanitized, nil
}

// UpdateProfile modifies first/last name. Nil leaves a field untouched;
// pointing at an empty string clears it.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, firstName, lastName *string) (domain.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	if firstName != nil {
		trimmed := strings.TrimSpace(*firstName)
		if trimmed == "" {
			user.FirstName = nil
		} else {
			user.FirstName = &trimmed
		}
	}
	if lastName != nil {
		trimmed := strings.TrimSpace(*lastName)
		if trimmed == "" {
			user.LastName = nil
		} else {
			user.LastName = &trimmed
		}
	}

	if err := s.users.UpdateProfile(ctx, userID, user.FirstName, user.LastName); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("update profile: %w", err)
	}

	return user, nil
}
