package port

import (
	"context"
	"time"

	"github.com/FernandoZnga/schedula/internal/core/domain"
)

// UserRepository exposes persistence behavior for users.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateStatus(ctx context.Context, id string, status domain.UserStatus) error
	UpdateProfile(ctx context.Context, id string, firstName, lastName *string) error
	UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error
	// IncrementFailedLogins atomically bumps the failed-login counter and
	// returns the new value, so concurrent attempts cannot lose updates.
	IncrementFailedLogins(ctx context.Context, id string) (int, error)
	ResetFailedLogins(ctx context.Context, id string, loginAt time.Time) error
	ListPasswordHistory(ctx context.Context, userID string, limit int) ([]domain.PasswordHistory, error)
	AddPasswordHistory(ctx context.Context, entry domain.PasswordHistory) error
}
