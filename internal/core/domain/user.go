package domain

import "time"

// UserStatus enumerates possible account states.
type UserStatus string

const (
	UserStatusActive              UserStatus = "ACTIVE"
	UserStatusBlocked             UserStatus = "BLOCKED"
	UserStatusWaitingEmailConfirm UserStatus = "WAITING_EMAIL_CONFIRMATION"
	UserStatusSuspended           UserStatus = "SUSPENDED"
)

// MaxFailedLoginAttempts is the threshold at which an account transitions to BLOCKED.
const MaxFailedLoginAttempts = 10

// User mirrors the persisted representation in the users table.
type User struct {
	ID               string
	Email            string
	PasswordHash     string
	FirstName        *string
	LastName         *string
	Status           UserStatus
	FailedLoginCount int
	LastLoginAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CanLogin reports whether the account status permits authentication.
func (u User) CanLogin() bool {
	return u.Status == UserStatusActive
}

// IsBlocked reports whether the account has been locked out.
func (u User) IsBlocked() bool {
	return u.Status == UserStatusBlocked
}

// RemainingLoginAttempts returns how many failed attempts remain before blocking.
func (u User) RemainingLoginAttempts() int {
	remaining := MaxFailedLoginAttempts - u.FailedLoginCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// PasswordHistory tracks historical password hashes for reuse prevention.
// Rows are append-only: never updated, never deleted.
type PasswordHistory struct {
	ID           string
	UserID       string
	PasswordHash string
	CreatedAt    time.Time
}
