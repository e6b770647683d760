package domain

import "time"

// EmailTokenPurpose distinguishes the flows an email token may authorize.
type EmailTokenPurpose string

const (
	EmailTokenConfirmEmail  EmailTokenPurpose = "CONFIRM_EMAIL"
	EmailTokenResetPassword EmailTokenPurpose = "RESET_PASSWORD"
)

// EmailToken is a single-use, expiring token delivered out of band.
// Only the SHA-256 hash of the opaque value is ever persisted.
type EmailToken struct {
	ID        string
	UserID    string
	TokenHash string
	Purpose   EmailTokenPurpose
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// IsExpired reports whether the token has elapsed its validity window.
func (t EmailToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}

// IsUsed reports whether the token has already been redeemed.
func (t EmailToken) IsUsed() bool {
	return t.UsedAt != nil
}

// Consume marks the token as used.
// Returns true when the token transitions from unused to used.
func (t *EmailToken) Consume(at time.Time) bool {
	if t.UsedAt != nil {
		return false
	}
	timeCopy := at
	t.UsedAt = &timeCopy
	return true
}

// RefreshToken represents a persisted refresh token (stored as a hash).
// Refresh tokens are never rotated: presenting one only mints a new access
// token, so a row stays valid until it expires or is explicitly revoked.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// IsExpired reports whether the token has elapsed its validity window.
func (t RefreshToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}

// IsRevoked reports whether the token has been explicitly revoked.
func (t RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsActive returns true when the token can still be presented for refresh.
func (t RefreshToken) IsActive(at time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(at)
}

// Revoke marks the token as revoked.
// Returns true if the token transitioned to the revoked state.
func (t *RefreshToken) Revoke(at time.Time) bool {
	if t.RevokedAt != nil {
		return false
	}
	timeCopy := at
	t.RevokedAt = &timeCopy
	return true
}
