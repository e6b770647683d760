package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"

	"github.com/FernandoZnga/schedula/internal/core/domain"
	"github.com/FernandoZnga/schedula/internal/core/port"
	"github.com/FernandoZnga/schedula/internal/infra/config"
	"github.com/FernandoZnga/schedula/internal/infra/security"
	"github.com/FernandoZnga/schedula/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the provided email or password are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountBlocked indicates the account was locked after too many failed logins.
	ErrAccountBlocked = errors.New("account is blocked")
	// ErrAccountSuspended indicates the account was administratively suspended.
	ErrAccountSuspended = errors.New("account is suspended")
	// ErrEmailNotConfirmed indicates the account still awaits email confirmation.
	ErrEmailNotConfirmed = errors.New("email address not confirmed")
	// ErrInvalidRefreshToken indicates the provided refresh token does not exist or was revoked.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrExpiredRefreshToken indicates the provided refresh token has expired.
	ErrExpiredRefreshToken = errors.New("refresh token expired")
	// ErrInvalidAccessToken indicates the provided access token is malformed or signature validation failed.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken indicates the provided access token has expired.
	ErrExpiredAccessToken = errors.New("access token expired")
)

// InvalidCredentialsError carries the number of attempts left before the
// account locks. errors.Is(err, ErrInvalidCredentials) matches it.
type InvalidCredentialsError struct {
	RemainingAttempts int
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials, %d attempts remaining", e.RemainingAttempts)
}

// Is makes the wrapped sentinel matchable.
func (e *InvalidCredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

// TokenPair bundles the credentials returned by a successful login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// AuthService coordinates authentication flows.
type AuthService struct {
	cfg    *config.AppConfig
	users  port.UserRepository
	tokens port.TokenRepository
	jwt    *security.JWTManager
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	cfg *config.AppConfig,
	users port.UserRepository,
	tokens port.TokenRepository,
	jwtManager *security.JWTManager,
) *AuthService {
	return &AuthService{
		cfg:    cfg,
		users:  users,
		tokens: tokens,
		jwt:    jwtManager,
	}
}

// Login validates credentials and issues an access/refresh token pair.
// Failed attempts count toward the lockout threshold; reaching it flips the
// account to BLOCKED permanently until an administrator intervenes.
func (s *AuthService) Login(ctx context.Context, email, password string) (TokenPair, *domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return TokenPair{}, nil, fmt.Errorf("email is required")
	}
	if password == "" {
		return TokenPair{}, nil, fmt.Errorf("password is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, nil, ErrInvalidCredentials
		}
		return TokenPair{}, nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := s.checkAccountState(*user); err != nil {
		return TokenPair{}, nil, err
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		count, incErr := s.users.IncrementFailedLogins(ctx, user.ID)
		if incErr != nil {
			return TokenPair{}, nil, fmt.Errorf("record failed login: %w", incErr)
		}
		if count >= domain.MaxFailedLoginAttempts {
			if stErr := s.users.UpdateStatus(ctx, user.ID, domain.UserStatusBlocked); stErr != nil {
				return TokenPair{}, nil, fmt.Errorf("block account: %w", stErr)
			}
			return TokenPair{}, nil, ErrAccountBlocked
		}
		remaining := domain.MaxFailedLoginAttempts - count
		return TokenPair{}, nil, &InvalidCredentialsError{RemainingAttempts: remaining}
	}

	now := time.Now().UTC()
	if err := s.users.ResetFailedLogins(ctx, user.ID, now); err != nil {
		return TokenPair{}, nil, fmt.Errorf("reset failed logins: %w", err)
	}

	accessToken, err := s.issueAccessToken(*user, now)
	if err != nil {
		return TokenPair{}, nil, err
	}

	refreshToken, _, err := s.IssueRefreshToken(ctx, *user)
	if err != nil {
		return TokenPair{}, nil, err
	}

	sanitized := *user
	sanitized.PasswordHash = ""
	sanitized.FailedLoginCount = 0
	sanitized.LastLoginAt = &now

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTokenTTL().Seconds()),
	}, &sanitized, nil
}

func (s *AuthService) checkAccountState(user domain.User) error {
	switch user.Status {
	case domain.UserStatusBlocked:
		return ErrAccountBlocked
	case domain.UserStatusSuspended:
		return ErrAccountSuspended
	case domain.UserStatusWaitingEmailConfirm:
		return ErrEmailNotConfirmed
	case domain.UserStatusActive:
		return nil
	default:
		return ErrInvalidCredentials
	}
}

func (s *AuthService) accessTokenTTL() time.Duration {
	ttl := s.cfg.JWT.AccessTokenTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return ttl
}

func (s *AuthService) issueAccessToken(user domain.User, now time.Time) (string, error) {
	claims, err := security.NewAccessTokenClaims(security.AccessTokenOptions{
		UserID:   user.ID,
		Email:    user.Email,
		Issuer:   s.jwt.Issuer(),
		TTL:      s.accessTokenTTL(),
		IssuedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("build access token claims: %w", err)
	}

	signed, err := s.jwt.SignAccessToken(claims)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signed, nil
}

// IssueRefreshToken creates and persists a new refresh token for the supplied user.
// Only the hash of the opaque value is stored.
func (s *AuthService) IssueRefreshToken(ctx context.Context, user domain.User) (string, *domain.RefreshToken, error) {
	if user.ID == "" {
		return "", nil, fmt.Errorf("user id is required")
	}

	raw, err := security.GenerateSecureToken(32)
	if err != nil {
		return "", nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := time.Now().UTC()
	ttl := s.cfg.JWT.RefreshTokenTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	record := domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: security.HashToken(raw),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := s.tokens.CreateRefreshToken(ctx, record); err != nil {
		return "", nil, fmt.Errorf("store refresh token: %w", err)
	}

	return raw, &record, nil
}

// Refresh validates the provided refresh token and issues a new access token.
// The refresh token itself stays valid: it is not rotated and can be presented
// again until it expires or is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return "", 0, ErrInvalidRefreshToken
	}

	record, err := s.tokens.GetRefreshTokenByHash(ctx, security.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", 0, ErrInvalidRefreshToken
		}
		return "", 0, fmt.Errorf("lookup refresh token: %w", err)
	}

	now := time.Now().UTC()
	if record.IsRevoked() {
		return "", 0, ErrInvalidRefreshToken
	}
	if record.IsExpired(now) {
		return "", 0, ErrExpiredRefreshToken
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", 0, ErrInvalidRefreshToken
		}
		return "", 0, fmt.Errorf("lookup user: %w", err)
	}

	if err := s.checkAccountState(*user); err != nil {
		return "", 0, err
	}

	accessToken, err := s.issueAccessToken(*user, now)
	if err != nil {
		return "", 0, err
	}

	return accessToken, int64(s.accessTokenTTL().Seconds()), nil
}

// Logout revokes the presented refresh token. The operation is idempotent:
// revoking an unknown or already revoked token succeeds silently.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}

	record, err := s.tokens.GetRefreshTokenByHash(ctx, security.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup refresh token: %w", err)
	}

	if record.IsRevoked() {
		return nil
	}

	if err := s.tokens.RevokeRefreshToken(ctx, record.ID, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	return nil
}

// ParseAccessToken validates the JWT access token and returns its claims.
// Expired and otherwise invalid tokens map to distinct errors so transport
// layers can tell clients whether to refresh or to re-authenticate.
func (s *AuthService) ParseAccessToken(token string) (*security.AccessTokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidAccessToken
	}

	claims, err := s.jwt.ParseAccessToken(token)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return nil, ErrExpiredAccessToken
		}
		return nil, ErrInvalidAccessToken
	}

	if strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrInvalidAccessToken
	}

	return claims, nil
}
