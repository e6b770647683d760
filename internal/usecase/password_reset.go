package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FernandoZnga/schedula/internal/core/domain"
	"github.com/FernandoZnga/schedula/internal/core/port"
	"github.com/FernandoZnga/schedula/internal/infra/logger"
	"github.com/FernandoZnga/schedula/internal/infra/security"
	"github.com/FernandoZnga/schedula/internal/repository"
)

const (
	defaultResetTokenTTL = time.Hour
	// passwordHistoryWindow is how many previous hashes a new password is
	// compared against.
	passwordHistoryWindow = 5
)

// ErrPasswordReused indicates the new password matches one of the recent ones.
var ErrPasswordReused = errors.New("password was used recently")

// PasswordResetService manages the forgot/reset password flow.
type PasswordResetService struct {
	users             port.UserRepository
	tokens            port.TokenRepository
	uow               port.UnitOfWork
	mailer            port.Mailer
	events            port.EventPublisher
	passwordValidator *security.PasswordValidator
	resetTTL          time.Duration
	baseURL           string
	log               *zap.Logger
}

// NewPasswordResetService constructs a password reset service.
func NewPasswordResetService(
	users port.UserRepository,
	tokens port.TokenRepository,
	uow port.UnitOfWork,
	mailer port.Mailer,
	events port.EventPublisher,
	validator *security.PasswordValidator,
	resetTTL time.Duration,
	baseURL string,
	log *zap.Logger,
) *PasswordResetService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if resetTTL <= 0 {
		resetTTL = defaultResetTokenTTL
	}
	return &PasswordResetService{
		users:             users,
		tokens:            tokens,
		uow:               uow,
		mailer:            mailer,
		events:            events,
		passwordValidator: validator,
		resetTTL:          resetTTL,
		baseURL:           strings.TrimRight(baseURL, "/"),
		log:               log,
	}
}

// RequestReset starts the flow for the supplied email. The outcome is the same
// whether or not the account exists, so the endpoint cannot be used to probe
// for registered addresses.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	raw, err := security.GenerateSecureToken(32)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	now := time.Now().UTC()
	token := domain.EmailToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: security.HashToken(raw),
		Purpose:   domain.EmailTokenResetPassword,
		CreatedAt: now,
		ExpiresAt: now.Add(s.resetTTL),
	}

	if err := s.tokens.CreateEmailToken(ctx, token); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if s.mailer != nil {
		msg := port.MailMessage{
			To:      user.Email,
			Subject: "Reset your password",
			Body:    "A password reset was requested for your account. Follow the link below to choose a new password. If you did not request this, ignore this message.",
			Link:    fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, raw),
		}
		if err := s.mailer.Send(ctx, msg); err != nil && s.log != nil {
			s.log.Warn("reset mail delivery failed",
				zap.String("email", logger.MaskEmail(user.Email)),
				zap.Error(err),
			)
		}
	}

	return nil
}

// ConfirmReset redeems a reset token and applies the new password. The history
// of the last few hashes is consulted so a recently used password cannot come
// back. Token consumption, the hash update and the history append commit in one
// transaction.
func (s *PasswordResetService) ConfirmReset(ctx context.Context, rawToken, newPassword string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return ErrTokenInvalid
	}

	if err := s.passwordValidator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	hash := security.HashToken(rawToken)
	now := time.Now().UTC()

	var changedUserID string
	err := s.uow.WithinTx(ctx, func(repos port.TxRepositories) error {
		token, err := repos.Tokens.GetEmailTokenByHash(ctx, hash)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTokenInvalid
			}
			return fmt.Errorf("lookup reset token: %w", err)
		}

		if token.Purpose != domain.EmailTokenResetPassword {
			return ErrTokenWrongPurpose
		}
		if token.IsUsed() {
			return ErrTokenUsed
		}
		if token.IsExpired(now) {
			return ErrTokenExpired
		}

		history, err := repos.Users.ListPasswordHistory(ctx, token.UserID, passwordHistoryWindow)
		if err != nil {
			return fmt.Errorf("list password history: %w", err)
		}
		for _, entry := range history {
			match, verr := security.VerifyPassword(newPassword, entry.PasswordHash)
			if verr != nil {
				continue
			}
			if match {
				return ErrPasswordReused
			}
		}

		newHash, err := security.HashPassword(newPassword)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		if err := repos.Tokens.ConsumeEmailToken(ctx, token.ID, now); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTokenUsed
			}
			return fmt.Errorf("consume reset token: %w", err)
		}

		if err := repos.Users.UpdatePassword(ctx, token.UserID, newHash, now); err != nil {
			return fmt.Errorf("update password: %w", err)
		}

		if err := repos.Users.AddPasswordHistory(ctx, domain.PasswordHistory{
			ID:           uuid.NewString(),
			UserID:       token.UserID,
			PasswordHash: newHash,
			CreatedAt:    now,
		}); err != nil {
			return fmt.Errorf("record password history: %w", err)
		}

		changedUserID = token.UserID
		return nil
	})
	if err != nil {
		return err
	}

	if s.events != nil {
		event := domain.PasswordChangedEvent{
			EventID:   uuid.NewString(),
			UserID:    changedUserID,
			ChangedAt: now,
		}
		if pubErr := s.events.PublishPasswordChanged(ctx, event); pubErr != nil && s.log != nil {
			s.log.Warn("publish password changed event failed", zap.Error(pubErr))
		}
	}

	return nil
}
