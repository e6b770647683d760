package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
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

const defaultConfirmEmailTTL = 24 * time.Hour

var (
	// ErrEmailTaken indicates the email address already belongs to an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidEmail indicates the supplied email address is not parseable.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrPasswordPolicyViolation indicates the password does not satisfy complexity requirements.
	ErrPasswordPolicyViolation = errors.New("password does not meet complexity requirements")
	// ErrTokenInvalid indicates the presented email token does not exist.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenUsed indicates the token was already redeemed.
	ErrTokenUsed = errors.New("token already used")
	// ErrTokenExpired indicates the token exists but has expired.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenWrongPurpose indicates the token was minted for a different flow.
	ErrTokenWrongPurpose = errors.New("token purpose mismatch")
)

// RegistrationService handles new account onboarding.
type RegistrationService struct {
	users             port.UserRepository
	tokens            port.TokenRepository
	uow               port.UnitOfWork
	mailer            port.Mailer
	events            port.EventPublisher
	passwordValidator *security.PasswordValidator
	confirmTTL        time.Duration
	baseURL           string
	log               *zap.Logger
}

// NewRegistrationService constructs a registration service.
func NewRegistrationService(
	users port.UserRepository,
	tokens port.TokenRepository,
	uow port.UnitOfWork,
	mailer port.Mailer,
	events port.EventPublisher,
	validator *security.PasswordValidator,
	confirmTTL time.Duration,
	baseURL string,
	log *zap.Logger,
) *RegistrationService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if confirmTTL <= 0 {
		confirmTTL = defaultConfirmEmailTTL
	}
	return &RegistrationService{
		users:             users,
		tokens:            tokens,
		uow:               uow,
		mailer:            mailer,
		events:            events,
		passwordValidator: validator,
		confirmTTL:        confirmTTL,
		baseURL:           strings.TrimRight(baseURL, "/"),
		log:               log,
	}
}

// SignUp creates an account in WAITING_EMAIL_CONFIRMATION and dispatches the
// confirmation link. Mail delivery is best-effort: a failed send is logged and
// the signup still succeeds.
func (s *RegistrationService) SignUp(ctx context.Context, email, password string, firstName, lastName *string) (domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return domain.User{}, ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.User{}, ErrInvalidEmail
	}
	if password == "" {
		return domain.User{}, fmt.Errorf("%w: password is required", ErrPasswordPolicyViolation)
	}

	if err := s.passwordValidator.Validate(password); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return domain.User{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		Status:       domain.UserStatusWaitingEmailConfirm,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	if err := s.users.AddPasswordHistory(ctx, domain.PasswordHistory{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}); err != nil {
		return domain.User{}, fmt.Errorf("record password history: %w", err)
	}

	rawToken, err := s.issueConfirmToken(ctx, user.ID, now)
	if err != nil {
		return domain.User{}, err
	}

	s.sendConfirmMail(ctx, user.Email, rawToken)
	s.publishRegistered(ctx, user, now)

	user.PasswordHash = ""
	return user, nil
}

func (s *RegistrationService) issueConfirmToken(ctx context.Context, userID string, now time.Time) (string, error) {
	raw, err := security.GenerateSecureToken(32)
	if err != nil {
		return "", fmt.Errorf("generate confirmation token: %w", err)
	}

	token := domain.EmailToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: security.HashToken(raw),
		Purpose:   domain.EmailTokenConfirmEmail,
		CreatedAt: now,
		ExpiresAt: now.Add(s.confirmTTL),
	}

	if err := s.tokens.CreateEmailToken(ctx, token); err != nil {
		return "", fmt.Errorf("store confirmation token: %w", err)
	}

	return raw, nil
}

func (s *RegistrationService) sendConfirmMail(ctx context.Context, email, rawToken string) {
	if s.mailer == nil {
		return
	}

	msg := port.MailMessage{
		To:      email,
		Subject: "Confirm your email address",
		Body:    "Welcome! Follow the link below to confirm your email address.",
		Link:    fmt.Sprintf("%s/confirm-email?token=%s", s.baseURL, rawToken),
	}

	if err := s.mailer.Send(ctx, msg); err != nil && s.log != nil {
		s.log.Warn("confirmation mail delivery failed",
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
	}
}

func (s *RegistrationService) publishRegistered(ctx context.Context, user domain.User, at time.Time) {
	if s.events == nil {
		return
	}

	event := domain.UserRegisteredEvent{
		EventID:      uuid.NewString(),
		UserID:       user.ID,
		Email:        user.Email,
		RegisteredAt: at,
	}

	if err := s.events.PublishUserRegistered(ctx, event); err != nil && s.log != nil {
		s.log.Warn("publish user registered event failed", zap.Error(err))
	}
}

// ConfirmEmail redeems a confirmation token and activates the account. Token
// consumption and the status change commit in one transaction so a token can
// never be spent without activating the account, or vice versa.
func (s *RegistrationService) ConfirmEmail(ctx context.Context, rawToken string) (domain.User, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return domain.User{}, ErrTokenInvalid
	}

	hash := security.HashToken(rawToken)
	now := time.Now().UTC()

	var confirmed domain.User
	err := s.uow.WithinTx(ctx, func(repos port.TxRepositories) error {
		token, err := repos.Tokens.GetEmailTokenByHash(ctx, hash)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTokenInvalid
			}
			return fmt.Errorf("lookup confirmation token: %w", err)
		}

		if token.Purpose != domain.EmailTokenConfirmEmail {
			return ErrTokenWrongPurpose
		}
		if token.IsUsed() {
			return ErrTokenUsed
		}
		if token.IsExpired(now) {
			return ErrTokenExpired
		}

		user, err := repos.Users.GetByID(ctx, token.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTokenInvalid
			}
			return fmt.Errorf("lookup user: %w", err)
		}

		if err := repos.Tokens.ConsumeEmailToken(ctx, token.ID, now); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTokenUsed
			}
			return fmt.Errorf("consume confirmation token: %w", err)
		}

		if err := repos.Users.UpdateStatus(ctx, user.ID, domain.UserStatusActive); err != nil {
			return fmt.Errorf("activate user: %w", err)
		}

		confirmed = *user
		confirmed.Status = domain.UserStatusActive
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	if s.events != nil {
		event := domain.EmailConfirmedEvent{
			EventID:     uuid.NewString(),
			UserID:      confirmed.ID,
			ConfirmedAt: now,
		}
		if pubErr := s.events.PublishEmailConfirmed(ctx, event); pubErr != nil && s.log != nil {
			s.log.Warn("publish email confirmed event failed", zap.Error(pubErr))
		}
	}

	confirmed.PasswordHash = ""
	return confirmed, nil
}
