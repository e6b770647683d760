package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/FernandoZnga/schedula/internal/core/domain"
	"github.com/FernandoZnga/schedula/internal/infra/security"
)

type resetFixture struct {
	svc    *PasswordResetService
	users  *fakeUserRepo
	tokens *fakeTokenRepo
	mailer *fakeMailer
	events *fakePublisher
}

func newResetFixture(t *testing.T, users ...domain.User) *resetFixture {
	t.Helper()

	userRepo := newFakeUserRepo(users...)
	tokenRepo := newFakeTokenRepo()
	mailer := &fakeMailer{}
	events := &fakePublisher{}
	uow := &fakeUnitOfWork{users: userRepo, tokens: tokenRepo}

	svc := NewPasswordResetService(
		userRepo, tokenRepo, uow, mailer, events,
		security.DefaultPasswordValidator(),
		time.Hour, "https://app.example.com", zap.NewNop(),
	)

	return &resetFixture{svc: svc, users: userRepo, tokens: tokenRepo, mailer: mailer, events: events}
}

func TestRequestResetIsSilentForUnknownEmail(t *testing.T) {
	fx := newResetFixture(t)

	if err := fx.svc.RequestReset(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if len(fx.mailer.messages) != 0 {
		t.Fatal("no mail may be sent for unknown addresses")
	}
	if err := fx.svc.RequestReset(context.Background(), ""); err != nil {
		t.Fatalf("empty email must not error: %v", err)
	}
}

func TestRequestResetSendsTokenMail(t *testing.T) {
	fx := newResetFixture(t, newActiveUser(t, "user-1", "ana@example.com", "Old!pass1"))

	if err := fx.svc.RequestReset(context.Background(), "Ana@Example.com"); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	if len(fx.mailer.messages) != 1 {
		t.Fatalf("expected one reset mail, got %d", len(fx.mailer.messages))
	}
	if len(fx.tokens.emailTokens) != 1 {
		t.Fatalf("expected one stored token, got %d", len(fx.tokens.emailTokens))
	}
	for _, token := range fx.tokens.emailTokens {
		if token.Purpose != domain.EmailTokenResetPassword {
			t.Fatalf("unexpected token purpose: %s", token.Purpose)
		}
	}
}

func TestConfirmResetChangesPasswordOnce(t *testing.T) {
	user := newActiveUser(t, "user-1", "ana@example.com", "Old!pass1")
	fx := newResetFixture(t, user)
	oldHash := fx.users.users["user-1"].PasswordHash

	if err := fx.svc.RequestReset(context.Background(), "ana@example.com"); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	rawToken := tokenFromMailLink(t, fx.mailer.messages[0].Link)

	if err := fx.svc.ConfirmReset(context.Background(), rawToken, "New!pass2"); err != nil {
		t.Fatalf("confirm reset failed: %v", err)
	}

	newHash := fx.users.users["user-1"].PasswordHash
	if newHash == oldHash {
		t.Fatal("password hash did not change")
	}
	match, err := security.VerifyPassword("New!pass2", newHash)
	if err != nil || !match {
		t.Fatalf("new password does not verify: match=%v err=%v", match, err)
	}
	if len(fx.users.history["user-1"]) != 1 {
		t.Fatalf("expected history entry for new hash, got %d", len(fx.users.history["user-1"]))
	}
	if len(fx.events.password) != 1 {
		t.Fatalf("expected one password changed event, got %d", len(fx.events.password))
	}

	// Single use: the same token cannot reset again.
	if err := fx.svc.ConfirmReset(context.Background(), rawToken, "Third!pass3"); !errors.Is(err, ErrTokenUsed) {
		t.Fatalf("expected token used, got %v", err)
	}
}

func TestConfirmResetRejectsConfirmationToken(t *testing.T) {
	user := newActiveUser(t, "user-1", "ana@example.com", "Old!pass1")
	fx := newResetFixture(t, user)

	raw, err := security.GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	now := time.Now().UTC()
	confirmToken := domain.EmailToken{
		ID:        "confirm-1",
		UserID:    "user-1",
		TokenHash: security.HashToken(raw),
		Purpose:   domain.EmailTokenConfirmEmail,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := fx.tokens.CreateEmailToken(context.Background(), confirmToken); err != nil {
		t.Fatalf("store token: %v", err)
	}

	if err := fx.svc.ConfirmReset(context.Background(), raw, "New!pass2"); !errors.Is(err, ErrTokenWrongPurpose) {
		t.Fatalf("expected wrong purpose for confirmation token, got %v", err)
	}
}

func TestConfirmResetRejectsRecentlyUsedPassword(t *testing.T) {
	user := newActiveUser(t, "user-1", "ana@example.com", "Old!pass1")
	fx := newResetFixture(t, user)

	oldHash, err := security.HashPassword("Recent!pass2")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	fx.users.history["user-1"] = append(fx.users.history["user-1"], domain.PasswordHistory{
		ID:           "hist-1",
		UserID:       "user-1",
		PasswordHash: oldHash,
		CreatedAt:    time.Now().UTC().Add(-time.Hour),
	})

	if err := fx.svc.RequestReset(context.Background(), "ana@example.com"); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	rawToken := tokenFromMailLink(t, fx.mailer.messages[0].Link)

	if err := fx.svc.ConfirmReset(context.Background(), rawToken, "Recent!pass2"); !errors.Is(err, ErrPasswordReused) {
		t.Fatalf("expected password reused, got %v", err)
	}

	// The rejection must not consume the token.
	if err := fx.svc.ConfirmReset(context.Background(), rawToken, "Fresh!pass3"); err != nil {
		t.Fatalf("reset with a fresh password failed: %v", err)
	}
}

func TestConfirmResetIgnoresHashesBeyondWindow(t *testing.T) {
	user := newActiveUser(t, "user-1", "ana@example.com", "Old!pass1")
	fx := newResetFixture(t, user)

	ancientHash, err := security.HashPassword("Ancient!pass0")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	base := time.Now().UTC().Add(-24 * time.Hour)
	fx.users.history["user-1"] = append(fx.users.history["user-1"], domain.PasswordHistory{
		ID: "hist-0", UserID: "user-1", PasswordHash: ancientHash, CreatedAt: base,
	})
	for i := 1; i <= passwordHistoryWindow; i++ {
		hash, err := security.HashPassword("Filler!pass" + string(rune('0'+i)))
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		fx.users.history["user-1"] = append(fx.users.history["user-1"], domain.PasswordHistory{
			ID:           "hist-" + string(rune('0'+i)),
			UserID:       "user-1",
			PasswordHash: hash,
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		})
	}

	if err := fx.svc.RequestReset(context.Background(), "ana@example.com"); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	rawToken := tokenFromMailLink(t, fx.mailer.messages[0].Link)

	// The ancient password fell out of the five-entry window, so it is allowed.
	if err := fx.svc.ConfirmReset(context.Background(), rawToken, "Ancient!pass0"); err != nil {
		t.Fatalf("password beyond history window must be accepted: %v", err)
	}
}

func TestConfirmResetValidatesPasswordBeforeToken(t *testing.T) {
	fx := newResetFixture(t, newActiveUser(t, "user-1", "ana@example.com", "Old!pass1"))

	if err := fx.svc.RequestReset(context.Background(), "ana@example.com"); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	rawToken := tokenFromMailLink(t, fx.mailer.messages[0].Link)

	if err := fx.svc.ConfirmReset(context.Background(), rawToken, "weak"); !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("expected policy violation, got %v", err)
	}

	// A failed validation leaves the token redeemable.
	if err := fx.svc.ConfirmReset(context.Background(), rawToken, "Strong!pass2"); err != nil {
		t.Fatalf("reset after failed validation must work: %v", err)
	}
}

func TestConfirmResetRejectsExpiredToken(t *testing.T) {
	fx := newResetFixture(t, newActiveUser(t, "user-1", "ana@example.com", "Old!pass1"))

	if err := fx.svc.RequestReset(context.Background(), "ana@example.com"); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	for _, token := range fx.tokens.emailTokens {
		token.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	}
	rawToken := tokenFromMailLink(t, fx.mailer.messages[0].Link)

	if err := fx.svc.ConfirmReset(context.Background(), rawToken, "Strong!pass2"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected token expired, got %v", err)
	}
}
