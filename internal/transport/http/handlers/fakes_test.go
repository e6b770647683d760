package handlers

import (
	"context"
	"sort"
	"time"

	"github.com/FernandoZnga/schedula/internal/core/domain"
	"github.com/FernandoZnga/schedula/internal/core/port"
	"github.com/FernandoZnga/schedula/internal/repository"
)

type memUserRepo struct {
	users   map[string]*domain.User
	history map[string][]domain.PasswordHistory
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users:   make(map[string]*domain.User),
		history: make(map[string][]domain.PasswordHistory),
	}
}

func (r *memUserRepo) Create(ctx context.Context, user domain.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	copied := user
	r.users[user.ID] = &copied
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) UpdateStatus(ctx context.Context, id string, status domain.UserStatus) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Status = status
	return nil
}

func (r *memUserRepo) UpdateProfile(ctx context.Context, id string, firstName, lastName *string) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.FirstName = firstName
	user.LastName = lastName
	return nil
}

func (r *memUserRepo) UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = changedAt
	return nil
}

func (r *memUserRepo) IncrementFailedLogins(ctx context.Context, id string) (int, error) {
	user, ok := r.users[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	user.FailedLoginCount++
	return user.FailedLoginCount, nil
}

func (r *memUserRepo) ResetFailedLogins(ctx context.Context, id string, loginAt time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.FailedLoginCount = 0
	user.LastLoginAt = &loginAt
	return nil
}

func (r *memUserRepo) ListPasswordHistory(ctx context.Context, userID string, limit int) ([]domain.PasswordHistory, error) {
	entries := append([]domain.PasswordHistory(nil), r.history[userID]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *memUserRepo) AddPasswordHistory(ctx context.Context, entry domain.PasswordHistory) error {
	r.history[entry.UserID] = append(r.history[entry.UserID], entry)
	return nil
}

type memTokenRepo struct {
	emailTokens   map[string]*domain.EmailToken
	refreshTokens map[string]*domain.RefreshToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{
		emailTokens:   make(map[string]*domain.EmailToken),
		refreshTokens: make(map[string]*domain.RefreshToken),
	}
}

func (r *memTokenRepo) CreateEmailToken(ctx context.Context, token domain.EmailToken) error {
	copied := token
	r.emailTokens[token.ID] = &copied
	return nil
}

func (r *memTokenRepo) GetEmailTokenByHash(ctx context.Context, hash string) (*domain.EmailToken, error) {
	for _, token := range r.emailTokens {
		if token.TokenHash == hash {
			copied := *token
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memTokenRepo) ConsumeEmailToken(ctx context.Context, id string, usedAt time.Time) error {
	token, ok := r.emailTokens[id]
	if !ok || token.UsedAt != nil {
		return repository.ErrNotFound
	}
	token.UsedAt = &usedAt
	return nil
}

func (r *memTokenRepo) CreateRefreshToken(ctx context.Context, token domain.RefreshToken) error {
	copied := token
	r.refreshTokens[token.ID] = &copied
	return nil
}

func (r *memTokenRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	for _, token := range r.refreshTokens {
		if token.TokenHash == hash {
			copied := *token
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memTokenRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	token, ok := r.refreshTokens[id]
	if !ok || token.RevokedAt != nil {
		return repository.ErrNotFound
	}
	token.RevokedAt = &revokedAt
	return nil
}

type memUnitOfWork struct {
	users  *memUserRepo
	tokens *memTokenRepo
}

func (u *memUnitOfWork) WithinTx(ctx context.Context, fn func(repos port.TxRepositories) error) error {
	return fn(port.TxRepositories{Users: u.users, Tokens: u.tokens})
}

type nopMailer struct{}

func (nopMailer) Send(ctx context.Context, msg port.MailMessage) error { return nil }

type nopPublisher struct{}

func (nopPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	return nil
}

func (nopPublisher) PublishEmailConfirmed(ctx context.Context, event domain.EmailConfirmedEvent) error {
	return nil
}

func (nopPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	return nil
}

func (nopPublisher) PublishActivityCompleted(ctx context.Context, event domain.ActivityCompletedEvent) error {
	return nil
}

type memActivityRepo struct {
	activities map[string]*domain.Activity
}

func newMemActivityRepo() *memActivityRepo {
	return &memActivityRepo{activities: make(map[string]*domain.Activity)}
}

func (r *memActivityRepo) Create(ctx context.Context, activity domain.Activity) error {
	copied := activity
	r.activities[activity.ID] = &copied
	return nil
}

func (r *memActivityRepo) GetByID(ctx context.Context, userID, id string) (*domain.Activity, error) {
	activity, ok := r.activities[id]
	if !ok || activity.UserID != userID {
		return nil, repository.ErrNotFound
	}
	copied := *activity
	return &copied, nil
}

func (r *memActivityRepo) Update(ctx context.Context, activity domain.Activity) error {
	existing, ok := r.activities[activity.ID]
	if !ok || existing.UserID != activity.UserID {
		return repository.ErrNotFound
	}
	copied := activity
	r.activities[activity.ID] = &copied
	return nil
}

func (r *memActivityRepo) ListByUser(ctx context.Context, userID string, filter port.ActivityFilter) ([]domain.Activity, error) {
	var out []domain.Activity
	for _, activity := range r.activities {
		if activity.UserID != userID {
			continue
		}
		if !filter.IncludeDeleted && activity.Deletion != nil {
			continue
		}
		out = append(out, *activity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
