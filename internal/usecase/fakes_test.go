package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/FernandoZnga/schedula/internal/core/domain"
	"github.com/FernandoZnga/schedula/internal/core/port"
	"github.com/FernandoZnga/schedula/internal/repository"
)

// fakeUserRepo is an in-memory UserRepository used across service tests.
type fakeUserRepo struct {
	users   map[string]*domain.User
	history map[string][]domain.PasswordHistory

	failGetByEmail error
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		users:   make(map[string]*domain.User),
		history: make(map[string][]domain.PasswordHistory),
	}
	for i := range users {
		user := users[i]
		repo.users[user.ID] = &user
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user domain.User) error {
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	stored := user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.failGetByEmail != nil {
		return nil, r.failGetByEmail
	}
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) UpdateStatus(_ context.Context, id string, status domain.UserStatus) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Status = status
	return nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id string, firstName, lastName *string) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.FirstName = firstName
	user.LastName = lastName
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id string, passwordHash string, _ time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) IncrementFailedLogins(_ context.Context, id string) (int, error) {
	user, ok := r.users[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	user.FailedLoginCount++
	return user.FailedLoginCount, nil
}

func (r *fakeUserRepo) ResetFailedLogins(_ context.Context, id string, loginAt time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.FailedLoginCount = 0
	at := loginAt
	user.LastLoginAt = &at
	return nil
}

func (r *fakeUserRepo) ListPasswordHistory(_ context.Context, userID string, limit int) ([]domain.PasswordHistory, error) {
	entries := append([]domain.PasswordHistory{}, r.history[userID]...)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *fakeUserRepo) AddPasswordHistory(_ context.Context, entry domain.PasswordHistory) error {
	r.history[entry.UserID] = append(r.history[entry.UserID], entry)
	return nil
}

// fakeTokenRepo is an in-memory TokenRepository.
type fakeTokenRepo struct {
	emailTokens   map[string]*domain.EmailToken
	refreshTokens map[string]*domain.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{
		emailTokens:   make(map[string]*domain.EmailToken),
		refreshTokens: make(map[string]*domain.RefreshToken),
	}
}

func (r *fakeTokenRepo) CreateEmailToken(_ context.Context, token domain.EmailToken) error {
	stored := token
	r.emailTokens[token.ID] = &stored
	return nil
}

func (r *fakeTokenRepo) GetEmailTokenByHash(_ context.Context, hash string) (*domain.EmailToken, error) {
	for _, token := range r.emailTokens {
		if token.TokenHash == hash {
			clone := *token
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTokenRepo) ConsumeEmailToken(_ context.Context, id string, usedAt time.Time) error {
	token, ok := r.emailTokens[id]
	if !ok || token.UsedAt != nil {
		return repository.ErrNotFound
	}
	at := usedAt
	token.UsedAt = &at
	return nil
}

func (r *fakeTokenRepo) CreateRefreshToken(_ context.Context, token domain.RefreshToken) error {
	stored := token
	r.refreshTokens[token.ID] = &stored
	return nil
}

func (r *fakeTokenRepo) GetRefreshTokenByHash(_ context.Context, hash string) (*domain.RefreshToken, error) {
	for _, token := range r.refreshTokens {
		if token.TokenHash == hash {
			clone := *token
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTokenRepo) RevokeRefreshToken(_ context.Context, id string, revokedAt time.Time) error {
	token, ok := r.refreshTokens[id]
	if !ok || token.RevokedAt != nil {
		return repository.ErrNotFound
	}
	at := revokedAt
	token.RevokedAt = &at
	return nil
}

// fakeUnitOfWork runs the callback against the same in-memory repos, so
// transactional flows can be exercised without a database.
type fakeUnitOfWork struct {
	users  *fakeUserRepo
	tokens *fakeTokenRepo
}

func (u *fakeUnitOfWork) WithinTx(_ context.Context, fn func(repos port.TxRepositories) error) error {
	return fn(port.TxRepositories{Users: u.users, Tokens: u.tokens})
}

// fakeMailer records delivered messages.
type fakeMailer struct {
	messages []port.MailMessage
	err      error
}

func (m *fakeMailer) Send(_ context.Context, msg port.MailMessage) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

// fakePublisher counts published events per type.
type fakePublisher struct {
	registered []domain.UserRegisteredEvent
	confirmed  []domain.EmailConfirmedEvent
	password   []domain.PasswordChangedEvent
	completed  []domain.ActivityCompletedEvent
	err        error
}

func (p *fakePublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	if p.err != nil {
		return p.err
	}
	p.registered = append(p.registered, event)
	return nil
}

func (p *fakePublisher) PublishEmailConfirmed(_ context.Context, event domain.EmailConfirmedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.confirmed = append(p.confirmed, event)
	return nil
}

func (p *fakePublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.password = append(p.password, event)
	return nil
}

func (p *fakePublisher) PublishActivityCompleted(_ context.Context, event domain.ActivityCompletedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.completed = append(p.completed, event)
	return nil
}

// fakeActivityRepo mirrors the owner-scoped repository semantics in memory.
type fakeActivityRepo struct {
	activities map[string]domain.Activity
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{activities: make(map[string]domain.Activity)}
}

func (r *fakeActivityRepo) Create(_ context.Context, activity domain.Activity) error {
	r.activities[activity.ID] = activity
	return nil
}

func (r *fakeActivityRepo) GetByID(_ context.Context, userID, id string) (*domain.Activity, error) {
	activity, ok := r.activities[id]
	if !ok || activity.UserID != userID {
		return nil, repository.ErrNotFound
	}
	clone := activity
	return &clone, nil
}

func (r *fakeActivityRepo) Update(_ context.Context, activity domain.Activity) error {
	existing, ok := r.activities[activity.ID]
	if !ok || existing.UserID != activity.UserID {
		return repository.ErrNotFound
	}
	r.activities[activity.ID] = activity
	return nil
}

func (r *fakeActivityRepo) ListByUser(_ context.Context, userID string, filter port.ActivityFilter) ([]domain.Activity, error) {
	var result []domain.Activity
	for _, activity := range r.activities {
		if activity.UserID != userID {
			continue
		}
		if activity.IsDeleted() && !filter.IncludeDeleted {
			continue
		}
		effective := effectiveTime(activity)
		if filter.From != nil && effective.Before(*filter.From) {
			continue
		}
		if filter.To != nil && effective.After(*filter.To) {
			continue
		}
		result = append(result, activity)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func effectiveTime(activity domain.Activity) time.Time {
	if activity.Record != nil {
		return activity.Record.At
	}
	if activity.Schedule != nil {
		return activity.Schedule.At
	}
	return activity.CreatedAt
}
