package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FernandoZnga/schedula/internal/core/domain"
	"github.com/FernandoZnga/schedula/internal/core/port"
	"github.com/FernandoZnga/schedula/internal/repository"
)

// TokenRepository implements port.TokenRepository using PostgreSQL.
type TokenRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewTokenRepository wires a token repository backed by any executor that
// satisfies pgExecutor.
func NewTokenRepository(exec pgExecutor) *TokenRepository {
	repo := &TokenRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *TokenRepository) WithTx(tx pgx.Tx) *TokenRepository {
	if tx == nil {
		return r
	}
	return &TokenRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// CreateEmailToken inserts a new email token row.
func (r *TokenRepository) CreateEmailToken(ctx context.Context, token domain.EmailToken) error {
	stmt, args, err := r.builder.Insert("email_tokens").
		Columns("id", "user_id", "token_hash", "purpose", "created_at", "expires_at", "used_at").
		Values(token.ID, token.UserID, token.TokenHash, token.Purpose, token.CreatedAt, token.ExpiresAt, token.UsedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert email token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert email token: %w", err)
	}

	return nil
}

// GetEmailTokenByHash looks up an email token by its stored hash.
func (r *TokenRepository) GetEmailTokenByHash(ctx context.Context, hash string) (*domain.EmailToken, error) {
	stmt, args, err := r.builder.
		Select("id", "user_id", "token_hash", "purpose", "created_at", "expires_at", "used_at").
		From("email_tokens").
		Where(squirrel.Eq{"token_hash": hash}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select email token sql: %w", err)
	}

	var token domain.EmailToken
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.Purpose,
		&token.CreatedAt,
		&token.ExpiresAt,
		&token.UsedAt,
	); err != nil {
		return nil, translateError(err)
	}

	return &token, nil
}

// ConsumeEmailToken marks a token as used. The used_at IS NULL guard makes the
// consumption atomic: a second caller sees zero rows affected.
func (r *TokenRepository) ConsumeEmailToken(ctx context.Context, id string, usedAt time.Time) error {
	stmt, args, err := r.builder.Update("email_tokens").
		Set("used_at", usedAt.UTC()).
		Where(squirrel.Eq{"id": id}).
		Where("used_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build consume email token sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("consume email token: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// CreateRefreshToken inserts a new refresh token row.
func (r *TokenRepository) CreateRefreshToken(ctx context.Context, token domain.RefreshToken) error {
	stmt, args, err := r.builder.Insert("refresh_tokens").
		Columns("id", "user_id", "token_hash", "created_at", "expires_at", "revoked_at").
		Values(token.ID, token.UserID, token.TokenHash, token.CreatedAt, token.ExpiresAt, token.RevokedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert refresh token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

// GetRefreshTokenByHash looks up a refresh token by its stored hash.
func (r *TokenRepository) GetRefreshTokenByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	stmt, args, err := r.builder.
		Select("id", "user_id", "token_hash", "created_at", "expires_at", "revoked_at").
		From("refresh_tokens").
		Where(squirrel.Eq{"token_hash": hash}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select refresh token sql: %w", err)
	}

	var token domain.RefreshToken
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.CreatedAt,
		&token.ExpiresAt,
		&token.RevokedAt,
	); err != nil {
		return nil, translateError(err)
	}

	return &token, nil
}

// RevokeRefreshToken stamps the token revoked. Revoking an already revoked
// token affects zero rows and reports ErrNotFound; callers treat that as a
// no-op to keep logout idempotent.
func (r *TokenRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	stmt, args, err := r.builder.Update("refresh_tokens").
		Set("revoked_at", revokedAt.UTC()).
		Where(squirrel.Eq{"id": id}).
		Where("revoked_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke refresh token sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.TokenRepository = (*TokenRepository)(nil)
