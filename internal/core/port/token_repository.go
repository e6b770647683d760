package port

import (
	"context"
	"time"

	"github.com/FernandoZnga/schedula/internal/core/domain"
)

// TokenRepository manages email token and refresh token records.
type TokenRepository interface {
	CreateEmailToken(ctx context.Context, token domain.EmailToken) error
	GetEmailTokenByHash(ctx context.Context, hash string) (*domain.EmailToken, error)
	ConsumeEmailToken(ctx context.Context, id string, usedAt time.Time) error

	CreateRefreshToken(ctx context.Context, token domain.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, hash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error
}
