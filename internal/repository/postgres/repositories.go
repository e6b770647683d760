package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Users      *UserRepository
	Tokens     *TokenRepository
	Activities *ActivityRepository
	Tx         *TxManager
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:      NewUserRepository(pool),
		Tokens:     NewTokenRepository(pool),
		Activities: NewActivityRepository(pool),
		Tx:         NewTxManager(pool),
	}
}
