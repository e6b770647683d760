package port

import "context"

// TxRepositories groups the repositories participating in one transaction.
type TxRepositories struct {
	Users  UserRepository
	Tokens TokenRepository
}

// UnitOfWork runs a function against transaction-scoped repositories with
// all-or-nothing semantics. Used where a token must be consumed atomically
// with the state change it authorizes (email confirmation, password reset).
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(repos TxRepositories) error) error
}
