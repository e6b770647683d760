package port

import (
	"context"
	"time"

	"github.com/FernandoZnga/schedula/internal/core/domain"
)

// ActivityFilter narrows listings; the date range matches either the
// scheduled or the recorded timestamp.
type ActivityFilter struct {
	IncludeDeleted bool
	From           *time.Time
	To             *time.Time
}

// ActivityRepository exposes persistence behavior for activities.
// All lookups are owner-scoped: an activity belonging to another user is
// indistinguishable from a missing one.
type ActivityRepository interface {
	Create(ctx context.Context, activity domain.Activity) error
	GetByID(ctx context.Context, userID, id string) (*domain.Activity, error)
	Update(ctx context.Context, activity domain.Activity) error
	ListByUser(ctx context.Context, userID string, filter ActivityFilter) ([]domain.Activity, error)
}
