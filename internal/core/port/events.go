package port

import (
	"context"

	"github.com/FernandoZnga/schedula/internal/core/domain"
)

// EventPublisher fans out domain events to downstream consumers.
// Publishing is best-effort: failures are logged by callers, never surfaced.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishEmailConfirmed(ctx context.Context, event domain.EmailConfirmedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishActivityCompleted(ctx context.Context, event domain.ActivityCompletedEvent) error
}
