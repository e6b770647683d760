package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/FernandoZnga/schedula/internal/core/domain"
	"github.com/FernandoZnga/schedula/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserRegistered logs user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	p.logEvent("user.registered", event.UserID, event.RegisteredAt, event)
	return nil
}

// PublishEmailConfirmed logs user.email_confirmed events.
func (p *StubPublisher) PublishEmailConfirmed(_ context.Context, event domain.EmailConfirmedEvent) error {
	p.logEvent("user.email_confirmed", event.UserID, event.ConfirmedAt, event)
	return nil
}

// PublishPasswordChanged logs user.password_changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.logEvent("user.password_changed", event.UserID, event.ChangedAt, event)
	return nil
}

// PublishActivityCompleted logs activity.completed events.
func (p *StubPublisher) PublishActivityCompleted(_ context.Context, event domain.ActivityCompletedEvent) error {
	p.logEvent("activity.completed", event.UserID, event.CompletedAt, event)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
