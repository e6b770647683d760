package domain

import "time"

// UserRegisteredEvent is published after a signup commits.
type UserRegisteredEvent struct {
	EventID      string    `json:"event_id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

// EmailConfirmedEvent is published when an account becomes ACTIVE.
type EmailConfirmedEvent struct {
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// PasswordChangedEvent is published after a password reset commits.
type PasswordChangedEvent struct {
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	ChangedAt time.Time `json:"changed_at"`
}

// ActivityCompletedEvent is published after a scheduled activity is recorded.
type ActivityCompletedEvent struct {
	EventID     string            `json:"event_id"`
	UserID      string            `json:"user_id"`
	ActivityID  string            `json:"activity_id"`
	Outcome     CompletionOutcome `json:"outcome"`
	CompletedAt time.Time         `json:"completed_at"`
}
