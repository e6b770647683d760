package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FernandoZnga/schedula/internal/core/domain"
	"github.com/FernandoZnga/schedula/internal/transport/http/middleware"
)

// ErrorResponse represents a generic error payload with a correlation ID for debugging.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// NewErrorResponse creates an error response with the request ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:     errorMsg,
		RequestID: middleware.GetRequestID(c),
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserSummary describes the view of a user returned by the API.
type UserSummary struct {
	ID          string            `json:"id"`
	Email       string            `json:"email"`
	FirstName   *string           `json:"first_name,omitempty"`
	LastName    *string           `json:"last_name,omitempty"`
	Status      domain.UserStatus `json:"status"`
	LastLoginAt *time.Time        `json:"last_login_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

func newUserSummary(user domain.User) UserSummary {
	return UserSummary{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Status:      user.Status,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

// SignupRequest defines the account registration payload.
type SignupRequest struct {
	Email     string  `json:"email" binding:"required"`
	Password  string  `json:"password" binding:"required"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// SignupResponse contains registration results and next steps.
type SignupResponse struct {
	User    UserSummary `json:"user"`
	Message string      `json:"message"`
}

// ConfirmEmailRequest holds the confirmation token payload.
type ConfirmEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse describes the response returned for a successful login.
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	User         UserSummary `json:"user"`
}

// LoginFailureResponse is returned when credentials are wrong but the account
// is not blocked yet. RemainingAttempts tells the caller how many tries are
// left before lockout.
type LoginFailureResponse struct {
	Error             string `json:"error"`
	RemainingAttempts int    `json:"remaining_attempts"`
	RequestID         string `json:"request_id,omitempty"`
}

// RefreshRequest represents the payload to refresh an access token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshResponse contains the access token issued by the refresh endpoint.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// LogoutRequest carries the refresh token to revoke.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ForgotPasswordRequest starts the reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest completes the reset flow.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// UpdateProfileRequest carries the mutable profile fields. Absent fields are
// left untouched.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// ActivityView is the API representation of an activity.
type ActivityView struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Notes       string     `json:"notes,omitempty"`
	Type        string     `json:"type"`
	State       string     `json:"state"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	RecordedAt  *time.Time `json:"recorded_at,omitempty"`
	Outcome     *string    `json:"outcome,omitempty"`
	Deleted     bool       `json:"deleted"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	DeleteNote  *string    `json:"deletion_reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func newActivityView(a domain.Activity) ActivityView {
	view := ActivityView{
		ID:        a.ID,
		Title:     a.Title,
		Notes:     a.Notes,
		Type:      string(a.Type),
		State:     "scheduled",
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}

	if a.Schedule != nil {
		at := a.Schedule.At
		view.ScheduledAt = &at
	}
	if a.Record != nil {
		at := a.Record.At
		outcome := string(a.Record.Outcome)
		view.State = "recorded"
		view.RecordedAt = &at
		view.Outcome = &outcome
	}
	if a.Deletion != nil {
		at := a.Deletion.At
		reason := a.Deletion.Reason
		view.Deleted = true
		view.DeletedAt = &at
		view.DeleteNote = &reason
	}

	return view
}

// CreateActivityRequest defines the activity creation payload. Exactly one of
// scheduled_at or recorded_at must be provided; title is mandatory only for
// the scheduled variant.
type CreateActivityRequest struct {
	Title       string     `json:"title"`
	Notes       string     `json:"notes"`
	Type        string     `json:"type" binding:"required"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	RecordedAt  *time.Time `json:"recorded_at"`
	Outcome     *string    `json:"outcome"`
}

// UpdateActivityRequest defines the activity edit payload.
type UpdateActivityRequest struct {
	Title       *string    `json:"title"`
	Notes       *string    `json:"notes"`
	Type        *string    `json:"type"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// CompleteActivityRequest records the outcome of a scheduled activity.
type CompleteActivityRequest struct {
	CompletedAt time.Time `json:"completed_at" binding:"required"`
	Outcome     string    `json:"outcome" binding:"required"`
}

// DeleteActivityRequest carries the mandatory soft-delete reason.
type DeleteActivityRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// DeleteActivityResponse confirms a soft delete and echoes the deleted
// activity with its deletion overlay applied.
type DeleteActivityResponse struct {
	Message  string       `json:"message"`
	Activity ActivityView `json:"activity"`
}

// ActivityStatsView summarizes a listing.
type ActivityStatsView struct {
	Total     int `json:"total"`
	Open      int `json:"open"`
	Completed int `json:"completed"`
}

// ActivityListResponse pairs a listing with its aggregate stats.
type ActivityListResponse struct {
	Activities []ActivityView    `json:"activities"`
	Stats      ActivityStatsView `json:"stats"`
}

// HealthResponse reports liveness information.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}
