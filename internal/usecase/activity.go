package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FernandoZnga/schedula/internal/core/domain"
	"github.com/FernandoZnga/schedula/internal/core/port"
	"github.com/FernandoZnga/schedula/internal/repository"
)

var (
	// ErrActivityNotFound covers both missing rows and rows owned by someone
	// else; a caller cannot tell the two apart.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrActivityRecorded indicates the activity is already completed and can
	// no longer be edited or completed again.
	ErrActivityRecorded = errors.New("activity already recorded")
	// ErrActivityStateConflict indicates the request supplied both or neither
	// of the scheduled/recorded variants.
	ErrActivityStateConflict = errors.New("activity must be either scheduled or recorded")
	// ErrScheduleNotFuture indicates a schedule timestamp that is not strictly
	// in the future.
	ErrScheduleNotFuture = errors.New("scheduled time must be in the future")
	// ErrRecordNotPast indicates a completion timestamp that is not strictly
	// in the past.
	ErrRecordNotPast = errors.New("recorded time must be in the past")
	// ErrInvalidActivityType indicates a value outside the activity type enum.
	ErrInvalidActivityType = errors.New("invalid activity type")
	// ErrInvalidOutcome indicates a value outside the completion outcome enum.
	ErrInvalidOutcome = errors.New("invalid completion outcome")
	// ErrTitleRequired indicates a missing activity title.
	ErrTitleRequired = errors.New("title is required")
	// ErrDeleteReasonRequired indicates soft delete was attempted without a reason.
	ErrDeleteReasonRequired = errors.New("deletion reason is required")
)

// CreateActivityInput carries the fields for a new activity. Exactly one of
// ScheduledAt or RecordedAt must be set; Outcome accompanies RecordedAt.
type CreateActivityInput struct {
	Title       string
	Notes       string
	Type        domain.ActivityType
	ScheduledAt *time.Time
	RecordedAt  *time.Time
	Outcome     *domain.CompletionOutcome
}

// UpdateActivityInput carries the mutable fields of a scheduled activity.
// Nil pointers leave the field untouched.
type UpdateActivityInput struct {
	Title       *string
	Notes       *string
	Type        *domain.ActivityType
	ScheduledAt *time.Time
}

// ActivityListResult pairs the filtered listing with its aggregate stats.
type ActivityListResult struct {
	Activities []domain.Activity
	Stats      domain.ActivityStats
}

// ActivityService is the lifecycle rules engine for activities.
type ActivityService struct {
	activities port.ActivityRepository
	events     port.EventPublisher
	log        *zap.Logger
	// now is swappable for tests.
	now func() time.Time
}

// NewActivityService constructs an activity service.
func NewActivityService(activities port.ActivityRepository, events port.EventPublisher, log *zap.Logger) *ActivityService {
	return &ActivityService{
		activities: activities,
		events:     events,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and stores a new activity. A scheduled activity needs a
// title and a strictly future timestamp; a recorded one needs a strictly past
// timestamp and an outcome, and may omit the title.
func (s *ActivityService) Create(ctx context.Context, userID string, input CreateActivityInput) (domain.Activity, error) {
	title := strings.TrimSpace(input.Title)
	if !input.Type.IsValid() {
		return domain.Activity{}, ErrInvalidActivityType
	}

	hasSchedule := input.ScheduledAt != nil
	hasRecord := input.RecordedAt != nil
	if hasSchedule == hasRecord {
		return domain.Activity{}, ErrActivityStateConflict
	}

	now := s.now()
	activity := domain.Activity{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Notes:     strings.TrimSpace(input.Notes),
		Type:      input.Type,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if hasSchedule {
		if title == "" {
			return domain.Activity{}, ErrTitleRequired
		}
		if !input.ScheduledAt.After(now) {
			return domain.Activity{}, ErrScheduleNotFuture
		}
		activity.Schedule = &domain.ActivitySchedule{At: input.ScheduledAt.UTC()}
	} else {
		if input.Outcome == nil || !input.Outcome.IsValid() {
			return domain.Activity{}, ErrInvalidOutcome
		}
		if !input.RecordedAt.Before(now) {
			return domain.Activity{}, ErrRecordNotPast
		}
		activity.Record = &domain.ActivityRecord{At: input.RecordedAt.UTC(), Outcome: *input.Outcome}
	}

	if err := s.activities.Create(ctx, activity); err != nil {
		return domain.Activity{}, fmt.Errorf("create activity: %w", err)
	}

	return activity, nil
}

// Get returns an owner's activity by id.
func (s *ActivityService) Get(ctx context.Context, userID, activityID string) (domain.Activity, error) {
	activity, err := s.activities.GetByID(ctx, userID, activityID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Activity{}, ErrActivityNotFound
		}
		return domain.Activity{}, fmt.Errorf("lookup activity: %w", err)
	}
	return *activity, nil
}

// Update edits a scheduled activity. Recorded activities are immutable.
func (s *ActivityService) Update(ctx context.Context, userID, activityID string, input UpdateActivityInput) (domain.Activity, error) {
	activity, err := s.Get(ctx, userID, activityID)
	if err != nil {
		return domain.Activity{}, err
	}

	if activity.IsRecorded() {
		return domain.Activity{}, ErrActivityRecorded
	}
	if activity.IsDeleted() {
		return domain.Activity{}, ErrActivityNotFound
	}

	now := s.now()

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return domain.Activity{}, ErrTitleRequired
		}
		activity.Title = title
	}
	if input.Notes != nil {
		activity.Notes = strings.TrimSpace(*input.Notes)
	}
	if input.Type != nil {
		if !input.Type.IsValid() {
			return domain.Activity{}, ErrInvalidActivityType
		}
		activity.Type = *input.Type
	}
	if input.ScheduledAt != nil {
		if !input.ScheduledAt.After(now) {
			return domain.Activity{}, ErrScheduleNotFuture
		}
		activity.Schedule = &domain.ActivitySchedule{At: input.ScheduledAt.UTC()}
	}

	activity.UpdatedAt = now

	if err := s.activities.Update(ctx, activity); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Activity{}, ErrActivityNotFound
		}
		return domain.Activity{}, fmt.Errorf("update activity: %w", err)
	}

	return activity, nil
}

// Complete performs the one-way scheduled-to-recorded transition. The
// completion timestamp must be strictly in the past.
func (s *ActivityService) Complete(ctx context.Context, userID, activityID string, at time.Time, outcome domain.CompletionOutcome) (domain.Activity, error) {
	if !outcome.IsValid() {
		return domain.Activity{}, ErrInvalidOutcome
	}

	activity, err := s.Get(ctx, userID, activityID)
	if err != nil {
		return domain.Activity{}, err
	}

	if activity.IsDeleted() {
		return domain.Activity{}, ErrActivityNotFound
	}

	now := s.now()
	if !at.Before(now) {
		return domain.Activity{}, ErrRecordNotPast
	}

	if err := activity.Complete(at.UTC(), outcome); err != nil {
		switch {
		case errors.Is(err, domain.ErrActivityAlreadyRecorded):
			return domain.Activity{}, ErrActivityRecorded
		case errors.Is(err, domain.ErrActivityNotScheduled):
			return domain.Activity{}, ErrActivityStateConflict
		default:
			return domain.Activity{}, err
		}
	}
	activity.UpdatedAt = now

	if err := s.activities.Update(ctx, activity); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Activity{}, ErrActivityNotFound
		}
		return domain.Activity{}, fmt.Errorf("complete activity: %w", err)
	}

	s.publishCompleted(ctx, activity)

	return activity, nil
}

func (s *ActivityService) publishCompleted(ctx context.Context, activity domain.Activity) {
	if s.events == nil || activity.Record == nil {
		return
	}

	event := domain.ActivityCompletedEvent{
		EventID:     uuid.NewString(),
		UserID:      activity.UserID,
		ActivityID:  activity.ID,
		Outcome:     activity.Record.Outcome,
		CompletedAt: activity.Record.At,
	}

	if err := s.events.PublishActivityCompleted(ctx, event); err != nil && s.log != nil {
		s.log.Warn("publish activity completed event failed", zap.Error(err))
	}
}

// Delete applies the soft-delete overlay and returns the deleted view. There
// is no undo; deleted rows stay queryable with the include-deleted listing flag.
func (s *ActivityService) Delete(ctx context.Context, userID, activityID, reason string) (domain.Activity, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.Activity{}, ErrDeleteReasonRequired
	}

	activity, err := s.Get(ctx, userID, activityID)
	if err != nil {
		return domain.Activity{}, err
	}

	if activity.IsDeleted() {
		return domain.Activity{}, ErrActivityNotFound
	}

	now := s.now()
	if err := activity.SoftDelete(now, reason); err != nil {
		if errors.Is(err, domain.ErrDeletionReasonRequired) {
			return domain.Activity{}, ErrDeleteReasonRequired
		}
		return domain.Activity{}, err
	}
	activity.UpdatedAt = now

	if err := s.activities.Update(ctx, activity); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Activity{}, ErrActivityNotFound
		}
		return domain.Activity{}, fmt.Errorf("delete activity: %w", err)
	}

	return activity, nil
}

// List returns the owner's activities with aggregate stats. Stats always count
// non-deleted rows only, regardless of the include-deleted flag.
func (s *ActivityService) List(ctx context.Context, userID string, filter port.ActivityFilter) (ActivityListResult, error) {
	activities, err := s.activities.ListByUser(ctx, userID, filter)
	if err != nil {
		return ActivityListResult{}, fmt.Errorf("list activities: %w", err)
	}

	return ActivityListResult{
		Activities: activities,
		Stats:      domain.ComputeActivityStats(activities),
	}, nil
}
