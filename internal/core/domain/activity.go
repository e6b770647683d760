package domain

import (
	"errors"
	"time"
)

// ActivityType is a closed enumeration of activity categories.
type ActivityType string

const (
	ActivityTypeWork        ActivityType = "WORK"
	ActivityTypeMeeting     ActivityType = "MEETING"
	ActivityTypeAppointment ActivityType = "APPOINTMENT"
	ActivityTypeStudy       ActivityType = "STUDY"
	ActivityTypeExercise    ActivityType = "EXERCISE"
	ActivityTypeMedication  ActivityType = "MEDICATION"
	ActivityTypeMeal        ActivityType = "MEAL"
	ActivityTypeSleep       ActivityType = "SLEEP"
	ActivityTypeTravel      ActivityType = "TRAVEL"
	ActivityTypeShopping    ActivityType = "SHOPPING"
	ActivityTypeHousehold   ActivityType = "HOUSEHOLD"
	ActivityTypeFinance     ActivityType = "FINANCE"
	ActivityTypeSocial      ActivityType = "SOCIAL"
	ActivityTypeFamily      ActivityType = "FAMILY"
	ActivityTypeLeisure     ActivityType = "LEISURE"
	ActivityTypeOther       ActivityType = "OTHER"
)

var activityTypes = map[ActivityType]struct{}{
	ActivityTypeWork: {}, ActivityTypeMeeting: {}, ActivityTypeAppointment: {},
	ActivityTypeStudy: {}, ActivityTypeExercise: {}, ActivityTypeMedication: {},
	ActivityTypeMeal: {}, ActivityTypeSleep: {}, ActivityTypeTravel: {},
	ActivityTypeShopping: {}, ActivityTypeHousehold: {}, ActivityTypeFinance: {},
	ActivityTypeSocial: {}, ActivityTypeFamily: {}, ActivityTypeLeisure: {},
	ActivityTypeOther: {},
}

// IsValid reports whether the value is a member of the closed enum.
func (t ActivityType) IsValid() bool {
	_, ok := activityTypes[t]
	return ok
}

// CompletionOutcome records how a recorded activity went.
type CompletionOutcome string

const (
	OutcomeCompletedOK         CompletionOutcome = "COMPLETED_OK"
	OutcomeCompletedPartially  CompletionOutcome = "COMPLETED_PARTIALLY"
	OutcomeCompletedWithIssues CompletionOutcome = "COMPLETED_WITH_ISSUES"
	OutcomeNotCompleted        CompletionOutcome = "NOT_COMPLETED"
	OutcomeCancelled           CompletionOutcome = "CANCELLED"
)

var completionOutcomes = map[CompletionOutcome]struct{}{
	OutcomeCompletedOK: {}, OutcomeCompletedPartially: {},
	OutcomeCompletedWithIssues: {}, OutcomeNotCompleted: {}, OutcomeCancelled: {},
}

// IsValid reports whether the value is a member of the closed enum.
func (o CompletionOutcome) IsValid() bool {
	_, ok := completionOutcomes[o]
	return ok
}

// ActivitySchedule holds the state specific to a planned, future activity.
type ActivitySchedule struct {
	At time.Time
}

// ActivityRecord holds the state specific to a past, completed activity.
type ActivityRecord struct {
	At      time.Time
	Outcome CompletionOutcome
}

// ActivityDeletion is the soft-delete overlay. It applies uniformly to
// scheduled and recorded activities and is orthogonal to either state.
type ActivityDeletion struct {
	At     time.Time
	Reason string
}

var (
	// ErrActivityAlreadyRecorded indicates a one-way scheduled->recorded
	// transition was attempted a second time.
	ErrActivityAlreadyRecorded = errors.New("activity already recorded")
	// ErrActivityNotScheduled indicates the activity has no schedule to complete.
	ErrActivityNotScheduled = errors.New("activity is not scheduled")
	// ErrDeletionReasonRequired indicates soft delete was attempted without a reason.
	ErrDeletionReasonRequired = errors.New("deletion reason is required")
)

// Activity is either a scheduled or a recorded activity. Exactly one of
// Schedule/Record is set for a scheduled activity; Record alone is set once the
// activity has been recorded (Schedule is retained for audit after completion).
type Activity struct {
	ID        string
	UserID    string
	Title     string
	Notes     string
	Type      ActivityType
	Schedule  *ActivitySchedule
	Record    *ActivityRecord
	Deletion  *ActivityDeletion
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsScheduled reports whether the activity is still an open, planned item.
func (a Activity) IsScheduled() bool {
	return a.Schedule != nil && a.Record == nil
}

// IsRecorded reports whether the activity has a completion record.
func (a Activity) IsRecorded() bool {
	return a.Record != nil
}

// IsDeleted reports whether the soft-delete overlay is set.
func (a Activity) IsDeleted() bool {
	return a.Deletion != nil
}

// Complete performs the one-way scheduled->recorded transition.
// The schedule is kept so the original plan remains visible.
func (a *Activity) Complete(at time.Time, outcome CompletionOutcome) error {
	if a.Record != nil {
		return ErrActivityAlreadyRecorded
	}
	if a.Schedule == nil {
		return ErrActivityNotScheduled
	}
	a.Record = &ActivityRecord{At: at, Outcome: outcome}
	return nil
}

// SoftDelete sets the deletion overlay. There is no inverse operation: deleted
// rows stay queryable for audit and are only hidden by default in listings.
func (a *Activity) SoftDelete(at time.Time, reason string) error {
	if reason == "" {
		return ErrDeletionReasonRequired
	}
	a.Deletion = &ActivityDeletion{At: at, Reason: reason}
	return nil
}

// ActivityStats summarizes a user's non-deleted activities.
type ActivityStats struct {
	Total     int
	Open      int
	Completed int
}

// ComputeActivityStats partitions activities into scheduled and recorded and
// counts only rows without the deletion overlay.
func ComputeActivityStats(activities []Activity) ActivityStats {
	var stats ActivityStats
	for _, a := range activities {
		if a.IsDeleted() {
			continue
		}
		stats.Total++
		if a.IsRecorded() {
			stats.Completed++
		} else if a.IsScheduled() {
			stats.Open++
		}
	}
	return stats
}
