package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/FernandoZnga/schedula/internal/core/domain"
	"github.com/FernandoZnga/schedula/internal/core/port"
	"github.com/FernandoZnga/schedula/internal/repository"
)

func newActivityMock(t *testing.T) (pgxmock.PgxPoolIface, *ActivityRepository) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	return mock, NewActivityRepository(mock)
}

func TestActivityRepository_Create(t *testing.T) {
	mock, repo := newActivityMock(t)

	now := time.Now().UTC()
	scheduledAt := now.Add(48 * time.Hour)
	activity := domain.Activity{
		ID:        "act-1",
		UserID:    "user-1",
		Type:      domain.ActivityTypeMeeting,
		Title:     "Quarterly review",
		Notes:     "bring the slides",
		Schedule:  &domain.ActivitySchedule{At: scheduledAt},
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectExec(`INSERT INTO activities`).
		WithArgs(
			activity.ID, activity.UserID, activity.Type, activity.Title, activity.Notes,
			&scheduledAt, (*time.Time)(nil), (*string)(nil), (*time.Time)(nil), (*string)(nil),
			activity.CreatedAt, activity.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), activity); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestActivityRepository_GetByID(t *testing.T) {
	mock, repo := newActivityMock(t)

	now := time.Now().UTC()
	recordedAt := now.Add(-time.Hour)
	outcome := string(domain.OutcomeCompletedOK)

	mock.ExpectQuery(`SELECT .+ FROM activities WHERE id = \$1 AND user_id = \$2`).
		WithArgs("act-1", "user-1").
		WillReturnRows(pgxmock.NewRows(activityColumns).
			AddRow("act-1", "user-1", domain.ActivityTypeExercise, "Morning run", "",
				nil, &recordedAt, &outcome, nil, nil, now, now))

	activity, err := repo.GetByID(context.Background(), "user-1", "act-1")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if activity.Record == nil || !activity.Record.At.Equal(recordedAt) {
		t.Fatalf("expected recorded activity, got %+v", activity)
	}
	if activity.Record.Outcome != domain.OutcomeCompletedOK {
		t.Fatalf("unexpected outcome %q", activity.Record.Outcome)
	}
	if activity.Schedule != nil || activity.Deletion != nil {
		t.Fatalf("unexpected schedule or deletion: %+v", activity)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestActivityRepository_GetByIDWrongOwner(t *testing.T) {
	mock, repo := newActivityMock(t)

	mock.ExpectQuery(`SELECT .+ FROM activities`).
		WithArgs("act-1", "intruder").
		WillReturnRows(pgxmock.NewRows(activityColumns))

	if _, err := repo.GetByID(context.Background(), "intruder", "act-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActivityRepository_Update(t *testing.T) {
	mock, repo := newActivityMock(t)

	now := time.Now().UTC()
	deletedAt := now
	activity := domain.Activity{
		ID:       "act-1",
		UserID:   "user-1",
		Type:     domain.ActivityTypeHousehold,
		Title:    "Fix the fence",
		Deletion: &domain.ActivityDeletion{At: deletedAt, Reason: "duplicate entry"},
	}
	reason := "duplicate entry"

	mock.ExpectExec(`UPDATE activities SET`).
		WithArgs(
			activity.Type, activity.Title, activity.Notes,
			(*time.Time)(nil), (*time.Time)(nil), (*string)(nil),
			&deletedAt, &reason, pgxmock.AnyArg(),
			activity.ID, activity.UserID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.Update(context.Background(), activity); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestActivityRepository_UpdateNotFound(t *testing.T) {
	mock, repo := newActivityMock(t)

	mock.ExpectExec(`UPDATE activities SET`).
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			"ghost", "user-1",
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	activity := domain.Activity{ID: "ghost", UserID: "user-1", Type: domain.ActivityTypeOther, Title: "x"}
	if err := repo.Update(context.Background(), activity); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActivityRepository_ListByUserExcludesDeleted(t *testing.T) {
	mock, repo := newActivityMock(t)

	now := time.Now().UTC()
	scheduledAt := now.Add(24 * time.Hour)

	mock.ExpectQuery(`SELECT .+ FROM activities WHERE user_id = \$1 AND deleted_at IS NULL ORDER BY created_at DESC`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(activityColumns).
			AddRow("act-1", "user-1", domain.ActivityTypeStudy, "Read chapter 4", "",
				&scheduledAt, nil, nil, nil, nil, now, now))

	activities, err := repo.ListByUser(context.Background(), "user-1", port.ActivityFilter{})
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}
	if len(activities) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(activities))
	}
	if activities[0].Schedule == nil || !activities[0].Schedule.At.Equal(scheduledAt) {
		t.Fatalf("expected scheduled activity, got %+v", activities[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestActivityRepository_ListByUserDateRange(t *testing.T) {
	mock, repo := newActivityMock(t)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	filter := port.ActivityFilter{IncludeDeleted: true, From: &from, To: &to}

	mock.ExpectQuery(`SELECT .+ FROM activities WHERE user_id = \$1 AND COALESCE\(recorded_at, scheduled_at\) >= \$2 AND COALESCE\(recorded_at, scheduled_at\) <= \$3 ORDER BY created_at DESC`).
		WithArgs("user-1", from, to).
		WillReturnRows(pgxmock.NewRows(activityColumns))

	activities, err := repo.ListByUser(context.Background(), "user-1", filter)
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}
	if len(activities) != 0 {
		t.Fatalf("expected no activities, got %d", len(activities))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
