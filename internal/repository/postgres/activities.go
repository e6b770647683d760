package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FernandoZnga/schedula/internal/core/domain"
	"github.com/FernandoZnga/schedula/internal/core/port"
	"github.com/FernandoZnga/schedula/internal/repository"
)

// ActivityRepository implements port.ActivityRepository using PostgreSQL.
type ActivityRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewActivityRepository wires an activity repository backed by any executor
// that satisfies pgExecutor.
func NewActivityRepository(exec pgExecutor) *ActivityRepository {
	repo := &ActivityRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *ActivityRepository) WithTx(tx pgx.Tx) *ActivityRepository {
	if tx == nil {
		return r
	}
	return &ActivityRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

var activityColumns = []string{
	"id",
	"user_id",
	"activity_type",
	"title",
	"notes",
	"scheduled_at",
	"recorded_at",
	"outcome",
	"deleted_at",
	"deletion_reason",
	"created_at",
	"updated_at",
}

// activityRow is the flat persisted shape; the tagged variant is rebuilt on scan.
type activityRow struct {
	scheduledAt    *time.Time
	recordedAt     *time.Time
	outcome        *string
	deletedAt      *time.Time
	deletionReason *string
}

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var (
		activity domain.Activity
		flat     activityRow
	)

	if err := row.Scan(
		&activity.ID,
		&activity.UserID,
		&activity.Type,
		&activity.Title,
		&activity.Notes,
		&flat.scheduledAt,
		&flat.recordedAt,
		&flat.outcome,
		&flat.deletedAt,
		&flat.deletionReason,
		&activity.CreatedAt,
		&activity.UpdatedAt,
	); err != nil {
		return nil, translateError(err)
	}

	hydrateActivity(&activity, flat)
	return &activity, nil
}

func hydrateActivity(activity *domain.Activity, flat activityRow) {
	if flat.scheduledAt != nil {
		activity.Schedule = &domain.ActivitySchedule{At: *flat.scheduledAt}
	}
	if flat.recordedAt != nil {
		record := &domain.ActivityRecord{At: *flat.recordedAt}
		if flat.outcome != nil {
			record.Outcome = domain.CompletionOutcome(*flat.outcome)
		}
		activity.Record = record
	}
	if flat.deletedAt != nil {
		deletion := &domain.ActivityDeletion{At: *flat.deletedAt}
		if flat.deletionReason != nil {
			deletion.Reason = *flat.deletionReason
		}
		activity.Deletion = deletion
	}
}

func flattenActivity(activity domain.Activity) activityRow {
	var flat activityRow
	if activity.Schedule != nil {
		at := activity.Schedule.At.UTC()
		flat.scheduledAt = &at
	}
	if activity.Record != nil {
		at := activity.Record.At.UTC()
		outcome := string(activity.Record.Outcome)
		flat.recordedAt = &at
		flat.outcome = &outcome
	}
	if activity.Deletion != nil {
		at := activity.Deletion.At.UTC()
		reason := activity.Deletion.Reason
		flat.deletedAt = &at
		flat.deletionReason = &reason
	}
	return flat
}

// Create inserts a new activity row.
func (r *ActivityRepository) Create(ctx context.Context, activity domain.Activity) error {
	flat := flattenActivity(activity)

	stmt, args, err := r.builder.Insert("activities").
		Columns(activityColumns...).
		Values(
			activity.ID,
			activity.UserID,
			activity.Type,
			activity.Title,
			activity.Notes,
			flat.scheduledAt,
			flat.recordedAt,
			flat.outcome,
			flat.deletedAt,
			flat.deletionReason,
			activity.CreatedAt,
			activity.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert activity sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}

	return nil
}

// GetByID retrieves an activity for its owner. Another user's activity is
// reported as ErrNotFound.
func (r *ActivityRepository) GetByID(ctx context.Context, userID, id string) (*domain.Activity, error) {
	stmt, args, err := r.builder.
		Select(activityColumns...).
		From("activities").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select activity sql: %w", err)
	}

	return scanActivity(r.exec.QueryRow(ctx, stmt, args...))
}

// Update rewrites the mutable columns of an activity row.
func (r *ActivityRepository) Update(ctx context.Context, activity domain.Activity) error {
	flat := flattenActivity(activity)

	stmt, args, err := r.builder.Update("activities").
		Set("activity_type", activity.Type).
		Set("title", activity.Title).
		Set("notes", activity.Notes).
		Set("scheduled_at", flat.scheduledAt).
		Set("recorded_at", flat.recordedAt).
		Set("outcome", flat.outcome).
		Set("deleted_at", flat.deletedAt).
		Set("deletion_reason", flat.deletionReason).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": activity.ID, "user_id": activity.UserID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update activity sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListByUser returns the owner's activities, newest first. Deleted rows are
// excluded unless the filter opts in; the date range matches the scheduled
// timestamp for open items and the recorded one for completed items.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID string, filter port.ActivityFilter) ([]domain.Activity, error) {
	query := r.builder.
		Select(activityColumns...).
		From("activities").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC")

	if !filter.IncludeDeleted {
		query = query.Where("deleted_at IS NULL")
	}

	if filter.From != nil {
		query = query.Where("COALESCE(recorded_at, scheduled_at) >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("COALESCE(recorded_at, scheduled_at) <= ?", filter.To.UTC())
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select activities sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select activities: %w", err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		var (
			activity domain.Activity
			flat     activityRow
		)
		if err := rows.Scan(
			&activity.ID,
			&activity.UserID,
			&activity.Type,
			&activity.Title,
			&activity.Notes,
			&flat.scheduledAt,
			&flat.recordedAt,
			&flat.outcome,
			&flat.deletedAt,
			&flat.deletionReason,
			&activity.CreatedAt,
			&activity.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		hydrateActivity(&activity, flat)
		activities = append(activities, activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}

	return activities, nil
}

var _ port.ActivityRepository = (*ActivityRepository)(nil)
