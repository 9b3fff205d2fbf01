package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reel-tracker/metrics-scheduler-go/internal/db"
	"github.com/reel-tracker/metrics-scheduler-go/internal/db/models"
)

// ScheduleRepository defines operations for managing measurement schedules.
type ScheduleRepository interface {
	// CreateSchedule persists a new schedule.
	CreateSchedule(ctx context.Context, schedule *models.MetricSchedule) error

	// GetScheduleByID retrieves a single schedule.
	GetScheduleByID(ctx context.Context, id uuid.UUID) (*models.MetricSchedule, error)

	// ListDueSchedules retrieves pending schedules whose scheduled time is at
	// or before now, oldest first.
	ListDueSchedules(ctx context.Context, now time.Time) ([]*models.MetricSchedule, error)

	// ListPendingByVideo retrieves a video's pending schedules.
	ListPendingByVideo(ctx context.Context, videoID string) ([]*models.MetricSchedule, error)

	// ListCompletedByVideo retrieves a video's completed schedules, most
	// recently scheduled first. Kind narrows the result when non-empty.
	ListCompletedByVideo(ctx context.Context, videoID string, kind models.ScheduleKind) ([]*models.MetricSchedule, error)

	// MarkScheduleCompleted transitions a schedule to completed.
	MarkScheduleCompleted(ctx context.Context, id uuid.UUID, at time.Time) error

	// MarkScheduleFailed transitions a schedule to failed.
	MarkScheduleFailed(ctx context.Context, id uuid.UUID, at time.Time) error

	// MarkSchedulePending returns a schedule to pending for replay.
	MarkSchedulePending(ctx context.Context, id uuid.UUID) error

	// CountSchedulesByStatus returns the number of schedules per status.
	CountSchedulesByStatus(ctx context.Context) (map[models.ScheduleStatus]int64, error)
}

type scheduleRepository struct {
	pool *pgxpool.Pool
}

// NewScheduleRepository creates a new ScheduleRepository.
func NewScheduleRepository(pool *pgxpool.Pool) ScheduleRepository {
	return &scheduleRepository{pool: pool}
}

func (r *scheduleRepository) CreateSchedule(ctx context.Context, schedule *models.MetricSchedule) error {
	query := `
		INSERT INTO metric_schedules (id, video_id, kind, scheduled_at, status, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		schedule.ID,
		schedule.VideoID,
		schedule.Kind,
		schedule.ScheduledAt,
		schedule.Status,
		schedule.CompletedAt,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)

	if err != nil {
		return db.WrapError(err, "create schedule")
	}

	return nil
}

func (r *scheduleRepository) GetScheduleByID(ctx context.Context, id uuid.UUID) (*models.MetricSchedule, error) {
	query := `
		SELECT id, video_id, kind, scheduled_at, status, completed_at, created_at, updated_at
		FROM metric_schedules
		WHERE id = $1
	`

	schedule := &models.MetricSchedule{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&schedule.ID,
		&schedule.VideoID,
		&schedule.Kind,
		&schedule.ScheduledAt,
		&schedule.Status,
		&schedule.CompletedAt,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, "get schedule by id")
	}

	return schedule, nil
}

func (r *scheduleRepository) ListDueSchedules(ctx context.Context, now time.Time) ([]*models.MetricSchedule, error) {
	query := `
		SELECT id, video_id, kind, scheduled_at, status, completed_at, created_at, updated_at
		FROM metric_schedules
		WHERE status = 'pending' AND scheduled_at <= $1
		ORDER BY scheduled_at
	`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, db.WrapError(err, "list due schedules")
	}
	defer rows.Close()

	return scanSchedules(rows)
}

func (r *scheduleRepository) ListPendingByVideo(ctx context.Context, videoID string) ([]*models.MetricSchedule, error) {
	query := `
		SELECT id, video_id, kind, scheduled_at, status, completed_at, created_at, updated_at
		FROM metric_schedules
		WHERE video_id = $1 AND status = 'pending'
		ORDER BY scheduled_at
	`

	rows, err := r.pool.Query(ctx, query, videoID)
	if err != nil {
		return nil, db.WrapError(err, "list pending schedules by video")
	}
	defer rows.Close()

	return scanSchedules(rows)
}

func (r *scheduleRepository) ListCompletedByVideo(ctx context.Context, videoID string, kind models.ScheduleKind) ([]*models.MetricSchedule, error) {
	query := `
		SELECT id, video_id, kind, scheduled_at, status, completed_at, created_at, updated_at
		FROM metric_schedules
		WHERE video_id = $1 AND status = 'completed' AND ($2 = '' OR kind = $2)
		ORDER BY scheduled_at DESC
	`

	rows, err := r.pool.Query(ctx, query, videoID, string(kind))
	if err != nil {
		return nil, db.WrapError(err, "list completed schedules by video")
	}
	defer rows.Close()

	return scanSchedules(rows)
}

func (r *scheduleRepository) MarkScheduleCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.setStatus(ctx, id, models.ScheduleCompleted, &at, "mark schedule completed")
}

func (r *scheduleRepository) MarkScheduleFailed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.setStatus(ctx, id, models.ScheduleFailed, &at, "mark schedule failed")
}

func (r *scheduleRepository) MarkSchedulePending(ctx context.Context, id uuid.UUID) error {
	return r.setStatus(ctx, id, models.SchedulePending, nil, "mark schedule pending")
}

func (r *scheduleRepository) setStatus(ctx context.Context, id uuid.UUID, status models.ScheduleStatus, completedAt *time.Time, operation string) error {
	query := `
		UPDATE metric_schedules
		SET status = $2, completed_at = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, status, completedAt, time.Now().UTC())
	if err != nil {
		return db.WrapError(err, operation)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", operation, db.ErrNotFound)
	}

	return nil
}

func (r *scheduleRepository) CountSchedulesByStatus(ctx context.Context) (map[models.ScheduleStatus]int64, error) {
	query := `
		SELECT status, COUNT(*)
		FROM metric_schedules
		GROUP BY status
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "count schedules by status")
	}
	defer rows.Close()

	counts := make(map[models.ScheduleStatus]int64)
	for rows.Next() {
		var status models.ScheduleStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan schedule count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule counts: %w", err)
	}

	return counts, nil
}

// Helper function to scan multiple schedules from query results
func scanSchedules(rows pgx.Rows) ([]*models.MetricSchedule, error) {
	var schedules []*models.MetricSchedule

	for rows.Next() {
		schedule := &models.MetricSchedule{}
		err := rows.Scan(
			&schedule.ID,
			&schedule.VideoID,
			&schedule.Kind,
			&schedule.ScheduledAt,
			&schedule.Status,
			&schedule.CompletedAt,
			&schedule.CreatedAt,
			&schedule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}

	return schedules, nil
}
