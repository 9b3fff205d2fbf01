package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reel-tracker/metrics-scheduler-go/internal/db"
	"github.com/reel-tracker/metrics-scheduler-go/internal/db/models"
)

// SnapshotRepository defines operations for recorded engagement snapshots.
// Snapshots are append-only; there is no update or delete.
type SnapshotRepository interface {
	// CreateSnapshot persists a new snapshot.
	CreateSnapshot(ctx context.Context, snapshot *models.MetricsSnapshot) error

	// ListSnapshotsByVideo retrieves a video's snapshots, newest first.
	ListSnapshotsByVideo(ctx context.Context, videoID string, limit int) ([]*models.MetricsSnapshot, error)
}

type snapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(pool *pgxpool.Pool) SnapshotRepository {
	return &snapshotRepository{pool: pool}
}

func (r *snapshotRepository) CreateSnapshot(ctx context.Context, snapshot *models.MetricsSnapshot) error {
	query := `
		INSERT INTO metrics_snapshots (id, video_id, view_count, like_count, comment_count, follower_count, measured_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		snapshot.ID,
		snapshot.VideoID,
		snapshot.ViewCount,
		snapshot.LikeCount,
		snapshot.CommentCount,
		snapshot.FollowerCount,
		snapshot.MeasuredAt,
		snapshot.CreatedAt,
	)

	if err != nil {
		return db.WrapError(err, "create snapshot")
	}

	return nil
}

func (r *snapshotRepository) ListSnapshotsByVideo(ctx context.Context, videoID string, limit int) ([]*models.MetricsSnapshot, error) {
	query := `
		SELECT id, video_id, view_count, like_count, comment_count, follower_count, measured_at, created_at
		FROM metrics_snapshots
		WHERE video_id = $1
		ORDER BY measured_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, videoID, limit)
	if err != nil {
		return nil, db.WrapError(err, "list snapshots by video")
	}
	defer rows.Close()

	var snapshots []*models.MetricsSnapshot
	for rows.Next() {
		snapshot := &models.MetricsSnapshot{}
		err := rows.Scan(
			&snapshot.ID,
			&snapshot.VideoID,
			&snapshot.ViewCount,
			&snapshot.LikeCount,
			&snapshot.CommentCount,
			&snapshot.FollowerCount,
			&snapshot.MeasuredAt,
			&snapshot.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	return snapshots, nil
}
