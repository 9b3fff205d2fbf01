package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reel-tracker/metrics-scheduler-go/internal/db"
	"github.com/reel-tracker/metrics-scheduler-go/internal/db/models"
)

// VideoRepository defines operations for managing tracked videos.
type VideoRepository interface {
	// UpsertVideo creates a new video or refreshes a known one. The publish
	// timestamp of an existing video is never overwritten.
	UpsertVideo(ctx context.Context, video *models.Video) error

	// GetVideoByID retrieves a single video by ID.
	GetVideoByID(ctx context.Context, videoID string) (*models.Video, error)

	// ListVideosByAccount retrieves the most recently published videos of an account.
	ListVideosByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Video, error)

	// ListVideosWithoutPendingSchedule retrieves videos that currently have no
	// pending measurement schedule, oldest published first.
	ListVideosWithoutPendingSchedule(ctx context.Context, limit int) ([]*models.Video, error)
}

type videoRepository struct {
	pool *pgxpool.Pool
}

// NewVideoRepository creates a new VideoRepository.
func NewVideoRepository(pool *pgxpool.Pool) VideoRepository {
	return &videoRepository{pool: pool}
}

func (r *videoRepository) UpsertVideo(ctx context.Context, video *models.Video) error {
	query := `
		INSERT INTO videos (video_id, shortcode, account_id, video_url, caption, published_at, first_seen_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (video_id) DO UPDATE
		SET video_url = EXCLUDED.video_url,
		    caption = EXCLUDED.caption,
		    updated_at = EXCLUDED.updated_at
		RETURNING published_at, first_seen_at, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		video.VideoID,
		video.Shortcode,
		video.AccountID,
		video.VideoURL,
		video.Caption,
		video.PublishedAt,
		video.FirstSeenAt,
		video.CreatedAt,
		video.UpdatedAt,
	).Scan(
		&video.PublishedAt,
		&video.FirstSeenAt,
		&video.CreatedAt,
		&video.UpdatedAt,
	)

	if err != nil {
		return db.WrapError(err, "upsert video")
	}

	return nil
}

func (r *videoRepository) GetVideoByID(ctx context.Context, videoID string) (*models.Video, error) {
	query := `
		SELECT video_id, shortcode, account_id, video_url, caption, published_at, first_seen_at, created_at, updated_at
		FROM videos
		WHERE video_id = $1
	`

	video := &models.Video{}
	err := r.pool.QueryRow(ctx, query, videoID).Scan(
		&video.VideoID,
		&video.Shortcode,
		&video.AccountID,
		&video.VideoURL,
		&video.Caption,
		&video.PublishedAt,
		&video.FirstSeenAt,
		&video.CreatedAt,
		&video.UpdatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, "get video by id")
	}

	return video, nil
}

func (r *videoRepository) ListVideosByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Video, error) {
	query := `
		SELECT video_id, shortcode, account_id, video_url, caption, published_at, first_seen_at, created_at, updated_at
		FROM videos
		WHERE account_id = $1
		ORDER BY published_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, db.WrapError(err, "list videos by account")
	}
	defer rows.Close()

	return scanVideos(rows)
}

func (r *videoRepository) ListVideosWithoutPendingSchedule(ctx context.Context, limit int) ([]*models.Video, error) {
	query := `
		SELECT v.video_id, v.shortcode, v.account_id, v.video_url, v.caption, v.published_at, v.first_seen_at, v.created_at, v.updated_at
		FROM videos v
		WHERE NOT EXISTS (
			SELECT 1 FROM metric_schedules s
			WHERE s.video_id = v.video_id AND s.status = 'pending'
		)
		ORDER BY v.published_at
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, db.WrapError(err, "list videos without pending schedule")
	}
	defer rows.Close()

	return scanVideos(rows)
}

// Helper function to scan multiple videos from query results
func scanVideos(rows pgx.Rows) ([]*models.Video, error) {
	var videos []*models.Video

	for rows.Next() {
		video := &models.Video{}
		err := rows.Scan(
			&video.VideoID,
			&video.Shortcode,
			&video.AccountID,
			&video.VideoURL,
			&video.Caption,
			&video.PublishedAt,
			&video.FirstSeenAt,
			&video.CreatedAt,
			&video.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}
