package models

import (
	"time"

	"github.com/google/uuid"
)

// MetricsSnapshot is one recorded set of engagement counts for a video.
// Snapshots are append-only; counts are never negative.
type MetricsSnapshot struct {
	ID            uuid.UUID `db:"id"`
	VideoID       string    `db:"video_id"`
	ViewCount     int64     `db:"view_count"`
	LikeCount     int64     `db:"like_count"`
	CommentCount  int64     `db:"comment_count"`
	FollowerCount int64     `db:"follower_count"`
	MeasuredAt    time.Time `db:"measured_at"`
	CreatedAt     time.Time `db:"created_at"`
}

// NewMetricsSnapshot creates a snapshot of the given counts measured at the
// given instant.
func NewMetricsSnapshot(videoID string, viewCount, likeCount, commentCount, followerCount int64, measuredAt time.Time) *MetricsSnapshot {
	return &MetricsSnapshot{
		ID:            uuid.New(),
		VideoID:       videoID,
		ViewCount:     viewCount,
		LikeCount:     likeCount,
		CommentCount:  commentCount,
		FollowerCount: followerCount,
		MeasuredAt:    measuredAt,
		CreatedAt:     time.Now().UTC(),
	}
}
