// Package platform talks to the remote social platform API. It exposes the
// narrow surface the scheduler needs: current engagement numbers for one
// video, and an account's recently published videos for discovery.
package platform

import (
	"context"
	"time"
)

// Metrics is one engagement reading for a video. View and follower counts
// are nullable on the remote side; consumers decide how to coerce them.
type Metrics struct {
	ViewCount     *int64 `json:"view_count"`
	LikeCount     int64  `json:"like_count"`
	CommentCount  int64  `json:"comment_count"`
	FollowerCount *int64 `json:"follower_count"`
}

// RemoteVideo is a video as reported by the platform's listing endpoint.
type RemoteVideo struct {
	VideoID     string    `json:"video_id"`
	Shortcode   string    `json:"shortcode"`
	VideoURL    string    `json:"video_url"`
	Caption     string    `json:"caption"`
	PublishedAt time.Time `json:"published_at"`
}

// Fetcher returns current engagement numbers for a single video.
type Fetcher interface {
	FetchMetrics(ctx context.Context, videoID string) (*Metrics, error)
}

// Lister discovers an account's recently published videos.
type Lister interface {
	RecentVideos(ctx context.Context, accountID int64, limit int) ([]*RemoteVideo, error)
}
