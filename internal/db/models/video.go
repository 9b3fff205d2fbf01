package models

import "time"

// Video represents a short-form video whose engagement we're tracking.
// PublishedAt is immutable once the video is first stored.
type Video struct {
	VideoID     string    `db:"video_id"`
	Shortcode   string    `db:"shortcode"`
	AccountID   int64     `db:"account_id"`
	VideoURL    string    `db:"video_url"`
	Caption     string    `db:"caption"`
	PublishedAt time.Time `db:"published_at"`
	FirstSeenAt time.Time `db:"first_seen_at"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// NewVideo creates a new Video with the given information.
func NewVideo(videoID, shortcode string, accountID int64, videoURL string, publishedAt time.Time) *Video {
	now := time.Now().UTC()
	return &Video{
		VideoID:     videoID,
		Shortcode:   shortcode,
		AccountID:   accountID,
		VideoURL:    videoURL,
		PublishedAt: publishedAt,
		FirstSeenAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Age returns how long the video has been published as of now.
func (v *Video) Age(now time.Time) time.Duration {
	return now.Sub(v.PublishedAt)
}
