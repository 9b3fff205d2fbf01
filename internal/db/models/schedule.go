package models

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleKind identifies which measurement slot a schedule covers: one of
// the fixed milestones after publication, or the recurring daily cadence.
type ScheduleKind string

const (
	KindH1    ScheduleKind = "h1"
	KindH3    ScheduleKind = "h3"
	KindH24   ScheduleKind = "h24"
	KindH48   ScheduleKind = "h48"
	KindH72   ScheduleKind = "h72"
	KindDaily ScheduleKind = "daily"
)

// ScheduleStatus is the lifecycle state of a MetricSchedule.
type ScheduleStatus string

const (
	SchedulePending   ScheduleStatus = "pending"
	ScheduleCompleted ScheduleStatus = "completed"
	ScheduleFailed    ScheduleStatus = "failed"
)

// MetricSchedule is one planned measurement of a video's engagement.
// ScheduledAt is fixed at creation; only the status fields change afterwards.
type MetricSchedule struct {
	ID          uuid.UUID      `db:"id"`
	VideoID     string         `db:"video_id"`
	Kind        ScheduleKind   `db:"kind"`
	ScheduledAt time.Time      `db:"scheduled_at"`
	Status      ScheduleStatus `db:"status"`
	CompletedAt *time.Time     `db:"completed_at"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// NewMetricSchedule creates a pending schedule for the given video and slot.
func NewMetricSchedule(videoID string, kind ScheduleKind, scheduledAt time.Time) *MetricSchedule {
	now := time.Now().UTC()
	return &MetricSchedule{
		ID:          uuid.New(),
		VideoID:     videoID,
		Kind:        kind,
		ScheduledAt: scheduledAt,
		Status:      SchedulePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsDue reports whether the schedule is pending and its time has arrived.
func (s *MetricSchedule) IsDue(now time.Time) bool {
	return s.Status == SchedulePending && !s.ScheduledAt.After(now)
}

// MarkCompleted marks the schedule as completed at the given instant.
func (s *MetricSchedule) MarkCompleted(at time.Time) {
	s.Status = ScheduleCompleted
	s.CompletedAt = &at
	s.UpdatedAt = at
}

// MarkFailed marks the schedule as failed at the given instant.
func (s *MetricSchedule) MarkFailed(at time.Time) {
	s.Status = ScheduleFailed
	s.CompletedAt = &at
	s.UpdatedAt = at
}

// MarkPending returns the schedule to the pending state, clearing its
// completion timestamp. Used by operator-driven replays of failed schedules.
func (s *MetricSchedule) MarkPending() {
	s.Status = SchedulePending
	s.CompletedAt = nil
	s.UpdatedAt = time.Now().UTC()
}
