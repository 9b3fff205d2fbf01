// Package memstore provides in-memory implementations of the repository
// interfaces. It backs the engine tests and serves as a lightweight store
// for local experimentation; it is not safe for multi-process use.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reel-tracker/metrics-scheduler-go/internal/db"
	"github.com/reel-tracker/metrics-scheduler-go/internal/db/models"
)

// Store holds all records behind a single mutex. One Store implements every
// repository interface the scheduling engine consumes.
type Store struct {
	mu        sync.RWMutex
	accounts  map[int64]*models.Account
	videos    map[string]*models.Video
	schedules map[uuid.UUID]*models.MetricSchedule
	snapshots []*models.MetricsSnapshot
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		accounts:  make(map[int64]*models.Account),
		videos:    make(map[string]*models.Video),
		schedules: make(map[uuid.UUID]*models.MetricSchedule),
	}
}

// AccountRepository

func (s *Store) UpsertAccount(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *account
	s.accounts[account.ID] = &copied
	return nil
}

func (s *Store) GetAccountByID(_ context.Context, id int64) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("get account by id: %w", db.ErrNotFound)
	}
	copied := *account
	return &copied, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]*models.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		copied := *account
		accounts = append(accounts, &copied)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Username < accounts[j].Username })
	return accounts, nil
}

// VideoRepository

func (s *Store) UpsertVideo(_ context.Context, video *models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.videos[video.VideoID]; ok {
		// Publish timestamp and first-seen are immutable on refresh.
		existing.VideoURL = video.VideoURL
		existing.Caption = video.Caption
		existing.UpdatedAt = video.UpdatedAt
		video.PublishedAt = existing.PublishedAt
		video.FirstSeenAt = existing.FirstSeenAt
		return nil
	}

	copied := *video
	s.videos[video.VideoID] = &copied
	return nil
}

func (s *Store) GetVideoByID(_ context.Context, videoID string) (*models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	video, ok := s.videos[videoID]
	if !ok {
		return nil, fmt.Errorf("get video by id: %w", db.ErrNotFound)
	}
	copied := *video
	return &copied, nil
}

func (s *Store) ListVideosByAccount(_ context.Context, accountID int64, limit int) ([]*models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var videos []*models.Video
	for _, video := range s.videos {
		if video.AccountID == accountID {
			copied := *video
			videos = append(videos, &copied)
		}
	}
	sort.Slice(videos, func(i, j int) bool { return videos[i].PublishedAt.After(videos[j].PublishedAt) })
	if limit > 0 && len(videos) > limit {
		videos = videos[:limit]
	}
	return videos, nil
}

func (s *Store) ListVideosWithoutPendingSchedule(_ context.Context, limit int) ([]*models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := make(map[string]bool)
	for _, schedule := range s.schedules {
		if schedule.Status == models.SchedulePending {
			pending[schedule.VideoID] = true
		}
	}

	var videos []*models.Video
	for _, video := range s.videos {
		if !pending[video.VideoID] {
			copied := *video
			videos = append(videos, &copied)
		}
	}
	sort.Slice(videos, func(i, j int) bool { return videos[i].PublishedAt.Before(videos[j].PublishedAt) })
	if limit > 0 && len(videos) > limit {
		videos = videos[:limit]
	}
	return videos, nil
}

// ScheduleRepository

func (s *Store) CreateSchedule(_ context.Context, schedule *models.MetricSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[schedule.ID]; ok {
		return fmt.Errorf("create schedule: %w", db.ErrDuplicateKey)
	}
	copied := *schedule
	s.schedules[schedule.ID] = &copied
	return nil
}

func (s *Store) GetScheduleByID(_ context.Context, id uuid.UUID) (*models.MetricSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedule, ok := s.schedules[id]
	if !ok {
		return nil, fmt.Errorf("get schedule by id: %w", db.ErrNotFound)
	}
	copied := copySchedule(schedule)
	return &copied, nil
}

func (s *Store) ListDueSchedules(_ context.Context, now time.Time) ([]*models.MetricSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []*models.MetricSchedule
	for _, schedule := range s.schedules {
		if schedule.IsDue(now) {
			copied := copySchedule(schedule)
			due = append(due, &copied)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledAt.Before(due[j].ScheduledAt) })
	return due, nil
}

func (s *Store) ListPendingByVideo(_ context.Context, videoID string) ([]*models.MetricSchedule, error) {
	return s.listByVideo(videoID, models.SchedulePending, "", false)
}

func (s *Store) ListCompletedByVideo(_ context.Context, videoID string, kind models.ScheduleKind) ([]*models.MetricSchedule, error) {
	return s.listByVideo(videoID, models.ScheduleCompleted, kind, true)
}

func (s *Store) listByVideo(videoID string, status models.ScheduleStatus, kind models.ScheduleKind, descending bool) ([]*models.MetricSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var schedules []*models.MetricSchedule
	for _, schedule := range s.schedules {
		if schedule.VideoID != videoID || schedule.Status != status {
			continue
		}
		if kind != "" && schedule.Kind != kind {
			continue
		}
		copied := copySchedule(schedule)
		schedules = append(schedules, &copied)
	}
	sort.Slice(schedules, func(i, j int) bool {
		if descending {
			return schedules[i].ScheduledAt.After(schedules[j].ScheduledAt)
		}
		return schedules[i].ScheduledAt.Before(schedules[j].ScheduledAt)
	})
	return schedules, nil
}

func (s *Store) MarkScheduleCompleted(_ context.Context, id uuid.UUID, at time.Time) error {
	return s.transition(id, func(schedule *models.MetricSchedule) { schedule.MarkCompleted(at) })
}

func (s *Store) MarkScheduleFailed(_ context.Context, id uuid.UUID, at time.Time) error {
	return s.transition(id, func(schedule *models.MetricSchedule) { schedule.MarkFailed(at) })
}

func (s *Store) MarkSchedulePending(_ context.Context, id uuid.UUID) error {
	return s.transition(id, func(schedule *models.MetricSchedule) { schedule.MarkPending() })
}

func (s *Store) transition(id uuid.UUID, apply func(*models.MetricSchedule)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule, ok := s.schedules[id]
	if !ok {
		return fmt.Errorf("update schedule: %w", db.ErrNotFound)
	}
	apply(schedule)
	return nil
}

func (s *Store) CountSchedulesByStatus(_ context.Context) (map[models.ScheduleStatus]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.ScheduleStatus]int64)
	for _, schedule := range s.schedules {
		counts[schedule.Status]++
	}
	return counts, nil
}

// SnapshotRepository

func (s *Store) CreateSnapshot(_ context.Context, snapshot *models.MetricsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *snapshot
	s.snapshots = append(s.snapshots, &copied)
	return nil
}

func (s *Store) ListSnapshotsByVideo(_ context.Context, videoID string, limit int) ([]*models.MetricsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snapshots []*models.MetricsSnapshot
	for _, snapshot := range s.snapshots {
		if snapshot.VideoID == videoID {
			copied := *snapshot
			snapshots = append(snapshots, &copied)
		}
	}
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].MeasuredAt.After(snapshots[j].MeasuredAt) })
	if limit > 0 && len(snapshots) > limit {
		snapshots = snapshots[:limit]
	}
	return snapshots, nil
}

func copySchedule(schedule *models.MetricSchedule) models.MetricSchedule {
	copied := *schedule
	if schedule.CompletedAt != nil {
		at := *schedule.CompletedAt
		copied.CompletedAt = &at
	}
	return copied
}
