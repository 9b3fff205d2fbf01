//go:build integration
// +build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reel-tracker/metrics-scheduler-go/internal/db"
	"github.com/reel-tracker/metrics-scheduler-go/internal/db/models"
	"github.com/reel-tracker/metrics-scheduler-go/internal/db/testutil"
)

func seedAccountAndVideo(t *testing.T, td *testutil.TestDatabase, videoID string, publishedAt time.Time) *models.Video {
	t.Helper()
	ctx := context.Background()

	accounts := NewAccountRepository(td.Pool)
	account := models.NewAccount(1, "creator", "https://example.com/creator")
	require.NoError(t, accounts.UpsertAccount(ctx, account))

	videos := NewVideoRepository(td.Pool)
	video := models.NewVideo(videoID, "sc-"+videoID, account.ID, "https://example.com/"+videoID, publishedAt)
	require.NoError(t, videos.UpsertVideo(ctx, video))
	return video
}

func TestScheduleRepository_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	ctx := context.Background()
	publishedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	seedAccountAndVideo(t, td, "v1", publishedAt)

	schedules := NewScheduleRepository(td.Pool)

	sched := models.NewMetricSchedule("v1", models.KindH1, publishedAt.Add(time.Hour))
	require.NoError(t, schedules.CreateSchedule(ctx, sched))

	got, err := schedules.GetScheduleByID(ctx, sched.ID)
	require.NoError(t, err)
	assert.Equal(t, "v1", got.VideoID)
	assert.Equal(t, models.KindH1, got.Kind)
	assert.Equal(t, models.SchedulePending, got.Status)
	assert.True(t, got.ScheduledAt.Equal(sched.ScheduledAt))

	// Due at scheduled time, not before.
	due, err := schedules.ListDueSchedules(ctx, publishedAt.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = schedules.ListDueSchedules(ctx, publishedAt.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, sched.ID, due[0].ID)

	completedAt := publishedAt.Add(time.Hour + time.Minute)
	require.NoError(t, schedules.MarkScheduleCompleted(ctx, sched.ID, completedAt))

	got, err = schedules.GetScheduleByID(ctx, sched.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(completedAt))

	// Completed schedules drop out of the due and pending listings.
	due, err = schedules.ListDueSchedules(ctx, publishedAt.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)

	pending, err := schedules.ListPendingByVideo(ctx, "v1")
	require.NoError(t, err)
	assert.Empty(t, pending)

	completed, err := schedules.ListCompletedByVideo(ctx, "v1", "")
	require.NoError(t, err)
	require.Len(t, completed, 1)

	byKind, err := schedules.ListCompletedByVideo(ctx, "v1", models.KindDaily)
	require.NoError(t, err)
	assert.Empty(t, byKind)
}

func TestScheduleRepository_DueOrderAndCounts(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	ctx := context.Background()
	publishedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	seedAccountAndVideo(t, td, "v1", publishedAt)

	schedules := NewScheduleRepository(td.Pool)

	later := models.NewMetricSchedule("v1", models.KindH3, publishedAt.Add(3*time.Hour))
	earlier := models.NewMetricSchedule("v1", models.KindH1, publishedAt.Add(time.Hour))
	failed := models.NewMetricSchedule("v1", models.KindH24, publishedAt.Add(24*time.Hour))
	require.NoError(t, schedules.CreateSchedule(ctx, later))
	require.NoError(t, schedules.CreateSchedule(ctx, earlier))
	require.NoError(t, schedules.CreateSchedule(ctx, failed))
	require.NoError(t, schedules.MarkScheduleFailed(ctx, failed.ID, publishedAt.Add(25*time.Hour)))

	// Oldest first.
	due, err := schedules.ListDueSchedules(ctx, publishedAt.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, earlier.ID, due[0].ID)
	assert.Equal(t, later.ID, due[1].ID)

	counts, err := schedules.CountSchedulesByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[models.SchedulePending])
	assert.Equal(t, int64(1), counts[models.ScheduleFailed])
}

func TestScheduleRepository_NotFoundAndForeignKey(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	ctx := context.Background()
	schedules := NewScheduleRepository(td.Pool)

	_, err := schedules.GetScheduleByID(ctx, uuid.New())
	assert.True(t, db.IsNotFound(err))

	err = schedules.MarkScheduleCompleted(ctx, uuid.New(), time.Now().UTC())
	assert.True(t, db.IsNotFound(err))

	// Schedules must reference a known video.
	orphan := models.NewMetricSchedule("missing-video", models.KindH1, time.Now().UTC())
	err = schedules.CreateSchedule(ctx, orphan)
	assert.True(t, db.IsForeignKeyViolation(err))
}

func TestVideoRepository_UpsertPreservesDiscoveryFields(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	ctx := context.Background()
	publishedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	original := seedAccountAndVideo(t, td, "v1", publishedAt)

	videos := NewVideoRepository(td.Pool)

	update := models.NewVideo("v1", "sc-v1", original.AccountID, "https://example.com/v1?new", publishedAt.Add(time.Hour))
	update.Caption = "updated caption"
	require.NoError(t, videos.UpsertVideo(ctx, update))

	got, err := videos.GetVideoByID(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/v1?new", got.VideoURL)
	assert.Equal(t, "updated caption", got.Caption)
	// published_at and first_seen_at stay as first recorded
	assert.True(t, got.PublishedAt.Equal(publishedAt))
	assert.True(t, got.FirstSeenAt.Equal(original.FirstSeenAt))
}

func TestVideoRepository_ListVideosWithoutPendingSchedule(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	ctx := context.Background()
	publishedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	seedAccountAndVideo(t, td, "v1", publishedAt)

	videos := NewVideoRepository(td.Pool)
	schedules := NewScheduleRepository(td.Pool)

	second := models.NewVideo("v2", "sc-v2", 1, "https://example.com/v2", publishedAt.Add(time.Hour))
	require.NoError(t, videos.UpsertVideo(ctx, second))

	sched := models.NewMetricSchedule("v1", models.KindH1, publishedAt.Add(time.Hour))
	require.NoError(t, schedules.CreateSchedule(ctx, sched))

	missing, err := videos.ListVideosWithoutPendingSchedule(ctx, 10)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "v2", missing[0].VideoID)

	// Completed schedules do not count as pending coverage.
	require.NoError(t, schedules.MarkScheduleCompleted(ctx, sched.ID, publishedAt.Add(2*time.Hour)))

	missing, err = videos.ListVideosWithoutPendingSchedule(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, missing, 2)
}

func TestSnapshotRepository_CreateAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	ctx := context.Background()
	publishedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	seedAccountAndVideo(t, td, "v1", publishedAt)

	snapshots := NewSnapshotRepository(td.Pool)

	first := models.NewMetricsSnapshot("v1", 100, 10, 1, 5000, publishedAt.Add(time.Hour))
	second := models.NewMetricsSnapshot("v1", 300, 25, 4, 5100, publishedAt.Add(3*time.Hour))
	require.NoError(t, snapshots.CreateSnapshot(ctx, first))
	require.NoError(t, snapshots.CreateSnapshot(ctx, second))

	// Newest first.
	got, err := snapshots.ListSnapshotsByVideo(ctx, "v1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, int64(300), got[0].ViewCount)
	assert.Equal(t, int64(100), got[1].ViewCount)
}
