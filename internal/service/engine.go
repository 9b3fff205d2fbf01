// Package service orchestrates schedule creation and due-measurement
// execution for tracked videos.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/reel-tracker/metrics-scheduler-go/internal/config"
	"github.com/reel-tracker/metrics-scheduler-go/internal/db/models"
	"github.com/reel-tracker/metrics-scheduler-go/internal/db/repository"
	"github.com/reel-tracker/metrics-scheduler-go/internal/platform"
	"github.com/reel-tracker/metrics-scheduler-go/internal/schedule"
)

var (
	schedulesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reeltrack_schedules_created_total",
		Help: "Measurement schedules created, by milestone kind.",
	}, []string{"kind"})

	measurementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reeltrack_measurements_total",
		Help: "Due measurements processed, by outcome.",
	}, []string{"outcome"})
)

// ProcessResult partitions one due-processing sweep by outcome.
type ProcessResult struct {
	Processed int
	Completed int
	Failed    int
}

// Engine decides when each tracked video is measured next and executes the
// measurements that have come due. Fetches run strictly sequentially: the
// platform enforces account-level rate limits and concurrent requests risk
// challenge errors.
type Engine struct {
	videos    repository.VideoRepository
	schedules repository.ScheduleRepository
	snapshots repository.SnapshotRepository
	fetcher   platform.Fetcher
	publisher *MessagePublisher
	logger    *zap.Logger

	limiter      *rate.Limiter
	fetchTimeout time.Duration
	sweepLimit   int

	now func() time.Time
}

// NewEngine creates a new scheduling engine.
func NewEngine(
	videos repository.VideoRepository,
	schedules repository.ScheduleRepository,
	snapshots repository.SnapshotRepository,
	fetcher platform.Fetcher,
	cfg *config.WorkerConfig,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		videos:       videos,
		schedules:    schedules,
		snapshots:    snapshots,
		fetcher:      fetcher,
		logger:       logger,
		limiter:      rate.NewLimiter(rate.Every(cfg.FetchDelay), 1),
		fetchTimeout: cfg.FetchTimeout,
		sweepLimit:   cfg.SweepLimit,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetPublisher sets the snapshot event publisher (optional).
func (e *Engine) SetPublisher(publisher *MessagePublisher) {
	e.publisher = publisher
}

// EnsureSchedule guarantees the video has a pending measurement schedule.
// It is idempotent: when a pending schedule already exists, or the video's
// upcoming slot is already measured, nothing is written.
func (e *Engine) EnsureSchedule(ctx context.Context, video *models.Video) error {
	pending, err := e.schedules.ListPendingByVideo(ctx, video.VideoID)
	if err != nil {
		return fmt.Errorf("list pending schedules: %w", err)
	}
	if len(pending) > 0 {
		return nil
	}

	history, err := e.completedHistory(ctx, video.VideoID)
	if err != nil {
		return err
	}

	next, ok := schedule.NextSchedule(video.PublishedAt, e.now(), history)
	if !ok {
		return nil
	}

	created := models.NewMetricSchedule(video.VideoID, next.Kind, next.ScheduledAt)
	if err := e.schedules.CreateSchedule(ctx, created); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}

	schedulesCreated.WithLabelValues(string(next.Kind)).Inc()
	e.logger.Info("created measurement schedule",
		zap.String("video_id", video.VideoID),
		zap.String("kind", string(next.Kind)),
		zap.Time("scheduled_at", next.ScheduledAt),
	)

	return nil
}

// EnsureAll sweeps every video lacking a pending schedule and ensures one.
// Per-video failures are logged and skipped so one bad record cannot halt
// the sweep. Returns how many videos were examined.
func (e *Engine) EnsureAll(ctx context.Context) (int, error) {
	videos, err := e.videos.ListVideosWithoutPendingSchedule(ctx, e.sweepLimit)
	if err != nil {
		return 0, fmt.Errorf("list videos without pending schedule: %w", err)
	}

	for _, video := range videos {
		if err := e.EnsureSchedule(ctx, video); err != nil {
			e.logger.Error("failed to ensure schedule",
				zap.String("video_id", video.VideoID),
				zap.Error(err),
			)
		}
	}

	return len(videos), nil
}

// ProcessDue executes every pending schedule due at or before now, oldest
// first. Each item is isolated: a fetch or persistence failure on one
// schedule never blocks the rest of the sweep.
func (e *Engine) ProcessDue(ctx context.Context, now time.Time) (ProcessResult, error) {
	due, err := e.schedules.ListDueSchedules(ctx, now)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("list due schedules: %w", err)
	}

	var result ProcessResult
	for _, sched := range due {
		// Stop cleanly on shutdown; unprocessed schedules stay pending.
		if err := e.limiter.Wait(ctx); err != nil {
			return result, err
		}

		result.Processed++
		if err := e.processOne(ctx, sched); err != nil {
			result.Failed++
			measurementsTotal.WithLabelValues("failed").Inc()
			e.logger.Error("measurement failed",
				zap.String("schedule_id", sched.ID.String()),
				zap.String("video_id", sched.VideoID),
				zap.String("kind", string(sched.Kind)),
				zap.Error(err),
			)
			continue
		}
		result.Completed++
		measurementsTotal.WithLabelValues("completed").Inc()
	}

	return result, nil
}

// processOne measures a single due schedule. A fetch failure marks the
// schedule failed (terminal; replay is an operator action). A persistence
// failure leaves the schedule pending for the next sweep.
func (e *Engine) processOne(ctx context.Context, sched *models.MetricSchedule) error {
	video, err := e.videos.GetVideoByID(ctx, sched.VideoID)
	if err != nil {
		return fmt.Errorf("get video: %w", err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	metrics, err := e.fetcher.FetchMetrics(fetchCtx, video.VideoID)
	cancel()
	if err != nil {
		if markErr := e.schedules.MarkScheduleFailed(ctx, sched.ID, e.now()); markErr != nil {
			return fmt.Errorf("mark schedule failed after fetch error %v: %w", err, markErr)
		}
		return fmt.Errorf("fetch metrics: %w", err)
	}

	measuredAt := e.now()
	snapshot := models.NewMetricsSnapshot(
		video.VideoID,
		zeroIfNil(metrics.ViewCount),
		metrics.LikeCount,
		metrics.CommentCount,
		zeroIfNil(metrics.FollowerCount),
		measuredAt,
	)
	if err := e.snapshots.CreateSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	if err := e.schedules.MarkScheduleCompleted(ctx, sched.ID, measuredAt); err != nil {
		return fmt.Errorf("mark schedule completed: %w", err)
	}

	e.logger.Info("recorded metrics snapshot",
		zap.String("video_id", video.VideoID),
		zap.String("kind", string(sched.Kind)),
		zap.Int64("views", snapshot.ViewCount),
		zap.Int64("likes", snapshot.LikeCount),
		zap.Int64("comments", snapshot.CommentCount),
	)

	e.publishSnapshot(ctx, snapshot)

	// Chain the next schedule so the video always has a pending one.
	if err := e.EnsureSchedule(ctx, video); err != nil {
		e.logger.Error("failed to chain next schedule",
			zap.String("video_id", video.VideoID),
			zap.Error(err),
		)
	}

	return nil
}

// completedHistory converts a video's completed schedules into the clock's
// history form. Failed schedules deliberately stay out: a failed milestone
// counts as not yet achieved, so a replay can attempt it again.
func (e *Engine) completedHistory(ctx context.Context, videoID string) ([]schedule.Completed, error) {
	completed, err := e.schedules.ListCompletedByVideo(ctx, videoID, "")
	if err != nil {
		return nil, fmt.Errorf("list completed schedules: %w", err)
	}

	history := make([]schedule.Completed, 0, len(completed))
	for _, s := range completed {
		history = append(history, schedule.Completed{Kind: s.Kind, ScheduledAt: s.ScheduledAt})
	}
	return history, nil
}

// publishSnapshot emits the snapshot event when a publisher is configured.
// Publishing is best effort; a broker outage never fails the measurement.
func (e *Engine) publishSnapshot(ctx context.Context, snapshot *models.MetricsSnapshot) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishSnapshot(ctx, snapshot); err != nil {
		e.logger.Warn("failed to publish snapshot event",
			zap.String("snapshot_id", snapshot.ID.String()),
			zap.Error(err),
		)
	}
}

func zeroIfNil(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
