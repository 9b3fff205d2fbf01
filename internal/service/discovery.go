package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/reel-tracker/metrics-scheduler-go/internal/config"
	"github.com/reel-tracker/metrics-scheduler-go/internal/db"
	"github.com/reel-tracker/metrics-scheduler-go/internal/db/models"
	"github.com/reel-tracker/metrics-scheduler-go/internal/db/repository"
	"github.com/reel-tracker/metrics-scheduler-go/internal/platform"
)

var videosDiscovered = promauto.NewCounter(prometheus.CounterOpts{
	Name: "reeltrack_videos_discovered_total",
	Help: "New videos registered by the discovery sweep.",
})

// Discovery finds new videos on tracked accounts and registers them for
// measurement.
type Discovery struct {
	accounts repository.AccountRepository
	videos   repository.VideoRepository
	engine   *Engine
	lister   platform.Lister
	logger   *zap.Logger

	accountDelay time.Duration
	recentLimit  int
}

// NewDiscovery creates a discovery sweeper.
func NewDiscovery(
	accounts repository.AccountRepository,
	videos repository.VideoRepository,
	engine *Engine,
	lister platform.Lister,
	cfg *config.WorkerConfig,
	logger *zap.Logger,
) *Discovery {
	return &Discovery{
		accounts:     accounts,
		videos:       videos,
		engine:       engine,
		lister:       lister,
		logger:       logger,
		accountDelay: cfg.AccountDelay,
		recentLimit:  cfg.RecentVideosLimit,
	}
}

// Sweep walks every tracked account, upserts its recent videos and ensures
// each has a pending measurement schedule. Accounts are spaced out by the
// configured delay and failures on one account never stop the sweep.
// Returns the number of videos seen for the first time.
func (d *Discovery) Sweep(ctx context.Context) (int, error) {
	accounts, err := d.accounts.ListAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list accounts: %w", err)
	}

	discovered := 0
	for i, account := range accounts {
		if i > 0 {
			if err := sleepCtx(ctx, d.accountDelay); err != nil {
				return discovered, err
			}
		}

		n, err := d.sweepAccount(ctx, account)
		if err != nil {
			d.logger.Error("account sweep failed",
				zap.Int64("account_id", account.ID),
				zap.String("username", account.Username),
				zap.Error(err),
			)
			continue
		}
		discovered += n
	}

	return discovered, nil
}

func (d *Discovery) sweepAccount(ctx context.Context, account *models.Account) (int, error) {
	remote, err := d.lister.RecentVideos(ctx, account.ID, d.recentLimit)
	if err != nil {
		return 0, fmt.Errorf("fetch recent videos: %w", err)
	}

	discovered := 0
	for _, rv := range remote {
		_, err := d.videos.GetVideoByID(ctx, rv.VideoID)
		isNew := db.IsNotFound(err)
		if err != nil && !isNew {
			return discovered, fmt.Errorf("get video %s: %w", rv.VideoID, err)
		}

		video := models.NewVideo(rv.VideoID, rv.Shortcode, account.ID, rv.VideoURL, rv.PublishedAt)
		video.Caption = rv.Caption
		if err := d.videos.UpsertVideo(ctx, video); err != nil {
			return discovered, fmt.Errorf("upsert video %s: %w", rv.VideoID, err)
		}

		if isNew {
			discovered++
			videosDiscovered.Inc()
			d.logger.Info("discovered new video",
				zap.String("video_id", rv.VideoID),
				zap.Int64("account_id", account.ID),
				zap.Time("published_at", rv.PublishedAt),
			)
		}

		if err := d.engine.EnsureSchedule(ctx, video); err != nil {
			return discovered, fmt.Errorf("ensure schedule for %s: %w", rv.VideoID, err)
		}
	}

	return discovered, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
