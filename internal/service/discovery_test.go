package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/reel-tracker/metrics-scheduler-go/internal/db/memstore"
	"github.com/reel-tracker/metrics-scheduler-go/internal/db/models"
	"github.com/reel-tracker/metrics-scheduler-go/internal/platform"
)

type fakeLister struct {
	videos  map[int64][]*platform.RemoteVideo
	failing map[int64]error
}

func (f *fakeLister) RecentVideos(_ context.Context, accountID int64, _ int) ([]*platform.RemoteVideo, error) {
	if err, ok := f.failing[accountID]; ok {
		return nil, err
	}
	return f.videos[accountID], nil
}

func newTestDiscovery(store *memstore.Store, lister *fakeLister, now time.Time) *Discovery {
	cfg := testWorkerConfig()
	cfg.AccountDelay = 0
	cfg.RecentVideosLimit = 12
	engine := newTestEngine(store, &fakeFetcher{}, now)
	return NewDiscovery(store, store, engine, lister, cfg, zap.NewNop())
}

func seedAccount(t *testing.T, store *memstore.Store, id int64, username string) *models.Account {
	t.Helper()
	account := models.NewAccount(id, username, "https://example.com/"+username)
	if err := store.UpsertAccount(context.Background(), account); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account
}

func TestSweepRegistersNewVideos(t *testing.T) {
	store := memstore.New()
	publishedAt := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	now := publishedAt.Add(10 * time.Minute)
	lister := &fakeLister{videos: map[int64][]*platform.RemoteVideo{
		1: {
			{VideoID: "v1", Shortcode: "abc", VideoURL: "https://example.com/v1", PublishedAt: publishedAt},
			{VideoID: "v2", Shortcode: "def", VideoURL: "https://example.com/v2", PublishedAt: publishedAt},
		},
	}}
	discovery := newTestDiscovery(store, lister, now)
	seedAccount(t, store, 1, "creator")

	discovered, err := discovery.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if discovered != 2 {
		t.Fatalf("discovered = %d, want 2", discovered)
	}

	for _, videoID := range []string{"v1", "v2"} {
		if _, err := store.GetVideoByID(context.Background(), videoID); err != nil {
			t.Errorf("video %s not stored: %v", videoID, err)
		}
		pending, err := store.ListPendingByVideo(context.Background(), videoID)
		if err != nil {
			t.Fatalf("list pending: %v", err)
		}
		if len(pending) != 1 {
			t.Errorf("pending for %s = %d, want 1", videoID, len(pending))
		}
	}
}

func TestSweepCountsOnlyNewVideos(t *testing.T) {
	store := memstore.New()
	publishedAt := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	now := publishedAt.Add(10 * time.Minute)
	lister := &fakeLister{videos: map[int64][]*platform.RemoteVideo{
		1: {{VideoID: "v1", Shortcode: "abc", VideoURL: "https://example.com/v1", PublishedAt: publishedAt}},
	}}
	discovery := newTestDiscovery(store, lister, now)
	seedAccount(t, store, 1, "creator")
	seedVideo(t, store, "v1", publishedAt)

	discovered, err := discovery.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if discovered != 0 {
		t.Fatalf("discovered = %d, want 0 for already known video", discovered)
	}
}

func TestSweepIsolatesAccountFailures(t *testing.T) {
	store := memstore.New()
	publishedAt := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	now := publishedAt.Add(10 * time.Minute)
	lister := &fakeLister{
		videos: map[int64][]*platform.RemoteVideo{
			2: {{VideoID: "v2", Shortcode: "def", VideoURL: "https://example.com/v2", PublishedAt: publishedAt}},
		},
		failing: map[int64]error{1: platform.ErrRateLimited},
	}
	discovery := newTestDiscovery(store, lister, now)
	seedAccount(t, store, 1, "limited")
	seedAccount(t, store, 2, "healthy")

	discovered, err := discovery.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if discovered != 1 {
		t.Fatalf("discovered = %d, want 1 from the healthy account", discovered)
	}
	if _, err := store.GetVideoByID(context.Background(), "v2"); err != nil {
		t.Errorf("video from healthy account not stored: %v", err)
	}
}

func TestSweepStopsOnCancelledContext(t *testing.T) {
	store := memstore.New()
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	discovery := newTestDiscovery(store, &fakeLister{}, now)
	discovery.accountDelay = time.Minute
	seedAccount(t, store, 1, "first")
	seedAccount(t, store, 2, "second")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := discovery.Sweep(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
