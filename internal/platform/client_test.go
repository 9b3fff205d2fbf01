package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/reel-tracker/metrics-scheduler-go/internal/config"
)

func newTestClient(serverURL string) *Client {
	return NewClient(&config.PlatformConfig{
		BaseURL: serverURL,
		Token:   "test-token",
		Timeout: 5 * time.Second,
	})
}

func TestClient_FetchMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/videos/abc123/metrics" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"view_count":100,"like_count":10,"comment_count":2,"follower_count":500}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	metrics, err := client.FetchMetrics(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("FetchMetrics() error = %v", err)
	}

	if metrics.ViewCount == nil || *metrics.ViewCount != 100 {
		t.Errorf("ViewCount = %v, want 100", metrics.ViewCount)
	}
	if metrics.LikeCount != 10 {
		t.Errorf("LikeCount = %d, want 10", metrics.LikeCount)
	}
	if metrics.CommentCount != 2 {
		t.Errorf("CommentCount = %d, want 2", metrics.CommentCount)
	}
	if metrics.FollowerCount == nil || *metrics.FollowerCount != 500 {
		t.Errorf("FollowerCount = %v, want 500", metrics.FollowerCount)
	}
}

func TestClient_FetchMetrics_NullCounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"view_count":null,"like_count":10,"comment_count":2,"follower_count":null}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	metrics, err := client.FetchMetrics(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("FetchMetrics() error = %v", err)
	}

	if metrics.ViewCount != nil {
		t.Errorf("ViewCount = %v, want nil", metrics.ViewCount)
	}
	if metrics.FollowerCount != nil {
		t.Errorf("FollowerCount = %v, want nil", metrics.FollowerCount)
	}
}

func TestClient_FetchMetrics_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		checkFn func(error) bool
		errName string
	}{
		{name: "401 maps to authentication", status: http.StatusUnauthorized, checkFn: IsAuthentication, errName: "ErrAuthentication"},
		{name: "403 maps to authentication", status: http.StatusForbidden, checkFn: IsAuthentication, errName: "ErrAuthentication"},
		{name: "429 maps to rate limited", status: http.StatusTooManyRequests, checkFn: IsRateLimited, errName: "ErrRateLimited"},
		{name: "404 maps to not found", status: http.StatusNotFound, checkFn: IsNotFound, errName: "ErrNotFound"},
		{name: "500 maps to network", status: http.StatusInternalServerError, checkFn: IsNetwork, errName: "ErrNetwork"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			_, err := client.FetchMetrics(context.Background(), "abc123")
			if err == nil {
				t.Fatal("FetchMetrics() expected error")
			}
			if !tt.checkFn(err) {
				t.Errorf("error %v is not %s", err, tt.errName)
			}
		})
	}
}

func TestClient_FetchMetrics_ConnectionRefused(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")

	_, err := client.FetchMetrics(context.Background(), "abc123")
	if err == nil {
		t.Fatal("FetchMetrics() expected error")
	}
	if !IsNetwork(err) {
		t.Errorf("error %v is not ErrNetwork", err)
	}
}

func TestClient_RecentVideos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts/42/videos" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "12" {
			t.Errorf("limit = %q, want 12", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"video_id":"v1","shortcode":"sc1","video_url":"https://example.com/v1","published_at":"2024-01-01T00:00:00Z"},
			{"video_id":"v2","shortcode":"sc2","video_url":"https://example.com/v2","published_at":"2024-01-02T00:00:00Z"}
		]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	videos, err := client.RecentVideos(context.Background(), 42, 12)
	if err != nil {
		t.Fatalf("RecentVideos() error = %v", err)
	}

	if len(videos) != 2 {
		t.Fatalf("len(videos) = %d, want 2", len(videos))
	}
	if videos[0].VideoID != "v1" || videos[1].VideoID != "v2" {
		t.Errorf("unexpected video ids %s, %s", videos[0].VideoID, videos[1].VideoID)
	}
	if videos[0].PublishedAt.IsZero() {
		t.Error("PublishedAt not parsed")
	}
}
