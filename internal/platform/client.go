package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/reel-tracker/metrics-scheduler-go/internal/config"
)

// Client is an HTTP implementation of Fetcher and Lister against the
// platform's JSON API. Authentication state lives entirely inside the
// client; callers only see the typed error taxonomy.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a new platform API client.
func NewClient(cfg *config.PlatformConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
	}
}

// FetchMetrics retrieves the current engagement counts for a video.
func (c *Client) FetchMetrics(ctx context.Context, videoID string) (*Metrics, error) {
	url := fmt.Sprintf("%s/v1/videos/%s/metrics", c.baseURL, videoID)

	var metrics Metrics
	if err := c.getJSON(ctx, url, &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// RecentVideos retrieves an account's most recently published videos.
func (c *Client) RecentVideos(ctx context.Context, accountID int64, limit int) ([]*RemoteVideo, error) {
	url := fmt.Sprintf("%s/v1/accounts/%d/videos?limit=%s",
		c.baseURL, accountID, strconv.Itoa(limit))

	var videos []*RemoteVideo
	if err := c.getJSON(ctx, url, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp.StatusCode); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func mapStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrAuthentication, code)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, code)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", ErrNotFound, code)
	default:
		return fmt.Errorf("%w: unexpected status %d", ErrNetwork, code)
	}
}
