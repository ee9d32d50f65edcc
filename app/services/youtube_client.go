package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/clipforge/clipforge/config"
	"github.com/clipforge/clipforge/models"
)

type youtubeStatisticsResponse struct {
	Items []struct {
		ID         string `json:"id"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// YouTubeClient fetches view counts from the YouTube Data API v3
type YouTubeClient struct {
	apiKey string
	client *http.Client
}

// NewYouTubeClient creates a YouTube adapter from platform config
func NewYouTubeClient(cfg config.PlatformsConfig) *YouTubeClient {
	return &YouTubeClient{
		apiKey: cfg.YouTubeAPIKey,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// Platform returns the platform this adapter serves
func (c *YouTubeClient) Platform() models.Platform {
	return models.PlatformYouTube
}

// FetchViews resolves the video ID from the URL and queries the statistics
// endpoint. A well-formed response with zero items means the video is gone.
func (c *YouTubeClient) FetchViews(ctx context.Context, videoURL string) (int64, error) {
	videoID, err := youtubeVideoID(videoURL)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrVideoUnavailable, err)
	}

	endpoint := "https://www.googleapis.com/youtube/v3/videos?part=statistics&id=" +
		url.QueryEscape(videoID) + "&key=" + url.QueryEscape(c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, ErrVideoUnavailable
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("youtube videos http status: %d", resp.StatusCode)
	}

	var out youtubeStatisticsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("youtube videos decode: %w", err)
	}
	if len(out.Items) == 0 {
		return 0, ErrVideoUnavailable
	}

	views, err := strconv.ParseInt(out.Items[0].Statistics.ViewCount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("youtube view count parse: %w", err)
	}
	return views, nil
}

// youtubeVideoID extracts the video ID from watch, shorts, and youtu.be URLs
func youtubeVideoID(videoURL string) (string, error) {
	u, err := url.Parse(videoURL)
	if err != nil {
		return "", err
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	switch host {
	case "youtu.be":
		id := strings.Trim(u.Path, "/")
		if id == "" {
			return "", fmt.Errorf("missing video id in %s", videoURL)
		}
		return id, nil
	case "youtube.com", "m.youtube.com":
		if id := u.Query().Get("v"); id != "" {
			return id, nil
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if strings.HasPrefix(u.Path, prefix) {
				id := strings.Trim(strings.TrimPrefix(u.Path, prefix), "/")
				if id != "" {
					return id, nil
				}
			}
		}
		return "", fmt.Errorf("missing video id in %s", videoURL)
	default:
		return "", fmt.Errorf("not a youtube url: %s", videoURL)
	}
}
