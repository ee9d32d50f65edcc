package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/clipforge/clipforge/config"
	"github.com/clipforge/clipforge/models"
)

type tiktokStatsResponse struct {
	Data struct {
		Videos []struct {
			ID        string `json:"id"`
			ViewCount int64  `json:"view_count"`
		} `json:"videos"`
	} `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// TikTokClient fetches view counts from the TikTok research API
type TikTokClient struct {
	apiKey string
	client *http.Client
}

// NewTikTokClient creates a TikTok adapter from platform config
func NewTikTokClient(cfg config.PlatformsConfig) *TikTokClient {
	return &TikTokClient{
		apiKey: cfg.TikTokAPIKey,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// Platform returns the platform this adapter serves
func (c *TikTokClient) Platform() models.Platform {
	return models.PlatformTikTok
}

// FetchViews queries the video stats endpoint for the given URL
func (c *TikTokClient) FetchViews(ctx context.Context, videoURL string) (int64, error) {
	endpoint := "https://open.tiktokapis.com/v2/video/query/?fields=id,view_count&video_url=" +
		url.QueryEscape(videoURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden {
		return 0, ErrVideoUnavailable
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("tiktok video query http status: %d", resp.StatusCode)
	}

	var out tiktokStatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("tiktok video query decode: %w", err)
	}
	if out.Error.Code != "" && out.Error.Code != "ok" {
		return 0, fmt.Errorf("tiktok video query error: %s (%s)", out.Error.Message, out.Error.Code)
	}
	if len(out.Data.Videos) == 0 {
		return 0, ErrVideoUnavailable
	}
	return out.Data.Videos[0].ViewCount, nil
}
