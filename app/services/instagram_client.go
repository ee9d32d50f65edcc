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

type instagramMediaResponse struct {
	ViewCount int64 `json:"view_count"`
	Error     *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// InstagramClient fetches view counts through the Instagram oEmbed/Graph API
type InstagramClient struct {
	accessToken string
	client      *http.Client
}

// NewInstagramClient creates an Instagram adapter from platform config
func NewInstagramClient(cfg config.PlatformsConfig) *InstagramClient {
	return &InstagramClient{
		accessToken: cfg.InstagramAccessToken,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// Platform returns the platform this adapter serves
func (c *InstagramClient) Platform() models.Platform {
	return models.PlatformInstagram
}

// FetchViews resolves the reel URL through the Graph API media endpoint
func (c *InstagramClient) FetchViews(ctx context.Context, videoURL string) (int64, error) {
	endpoint := "https://graph.facebook.com/v19.0/instagram_oembed?fields=view_count&url=" +
		url.QueryEscape(videoURL) + "&access_token=" + url.QueryEscape(c.accessToken)

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
		return 0, fmt.Errorf("instagram media http status: %d", resp.StatusCode)
	}

	var out instagramMediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("instagram media decode: %w", err)
	}
	if out.Error != nil {
		// Error code 24 is the Graph API's "object not found"
		if out.Error.Code == 24 {
			return 0, ErrVideoUnavailable
		}
		return 0, fmt.Errorf("instagram media error: %s (%d)", out.Error.Message, out.Error.Code)
	}
	return out.ViewCount, nil
}
