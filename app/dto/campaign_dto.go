package dto

import (
	"time"
)

// CreateCampaignRequest represents the request to create a new campaign
type CreateCampaignRequest struct {
	Name           string   `json:"name" validate:"required,min=3,max=100"`
	Description    string   `json:"description" validate:"max=2000"`
	Type           string   `json:"type" validate:"required,oneof=clipping reposting"`
	Platforms      []string `json:"platforms" validate:"required,min=1,dive,oneof=youtube tiktok instagram"`
	ContentSource  *string  `json:"content_source,omitempty" validate:"omitempty,url"`
	RatePer1KCents int64    `json:"rate_per_1k_cents" validate:"required,gt=0"`
}

// CreateCampaignResponse represents the response to create a new campaign
type CreateCampaignResponse struct {
	Message   string `json:"message"`
	UUID      string `json:"uuid"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// EndCampaignRequest represents the request to close a campaign
type EndCampaignRequest struct {
	UUID string `json:"-"`
}

// EndCampaignResponse represents the response to close a campaign
type EndCampaignResponse struct {
	Message string `json:"message"`
	EndedAt string `json:"ended_at"`
}

// GetCampaignRequest represents a single-campaign lookup
type GetCampaignRequest struct {
	UUID string `json:"-"`
}

// GetCampaignResponse represents a single-campaign lookup response
type GetCampaignResponse struct {
	Campaign CampaignItem `json:"campaign"`
}

// ListCampaignsRequest represents the campaign listing request
type ListCampaignsRequest struct {
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=active ended"`
	Page   int     `json:"page" validate:"omitempty,min=1"`
	Limit  int     `json:"limit" validate:"omitempty,min=1,max=100"`
}

// CampaignItem is one campaign in a listing response
type CampaignItem struct {
	UUID           string     `json:"uuid"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	Type           string     `json:"type"`
	Platforms      []string   `json:"platforms"`
	ContentSource  *string    `json:"content_source,omitempty"`
	RatePer1KCents int64      `json:"rate_per_1k_cents"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
}

// ListCampaignsResponse represents the campaign listing response
type ListCampaignsResponse struct {
	Campaigns []CampaignItem `json:"campaigns"`
	Total     int64          `json:"total"`
	Page      int            `json:"page"`
	Limit     int            `json:"limit"`
}

// JoinCampaignRequest represents a creator joining a campaign
type JoinCampaignRequest struct {
	CampaignUUID string `json:"-"`
	UserID       uint   `json:"-"`
}

// JoinCampaignResponse represents the join response
type JoinCampaignResponse struct {
	Message  string `json:"message"`
	JoinedAt string `json:"joined_at"`
}

// LeaveCampaignRequest represents a creator leaving a campaign
type LeaveCampaignRequest struct {
	CampaignUUID string `json:"-"`
	UserID       uint   `json:"-"`
}

// LeaveCampaignResponse represents the leave response
type LeaveCampaignResponse struct {
	Message string `json:"message"`
}
