package dto

import (
	"time"
)

// RequestPayoutRequest represents a creator requesting a payout
type RequestPayoutRequest struct {
	CampaignUUID  string  `json:"-"`
	UserID        uint    `json:"-"`
	PayoutMethod  *string `json:"payout_method,omitempty" validate:"omitempty,oneof=paypal bank crypto"`
	PayoutAddress *string `json:"payout_address,omitempty" validate:"omitempty,max=200"`
}

// RequestPayoutResponse represents the payout creation response
type RequestPayoutResponse struct {
	Message         string `json:"message"`
	UUID            string `json:"uuid"`
	AmountCents     int64  `json:"amount_cents"`
	AmountDisplay   string `json:"amount_display"`
	TotalViews      int64  `json:"total_views"`
	SubmissionCount int    `json:"submission_count"`
	Status          string `json:"status"`
	RequestedAt     string `json:"requested_at"`
}

// ProcessPayoutRequest represents a moderator approving or rejecting a payout
type ProcessPayoutRequest struct {
	PayoutUUID string  `json:"-"`
	Reason     *string `json:"reason,omitempty" validate:"omitempty,max=1000"`
}

// ProcessPayoutResponse represents the payout processing response
type ProcessPayoutResponse struct {
	Message     string `json:"message"`
	Status      string `json:"status"`
	ProcessedAt string `json:"processed_at"`
}

// ListPayoutsRequest represents a payout listing request
type ListPayoutsRequest struct {
	UserID *uint   `json:"-"`
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=pending approved rejected"`
	Page   int     `json:"page" validate:"omitempty,min=1"`
	Limit  int     `json:"limit" validate:"omitempty,min=1,max=100"`
}

// PayoutItem is one payout in a listing response
type PayoutItem struct {
	UUID            string     `json:"uuid"`
	CampaignID      uint       `json:"campaign_id"`
	AmountCents     int64      `json:"amount_cents"`
	AmountDisplay   string     `json:"amount_display"`
	TotalViews      int64      `json:"total_views"`
	Status          string     `json:"status"`
	RequestedAt     time.Time  `json:"requested_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
}

// ListPayoutsResponse represents the payout listing response
type ListPayoutsResponse struct {
	Payouts []PayoutItem `json:"payouts"`
	Total   int64        `json:"total"`
	Page    int          `json:"page"`
	Limit   int          `json:"limit"`
}
