package dto

import (
	"time"
)

// CreateSubmissionRequest represents a creator submitting a video link
type CreateSubmissionRequest struct {
	CampaignUUID string `json:"-"`
	UserID       uint   `json:"-"`
	VideoURL     string `json:"video_url" validate:"required,url,max=500"`
}

// CreateSubmissionResponse represents the submission creation response
type CreateSubmissionResponse struct {
	Message     string `json:"message"`
	UUID        string `json:"uuid"`
	Platform    string `json:"platform"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submitted_at"`
}

// ReviewSubmissionRequest represents a moderator decision on a submission.
// Views carries an authoritative count the moderator verified by hand; when
// absent, approval refreshes the count from the platform best effort.
type ReviewSubmissionRequest struct {
	SubmissionUUID string  `json:"-"`
	Reason         *string `json:"reason,omitempty" validate:"omitempty,max=1000"`
	Views          *int64  `json:"views,omitempty" validate:"omitempty,min=0"`
}

// ReviewSubmissionResponse represents the review response
type ReviewSubmissionResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Views   int64  `json:"views"`
}

// FlagSubmissionRequest represents a manual moderator flag
type FlagSubmissionRequest struct {
	SubmissionUUID string  `json:"-"`
	Detail         *string `json:"detail,omitempty" validate:"omitempty,max=1000"`
}

// FlagSubmissionResponse represents the flag response
type FlagSubmissionResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ListSubmissionsRequest represents a submission listing request
type ListSubmissionsRequest struct {
	CampaignUUID *string `json:"campaign_uuid,omitempty"`
	UserID       *uint   `json:"-"`
	Status       *string `json:"status,omitempty" validate:"omitempty,oneof=pending approved rejected flagged"`
	Page         int     `json:"page" validate:"omitempty,min=1"`
	Limit        int     `json:"limit" validate:"omitempty,min=1,max=100"`
}

// SubmissionItem is one submission in a listing response
type SubmissionItem struct {
	UUID        string     `json:"uuid"`
	CampaignID  uint       `json:"campaign_id"`
	VideoURL    string     `json:"video_url"`
	Platform    string     `json:"platform"`
	Views       int64      `json:"views"`
	Status      string     `json:"status"`
	FlagKind    *string    `json:"flag_kind,omitempty"`
	FlagDetail  *string    `json:"flag_detail,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

// ListSubmissionsResponse represents the submission listing response
type ListSubmissionsResponse struct {
	Submissions []SubmissionItem `json:"submissions"`
	Total       int64            `json:"total"`
	Page        int              `json:"page"`
	Limit       int              `json:"limit"`
}

// ViewSampleItem is one observation in a submission history response
type ViewSampleItem struct {
	Views      int64     `json:"views"`
	ObservedAt time.Time `json:"observed_at"`
}

// SubmissionHistoryResponse represents the view history of one submission
type SubmissionHistoryResponse struct {
	UUID    string           `json:"uuid"`
	Views   int64            `json:"views"`
	Status  string           `json:"status"`
	Samples []ViewSampleItem `json:"samples"`
}
