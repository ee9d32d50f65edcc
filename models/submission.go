package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/clipforge/clipforge/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmissionStatus represents the review status of a submission
type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusRejected SubmissionStatus = "rejected"
	SubmissionStatusFlagged  SubmissionStatus = "flagged"
)

// String returns the string representation of the status
func (s SubmissionStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusApproved,
		SubmissionStatusRejected, SubmissionStatusFlagged:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for SubmissionStatus
func (s *SubmissionStatus) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*s = ""
	case string:
		*s = SubmissionStatus(v)
	case []byte:
		*s = SubmissionStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into SubmissionStatus", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for SubmissionStatus
func (s SubmissionStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid SubmissionStatus: %s", s)
	}
	return string(s), nil
}

// Terminal reports whether no further automatic transition is allowed
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionStatusApproved || s == SubmissionStatusRejected
}

// AnomalyKind is the closed set of reasons a submission can be flagged
type AnomalyKind string

const (
	AnomalyViewDecrease   AnomalyKind = "view_count_decreased"
	AnomalyAbnormalGrowth AnomalyKind = "abnormal_growth_rate"
	AnomalyUnreachable    AnomalyKind = "persistently_unreachable"
	AnomalyManual         AnomalyKind = "manual_review"
)

// Valid checks if the anomaly kind is a known member of the enum
func (k AnomalyKind) Valid() bool {
	switch k {
	case AnomalyViewDecrease, AnomalyAbnormalGrowth, AnomalyUnreachable, AnomalyManual:
		return true
	default:
		return false
	}
}

// FlagSource identifies who raised a flag
type FlagSource string

const (
	FlagSourceDetector  FlagSource = "detector"
	FlagSourceModerator FlagSource = "moderator"
)

// Submission represents one user's claimed video entry against a campaign
type Submission struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UUID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_submissions_uuid" json:"uuid"`
	CampaignID uint      `gorm:"not null;index:idx_submissions_campaign_id;uniqueIndex:uk_submissions_campaign_link" json:"campaign_id"`
	UserID     uint      `gorm:"not null;index:idx_submissions_user_id" json:"user_id"`
	VideoURL   string    `gorm:"size:500;not null;uniqueIndex:uk_submissions_campaign_link" json:"video_url"`
	Platform   Platform  `gorm:"type:platform;not null;index:idx_submissions_platform" json:"platform"`

	Views  int64            `gorm:"not null;default:0;check:views >= 0" json:"views"`
	Status SubmissionStatus `gorm:"type:submission_status;not null;default:'pending';index:idx_submissions_status" json:"status"`

	// Flag fields are set iff Status is flagged
	FlagKind   *AnomalyKind `gorm:"type:varchar(40)" json:"flag_kind,omitempty"`
	FlagDetail *string      `gorm:"type:text" json:"flag_detail,omitempty"`
	FlagSource *FlagSource  `gorm:"type:varchar(20)" json:"flag_source,omitempty"`

	// Reconciler bookkeeping. LastPolledAt is the due-ness cursor for the
	// periodic sweep; UnavailableCount counts consecutive failed polls and
	// resets on success.
	LastPolledAt     *time.Time `gorm:"index:idx_submissions_last_polled_at" json:"last_polled_at,omitempty"`
	UnavailableCount int        `gorm:"not null;default:0" json:"unavailable_count"`

	// Paid marker, orthogonal to review status. Set atomically with payout
	// creation; a paid submission can never fund a second payout.
	PayoutID *uint      `gorm:"index:idx_submissions_payout_id" json:"payout_id,omitempty"`
	PaidAt   *time.Time `json:"paid_at,omitempty"`

	SubmittedAt    time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_submissions_submitted_at" json:"submitted_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	UpdatedAt      time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	// Relations
	Campaign *Campaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	User     *User     `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}

// TableName returns the table name for the model
func (Submission) TableName() string {
	return "submissions"
}

// BeforeCreate is called before creating a new record
func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	if s.Status == "" {
		s.Status = SubmissionStatusPending
	}
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (s *Submission) BeforeUpdate(tx *gorm.DB) error {
	s.UpdatedAt = utils.UTCNow()
	return nil
}

// CanTransitionTo checks if the submission can transition to the given status.
// approved and rejected are terminal; a flagged submission can be cleared by a
// reviewer in either direction.
func (s *Submission) CanTransitionTo(newStatus SubmissionStatus) bool {
	switch s.Status {
	case SubmissionStatusPending:
		return newStatus == SubmissionStatusApproved ||
			newStatus == SubmissionStatusRejected ||
			newStatus == SubmissionStatusFlagged
	case SubmissionStatusFlagged:
		return newStatus == SubmissionStatusApproved ||
			newStatus == SubmissionStatusRejected
	default:
		return false
	}
}

// Pollable reports whether the reconciler may poll this submission.
// Rejected submissions are never polled again.
func (s *Submission) Pollable() bool {
	switch s.Status {
	case SubmissionStatusPending, SubmissionStatusApproved, SubmissionStatusFlagged:
		return true
	default:
		return false
	}
}

// IsPaid reports whether the submission has already funded a payout
func (s *Submission) IsPaid() bool {
	return s.PaidAt != nil
}

// SubmissionFilter represents filter criteria for submissions
type SubmissionFilter struct {
	ID              *uint             `json:"id,omitempty"`
	UUID            *uuid.UUID        `json:"uuid,omitempty"`
	CampaignID      *uint             `json:"campaign_id,omitempty"`
	UserID          *uint             `json:"user_id,omitempty"`
	VideoURL        *string           `json:"video_url,omitempty"`
	Platform        *Platform         `json:"platform,omitempty"`
	Status          *SubmissionStatus `json:"status,omitempty"`
	Unpaid          *bool             `json:"unpaid,omitempty"`
	SubmittedAfter  *time.Time        `json:"submitted_after,omitempty"`
	SubmittedBefore *time.Time        `json:"submitted_before,omitempty"`
}
