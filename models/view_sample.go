package models

import (
	"time"

	"github.com/clipforge/clipforge/utils"
	"gorm.io/gorm"
)

// ViewSample is an immutable observed view-count record written by every
// successful reconciliation poll. Rows are append-only: never mutated,
// never deleted.
type ViewSample struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index:idx_view_samples_submission_id" json:"submission_id"`
	Views        int64     `gorm:"not null" json:"views"`
	Platform     Platform  `gorm:"type:platform;not null" json:"platform"`
	ObservedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_view_samples_observed_at" json:"observed_at"`

	Submission *Submission `gorm:"foreignKey:SubmissionID;references:ID" json:"submission,omitempty"`
}

// TableName returns the table name for the model
func (ViewSample) TableName() string {
	return "view_samples"
}

// BeforeCreate is called before creating a new record
func (v *ViewSample) BeforeCreate(tx *gorm.DB) error {
	if v.ObservedAt.IsZero() {
		v.ObservedAt = utils.UTCNow()
	}
	return nil
}

// ViewSampleFilter provides filter fields for repository queries
type ViewSampleFilter struct {
	ID             *uint
	SubmissionID   *uint
	Platform       *Platform
	ObservedAfter  *time.Time
	ObservedBefore *time.Time
}
