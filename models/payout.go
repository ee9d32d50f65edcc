package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/clipforge/clipforge/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PayoutStatus represents the processing status of a payout
type PayoutStatus string

const (
	PayoutStatusPending  PayoutStatus = "pending"
	PayoutStatusApproved PayoutStatus = "approved"
	PayoutStatusRejected PayoutStatus = "rejected"
)

// String returns the string representation of the status
func (s PayoutStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s PayoutStatus) Valid() bool {
	switch s {
	case PayoutStatusPending, PayoutStatusApproved, PayoutStatusRejected:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for PayoutStatus
func (s *PayoutStatus) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*s = ""
	case string:
		*s = PayoutStatus(v)
	case []byte:
		*s = PayoutStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into PayoutStatus", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for PayoutStatus
func (s PayoutStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid PayoutStatus: %s", s)
	}
	return string(s), nil
}

// Payout is a monetary claim derived from approved, unpaid submission views
// under one campaign for one user. AmountCents is frozen at request time;
// later view-count changes never adjust an existing payout.
type Payout struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UUID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_payouts_uuid" json:"uuid"`
	UserID     uint      `gorm:"not null;index:idx_payouts_user_id" json:"user_id"`
	CampaignID uint      `gorm:"not null;index:idx_payouts_campaign_id" json:"campaign_id"`

	AmountCents int64        `gorm:"not null;check:amount_cents >= 0" json:"amount_cents"`
	TotalViews  int64        `gorm:"not null" json:"total_views"`
	Status      PayoutStatus `gorm:"type:payout_status;not null;default:'pending';index:idx_payouts_status" json:"status"`

	PayoutMethod  *string `gorm:"size:40" json:"payout_method,omitempty"`
	PayoutAddress *string `gorm:"size:200" json:"payout_address,omitempty"`

	RequestedAt     time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_payouts_requested_at" json:"requested_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	RejectionReason *string    `gorm:"type:text" json:"rejection_reason,omitempty"`

	// Relations
	User        *User        `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	Campaign    *Campaign    `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	Submissions []Submission `gorm:"foreignKey:PayoutID" json:"submissions,omitempty"`
}

// TableName returns the table name for the model
func (Payout) TableName() string {
	return "payouts"
}

// BeforeCreate is called before creating a new record
func (p *Payout) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	if p.Status == "" {
		p.Status = PayoutStatusPending
	}
	if p.RequestedAt.IsZero() {
		p.RequestedAt = utils.UTCNow()
	}
	return nil
}

// CanTransitionTo checks if the payout can transition to the given status
func (p *Payout) CanTransitionTo(newStatus PayoutStatus) bool {
	if p.Status != PayoutStatusPending {
		return false
	}
	return newStatus == PayoutStatusApproved || newStatus == PayoutStatusRejected
}

// AmountDollars renders the frozen amount for display
func (p *Payout) AmountDollars() string {
	return fmt.Sprintf("$%d.%02d", p.AmountCents/100, p.AmountCents%100)
}

// PayoutFilter represents filter criteria for payouts
type PayoutFilter struct {
	ID              *uint         `json:"id,omitempty"`
	UUID            *uuid.UUID    `json:"uuid,omitempty"`
	UserID          *uint         `json:"user_id,omitempty"`
	CampaignID      *uint         `json:"campaign_id,omitempty"`
	Status          *PayoutStatus `json:"status,omitempty"`
	RequestedAfter  *time.Time    `json:"requested_after,omitempty"`
	RequestedBefore *time.Time    `json:"requested_before,omitempty"`
}
