package models

import (
	"time"

	"github.com/clipforge/clipforge/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a creator account. AccountID is the external unique
// account identifier (e.g. the chat-platform user id); no further identity
// verification is modeled.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_users_uuid" json:"uuid"`
	AccountID string    `gorm:"size:64;not null;uniqueIndex:uk_users_account_id" json:"account_id"`
	Username  string    `gorm:"size:100;not null" json:"username"`
	Banned    *bool     `gorm:"not null;default:false" json:"banned"`

	PayoutMethod  *string `gorm:"size:40" json:"payout_method,omitempty"`
	PayoutAddress *string `gorm:"size:200" json:"payout_address,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	// Relations
	Submissions []Submission     `gorm:"foreignKey:UserID" json:"submissions,omitempty"`
	Payouts     []Payout         `gorm:"foreignKey:UserID" json:"payouts,omitempty"`
	Memberships []CampaignMember `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
}

// TableName returns the table name for the model
func (User) TableName() string {
	return "users"
}

// BeforeCreate is called before creating a new record
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = utils.UTCNow()
	}
	return nil
}

// IsBanned reports whether the user is banned from submitting and payouts
func (u *User) IsBanned() bool {
	return utils.IsTrue(u.Banned)
}

// UserFilter represents filter criteria for users
type UserFilter struct {
	ID        *uint      `json:"id,omitempty"`
	UUID      *uuid.UUID `json:"uuid,omitempty"`
	AccountID *string    `json:"account_id,omitempty"`
	Username  *string    `json:"username,omitempty"`
	Banned    *bool      `json:"banned,omitempty"`
}

// CampaignMember records one user's membership in a campaign
type CampaignMember struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CampaignID uint      `gorm:"not null;uniqueIndex:uk_campaign_members" json:"campaign_id"`
	UserID     uint      `gorm:"not null;uniqueIndex:uk_campaign_members;index:idx_campaign_members_user_id" json:"user_id"`
	JoinedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"joined_at"`

	Campaign *Campaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	User     *User     `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}

// TableName returns the table name for the model
func (CampaignMember) TableName() string {
	return "campaign_members"
}

// BeforeCreate is called before creating a new record
func (m *CampaignMember) BeforeCreate(tx *gorm.DB) error {
	if m.JoinedAt.IsZero() {
		m.JoinedAt = utils.UTCNow()
	}
	return nil
}

// CampaignMemberFilter provides filter fields for repository queries
type CampaignMemberFilter struct {
	ID         *uint
	CampaignID *uint
	UserID     *uint
}
