package models

import (
	"database/sql/driver"
	"fmt"
	"slices"
	"time"

	"github.com/clipforge/clipforge/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// CampaignType enumerates the kinds of campaigns creators participate in
type CampaignType string

const (
	CampaignTypeClipping  CampaignType = "clipping"
	CampaignTypeReposting CampaignType = "reposting"
)

// Valid checks if the campaign type is valid
func (t CampaignType) Valid() bool {
	switch t {
	case CampaignTypeClipping, CampaignTypeReposting:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CampaignType
func (t *CampaignType) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*t = ""
	case string:
		*t = CampaignType(v)
	case []byte:
		*t = CampaignType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CampaignType", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for CampaignType
func (t CampaignType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid CampaignType: %s", t)
	}
	return string(t), nil
}

// CampaignStatus represents the lifecycle status of a campaign
type CampaignStatus string

const (
	CampaignStatusActive CampaignStatus = "active"
	CampaignStatusEnded  CampaignStatus = "ended"
)

// String returns the string representation of the status
func (s CampaignStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusActive, CampaignStatusEnded:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CampaignStatus
func (s *CampaignStatus) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*s = ""
	case string:
		*s = CampaignStatus(v)
	case []byte:
		*s = CampaignStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CampaignStatus", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for CampaignStatus
func (s CampaignStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid CampaignStatus: %s", s)
	}
	return string(s), nil
}

// Campaign represents a promotional program with a payout rate and allowed platforms
type Campaign struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UUID          uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_campaigns_uuid" json:"uuid"`
	Name          string         `gorm:"size:200;not null;uniqueIndex:uk_campaigns_name" json:"name"`
	Description   string         `gorm:"type:text;not null" json:"description"`
	Type          CampaignType   `gorm:"type:campaign_type;not null" json:"type"`
	Platforms     pq.StringArray `gorm:"type:text[];not null" json:"platforms"`
	ContentSource *string        `gorm:"type:text" json:"content_source,omitempty"`
	RatePer1KCents int64         `gorm:"column:rate_per_1k_cents;not null;check:rate_per_1k_cents > 0" json:"rate_per_1k_cents"`
	Status        CampaignStatus `gorm:"type:campaign_status;not null;default:'active';index:idx_campaigns_status" json:"status"`
	CreatedAt     time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_campaigns_created_at" json:"created_at"`
	EndedAt       *time.Time     `json:"ended_at,omitempty"`

	// Relations
	Members []CampaignMember `gorm:"foreignKey:CampaignID" json:"members,omitempty"`
}

// TableName returns the table name for the model
func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeCreate is called before creating a new record
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Status == "" {
		c.Status = CampaignStatusActive
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// IsActive reports whether the campaign accepts submissions
func (c *Campaign) IsActive() bool {
	return c.Status == CampaignStatusActive
}

// AllowsPlatform reports whether the platform is in the campaign's allowed set
func (c *Campaign) AllowsPlatform(p Platform) bool {
	return slices.Contains(c.Platforms, string(p))
}

// AllowedPlatforms returns the allowed set as typed platforms
func (c *Campaign) AllowedPlatforms() []Platform {
	out := make([]Platform, 0, len(c.Platforms))
	for _, s := range c.Platforms {
		out = append(out, Platform(s))
	}
	return out
}

// CampaignFilter represents filter criteria for campaigns
type CampaignFilter struct {
	ID            *uint           `json:"id,omitempty"`
	UUID          *uuid.UUID      `json:"uuid,omitempty"`
	Name          *string         `json:"name,omitempty"`
	Type          *CampaignType   `json:"type,omitempty"`
	Status        *CampaignStatus `json:"status,omitempty"`
	CreatedAfter  *time.Time      `json:"created_after,omitempty"`
	CreatedBefore *time.Time      `json:"created_before,omitempty"`
}
