package models

import "time"

// RateLimitEntry holds the last-action timestamp for one (subject, action)
// pair. One row per key, overwritten on each allowed action. This is a gate,
// not an audit log: it has no history, only "most recent".
type RateLimitEntry struct {
	Subject      string    `gorm:"size:64;primaryKey" json:"subject"`
	Action       string    `gorm:"size:64;primaryKey" json:"action"`
	LastActionAt time.Time `gorm:"not null" json:"last_action_at"`
}

// TableName returns the table name for the model
func (RateLimitEntry) TableName() string {
	return "rate_limits"
}
