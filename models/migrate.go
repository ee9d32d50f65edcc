package models

import (
	"fmt"

	"gorm.io/gorm"
)

// enumDefinitions maps each Postgres enum type to its members. AutoMigrate
// cannot create enum types, so they are created up front.
var enumDefinitions = map[string][]string{
	"platform":          {string(PlatformYouTube), string(PlatformTikTok), string(PlatformInstagram)},
	"campaign_type":     {string(CampaignTypeClipping), string(CampaignTypeReposting)},
	"campaign_status":   {string(CampaignStatusActive), string(CampaignStatusEnded)},
	"submission_status": {string(SubmissionStatusPending), string(SubmissionStatusApproved), string(SubmissionStatusRejected), string(SubmissionStatusFlagged)},
	"payout_status":     {string(PayoutStatusPending), string(PayoutStatusApproved), string(PayoutStatusRejected)},
}

// EnsureEnumTypes creates the Postgres enum types the models depend on.
// Existing types are left untouched.
func EnsureEnumTypes(db *gorm.DB) error {
	for name, members := range enumDefinitions {
		stmt := fmt.Sprintf(`DO $$ BEGIN
	CREATE TYPE %s AS ENUM (%s);
EXCEPTION WHEN duplicate_object THEN NULL;
END $$;`, name, quoteList(members))
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create enum type %s: %w", name, err)
		}
	}
	return nil
}

func quoteList(values []string) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += "'" + v + "'"
	}
	return out
}
