// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/clipforge/clipforge/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// CampaignRepository defines operations for campaigns
type CampaignRepository interface {
	Repository[models.Campaign, models.CampaignFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Campaign, error)
	ByName(ctx context.Context, name string) (*models.Campaign, error)
	ListActive(ctx context.Context) ([]*models.Campaign, error)
	UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus, endedAt *time.Time) error
}

// CampaignMemberRepository defines operations for campaign memberships
type CampaignMemberRepository interface {
	Repository[models.CampaignMember, models.CampaignMemberFilter]
	ByCampaignAndUser(ctx context.Context, campaignID, userID uint) (*models.CampaignMember, error)
	Remove(ctx context.Context, campaignID, userID uint) error
}

// UserRepository defines operations for creator accounts
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByAccountID(ctx context.Context, accountID string) (*models.User, error)
	SetBanned(ctx context.Context, userID uint, banned bool) error
}

// SubmissionRepository defines operations for submissions
type SubmissionRepository interface {
	Repository[models.Submission, models.SubmissionFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Submission, error)
	ByCampaignAndURL(ctx context.Context, campaignID uint, videoURL string) (*models.Submission, error)
	UpdateStatusFrom(ctx context.Context, submission *models.Submission, expected models.SubmissionStatus) (int64, error)
	ListDueForPoll(ctx context.Context, platforms []models.Platform, polledBefore time.Time, limit int) ([]*models.Submission, error)
	ListApprovedUnpaidForUpdate(ctx context.Context, campaignID, userID uint) ([]*models.Submission, error)
	MarkPaid(ctx context.Context, submissionIDs []uint, payoutID uint, paidAt time.Time) (int64, error)
	UnmarkPaid(ctx context.Context, payoutID uint) (int64, error)
}

// ViewSampleRepository defines operations for the append-only view samples
type ViewSampleRepository interface {
	Repository[models.ViewSample, models.ViewSampleFilter]
	ListBySubmission(ctx context.Context, submissionID uint, limit int) ([]*models.ViewSample, error)
	LatestBySubmission(ctx context.Context, submissionID uint) (*models.ViewSample, error)
}

// RateLimitRepository defines the atomic gate over (subject, action) keys
type RateLimitRepository interface {
	// TryAcquire records now as the last-action time and returns true when
	// the previous entry is absent or older than the cutoff. The check and
	// the write are a single atomic statement per key.
	TryAcquire(ctx context.Context, subject, action string, now, cutoff time.Time) (bool, error)
	Get(ctx context.Context, subject, action string) (*models.RateLimitEntry, error)
}

// PayoutRepository defines operations for payouts
type PayoutRepository interface {
	Repository[models.Payout, models.PayoutFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Payout, error)
	Update(ctx context.Context, payout *models.Payout) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
}
