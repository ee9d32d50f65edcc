package repository

import (
	"context"
	"errors"
	"time"

	"github.com/clipforge/clipforge/models"
	"github.com/clipforge/clipforge/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmissionRepositoryImpl implements the SubmissionRepository interface
type SubmissionRepositoryImpl struct {
	*BaseRepository[models.Submission, models.SubmissionFilter]
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &SubmissionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Submission, models.SubmissionFilter](db),
	}
}

// ByUUID retrieves a submission by UUID
func (r *SubmissionRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.Submission, error) {
	parsed, err := uuid.Parse(uuidStr)
	if err != nil {
		return nil, err
	}

	filter := models.SubmissionFilter{UUID: &parsed}
	submissions, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(submissions) == 0 {
		return nil, nil
	}
	return submissions[0], nil
}

// ByCampaignAndURL retrieves a submission by its campaign-scoped link key.
// The URL must already be normalized by the caller.
func (r *SubmissionRepositoryImpl) ByCampaignAndURL(ctx context.Context, campaignID uint, videoURL string) (*models.Submission, error) {
	db := r.getDB(ctx)

	var submission models.Submission
	err := db.Where("campaign_id = ? AND video_url = ?", campaignID, videoURL).First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &submission, nil
}

// UpdateStatusFrom persists the submission's review and reconciler fields,
// guarded on the row still holding the status the caller read. Returns the
// number of rows updated; zero means a concurrent writer moved the submission
// first and nothing was written. Paid markers are never touched here, they
// belong to MarkPaid and UnmarkPaid.
func (r *SubmissionRepositoryImpl) UpdateStatusFrom(ctx context.Context, submission *models.Submission, expected models.SubmissionStatus) (int64, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return 0, err
	}

	res := db.Model(&models.Submission{}).
		Where("id = ? AND status = ?", submission.ID, expected).
		Updates(map[string]any{
			"status":            submission.Status,
			"views":             submission.Views,
			"flag_kind":         submission.FlagKind,
			"flag_detail":       submission.FlagDetail,
			"flag_source":       submission.FlagSource,
			"last_polled_at":    submission.LastPolledAt,
			"unavailable_count": submission.UnavailableCount,
			"last_reviewed_at":  submission.LastReviewedAt,
			"updated_at":        utils.UTCNow(),
		})
	if res.Error != nil {
		if shouldCommit {
			db.Rollback()
		}
		return 0, translateError(res.Error)
	}

	if shouldCommit {
		if err := db.Commit().Error; err != nil {
			return 0, err
		}
	}
	return res.RowsAffected, nil
}

// ListDueForPoll retrieves pollable submissions whose last poll attempt is
// older than the cutoff, never-polled submissions first. Only submissions on
// platforms with a registered adapter are returned.
func (r *SubmissionRepositoryImpl) ListDueForPoll(ctx context.Context, platforms []models.Platform, polledBefore time.Time, limit int) ([]*models.Submission, error) {
	db := r.getDB(ctx)

	if len(platforms) == 0 {
		return nil, nil
	}

	pollable := []models.SubmissionStatus{
		models.SubmissionStatusPending,
		models.SubmissionStatusApproved,
		models.SubmissionStatusFlagged,
	}

	var submissions []*models.Submission
	query := db.
		Where("status IN ?", pollable).
		Where("platform IN ?", platforms).
		Where("last_polled_at IS NULL OR last_polled_at <= ?", polledBefore).
		Order("last_polled_at ASC NULLS FIRST")
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&submissions).Error
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

// ListApprovedUnpaidForUpdate retrieves a user's approved, unpaid submissions
// in a campaign and locks the rows for the duration of the surrounding
// transaction.
func (r *SubmissionRepositoryImpl) ListApprovedUnpaidForUpdate(ctx context.Context, campaignID, userID uint) ([]*models.Submission, error) {
	db := r.getDB(ctx)

	var submissions []*models.Submission
	err := db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("campaign_id = ? AND user_id = ?", campaignID, userID).
		Where("status = ?", models.SubmissionStatusApproved).
		Where("paid_at IS NULL").
		Order("submitted_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

// MarkPaid stamps the given submissions with the payout that consumed them.
// The update is guarded on paid_at IS NULL so a submission can fund at most
// one payout; callers must verify the returned count matches len(submissionIDs).
func (r *SubmissionRepositoryImpl) MarkPaid(ctx context.Context, submissionIDs []uint, payoutID uint, paidAt time.Time) (int64, error) {
	if len(submissionIDs) == 0 {
		return 0, nil
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return 0, err
	}

	res := db.Model(&models.Submission{}).
		Where("id IN ? AND paid_at IS NULL", submissionIDs).
		Updates(map[string]any{
			"payout_id":  payoutID,
			"paid_at":    paidAt,
			"updated_at": paidAt,
		})
	if res.Error != nil {
		if shouldCommit {
			db.Rollback()
		}
		return 0, res.Error
	}

	if shouldCommit {
		if err := db.Commit().Error; err != nil {
			return 0, err
		}
	}
	return res.RowsAffected, nil
}

// UnmarkPaid releases the submissions a payout consumed so their views are
// claimable again. Used when a payout is rejected.
func (r *SubmissionRepositoryImpl) UnmarkPaid(ctx context.Context, payoutID uint) (int64, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return 0, err
	}

	res := db.Model(&models.Submission{}).
		Where("payout_id = ?", payoutID).
		Updates(map[string]any{
			"payout_id": nil,
			"paid_at":   nil,
		})
	if res.Error != nil {
		if shouldCommit {
			db.Rollback()
		}
		return 0, res.Error
	}

	if shouldCommit {
		if err := db.Commit().Error; err != nil {
			return 0, err
		}
	}
	return res.RowsAffected, nil
}

// ByFilter retrieves submissions based on filter criteria
func (r *SubmissionRepositoryImpl) ByFilter(ctx context.Context, filter models.SubmissionFilter, orderBy string, limit, offset int) ([]*models.Submission, error) {
	db := r.getDB(ctx)

	var submissions []*models.Submission
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	return submissions, nil
}

// Count returns the number of submissions matching the filter
func (r *SubmissionRepositoryImpl) Count(ctx context.Context, filter models.SubmissionFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Submission{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any submission matching the filter exists
func (r *SubmissionRepositoryImpl) Exists(ctx context.Context, filter models.SubmissionFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *SubmissionRepositoryImpl) applyFilter(db *gorm.DB, filter models.SubmissionFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.CampaignID != nil {
		db = db.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.VideoURL != nil {
		db = db.Where("video_url = ?", *filter.VideoURL)
	}
	if filter.Platform != nil {
		db = db.Where("platform = ?", *filter.Platform)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.Unpaid != nil {
		if *filter.Unpaid {
			db = db.Where("paid_at IS NULL")
		} else {
			db = db.Where("paid_at IS NOT NULL")
		}
	}
	if filter.SubmittedAfter != nil {
		db = db.Where("submitted_at >= ?", *filter.SubmittedAfter)
	}
	if filter.SubmittedBefore != nil {
		db = db.Where("submitted_at < ?", *filter.SubmittedBefore)
	}

	return db
}
