package repository

import (
	"context"

	"github.com/clipforge/clipforge/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PayoutRepositoryImpl implements the PayoutRepository interface
type PayoutRepositoryImpl struct {
	*BaseRepository[models.Payout, models.PayoutFilter]
}

// NewPayoutRepository creates a new payout repository
func NewPayoutRepository(db *gorm.DB) PayoutRepository {
	return &PayoutRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Payout, models.PayoutFilter](db),
	}
}

// ByUUID retrieves a payout by UUID
func (r *PayoutRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.Payout, error) {
	parsed, err := uuid.Parse(uuidStr)
	if err != nil {
		return nil, err
	}

	filter := models.PayoutFilter{UUID: &parsed}
	payouts, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(payouts) == 0 {
		return nil, nil
	}
	return payouts[0], nil
}

// Update persists changes to an existing payout
func (r *PayoutRepositoryImpl) Update(ctx context.Context, payout *models.Payout) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	err = db.Save(payout).Error
	if err != nil {
		if shouldCommit {
			db.Rollback()
		}
		return translateError(err)
	}

	if shouldCommit {
		return db.Commit().Error
	}
	return nil
}

// ByFilter retrieves payouts based on filter criteria
func (r *PayoutRepositoryImpl) ByFilter(ctx context.Context, filter models.PayoutFilter, orderBy string, limit, offset int) ([]*models.Payout, error) {
	db := r.getDB(ctx)

	var payouts []*models.Payout
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

	err := query.Find(&payouts).Error
	if err != nil {
		return nil, err
	}

	return payouts, nil
}

// Count returns the number of payouts matching the filter
func (r *PayoutRepositoryImpl) Count(ctx context.Context, filter models.PayoutFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Payout{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any payout matching the filter exists
func (r *PayoutRepositoryImpl) Exists(ctx context.Context, filter models.PayoutFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *PayoutRepositoryImpl) applyFilter(db *gorm.DB, filter models.PayoutFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.CampaignID != nil {
		db = db.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.RequestedAfter != nil {
		db = db.Where("requested_at >= ?", *filter.RequestedAfter)
	}
	if filter.RequestedBefore != nil {
		db = db.Where("requested_at < ?", *filter.RequestedBefore)
	}

	return db
}
