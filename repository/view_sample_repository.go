package repository

import (
	"context"
	"errors"

	"github.com/clipforge/clipforge/models"
	"gorm.io/gorm"
)

// ViewSampleRepositoryImpl implements the ViewSampleRepository interface
type ViewSampleRepositoryImpl struct {
	*BaseRepository[models.ViewSample, models.ViewSampleFilter]
}

// NewViewSampleRepository creates a new view sample repository
func NewViewSampleRepository(db *gorm.DB) ViewSampleRepository {
	return &ViewSampleRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ViewSample, models.ViewSampleFilter](db),
	}
}

// ListBySubmission retrieves the most recent samples for a submission,
// newest first
func (r *ViewSampleRepositoryImpl) ListBySubmission(ctx context.Context, submissionID uint, limit int) ([]*models.ViewSample, error) {
	filter := models.ViewSampleFilter{SubmissionID: &submissionID}
	return r.ByFilter(ctx, filter, "observed_at DESC", limit, 0)
}

// LatestBySubmission retrieves the newest sample for a submission
func (r *ViewSampleRepositoryImpl) LatestBySubmission(ctx context.Context, submissionID uint) (*models.ViewSample, error) {
	db := r.getDB(ctx)

	var sample models.ViewSample
	err := db.Where("submission_id = ?", submissionID).
		Order("observed_at DESC").
		First(&sample).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sample, nil
}

// ByFilter retrieves view samples based on filter criteria
func (r *ViewSampleRepositoryImpl) ByFilter(ctx context.Context, filter models.ViewSampleFilter, orderBy string, limit, offset int) ([]*models.ViewSample, error) {
	db := r.getDB(ctx)

	var samples []*models.ViewSample
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

	err := query.Find(&samples).Error
	if err != nil {
		return nil, err
	}

	return samples, nil
}

// Count returns the number of view samples matching the filter
func (r *ViewSampleRepositoryImpl) Count(ctx context.Context, filter models.ViewSampleFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.ViewSample{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any view sample matching the filter exists
func (r *ViewSampleRepositoryImpl) Exists(ctx context.Context, filter models.ViewSampleFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ViewSampleRepositoryImpl) applyFilter(db *gorm.DB, filter models.ViewSampleFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.SubmissionID != nil {
		db = db.Where("submission_id = ?", *filter.SubmissionID)
	}
	if filter.Platform != nil {
		db = db.Where("platform = ?", *filter.Platform)
	}
	if filter.ObservedAfter != nil {
		db = db.Where("observed_at >= ?", *filter.ObservedAfter)
	}
	if filter.ObservedBefore != nil {
		db = db.Where("observed_at < ?", *filter.ObservedBefore)
	}

	return db
}
