package repository

import (
	"context"
	"errors"

	"github.com/clipforge/clipforge/models"
	"gorm.io/gorm"
)

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	*BaseRepository[models.User, models.UserFilter]
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{
		BaseRepository: NewBaseRepository[models.User, models.UserFilter](db),
	}
}

// ByAccountID retrieves a user by external account identifier
func (r *UserRepositoryImpl) ByAccountID(ctx context.Context, accountID string) (*models.User, error) {
	db := r.getDB(ctx)

	var user models.User
	err := db.Where("account_id = ?", accountID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// SetBanned updates a user's banned flag
func (r *UserRepositoryImpl) SetBanned(ctx context.Context, userID uint, banned bool) error {
	db := r.getDB(ctx)

	res := db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("banned", banned)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ByFilter retrieves users based on filter criteria
func (r *UserRepositoryImpl) ByFilter(ctx context.Context, filter models.UserFilter, orderBy string, limit, offset int) ([]*models.User, error) {
	db := r.getDB(ctx)

	var users []*models.User
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

	err := query.Find(&users).Error
	if err != nil {
		return nil, err
	}

	return users, nil
}

// Count returns the number of users matching the filter
func (r *UserRepositoryImpl) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.User{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any user matching the filter exists
func (r *UserRepositoryImpl) Exists(ctx context.Context, filter models.UserFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *UserRepositoryImpl) applyFilter(db *gorm.DB, filter models.UserFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.AccountID != nil {
		db = db.Where("account_id = ?", *filter.AccountID)
	}
	if filter.Username != nil {
		db = db.Where("username = ?", *filter.Username)
	}
	if filter.Banned != nil {
		db = db.Where("banned = ?", *filter.Banned)
	}

	return db
}

// CampaignMemberRepositoryImpl implements the CampaignMemberRepository interface
type CampaignMemberRepositoryImpl struct {
	*BaseRepository[models.CampaignMember, models.CampaignMemberFilter]
}

// NewCampaignMemberRepository creates a new campaign member repository
func NewCampaignMemberRepository(db *gorm.DB) CampaignMemberRepository {
	return &CampaignMemberRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CampaignMember, models.CampaignMemberFilter](db),
	}
}

// ByCampaignAndUser retrieves a membership row, nil when the user never joined
func (r *CampaignMemberRepositoryImpl) ByCampaignAndUser(ctx context.Context, campaignID, userID uint) (*models.CampaignMember, error) {
	db := r.getDB(ctx)

	var member models.CampaignMember
	err := db.Where("campaign_id = ? AND user_id = ?", campaignID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// Remove deletes a membership row
func (r *CampaignMemberRepositoryImpl) Remove(ctx context.Context, campaignID, userID uint) error {
	db := r.getDB(ctx)

	res := db.Where("campaign_id = ? AND user_id = ?", campaignID, userID).
		Delete(&models.CampaignMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ByFilter retrieves memberships based on filter criteria
func (r *CampaignMemberRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignMemberFilter, orderBy string, limit, offset int) ([]*models.CampaignMember, error) {
	db := r.getDB(ctx)

	var members []*models.CampaignMember
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

	err := query.Find(&members).Error
	if err != nil {
		return nil, err
	}

	return members, nil
}

// Count returns the number of memberships matching the filter
func (r *CampaignMemberRepositoryImpl) Count(ctx context.Context, filter models.CampaignMemberFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.CampaignMember{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any membership matching the filter exists
func (r *CampaignMemberRepositoryImpl) Exists(ctx context.Context, filter models.CampaignMemberFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CampaignMemberRepositoryImpl) applyFilter(db *gorm.DB, filter models.CampaignMemberFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.CampaignID != nil {
		db = db.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}

	return db
}
