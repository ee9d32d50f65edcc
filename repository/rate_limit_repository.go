package repository

import (
	"context"
	"errors"
	"time"

	"github.com/clipforge/clipforge/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RateLimitRepositoryImpl implements the RateLimitRepository interface
type RateLimitRepositoryImpl struct {
	db *gorm.DB
}

// NewRateLimitRepository creates a new rate limit repository
func NewRateLimitRepository(db *gorm.DB) RateLimitRepository {
	return &RateLimitRepositoryImpl{db: db}
}

func (r *RateLimitRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}

// TryAcquire attempts to record an action at `now` for the (subject, action)
// key. It returns true when the key had no entry or the previous entry's
// timestamp is at or before the cutoff. Check and update are one upsert
// statement, so two callers racing on the same key cannot both win.
func (r *RateLimitRepositoryImpl) TryAcquire(ctx context.Context, subject, action string, now, cutoff time.Time) (bool, error) {
	db := r.getDB(ctx)

	entry := models.RateLimitEntry{
		Subject:      subject,
		Action:       action,
		LastActionAt: now,
	}

	res := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "subject"}, {Name: "action"}},
		DoUpdates: clause.Assignments(map[string]any{
			"last_action_at": now,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Lte{Column: clause.Column{Table: "rate_limits", Name: "last_action_at"}, Value: cutoff},
		}},
	}).Create(&entry)
	if res.Error != nil {
		return false, res.Error
	}

	// RowsAffected is 1 on insert or on a conflict whose WHERE matched,
	// 0 when the existing entry is too recent.
	return res.RowsAffected == 1, nil
}

// Get retrieves the current entry for a key, nil when absent
func (r *RateLimitRepositoryImpl) Get(ctx context.Context, subject, action string) (*models.RateLimitEntry, error) {
	db := r.getDB(ctx)

	var entry models.RateLimitEntry
	err := db.Where("subject = ? AND action = ?", subject, action).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}
