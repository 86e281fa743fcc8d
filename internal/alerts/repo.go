package alerts

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/calderalogistics/loadpilot-backend/internal/repo"
	"github.com/calderalogistics/loadpilot-backend/pkg/db/models"
)

// Repository handles notification persistence. Beyond acting as the
// in-app inbox, the table is the dedup ledger for periodic alerting:
// before raising, callers ask whether an identically titled row landed
// inside the throttle window.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to notification operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a notification row.
func (r *Repository) Create(ctx context.Context, notification *models.Notification) error {
	if notification == nil {
		return fmt.Errorf("notification is required")
	}
	return r.DB(ctx).Create(notification).Error
}

// ExistsRecent reports whether a notification with the given title was
// created after the cutoff.
func (r *Repository) ExistsRecent(ctx context.Context, title string, since time.Time) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Notification{}).
		Where("title = ?", title).
		Where("created_at >= ?", since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteOlderThan removes read notifications created before the cutoff.
// Used by the retention job.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB(ctx).
		Where("created_at < ?", cutoff).
		Where("read_at IS NOT NULL").
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
