package risk

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/calderalogistics/loadpilot-backend/internal/repo"
	"github.com/calderalogistics/loadpilot-backend/pkg/db/models"
)

// Repository handles the append-only risk log.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to risk-log operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// CreateLog appends one risk snapshot.
func (r *Repository) CreateLog(ctx context.Context, log *models.RiskLog) error {
	if log == nil {
		return fmt.Errorf("risk log is required")
	}
	return r.DB(ctx).Create(log).Error
}

// DeleteOlderThan removes snapshots created before the cutoff. Used by
// the retention job; the log grows by one row per active load per sweep.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.RiskLog{})
	return res.RowsAffected, res.Error
}
