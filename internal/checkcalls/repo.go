package checkcalls

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderalogistics/loadpilot-backend/internal/repo"
	"github.com/calderalogistics/loadpilot-backend/pkg/db/models"
	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
)

// Repository handles check-call schedule persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to check-call operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ReplaceForLoad deletes any existing schedule rows for the load and
// inserts the new set in one transaction. Reassignment supersedes the
// whole plan; partial regeneration is never attempted.
func (r *Repository) ReplaceForLoad(ctx context.Context, loadID uuid.UUID, rows []models.CheckCallSchedule) error {
	return r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("load_id = ?", loadID).Delete(&models.CheckCallSchedule{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// ListDuePending returns pending touchpoints whose scheduled time has
// arrived, oldest first.
func (r *Repository) ListDuePending(ctx context.Context, now time.Time) ([]models.CheckCallSchedule, error) {
	var rows []models.CheckCallSchedule
	err := r.DB(ctx).
		Where("status = ?", enums.CheckCallStatusPending).
		Where("scheduled_at <= ?", now).
		Order("scheduled_at ASC").
		Find(&rows).Error
	return rows, err
}

// ListStaleSent returns sent touchpoints whose last send happened at or
// before the cutoff and that have not been answered.
func (r *Repository) ListStaleSent(ctx context.Context, cutoff time.Time) ([]models.CheckCallSchedule, error) {
	var rows []models.CheckCallSchedule
	err := r.DB(ctx).
		Where("status = ?", enums.CheckCallStatusSent).
		Where("sent_at IS NOT NULL AND sent_at <= ?", cutoff).
		Order("sent_at ASC").
		Find(&rows).Error
	return rows, err
}

// FindLatestSentByPhoneSuffix returns the most recently sent touchpoint
// whose stored carrier phone ends with the given digits. Missing rows
// are reported as gorm.ErrRecordNotFound.
func (r *Repository) FindLatestSentByPhoneSuffix(ctx context.Context, suffix string) (*models.CheckCallSchedule, error) {
	if suffix == "" {
		return nil, fmt.Errorf("phone suffix is required")
	}
	var row models.CheckCallSchedule
	err := r.DB(ctx).
		Where("status = ?", enums.CheckCallStatusSent).
		Where("carrier_phone LIKE ?", "%"+suffix).
		Order("sent_at DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Update saves the provided touchpoint.
func (r *Repository) Update(ctx context.Context, row *models.CheckCallSchedule) error {
	if row == nil {
		return fmt.Errorf("check call schedule is required")
	}
	return r.DB(ctx).Save(row).Error
}

// CountEscalatedForLoad counts the load's missed (escalated) touchpoints.
// This is the risk engine's missed-check-call signal.
func (r *Repository) CountEscalatedForLoad(ctx context.Context, loadID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.CheckCallSchedule{}).
		Where("load_id = ?", loadID).
		Where("status = ?", enums.CheckCallStatusEscalated).
		Count(&count).Error
	return count, err
}

// DeleteOlderThan removes terminal touchpoints created before the cutoff.
// Used by the retention job.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB(ctx).
		Where("created_at < ?", cutoff).
		Where("status IN ?", []enums.CheckCallStatus{
			enums.CheckCallStatusResponded,
			enums.CheckCallStatusEscalated,
		}).
		Delete(&models.CheckCallSchedule{})
	return res.RowsAffected, res.Error
}
