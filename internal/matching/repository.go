package matching

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/calderalogistics/loadpilot-backend/internal/repo"
	"github.com/calderalogistics/loadpilot-backend/pkg/db/models"
	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
)

// finishedLoadStatuses are the states counted as lane history.
var finishedLoadStatuses = []enums.LoadStatus{
	enums.LoadStatusDelivered,
	enums.LoadStatusCompleted,
}

// LaneHistory summarizes a carrier's completed-load history relative to
// one lane.
type LaneHistory struct {
	LaneCount   int64
	OriginCount int64
	DestCount   int64
}

// Repository handles match-result persistence and the history/availability
// queries behind the scoring bands.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to matching operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// CreateResults persists one row per surviving candidate of a scoring run.
func (r *Repository) CreateResults(ctx context.Context, results []models.MatchResult) error {
	if len(results) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&results).Error
}

// CarrierLaneHistory counts the carrier's finished loads on the exact
// lane and on the origin/destination states individually.
func (r *Repository) CarrierLaneHistory(ctx context.Context, carrierID uuid.UUID, originState, destState string) (LaneHistory, error) {
	var history LaneHistory
	base := func() *gorm.DB {
		return r.DB(ctx).
			Model(&models.Load{}).
			Where("carrier_id = ?", carrierID).
			Where("status IN ?", finishedLoadStatuses)
	}

	if err := base().
		Where("origin_state = ? AND destination_state = ?", originState, destState).
		Count(&history.LaneCount).Error; err != nil {
		return history, err
	}
	if err := base().
		Where("origin_state = ?", originState).
		Count(&history.OriginCount).Error; err != nil {
		return history, err
	}
	if err := base().
		Where("destination_state = ?", destState).
		Count(&history.DestCount).Error; err != nil {
		return history, err
	}
	return history, nil
}

// LaneAverageRate returns the trailing average carrier rate across all
// finished loads on the lane. The boolean is false when the lane has no
// history.
func (r *Repository) LaneAverageRate(ctx context.Context, originState, destState string) (decimal.Decimal, bool, error) {
	var row struct {
		Avg *float64
	}
	err := r.DB(ctx).
		Model(&models.Load{}).
		Select("AVG(carrier_rate) AS avg").
		Where("origin_state = ? AND destination_state = ?", originState, destState).
		Where("status IN ?", finishedLoadStatuses).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, false, err
	}
	if row.Avg == nil {
		return decimal.Zero, false, nil
	}
	return decimal.NewFromFloat(*row.Avg), true, nil
}

// CountPickupConflicts counts the carrier's other active loads with a
// pickup inside a ±24h window of the given pickup time.
func (r *Repository) CountPickupConflicts(ctx context.Context, carrierID uuid.UUID, pickupAt time.Time) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Load{}).
		Where("carrier_id = ?", carrierID).
		Where("status IN ?", enums.ActiveLoadStatuses()).
		Where("pickup_at BETWEEN ? AND ?", pickupAt.Add(-24*time.Hour), pickupAt.Add(24*time.Hour)).
		Count(&count).Error
	return count, err
}

// HasBackhaulInto reports whether the carrier has an active load
// delivering into the given state within the 48 hours before pickupAt,
// a natural reposition toward this load's origin.
func (r *Repository) HasBackhaulInto(ctx context.Context, carrierID uuid.UUID, originState string, pickupAt time.Time) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Load{}).
		Where("carrier_id = ?", carrierID).
		Where("status IN ?", enums.ActiveLoadStatuses()).
		Where("destination_state = ?", originState).
		Where("delivery_at BETWEEN ? AND ?", pickupAt.Add(-48*time.Hour), pickupAt).
		Count(&count).Error
	return count > 0, err
}

// MarkAssigned flips the assignment flag on the most recent result row
// for the load/carrier pair.
func (r *Repository) MarkAssigned(ctx context.Context, loadID, carrierID uuid.UUID) error {
	return r.markOutcome(ctx, loadID, carrierID, "was_assigned")
}

// MarkCompleted flips the completion flag on the most recent result row
// for the load/carrier pair.
func (r *Repository) MarkCompleted(ctx context.Context, loadID, carrierID uuid.UUID) error {
	return r.markOutcome(ctx, loadID, carrierID, "was_completed")
}

func (r *Repository) markOutcome(ctx context.Context, loadID, carrierID uuid.UUID, column string) error {
	sub := r.DB(ctx).
		Model(&models.MatchResult{}).
		Select("id").
		Where("load_id = ? AND carrier_id = ?", loadID, carrierID).
		Order("created_at DESC").
		Limit(1)
	return r.DB(ctx).
		Model(&models.MatchResult{}).
		Where("id IN (?)", sub).
		Update(column, true).Error
}
