package carriers

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

// Repository handles carrier-profile persistence. The matching and risk
// engines treat profiles as a read-only scoring projection; only the
// fall-off bookkeeping fields are written here.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to carrier operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads a carrier profile by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CarrierProfile, error) {
	var carrier models.CarrierProfile
	if err := r.DB(ctx).First(&carrier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &carrier, nil
}

// ListBookable returns carriers whose onboarding status allows offers,
// ordered by id so repeated runs see candidates in a stable order.
func (r *Repository) ListBookable(ctx context.Context) ([]models.CarrierProfile, error) {
	var rows []models.CarrierProfile
	if err := r.DB(ctx).
		Where("onboarding_status IN ?", []enums.OnboardingStatus{
			enums.OnboardingStatusApproved,
			enums.OnboardingStatusActive,
		}).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// RecordFallOff appends a dated note to the carrier's profile and bumps
// the fall-off counter. Returns the new counter value.
func (r *Repository) RecordFallOff(ctx context.Context, carrierID uuid.UUID, note string, at time.Time) (int, error) {
	var carrier models.CarrierProfile
	err := r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&carrier, "id = ?", carrierID).Error; err != nil {
			return err
		}
		entry := fmt.Sprintf("[%s] %s", at.UTC().Format(time.RFC3339), note)
		if carrier.Notes != nil && *carrier.Notes != "" {
			entry = *carrier.Notes + "\n" + entry
		}
		carrier.Notes = &entry
		carrier.FallOffCount++
		return tx.Save(&carrier).Error
	})
	if err != nil {
		return 0, err
	}
	return carrier.FallOffCount, nil
}
