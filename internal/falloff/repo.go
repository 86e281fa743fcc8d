package falloff

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderalogistics/loadpilot-backend/internal/repo"
	"github.com/calderalogistics/loadpilot-backend/pkg/db/models"
	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
)

// Repository handles fall-off event persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to fall-off operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a new event row.
func (r *Repository) Create(ctx context.Context, event *models.FallOffEvent) error {
	if event == nil {
		return fmt.Errorf("fall-off event is required")
	}
	return r.DB(ctx).Create(event).Error
}

// FindLatestActiveForLoad returns the most recent open event for the
// load, or gorm.ErrRecordNotFound.
func (r *Repository) FindLatestActiveForLoad(ctx context.Context, loadID uuid.UUID) (*models.FallOffEvent, error) {
	var event models.FallOffEvent
	err := r.DB(ctx).
		Where("load_id = ?", loadID).
		Where("status = ?", enums.FallOffStatusActive).
		Order("created_at DESC").
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// Update saves the provided event.
func (r *Repository) Update(ctx context.Context, event *models.FallOffEvent) error {
	if event == nil {
		return fmt.Errorf("fall-off event is required")
	}
	return r.DB(ctx).Save(event).Error
}
