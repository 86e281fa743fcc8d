package loads

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderalogistics/loadpilot-backend/internal/repo"
	"github.com/calderalogistics/loadpilot-backend/pkg/db/models"
	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
)

// Repository handles load persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to load operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID loads a load row by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Load, error) {
	var load models.Load
	if err := r.DB(ctx).First(&load, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &load, nil
}

// ListByStatuses returns loads in any of the given lifecycle states,
// oldest first.
func (r *Repository) ListByStatuses(ctx context.Context, statuses ...enums.LoadStatus) ([]models.Load, error) {
	var rows []models.Load
	if err := r.DB(ctx).
		Where("status IN ?", statuses).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves the provided load.
func (r *Repository) Update(ctx context.Context, load *models.Load) error {
	if load == nil {
		return fmt.Errorf("load is required")
	}
	return r.DB(ctx).Save(load).Error
}

// UpdateStatus persists only the status column.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.LoadStatus) error {
	return r.DB(ctx).
		Model(&models.Load{}).
		Where("id = ?", id).
		Update("status", status).Error
}
