package loads

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderalogistics/loadpilot-backend/pkg/db/models"
	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
	pkgerrors "github.com/calderalogistics/loadpilot-backend/pkg/errors"
	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
)

type loadRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Load, error)
	ListByStatuses(ctx context.Context, statuses ...enums.LoadStatus) ([]models.Load, error)
	Update(ctx context.Context, load *models.Load) error
}

// Service exposes load lifecycle operations. Every status mutation goes
// through the transition table; a rejected transition is a state-conflict
// error, never a silent write.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Load, error)
	ListActive(ctx context.Context) ([]models.Load, error)
	Transition(ctx context.Context, id uuid.UUID, next enums.LoadStatus) (*models.Load, error)
	AdvanceTo(ctx context.Context, id uuid.UUID, target enums.LoadStatus) (*models.Load, bool, error)
	AssignCarrier(ctx context.Context, loadID, carrierID uuid.UUID) (*models.Load, error)
	ReleaseCarrier(ctx context.Context, loadID uuid.UUID) (*models.Load, error)
}

type service struct {
	repo loadRepository
	logg *logger.Logger
}

// NewService builds a load service with the provided repository.
func NewService(repo loadRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("load repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Load, error) {
	load, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "load not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load load")
	}
	return load, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.Load, error) {
	rows, err := s.repo.ListByStatuses(ctx, enums.ActiveLoadStatuses()...)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active loads")
	}
	return rows, nil
}

func (s *service) Transition(ctx context.Context, id uuid.UUID, next enums.LoadStatus) (*models.Load, error) {
	load, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !load.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("load cannot move from %s to %s", load.Status, next))
	}
	load.Status = next
	if err := s.repo.Update(ctx, load); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update load status")
	}
	return load, nil
}

// AdvanceTo moves the load forward to target only when target is ahead of
// the current status. A stale or backwards advance is reported as a
// no-op, not an error; inbound check-call replies arrive out of order.
func (s *service) AdvanceTo(ctx context.Context, id uuid.UUID, target enums.LoadStatus) (*models.Load, bool, error) {
	load, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if load.Status.AtOrBeyond(target) || !load.Status.CanTransitionTo(target) {
		return load, false, nil
	}
	load.Status = target
	if err := s.repo.Update(ctx, load); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance load status")
	}
	return load, true, nil
}

func (s *service) AssignCarrier(ctx context.Context, loadID, carrierID uuid.UUID) (*models.Load, error) {
	load, err := s.GetByID(ctx, loadID)
	if err != nil {
		return nil, err
	}
	if !load.Status.CanTransitionTo(enums.LoadStatusBooked) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("load in %s cannot be booked", load.Status))
	}
	load.CarrierID = &carrierID
	load.Status = enums.LoadStatusBooked
	if err := s.repo.Update(ctx, load); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign carrier")
	}

	ctx = s.logg.WithCarrierID(s.logg.WithLoadID(ctx, loadID.String()), carrierID.String())
	s.logg.Info(ctx, "carrier assigned to load")
	return load, nil
}

// ReleaseCarrier clears the carrier assignment and reverts the load to
// posted, wiping the driver and equipment fields captured at dispatch.
func (s *service) ReleaseCarrier(ctx context.Context, loadID uuid.UUID) (*models.Load, error) {
	load, err := s.GetByID(ctx, loadID)
	if err != nil {
		return nil, err
	}
	if !load.Status.CanTransitionTo(enums.LoadStatusPosted) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("load in %s cannot revert to posted", load.Status))
	}
	load.CarrierID = nil
	load.Status = enums.LoadStatusPosted
	load.DriverName = nil
	load.DriverPhone = nil
	load.TruckNumber = nil
	load.TrailerNumber = nil
	if err := s.repo.Update(ctx, load); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release carrier")
	}

	s.logg.Info(s.logg.WithLoadID(ctx, loadID.String()), "carrier released from load")
	return load, nil
}
