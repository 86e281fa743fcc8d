package loads

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderalogistics/loadpilot-backend/pkg/db/models"
	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
	pkgerrors "github.com/calderalogistics/loadpilot-backend/pkg/errors"
	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
)

type fakeLoadRepo struct {
	loads map[uuid.UUID]*models.Load
}

func newFakeLoadRepo(rows ...*models.Load) *fakeLoadRepo {
	repo := &fakeLoadRepo{loads: map[uuid.UUID]*models.Load{}}
	for _, row := range rows {
		repo.loads[row.ID] = row
	}
	return repo
}

func (f *fakeLoadRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Load, error) {
	load, ok := f.loads[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *load
	return &copied, nil
}

func (f *fakeLoadRepo) ListByStatuses(_ context.Context, statuses ...enums.LoadStatus) ([]models.Load, error) {
	var rows []models.Load
	for _, load := range f.loads {
		for _, status := range statuses {
			if load.Status == status {
				rows = append(rows, *load)
				break
			}
		}
	}
	return rows, nil
}

func (f *fakeLoadRepo) Update(_ context.Context, load *models.Load) error {
	copied := *load
	f.loads[load.ID] = &copied
	return nil
}

func newLoadService(t *testing.T, repo *fakeLoadRepo) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "loads-test"})
	svc, err := NewService(repo, logg)
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func loadInStatus(status enums.LoadStatus) *models.Load {
	return &models.Load{
		ID:              uuid.New(),
		ReferenceNumber: "LP-5001",
		Status:          status,
		OwnerID:         uuid.New(),
	}
}

func TestGetByIDMapsNotFound(t *testing.T) {
	svc := newLoadService(t, newFakeLoadRepo())

	_, err := svc.GetByID(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTransitionRejectsBackwardsMove(t *testing.T) {
	load := loadInStatus(enums.LoadStatusDelivered)
	svc := newLoadService(t, newFakeLoadRepo(load))

	_, err := svc.Transition(context.Background(), load.ID, enums.LoadStatusBooked)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestTransitionAllowsCancellation(t *testing.T) {
	load := loadInStatus(enums.LoadStatusInTransit)
	repo := newFakeLoadRepo(load)
	svc := newLoadService(t, repo)

	updated, err := svc.Transition(context.Background(), load.ID, enums.LoadStatusCancelled)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Status != enums.LoadStatusCancelled {
		t.Fatalf("status %s", updated.Status)
	}
	if repo.loads[load.ID].Status != enums.LoadStatusCancelled {
		t.Fatal("cancellation not persisted")
	}
}

func TestAdvanceToIsForwardOnly(t *testing.T) {
	load := loadInStatus(enums.LoadStatusInTransit)
	repo := newFakeLoadRepo(load)
	svc := newLoadService(t, repo)

	// stale reply arriving after the load moved on
	_, advanced, err := svc.AdvanceTo(context.Background(), load.ID, enums.LoadStatusAtPickup)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if advanced {
		t.Fatal("backwards advance must be a no-op")
	}
	if repo.loads[load.ID].Status != enums.LoadStatusInTransit {
		t.Fatal("status mutated by a stale advance")
	}

	_, advanced, err = svc.AdvanceTo(context.Background(), load.ID, enums.LoadStatusAtDelivery)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !advanced {
		t.Fatal("forward advance should apply")
	}
	if repo.loads[load.ID].Status != enums.LoadStatusAtDelivery {
		t.Fatal("forward advance not persisted")
	}
}

func TestAssignCarrierBooksLoad(t *testing.T) {
	load := loadInStatus(enums.LoadStatusPosted)
	repo := newFakeLoadRepo(load)
	svc := newLoadService(t, repo)

	carrierID := uuid.New()
	updated, err := svc.AssignCarrier(context.Background(), load.ID, carrierID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if updated.Status != enums.LoadStatusBooked {
		t.Fatalf("status %s", updated.Status)
	}
	if updated.CarrierID == nil || *updated.CarrierID != carrierID {
		t.Fatal("carrier not recorded")
	}
}

func TestAssignCarrierRejectsLateAssignment(t *testing.T) {
	load := loadInStatus(enums.LoadStatusInTransit)
	svc := newLoadService(t, newFakeLoadRepo(load))

	_, err := svc.AssignCarrier(context.Background(), load.ID, uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestReleaseCarrierRevertsAndWipesDispatchFields(t *testing.T) {
	carrierID := uuid.New()
	driver := "Jo Driver"
	phone := "+15125550100"
	truck := "T-42"
	trailer := "TR-99"

	load := loadInStatus(enums.LoadStatusDispatched)
	load.CarrierID = &carrierID
	load.DriverName = &driver
	load.DriverPhone = &phone
	load.TruckNumber = &truck
	load.TrailerNumber = &trailer

	repo := newFakeLoadRepo(load)
	svc := newLoadService(t, repo)

	updated, err := svc.ReleaseCarrier(context.Background(), load.ID)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if updated.Status != enums.LoadStatusPosted {
		t.Fatalf("status %s", updated.Status)
	}
	if updated.CarrierID != nil || updated.DriverName != nil || updated.DriverPhone != nil ||
		updated.TruckNumber != nil || updated.TrailerNumber != nil {
		t.Fatal("dispatch fields not wiped")
	}
}

func TestReleaseCarrierRejectsInTransitLoad(t *testing.T) {
	load := loadInStatus(enums.LoadStatusInTransit)
	svc := newLoadService(t, newFakeLoadRepo(load))

	_, err := svc.ReleaseCarrier(context.Background(), load.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}
