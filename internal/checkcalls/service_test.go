package checkcalls

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderalogistics/loadpilot-backend/internal/alerts"
	"github.com/calderalogistics/loadpilot-backend/pkg/config"
	"github.com/calderalogistics/loadpilot-backend/pkg/db/models"
	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
	pkgerrors "github.com/calderalogistics/loadpilot-backend/pkg/errors"
	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
)

type fakeScheduleRepo struct {
	rows     map[uuid.UUID]*models.CheckCallSchedule
	replaced []models.CheckCallSchedule
	due      []models.CheckCallSchedule
	stale    []models.CheckCallSchedule
	bySuffix map[string]*models.CheckCallSchedule
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{
		rows:     map[uuid.UUID]*models.CheckCallSchedule{},
		bySuffix: map[string]*models.CheckCallSchedule{},
	}
}

func (f *fakeScheduleRepo) ReplaceForLoad(_ context.Context, _ uuid.UUID, rows []models.CheckCallSchedule) error {
	f.replaced = rows
	return nil
}

func (f *fakeScheduleRepo) ListDuePending(context.Context, time.Time) ([]models.CheckCallSchedule, error) {
	return f.due, nil
}

func (f *fakeScheduleRepo) ListStaleSent(context.Context, time.Time) ([]models.CheckCallSchedule, error) {
	return f.stale, nil
}

func (f *fakeScheduleRepo) FindLatestSentByPhoneSuffix(_ context.Context, suffix string) (*models.CheckCallSchedule, error) {
	row, ok := f.bySuffix[suffix]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (f *fakeScheduleRepo) Update(_ context.Context, row *models.CheckCallSchedule) error {
	copied := *row
	f.rows[row.ID] = &copied
	return nil
}

type fakeLoadService struct {
	loads    map[uuid.UUID]*models.Load
	advanced []enums.LoadStatus
}

func (f *fakeLoadService) GetByID(_ context.Context, id uuid.UUID) (*models.Load, error) {
	load, ok := f.loads[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "load not found")
	}
	return load, nil
}

func (f *fakeLoadService) AdvanceTo(_ context.Context, id uuid.UUID, target enums.LoadStatus) (*models.Load, bool, error) {
	load, ok := f.loads[id]
	if !ok {
		return nil, false, pkgerrors.New(pkgerrors.CodeNotFound, "load not found")
	}
	if load.Status.AtOrBeyond(target) || !load.Status.CanTransitionTo(target) {
		return load, false, nil
	}
	load.Status = target
	f.advanced = append(f.advanced, target)
	return load, true, nil
}

type fakeAlerts struct {
	notified []alerts.NotifyInput
	texts    []string
}

func (f *fakeAlerts) Notify(_ context.Context, input alerts.NotifyInput) (bool, error) {
	f.notified = append(f.notified, input)
	return true, nil
}

func (f *fakeAlerts) SendText(_ context.Context, _, message string) {
	f.texts = append(f.texts, message)
}

func newCheckCallService(t *testing.T, repo *fakeScheduleRepo, loads *fakeLoadService, alertsSvc *fakeAlerts) *service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "checkcalls-test"})
	svc, err := NewService(repo, loads, alertsSvc, logg, nil, config.CheckCallConfig{
		ResponseTimeout:  30 * time.Minute,
		ExpeditedMinTier: 4,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc.(*service)
}

func assignedLoad(now time.Time) *models.Load {
	carrierID := uuid.New()
	phone := "+15125550100"
	return &models.Load{
		ID:              uuid.New(),
		ReferenceNumber: "LP-2001",
		Status:          enums.LoadStatusDispatched,
		OwnerID:         uuid.New(),
		CarrierID:       &carrierID,
		DriverPhone:     &phone,
		PickupAt:        now.Add(12 * time.Hour),
		DeliveryAt:      now.Add(60 * time.Hour),
	}
}

func TestCreateScheduleRequiresCarrier(t *testing.T) {
	now := time.Now().UTC()
	load := assignedLoad(now)
	load.CarrierID = nil

	svc := newCheckCallService(t, newFakeScheduleRepo(),
		&fakeLoadService{loads: map[uuid.UUID]*models.Load{load.ID: load}}, &fakeAlerts{})

	_, err := svc.CreateSchedule(context.Background(), load.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCreateScheduleWritesPlanRows(t *testing.T) {
	now := time.Now().UTC()
	load := assignedLoad(now)
	repo := newFakeScheduleRepo()

	svc := newCheckCallService(t, repo,
		&fakeLoadService{loads: map[uuid.UUID]*models.Load{load.ID: load}}, &fakeAlerts{})
	svc.now = func() time.Time { return now }

	count, err := svc.CreateSchedule(context.Background(), load.ID)
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	if count != len(repo.replaced) {
		t.Fatalf("count %d does not match %d persisted rows", count, len(repo.replaced))
	}
	if count == 0 {
		t.Fatal("expected a non-empty plan")
	}
	for _, row := range repo.replaced {
		if row.LoadID != load.ID {
			t.Fatalf("row bound to wrong load")
		}
		if row.CarrierID != *load.CarrierID {
			t.Fatalf("row bound to wrong carrier")
		}
		if row.CarrierPhone != *load.DriverPhone {
			t.Fatalf("row missing driver phone")
		}
		if row.Status != enums.CheckCallStatusPending {
			t.Fatalf("row created as %s", row.Status)
		}
	}
}

func TestProcessDueSendsPendingTouchpoints(t *testing.T) {
	now := time.Now().UTC()
	repo := newFakeScheduleRepo()
	repo.due = []models.CheckCallSchedule{{
		ID:           uuid.New(),
		LoadID:       uuid.New(),
		Type:         enums.CheckCallTransitCheck,
		Status:       enums.CheckCallStatusPending,
		ScheduledAt:  now.Add(-time.Minute),
		CarrierPhone: "+15125550100",
	}}
	alertsSvc := &fakeAlerts{}

	svc := newCheckCallService(t, repo, &fakeLoadService{loads: map[uuid.UUID]*models.Load{}}, alertsSvc)
	svc.now = func() time.Time { return now }

	summary, err := svc.ProcessDue(context.Background())
	if err != nil {
		t.Fatalf("process due: %v", err)
	}
	if summary.Sent != 1 {
		t.Fatalf("expected 1 sent, got %d", summary.Sent)
	}
	if len(alertsSvc.texts) != 1 {
		t.Fatalf("expected 1 outbound text, got %d", len(alertsSvc.texts))
	}

	saved := repo.rows[repo.due[0].ID]
	if saved == nil || saved.Status != enums.CheckCallStatusSent {
		t.Fatalf("touchpoint not marked sent")
	}
	if saved.SentAt == nil || !saved.SentAt.Equal(now) {
		t.Fatalf("sent_at not stamped")
	}
}

func TestProcessDueRetriesOnceThenEscalates(t *testing.T) {
	now := time.Now().UTC()
	load := assignedLoad(now)
	loadsSvc := &fakeLoadService{loads: map[uuid.UUID]*models.Load{load.ID: load}}

	sentAt := now.Add(-45 * time.Minute)
	row := models.CheckCallSchedule{
		ID:           uuid.New(),
		LoadID:       load.ID,
		Type:         enums.CheckCallTransitCheck,
		Status:       enums.CheckCallStatusSent,
		ScheduledAt:  sentAt,
		CarrierPhone: "+15125550100",
		SentAt:       &sentAt,
	}

	repo := newFakeScheduleRepo()
	repo.stale = []models.CheckCallSchedule{row}
	alertsSvc := &fakeAlerts{}
	svc := newCheckCallService(t, repo, loadsSvc, alertsSvc)
	svc.now = func() time.Time { return now }

	summary, err := svc.ProcessDue(context.Background())
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if summary.Retried != 1 || summary.Escalated != 0 {
		t.Fatalf("expected retry, got %+v", summary)
	}
	retried := repo.rows[row.ID]
	if retried.RetryCount != 1 {
		t.Fatalf("retry count %d", retried.RetryCount)
	}
	if retried.Status != enums.CheckCallStatusSent {
		t.Fatalf("retried touchpoint left sent state: %s", retried.Status)
	}
	if len(alertsSvc.notified) != 1 || alertsSvc.notified[0].Priority != enums.NotificationPriorityNormal {
		t.Fatalf("first miss should raise a normal-priority alert")
	}

	// second timeout on the retried row escalates terminally
	repo.stale = []models.CheckCallSchedule{*retried}
	summary, err = svc.ProcessDue(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if summary.Escalated != 1 || summary.Retried != 0 {
		t.Fatalf("expected escalation, got %+v", summary)
	}
	escalated := repo.rows[row.ID]
	if escalated.Status != enums.CheckCallStatusEscalated {
		t.Fatalf("touchpoint left as %s", escalated.Status)
	}
	if escalated.EscalatedAt == nil {
		t.Fatal("escalated_at not stamped")
	}
	if last := alertsSvc.notified[len(alertsSvc.notified)-1]; last.Priority != enums.NotificationPriorityHigh {
		t.Fatalf("escalation should raise a high-priority alert")
	}
}

func TestHandleInboundResponseAdvancesLoad(t *testing.T) {
	now := time.Now().UTC()
	load := assignedLoad(now)
	load.Status = enums.LoadStatusAtPickup
	loadsSvc := &fakeLoadService{loads: map[uuid.UUID]*models.Load{load.ID: load}}

	sentAt := now.Add(-5 * time.Minute)
	row := &models.CheckCallSchedule{
		ID:           uuid.New(),
		LoadID:       load.ID,
		Type:         enums.CheckCallPickupConfirmation,
		Status:       enums.CheckCallStatusSent,
		CarrierPhone: "+15125550100",
		SentAt:       &sentAt,
	}
	repo := newFakeScheduleRepo()
	repo.bySuffix["5125550100"] = row

	svc := newCheckCallService(t, repo, loadsSvc, &fakeAlerts{})
	svc.now = func() time.Time { return now }

	if err := svc.HandleInboundResponse(context.Background(), "+1 (512) 555-0100", "2"); err != nil {
		t.Fatalf("handle inbound: %v", err)
	}
	if load.Status != enums.LoadStatusInTransit {
		t.Fatalf("load left at %s", load.Status)
	}
	saved := repo.rows[row.ID]
	if saved.Status != enums.CheckCallStatusResponded || saved.RespondedAt == nil {
		t.Fatalf("touchpoint not marked responded")
	}
}

func TestHandleInboundResponseDeliveredRequestsPOD(t *testing.T) {
	now := time.Now().UTC()
	load := assignedLoad(now)
	load.Status = enums.LoadStatusAtDelivery
	loadsSvc := &fakeLoadService{loads: map[uuid.UUID]*models.Load{load.ID: load}}

	sentAt := now.Add(-5 * time.Minute)
	row := &models.CheckCallSchedule{
		ID:           uuid.New(),
		LoadID:       load.ID,
		Type:         enums.CheckCallPODRequest,
		Status:       enums.CheckCallStatusSent,
		CarrierPhone: "+15125550100",
		SentAt:       &sentAt,
	}
	repo := newFakeScheduleRepo()
	repo.bySuffix["5125550100"] = row
	alertsSvc := &fakeAlerts{}

	svc := newCheckCallService(t, repo, loadsSvc, alertsSvc)
	svc.now = func() time.Time { return now }

	if err := svc.HandleInboundResponse(context.Background(), "5125550100", "5 delivered!"); err != nil {
		t.Fatalf("handle inbound: %v", err)
	}
	if load.Status != enums.LoadStatusDelivered {
		t.Fatalf("load left at %s", load.Status)
	}
	if len(alertsSvc.texts) != 1 || !strings.Contains(alertsSvc.texts[0], "POD") {
		t.Fatalf("expected a POD follow-up text, got %v", alertsSvc.texts)
	}
}

func TestHandleInboundResponseUnmappedReplyLeavesTouchpointOpen(t *testing.T) {
	now := time.Now().UTC()
	load := assignedLoad(now)
	load.Status = enums.LoadStatusAtPickup
	loadsSvc := &fakeLoadService{loads: map[uuid.UUID]*models.Load{load.ID: load}}

	sentAt := now.Add(-5 * time.Minute)
	row := &models.CheckCallSchedule{
		ID:           uuid.New(),
		LoadID:       load.ID,
		Type:         enums.CheckCallPickupConfirmation,
		Status:       enums.CheckCallStatusSent,
		CarrierPhone: "+15125550100",
		SentAt:       &sentAt,
	}
	repo := newFakeScheduleRepo()
	repo.bySuffix["5125550100"] = row

	svc := newCheckCallService(t, repo, loadsSvc, &fakeAlerts{})
	svc.now = func() time.Time { return now }

	if err := svc.HandleInboundResponse(context.Background(), "+15125550100", "thanks will do"); err != nil {
		t.Fatalf("handle inbound: %v", err)
	}
	if row.Status != enums.CheckCallStatusSent || row.RespondedAt != nil {
		t.Fatalf("unmapped reply consumed the touchpoint: %s", row.Status)
	}
	if _, updated := repo.rows[row.ID]; updated {
		t.Fatal("unmapped reply persisted a touchpoint update")
	}
	if load.Status != enums.LoadStatusAtPickup {
		t.Fatalf("unmapped reply moved the load to %s", load.Status)
	}
}

func TestHandleInboundResponseUnknownPhoneIsNoop(t *testing.T) {
	svc := newCheckCallService(t, newFakeScheduleRepo(),
		&fakeLoadService{loads: map[uuid.UUID]*models.Load{}}, &fakeAlerts{})

	if err := svc.HandleInboundResponse(context.Background(), "+19995550000", "3"); err != nil {
		t.Fatalf("expected silent drop, got %v", err)
	}
}

func TestPhoneSuffixNormalization(t *testing.T) {
	cases := map[string]string{
		"+1 (512) 555-0100": "5125550100",
		"15125550100":       "5125550100",
		"555-0100":          "5550100",
		"no digits":         "",
	}
	for input, want := range cases {
		if got := phoneSuffix(input); got != want {
			t.Errorf("phoneSuffix(%q) = %q, want %q", input, got, want)
		}
	}
}
