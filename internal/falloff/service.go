package falloff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderalogistics/loadpilot-backend/internal/alerts"
	"github.com/calderalogistics/loadpilot-backend/internal/matching"
	"github.com/calderalogistics/loadpilot-backend/pkg/db/models"
	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
	pkgerrors "github.com/calderalogistics/loadpilot-backend/pkg/errors"
	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
	"github.com/calderalogistics/loadpilot-backend/pkg/metrics"
)

type eventRepository interface {
	Create(ctx context.Context, event *models.FallOffEvent) error
	FindLatestActiveForLoad(ctx context.Context, loadID uuid.UUID) (*models.FallOffEvent, error)
	Update(ctx context.Context, event *models.FallOffEvent) error
}

type loadService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Load, error)
	AssignCarrier(ctx context.Context, loadID, carrierID uuid.UUID) (*models.Load, error)
	ReleaseCarrier(ctx context.Context, loadID uuid.UUID) (*models.Load, error)
}

type matcher interface {
	RankCarriers(ctx context.Context, loadID uuid.UUID) (*matching.RankOutcome, error)
	MarkAssigned(ctx context.Context, loadID, carrierID uuid.UUID) error
}

type carrierLedger interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CarrierProfile, error)
	RecordFallOff(ctx context.Context, carrierID uuid.UUID, note string, at time.Time) (int, error)
}

type alertService interface {
	Notify(ctx context.Context, input alerts.NotifyInput) (bool, error)
	SendText(ctx context.Context, phoneNumber, message string)
	SendEmail(ctx context.Context, address, subject, html string)
}

type scheduleBuilder interface {
	CreateSchedule(ctx context.Context, loadID uuid.UUID) (int, error)
}

// Service orchestrates carrier fall-off recovery: unassign, alert,
// re-match, offer to backups, and close the loop when a backup accepts.
type Service interface {
	ExecuteRecovery(ctx context.Context, loadID uuid.UUID, reason string) (*models.FallOffEvent, error)
	HandleAcceptance(ctx context.Context, loadID, carrierID uuid.UUID) (bool, error)
}

type service struct {
	repo         eventRepository
	loads        loadService
	matcher      matcher
	carriers     carrierLedger
	alerts       alertService
	schedules    scheduleBuilder
	logg         *logger.Logger
	pipeline     *metrics.PipelineMetrics
	backupOffers int
	now          func() time.Time
}

// NewService wires the recovery orchestrator. backupOffers caps how many
// ranked backups receive the urgent offer.
func NewService(repo eventRepository, loads loadService, m matcher, carriers carrierLedger, alertSvc alertService, schedules scheduleBuilder, logg *logger.Logger, pipeline *metrics.PipelineMetrics, backupOffers int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fall-off repository required")
	}
	if loads == nil {
		return nil, fmt.Errorf("load service required")
	}
	if m == nil {
		return nil, fmt.Errorf("matching engine required")
	}
	if carriers == nil {
		return nil, fmt.Errorf("carrier ledger required")
	}
	if alertSvc == nil {
		return nil, fmt.Errorf("alert service required")
	}
	if schedules == nil {
		return nil, fmt.Errorf("schedule builder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if backupOffers <= 0 {
		backupOffers = 3
	}
	return &service{
		repo:         repo,
		loads:        loads,
		matcher:      m,
		carriers:     carriers,
		alerts:       alertSvc,
		schedules:    schedules,
		logg:         logg,
		pipeline:     pipeline,
		backupOffers: backupOffers,
		now:          time.Now,
	}, nil
}

// ExecuteRecovery runs the recovery steps in order. Each step is
// independently fault-tolerant: a failure is logged and later steps
// still run, because a half-recovered load beats an abandoned one.
func (s *service) ExecuteRecovery(ctx context.Context, loadID uuid.UUID, reason string) (*models.FallOffEvent, error) {
	load, err := s.loads.GetByID(ctx, loadID)
	if err != nil {
		return nil, err
	}
	if load.CarrierID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "load has no carrier to fall off")
	}
	originalCarrierID := *load.CarrierID

	ctx = s.logg.WithCarrierID(s.logg.WithLoadID(ctx, load.ID.String()), originalCarrierID.String())
	s.logg.Warn(ctx, "carrier fall-off, starting recovery")
	s.pipeline.IncFallOff()

	// step 1: open the recovery episode
	event := &models.FallOffEvent{
		LoadID:    load.ID,
		CarrierID: originalCarrierID,
		Reason:    reason,
		Status:    enums.FallOffStatusActive,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		s.logg.Error(ctx, "recovery step failed: create event", err)
		event = nil
	}

	// step 2: alert the owning staff member
	s.alertOwner(ctx, load, reason)

	// step 3: unassign and revert the load
	if _, err := s.loads.ReleaseCarrier(ctx, load.ID); err != nil {
		s.logg.Error(ctx, "recovery step failed: release carrier", err)
	}

	// step 4: re-match and offer to the top backups
	contacted := s.offerToBackups(ctx, load)
	if event != nil && contacted > 0 {
		event.BackupsContacted = contacted
		if err := s.repo.Update(ctx, event); err != nil {
			s.logg.Error(ctx, "recovery step failed: record contacted backups", err)
		}
	}

	// step 5: note the fall-off on the original carrier's record
	s.recordAgainstCarrier(ctx, load, originalCarrierID, reason)

	if event == nil {
		s.pipeline.IncRecovery("failed")
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "recovery ran but event was not recorded")
	}
	s.pipeline.IncRecovery("pending")
	return event, nil
}

func (s *service) alertOwner(ctx context.Context, load *models.Load, reason string) {
	loadID := load.ID
	if _, err := s.alerts.Notify(ctx, alerts.NotifyInput{
		UserID:   load.OwnerID,
		LoadID:   &loadID,
		Type:     enums.NotificationTypeFallOff,
		Priority: enums.NotificationPriorityHigh,
		Title:    fmt.Sprintf("Carrier fell off load %s", load.ReferenceNumber),
		Message:  fmt.Sprintf("Reason: %s. Backup carriers are being offered the load.", reason),
	}); err != nil {
		s.logg.Error(ctx, "recovery step failed: owner alert", err)
	}
}

// offerToBackups re-ranks carriers and texts an urgent offer to the top
// few, score-descending. Returns the number actually contacted.
func (s *service) offerToBackups(ctx context.Context, load *models.Load) int {
	outcome, err := s.matcher.RankCarriers(ctx, load.ID)
	if err != nil {
		s.logg.Error(ctx, "recovery step failed: re-match", err)
		return 0
	}

	offer := fmt.Sprintf("Urgent: load %s %s, %s pickup %s. First to accept wins. Reply YES to book.",
		load.ReferenceNumber, load.Lane(), load.EquipmentType,
		load.PickupAt.UTC().Format("Jan 2 15:04 MST"))

	contacted := 0
	for _, candidate := range outcome.Candidates {
		if contacted >= s.backupOffers {
			break
		}
		if candidate.Carrier.Phone == "" {
			continue
		}
		s.alerts.SendText(ctx, candidate.Carrier.Phone, offer)
		contacted++
	}
	return contacted
}

func (s *service) recordAgainstCarrier(ctx context.Context, load *models.Load, carrierID uuid.UUID, reason string) {
	note := fmt.Sprintf("Fell off load %s: %s", load.ReferenceNumber, reason)
	count, err := s.carriers.RecordFallOff(ctx, carrierID, note, s.now().UTC())
	if err != nil {
		s.logg.Error(ctx, "recovery step failed: carrier note", err)
		return
	}
	if count < 2 {
		return
	}
	loadID := load.ID
	if _, err := s.alerts.Notify(ctx, alerts.NotifyInput{
		UserID:   load.OwnerID,
		LoadID:   &loadID,
		Type:     enums.NotificationTypeCarrierReview,
		Priority: enums.NotificationPriorityHigh,
		Title:    fmt.Sprintf("Carrier review: %d fall-offs on record", count),
		Message:  "This carrier has fallen off repeatedly. Review for deactivation.",
	}); err != nil {
		s.logg.Error(ctx, "recovery step failed: review alert", err)
	}
}

// HandleAcceptance closes the most recent open episode for the load by
// booking the accepting carrier. A missing open episode means there is
// nothing to recover (late or duplicate acceptance); that is a clean
// no-op, reported via the boolean.
func (s *service) HandleAcceptance(ctx context.Context, loadID, carrierID uuid.UUID) (bool, error) {
	event, err := s.repo.FindLatestActiveForLoad(ctx, loadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find active fall-off event")
	}

	load, err := s.loads.AssignCarrier(ctx, loadID, carrierID)
	if err != nil {
		return false, err
	}

	if err := s.matcher.MarkAssigned(ctx, loadID, carrierID); err != nil {
		s.logg.Error(ctx, "mark match assigned failed", err)
	}
	if _, err := s.schedules.CreateSchedule(ctx, loadID); err != nil {
		s.logg.Error(ctx, "regenerate check-call schedule failed", err)
	}

	if !event.Status.CanTransitionTo(enums.FallOffStatusRecovered) {
		return false, pkgerrors.New(pkgerrors.CodeStateConflict, "fall-off event already closed")
	}
	now := s.now().UTC()
	minutes := int(now.Sub(event.CreatedAt).Minutes())
	event.Status = enums.FallOffStatusRecovered
	event.BackupsAccepted++
	event.NewCarrierID = &carrierID
	event.RecoveryMinutes = &minutes
	event.ResolvedAt = &now
	if err := s.repo.Update(ctx, event); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close fall-off event")
	}
	s.pipeline.IncRecovery("recovered")

	loadRef := load.ID
	if _, err := s.alerts.Notify(ctx, alerts.NotifyInput{
		UserID:   load.OwnerID,
		LoadID:   &loadRef,
		Type:     enums.NotificationTypeFallOff,
		Priority: enums.NotificationPriorityNormal,
		Title:    fmt.Sprintf("Load %s recovered", load.ReferenceNumber),
		Message:  fmt.Sprintf("A backup carrier accepted after %d minutes.", minutes),
	}); err != nil {
		s.logg.Error(ctx, "recovery alert failed", err)
	}

	recCtx := s.logg.WithFields(ctx, map[string]any{
		"load_id":          loadID.String(),
		"carrier_id":       carrierID.String(),
		"recovery_minutes": minutes,
	})
	s.logg.Info(recCtx, "fall-off recovered")
	return true, nil
}
