package checkcalls

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/calderalogistics/loadpilot-backend/internal/alerts"
	"github.com/calderalogistics/loadpilot-backend/pkg/config"
	"github.com/calderalogistics/loadpilot-backend/pkg/db/models"
	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
	pkgerrors "github.com/calderalogistics/loadpilot-backend/pkg/errors"
	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
	"github.com/calderalogistics/loadpilot-backend/pkg/metrics"
)

// responseCodes maps the fixed numeric reply codes carriers text back to
// load statuses. Codes 2 and 3 both confirm the truck is rolling.
var responseCodes = map[string]enums.LoadStatus{
	"1": enums.LoadStatusAtPickup,
	"2": enums.LoadStatusInTransit,
	"3": enums.LoadStatusInTransit,
	"4": enums.LoadStatusAtDelivery,
	"5": enums.LoadStatusDelivered,
}

type scheduleRepository interface {
	ReplaceForLoad(ctx context.Context, loadID uuid.UUID, rows []models.CheckCallSchedule) error
	ListDuePending(ctx context.Context, now time.Time) ([]models.CheckCallSchedule, error)
	ListStaleSent(ctx context.Context, cutoff time.Time) ([]models.CheckCallSchedule, error)
	FindLatestSentByPhoneSuffix(ctx context.Context, suffix string) (*models.CheckCallSchedule, error)
	Update(ctx context.Context, row *models.CheckCallSchedule) error
}

type loadService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Load, error)
	AdvanceTo(ctx context.Context, id uuid.UUID, target enums.LoadStatus) (*models.Load, bool, error)
}

type alertService interface {
	Notify(ctx context.Context, input alerts.NotifyInput) (bool, error)
	SendText(ctx context.Context, phoneNumber, message string)
}

// SweepSummary aggregates one processDue pass. Per-item failures are
// collected in Err; they never abort the sweep.
type SweepSummary struct {
	Sent      int
	Retried   int
	Escalated int
	Err       error
}

// Service drives the check-call protocol: plan generation, the periodic
// due-touchpoint sweep and inbound reply handling.
type Service interface {
	CreateSchedule(ctx context.Context, loadID uuid.UUID) (int, error)
	ProcessDue(ctx context.Context) (SweepSummary, error)
	HandleInboundResponse(ctx context.Context, fromPhone, responseText string) error
}

type service struct {
	repo     scheduleRepository
	loads    loadService
	alerts   alertService
	logg     *logger.Logger
	pipeline *metrics.PipelineMetrics
	cfg      config.CheckCallConfig
	now      func() time.Time
}

// NewService wires the check-call scheduler.
func NewService(repo scheduleRepository, loads loadService, alertSvc alertService, logg *logger.Logger, pipeline *metrics.PipelineMetrics, cfg config.CheckCallConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("check-call repository required")
	}
	if loads == nil {
		return nil, fmt.Errorf("load service required")
	}
	if alertSvc == nil {
		return nil, fmt.Errorf("alert service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.ResponseTimeout <= 0 {
		cfg.ResponseTimeout = 30 * time.Minute
	}
	return &service{
		repo:     repo,
		loads:    loads,
		alerts:   alertSvc,
		logg:     logg,
		pipeline: pipeline,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

// CreateSchedule regenerates the full touchpoint plan for an assigned
// load, superseding any previous plan. Returns the number of planned
// touchpoints.
func (s *service) CreateSchedule(ctx context.Context, loadID uuid.UUID) (int, error) {
	load, err := s.loads.GetByID(ctx, loadID)
	if err != nil {
		return 0, err
	}
	if load.CarrierID == nil {
		return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "load has no carrier assigned")
	}

	phone := ""
	if load.DriverPhone != nil {
		phone = *load.DriverPhone
	}

	expedited := load.CustomerLoyaltyRating >= s.cfg.ExpeditedMinTier
	plan := buildPlan(load.PickupAt.UTC(), load.DeliveryAt.UTC(), s.now().UTC(), expedited)
	rows := planToRows(load.ID, *load.CarrierID, phone, plan)

	if err := s.repo.ReplaceForLoad(ctx, load.ID, rows); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace check-call schedule")
	}

	planCtx := s.logg.WithFields(ctx, map[string]any{
		"load_id":     load.ID.String(),
		"touchpoints": len(rows),
		"expedited":   expedited,
	})
	s.logg.Info(planCtx, "check-call schedule created")
	return len(rows), nil
}

// ProcessDue advances the schedule state machine: due pending rows are
// sent, unanswered sent rows get one resend after the response timeout,
// and a second timeout escalates the touchpoint terminally.
func (s *service) ProcessDue(ctx context.Context) (SweepSummary, error) {
	now := s.now().UTC()
	var summary SweepSummary

	due, err := s.repo.ListDuePending(ctx, now)
	if err != nil {
		return summary, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list due touchpoints")
	}
	for i := range due {
		if err := s.sendTouchpoint(ctx, &due[i], now); err != nil {
			summary.Err = multierr.Append(summary.Err, err)
			continue
		}
		summary.Sent++
	}

	cutoff := now.Add(-s.cfg.ResponseTimeout)
	stale, err := s.repo.ListStaleSent(ctx, cutoff)
	if err != nil {
		return summary, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale touchpoints")
	}
	for i := range stale {
		retried, err := s.handleStale(ctx, &stale[i], now)
		if err != nil {
			summary.Err = multierr.Append(summary.Err, err)
			continue
		}
		if retried {
			summary.Retried++
		} else {
			summary.Escalated++
		}
	}

	if summary.Sent+summary.Retried+summary.Escalated > 0 {
		sweepCtx := s.logg.WithFields(ctx, map[string]any{
			"sent":      summary.Sent,
			"retried":   summary.Retried,
			"escalated": summary.Escalated,
		})
		s.logg.Info(sweepCtx, "check-call sweep complete")
	}
	return summary, nil
}

func (s *service) sendTouchpoint(ctx context.Context, row *models.CheckCallSchedule, now time.Time) error {
	if !row.Status.CanTransitionTo(enums.CheckCallStatusSent) {
		return fmt.Errorf("touchpoint %s cannot be sent from %s", row.ID, row.Status)
	}

	// A missing phone degrades to a state-only transition; the next
	// sweep escalates it like any unanswered touchpoint.
	s.alerts.SendText(ctx, row.CarrierPhone, touchpointPrompt(row.Type))

	row.Status = enums.CheckCallStatusSent
	sent := now
	row.SentAt = &sent
	if err := s.repo.Update(ctx, row); err != nil {
		return fmt.Errorf("mark touchpoint sent %s: %w", row.ID, err)
	}
	s.pipeline.IncCheckCall(string(row.Type))
	return nil
}

// handleStale resends once, then escalates. Returns true when the
// touchpoint was retried.
func (s *service) handleStale(ctx context.Context, row *models.CheckCallSchedule, now time.Time) (bool, error) {
	if row.RetryCount == 0 {
		s.alerts.SendText(ctx, row.CarrierPhone, touchpointPrompt(row.Type))
		row.RetryCount = 1
		sent := now
		row.SentAt = &sent
		if err := s.repo.Update(ctx, row); err != nil {
			return false, fmt.Errorf("mark touchpoint retried %s: %w", row.ID, err)
		}
		s.notifyMiss(ctx, row, false)
		return true, nil
	}

	if !row.Status.CanTransitionTo(enums.CheckCallStatusEscalated) {
		return false, fmt.Errorf("touchpoint %s cannot escalate from %s", row.ID, row.Status)
	}
	row.Status = enums.CheckCallStatusEscalated
	escalated := now
	row.EscalatedAt = &escalated
	if err := s.repo.Update(ctx, row); err != nil {
		return false, fmt.Errorf("mark touchpoint escalated %s: %w", row.ID, err)
	}
	s.pipeline.IncEscalation()
	s.notifyMiss(ctx, row, true)
	return false, nil
}

// notifyMiss alerts the load's owning staff member. First misses are
// informational; second misses are urgent.
func (s *service) notifyMiss(ctx context.Context, row *models.CheckCallSchedule, escalated bool) {
	load, err := s.loads.GetByID(ctx, row.LoadID)
	if err != nil {
		s.logg.Error(s.logg.WithLoadID(ctx, row.LoadID.String()), "load lookup for miss alert failed", err)
		return
	}

	priority := enums.NotificationPriorityNormal
	title := fmt.Sprintf("Check call unanswered on %s", load.ReferenceNumber)
	message := fmt.Sprintf("No reply to the %s touchpoint; the prompt was resent.", row.Type)
	if escalated {
		priority = enums.NotificationPriorityHigh
		title = fmt.Sprintf("Check call escalated on %s", load.ReferenceNumber)
		message = fmt.Sprintf("The %s touchpoint went unanswered twice. Call the driver.", row.Type)
	}

	loadID := load.ID
	if _, err := s.alerts.Notify(ctx, alerts.NotifyInput{
		UserID:   load.OwnerID,
		LoadID:   &loadID,
		Type:     enums.NotificationTypeCheckCall,
		Priority: priority,
		Title:    title,
		Message:  message,
	}); err != nil {
		s.logg.Error(s.logg.WithLoadID(ctx, load.ID.String()), "miss alert failed", err)
	}
}

// HandleInboundResponse matches a reply to the most recent sent
// touchpoint for the sending phone number and applies the coded status.
// Unmatched or unmapped replies are dropped silently; carriers text all
// sorts of things.
func (s *service) HandleInboundResponse(ctx context.Context, fromPhone, responseText string) error {
	suffix := phoneSuffix(fromPhone)
	if suffix == "" {
		return nil
	}

	row, err := s.repo.FindLatestSentByPhoneSuffix(ctx, suffix)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "match inbound reply")
	}

	if !row.Status.CanTransitionTo(enums.CheckCallStatusResponded) {
		return nil
	}

	// An unmapped reply leaves the touchpoint open so the retry and
	// escalation path still runs for it.
	status, ok := responseCodes[firstDigit(responseText)]
	if !ok {
		return nil
	}

	now := s.now().UTC()
	row.Status = enums.CheckCallStatusResponded
	row.RespondedAt = &now
	if err := s.repo.Update(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark touchpoint responded")
	}

	_, advanced, err := s.loads.AdvanceTo(ctx, row.LoadID, status)
	if err != nil {
		return err
	}
	if advanced {
		advCtx := s.logg.WithFields(ctx, map[string]any{
			"load_id": row.LoadID.String(),
			"status":  string(status),
		})
		s.logg.Info(advCtx, "load advanced from check-call reply")
	}

	if status == enums.LoadStatusDelivered {
		s.alerts.SendText(ctx, row.CarrierPhone,
			"Delivery confirmed. Please reply with a photo of the signed POD.")
	}
	return nil
}

func touchpointPrompt(t enums.CheckCallType) string {
	switch t {
	case enums.CheckCallPrePickup:
		return "Pickup in 2 hours. Reply 1 when you arrive at the shipper."
	case enums.CheckCallPickupReminder:
		return "Pickup in 30 minutes. Reply 1 when you arrive at the shipper."
	case enums.CheckCallPickupConfirmation:
		return "Confirming pickup. Reply 2 once you are loaded and rolling."
	case enums.CheckCallTransitCheck:
		return "Status check: reply 3 if running on time, 4 if at the receiver."
	case enums.CheckCallShipperUpdate:
		return "Shipper update due: reply 3 if running on time."
	case enums.CheckCallPreDelivery:
		return "Delivery in 2 hours. Reply 4 when you arrive at the receiver."
	case enums.CheckCallPODRequest:
		return "Reply 5 once delivered, then send a photo of the signed POD."
	default:
		return "Status check: reply with your current load status code."
	}
}

// phoneSuffix normalizes to the trailing 10 digits. Shorter numbers use
// every digit available.
func phoneSuffix(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) > 10 {
		return d[len(d)-10:]
	}
	return d
}

func firstDigit(text string) string {
	for _, r := range strings.TrimSpace(text) {
		if r >= '0' && r <= '9' {
			return string(r)
		}
	}
	return ""
}
