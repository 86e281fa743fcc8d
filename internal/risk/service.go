package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/calderalogistics/loadpilot-backend/internal/alerts"
	"github.com/calderalogistics/loadpilot-backend/pkg/config"
	"github.com/calderalogistics/loadpilot-backend/pkg/db/models"
	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
	pkgerrors "github.com/calderalogistics/loadpilot-backend/pkg/errors"
	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
	"github.com/calderalogistics/loadpilot-backend/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Factor codes, fixed so downstream consumers can key off them.
const (
	FactorUnassigned4h   = "UNASSIGNED_4HR"
	FactorUnassigned2h   = "UNASSIGNED_2HR"
	FactorMissedCalls2   = "MISSED_CHECK_CALLS_2"
	FactorMissedCalls1   = "MISSED_CHECK_CALLS_1"
	FactorPickupImminent = "PICKUP_IMMINENT"
	FactorCarrierPerf    = "CARRIER_PERFORMANCE_LOW"
	FactorCarrierTier    = "CARRIER_TIER_LOWEST"
	FactorLowMargin      = "LOW_MARGIN"
)

var lowMarginThreshold = decimal.NewFromInt(15)

// Factor is one contributing risk signal.
type Factor struct {
	Code        string `json:"code"`
	Points      int    `json:"points"`
	Description string `json:"description"`
}

// Assessment is the product of scoring one load. RecoveryCandidate marks
// a red, uncovered load worth handing to fall-off recovery; acting on the
// flag is the caller's decision.
type Assessment struct {
	Score             int
	Level             enums.RiskLevel
	Factors           []Factor
	RecoveryCandidate bool
}

// SweepSummary aggregates one sweep over the active loads. Per-load
// failures land in Err and never abort the batch.
type SweepSummary struct {
	Scored             int
	Amber              int
	Red                int
	RecoveryCandidates int
	Err                error
}

type loadLister interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Load, error)
	ListActive(ctx context.Context) ([]models.Load, error)
}

type carrierGetter interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CarrierProfile, error)
}

type escalationCounter interface {
	CountEscalatedForLoad(ctx context.Context, loadID uuid.UUID) (int64, error)
}

type riskRepository interface {
	CreateLog(ctx context.Context, log *models.RiskLog) error
}

type alertService interface {
	Notify(ctx context.Context, input alerts.NotifyInput) (bool, error)
	SendEmail(ctx context.Context, address, subject, html string)
}

// Service computes composite risk scores for loads, on demand and in a
// periodic sweep over every active load.
type Service interface {
	ScoreLoadByID(ctx context.Context, loadID uuid.UUID) (*Assessment, error)
	ScoreLoad(ctx context.Context, load *models.Load) (*Assessment, error)
	SweepActiveLoads(ctx context.Context) (SweepSummary, error)
}

type service struct {
	repo        riskRepository
	loads       loadLister
	carriers    carrierGetter
	escalations escalationCounter
	alerts      alertService
	logg        *logger.Logger
	pipeline    *metrics.PipelineMetrics
	cfg         config.RiskConfig
	now         func() time.Time
}

// NewService wires the risk engine.
func NewService(repo riskRepository, loads loadLister, carriers carrierGetter, escalations escalationCounter, alertSvc alertService, logg *logger.Logger, pipeline *metrics.PipelineMetrics, cfg config.RiskConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("risk repository required")
	}
	if loads == nil {
		return nil, fmt.Errorf("load lister required")
	}
	if carriers == nil {
		return nil, fmt.Errorf("carrier getter required")
	}
	if escalations == nil {
		return nil, fmt.Errorf("escalation counter required")
	}
	if alertSvc == nil {
		return nil, fmt.Errorf("alert service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.AlertDedupWindow <= 0 {
		cfg.AlertDedupWindow = 30 * time.Minute
	}
	return &service{
		repo:        repo,
		loads:       loads,
		carriers:    carriers,
		escalations: escalations,
		alerts:      alertSvc,
		logg:        logg,
		pipeline:    pipeline,
		cfg:         cfg,
		now:         time.Now,
	}, nil
}

func (s *service) ScoreLoadByID(ctx context.Context, loadID uuid.UUID) (*Assessment, error) {
	load, err := s.loads.GetByID(ctx, loadID)
	if err != nil {
		return nil, err
	}
	return s.ScoreLoad(ctx, load)
}

// ScoreLoad sums additive risk factors and thresholds the total.
func (s *service) ScoreLoad(ctx context.Context, load *models.Load) (*Assessment, error) {
	if load == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "load required")
	}
	now := s.now().UTC()
	assessment := &Assessment{}
	unassigned := false

	if load.CarrierID == nil {
		age := now.Sub(load.CreatedAt)
		switch {
		case age >= 4*time.Hour:
			assessment.add(FactorUnassigned4h, 50, "uncovered for 4+ hours")
			unassigned = true
		case age >= 2*time.Hour:
			assessment.add(FactorUnassigned2h, 30, "uncovered for 2+ hours")
			unassigned = true
		}
	}

	missed, err := s.escalations.CountEscalatedForLoad(ctx, load.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count missed check calls")
	}
	switch {
	case missed >= 2:
		assessment.add(FactorMissedCalls2, 50, fmt.Sprintf("%d missed check calls", missed))
	case missed == 1:
		assessment.add(FactorMissedCalls1, 25, "1 missed check call")
	}

	if now.After(load.PickupAt.Add(-4*time.Hour)) && !load.Status.AtOrBeyond(enums.LoadStatusInTransit) {
		assessment.add(FactorPickupImminent, 40, "pickup within 4 hours without transit confirmation")
	}

	if load.CarrierID != nil {
		carrier, err := s.carriers.FindByID(ctx, *load.CarrierID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load carrier profile")
		}
		if carrier.PerformanceScore > 0 && carrier.PerformanceScore < 80 {
			assessment.add(FactorCarrierPerf, 15,
				fmt.Sprintf("carrier performance score %.0f", carrier.PerformanceScore))
		}
		if carrier.LoyaltyTier.IsLowest() {
			assessment.add(FactorCarrierTier, 10, "carrier in lowest loyalty tier")
		}
	}

	if load.GrossMarginPercent().LessThan(lowMarginThreshold) {
		assessment.add(FactorLowMargin, 15, "gross margin below 15%")
	}

	assessment.Level = enums.RiskLevelForScore(assessment.Score)
	assessment.RecoveryCandidate = assessment.Level == enums.RiskLevelRed && unassigned
	return assessment, nil
}

// SweepActiveLoads scores every active load, appends a risk log per load
// and raises deduplicated alerts for amber and red results.
func (s *service) SweepActiveLoads(ctx context.Context) (SweepSummary, error) {
	var summary SweepSummary

	active, err := s.loads.ListActive(ctx)
	if err != nil {
		return summary, err
	}

	for i := range active {
		load := &active[i]
		if err := s.sweepOne(ctx, load, &summary); err != nil {
			summary.Err = multierr.Append(summary.Err, fmt.Errorf("load %s: %w", load.ID, err))
			s.logg.Error(s.logg.WithLoadID(ctx, load.ID.String()), "risk scoring failed", err)
		}
	}

	sweepCtx := s.logg.WithFields(ctx, map[string]any{
		"scored":              summary.Scored,
		"amber":               summary.Amber,
		"red":                 summary.Red,
		"recovery_candidates": summary.RecoveryCandidates,
	})
	s.logg.Info(sweepCtx, "risk sweep complete")
	return summary, nil
}

func (s *service) sweepOne(ctx context.Context, load *models.Load, summary *SweepSummary) error {
	assessment, err := s.ScoreLoad(ctx, load)
	if err != nil {
		return err
	}

	factors, err := json.Marshal(assessment.Factors)
	if err != nil {
		return fmt.Errorf("encode factors: %w", err)
	}
	if err := s.repo.CreateLog(ctx, &models.RiskLog{
		LoadID:  load.ID,
		Score:   assessment.Score,
		Level:   assessment.Level,
		Factors: factors,
	}); err != nil {
		return fmt.Errorf("persist risk log: %w", err)
	}

	summary.Scored++
	s.pipeline.IncRiskLevel(string(assessment.Level))

	switch assessment.Level {
	case enums.RiskLevelAmber:
		summary.Amber++
		s.alertStaff(ctx, load, assessment, enums.NotificationPriorityNormal)
	case enums.RiskLevelRed:
		summary.Red++
		s.alertStaff(ctx, load, assessment, enums.NotificationPriorityHigh)
		s.alertCarrier(ctx, load, assessment)
		if assessment.RecoveryCandidate {
			summary.RecoveryCandidates++
			s.logg.Warn(s.logg.WithLoadID(ctx, load.ID.String()),
				"red uncovered load flagged for recovery")
		}
	}
	return nil
}

// alertStaff raises the in-app alert, throttled per load+level so a load
// stuck at red does not page every five minutes.
func (s *service) alertStaff(ctx context.Context, load *models.Load, assessment *Assessment, priority enums.NotificationPriority) {
	loadID := load.ID
	title := fmt.Sprintf("Load %s risk is %s", load.ReferenceNumber, assessment.Level)
	_, err := s.alerts.Notify(ctx, alerts.NotifyInput{
		UserID:      load.OwnerID,
		LoadID:      &loadID,
		Type:        enums.NotificationTypeRiskAlert,
		Priority:    priority,
		Title:       title,
		Message:     describeFactors(assessment),
		DedupWindow: s.cfg.AlertDedupWindow,
	})
	if err != nil {
		s.logg.Error(s.logg.WithLoadID(ctx, load.ID.String()), "risk alert failed", err)
	}
}

func (s *service) alertCarrier(ctx context.Context, load *models.Load, assessment *Assessment) {
	if load.CarrierID == nil {
		return
	}
	carrier, err := s.carriers.FindByID(ctx, *load.CarrierID)
	if err != nil {
		s.logg.Error(s.logg.WithLoadID(ctx, load.ID.String()), "carrier lookup for red alert failed", err)
		return
	}
	subject := fmt.Sprintf("Action needed on load %s", load.ReferenceNumber)
	body := fmt.Sprintf("<p>Load %s (%s) needs an immediate status update:</p><p>%s</p>",
		load.ReferenceNumber, load.Lane(), describeFactors(assessment))
	s.alerts.SendEmail(ctx, carrier.Email, subject, body)
}

func describeFactors(assessment *Assessment) string {
	if len(assessment.Factors) == 0 {
		return fmt.Sprintf("Composite risk score %d.", assessment.Score)
	}
	msg := fmt.Sprintf("Composite risk score %d:", assessment.Score)
	for _, f := range assessment.Factors {
		msg += fmt.Sprintf(" %s (+%d).", f.Description, f.Points)
	}
	return msg
}

func (a *Assessment) add(code string, points int, description string) {
	a.Factors = append(a.Factors, Factor{Code: code, Points: points, Description: description})
	a.Score += points
}
