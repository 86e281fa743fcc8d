package matching

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calderalogistics/loadpilot-backend/pkg/db/models"
	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
	pkgerrors "github.com/calderalogistics/loadpilot-backend/pkg/errors"
	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
	"github.com/calderalogistics/loadpilot-backend/pkg/metrics"
)

const (
	laneScoreExact     = 30
	laneScorePreferred = 25
	laneScoreOrigin    = 20
	laneScoreDest      = 15
	laneScoreBaseline  = 5

	rateScoreTight  = 25
	rateScoreClose  = 20
	rateScoreNear   = 15
	rateScoreFloor  = 5
	rateScoreNoData = 15

	availabilityFree     = 20
	availabilityBackhaul = 15

	sourceBonus = 5
)

type loadGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Load, error)
}

type carrierLister interface {
	ListBookable(ctx context.Context) ([]models.CarrierProfile, error)
}

type matchRepository interface {
	CreateResults(ctx context.Context, results []models.MatchResult) error
	CarrierLaneHistory(ctx context.Context, carrierID uuid.UUID, originState, destState string) (LaneHistory, error)
	LaneAverageRate(ctx context.Context, originState, destState string) (decimal.Decimal, bool, error)
	CountPickupConflicts(ctx context.Context, carrierID uuid.UUID, pickupAt time.Time) (int64, error)
	HasBackhaulInto(ctx context.Context, carrierID uuid.UUID, originState string, pickupAt time.Time) (bool, error)
	MarkAssigned(ctx context.Context, loadID, carrierID uuid.UUID) error
	MarkCompleted(ctx context.Context, loadID, carrierID uuid.UUID) error
}

// ScoredCandidate pairs a carrier with its scored result for one run.
type ScoredCandidate struct {
	Carrier models.CarrierProfile
	Result  models.MatchResult
}

// RankOutcome is the product of one scoring run. Filtered counts the
// carriers dropped by the eligibility gate before scoring.
type RankOutcome struct {
	Load       *models.Load
	Candidates []ScoredCandidate
	Filtered   int
}

// Engine ranks eligible carriers for an uncovered load.
type Engine interface {
	RankCarriers(ctx context.Context, loadID uuid.UUID) (*RankOutcome, error)
	MarkAssigned(ctx context.Context, loadID, carrierID uuid.UUID) error
	MarkCompleted(ctx context.Context, loadID, carrierID uuid.UUID) error
}

type engine struct {
	loads         loadGetter
	carriers      carrierLister
	repo          matchRepository
	logg          *logger.Logger
	pipeline      *metrics.PipelineMetrics
	maxCandidates int
	now           func() time.Time
}

// NewEngine wires the matching engine. maxCandidates caps the returned
// slice, not the persisted rows.
func NewEngine(loads loadGetter, carriers carrierLister, repo matchRepository, logg *logger.Logger, pipeline *metrics.PipelineMetrics, maxCandidates int) (Engine, error) {
	if loads == nil {
		return nil, fmt.Errorf("load getter required")
	}
	if carriers == nil {
		return nil, fmt.Errorf("carrier lister required")
	}
	if repo == nil {
		return nil, fmt.Errorf("matching repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if maxCandidates <= 0 {
		maxCandidates = 10
	}
	return &engine{
		loads:         loads,
		carriers:      carriers,
		repo:          repo,
		logg:          logg,
		pipeline:      pipeline,
		maxCandidates: maxCandidates,
		now:           time.Now,
	}, nil
}

// RankCarriers filters, scores and ranks bookable carriers for the load.
// Every surviving candidate is persisted as a MatchResult row; the top
// maxCandidates are returned in score-descending order. Ties keep the
// stable candidate-listing order (carrier id ascending from the query).
func (e *engine) RankCarriers(ctx context.Context, loadID uuid.UUID) (*RankOutcome, error) {
	load, err := e.loads.GetByID(ctx, loadID)
	if err != nil {
		return nil, err
	}

	carriers, err := e.carriers.ListBookable(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookable carriers")
	}

	now := e.now().UTC()
	outcome := &RankOutcome{Load: load}

	for _, carrier := range carriers {
		if !e.eligible(carrier, load, now) {
			outcome.Filtered++
			continue
		}

		result, err := e.score(ctx, load, carrier)
		if err != nil {
			// one bad carrier record never fails the run
			errCtx := e.logg.WithCarrierID(e.logg.WithLoadID(ctx, load.ID.String()), carrier.ID.String())
			e.logg.Error(errCtx, "scoring carrier failed, skipping", err)
			continue
		}
		outcome.Candidates = append(outcome.Candidates, ScoredCandidate{Carrier: carrier, Result: result})
	}

	sort.SliceStable(outcome.Candidates, func(i, j int) bool {
		return outcome.Candidates[i].Result.TotalScore > outcome.Candidates[j].Result.TotalScore
	})

	rows := make([]models.MatchResult, 0, len(outcome.Candidates))
	for i := range outcome.Candidates {
		outcome.Candidates[i].Result.Rank = i + 1
		rows = append(rows, outcome.Candidates[i].Result)
	}
	if err := e.repo.CreateResults(ctx, rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist match results")
	}

	if len(outcome.Candidates) > e.maxCandidates {
		outcome.Candidates = outcome.Candidates[:e.maxCandidates]
	}

	if len(outcome.Candidates) == 0 {
		e.pipeline.IncMatchRun("no_candidates")
	} else {
		e.pipeline.IncMatchRun("matched")
	}

	runCtx := e.logg.WithFields(ctx, map[string]any{
		"load_id":    load.ID.String(),
		"lane":       load.Lane(),
		"candidates": len(outcome.Candidates),
		"filtered":   outcome.Filtered,
	})
	e.logg.Info(runCtx, "matching run complete")

	return outcome, nil
}

// eligible applies the hard exclusions: equipment capability, unexpired
// insurance and a bookable onboarding status.
func (e *engine) eligible(carrier models.CarrierProfile, load *models.Load, now time.Time) bool {
	if !carrier.HasEquipment(load.EquipmentType) {
		return false
	}
	if !carrier.InsuranceValidAt(now) {
		return false
	}
	return carrier.OnboardingStatus.IsBookable()
}

func (e *engine) score(ctx context.Context, load *models.Load, carrier models.CarrierProfile) (models.MatchResult, error) {
	result := models.MatchResult{
		LoadID:    load.ID,
		CarrierID: carrier.ID,
	}

	history, err := e.repo.CarrierLaneHistory(ctx, carrier.ID, load.OriginState, load.DestinationState)
	if err != nil {
		return result, fmt.Errorf("lane history: %w", err)
	}
	result.LaneScore = laneScore(history, carrier, load.Lane())

	avgRate, hasAvg, err := e.repo.LaneAverageRate(ctx, load.OriginState, load.DestinationState)
	if err != nil {
		return result, fmt.Errorf("lane average rate: %w", err)
	}
	result.RateScore = rateScore(load.CarrierRate, avgRate, hasAvg)

	result.LoyaltyScore = clamp(carrier.LoyaltyTier.Points(), 0, 25)

	conflicts, err := e.repo.CountPickupConflicts(ctx, carrier.ID, load.PickupAt)
	if err != nil {
		return result, fmt.Errorf("pickup conflicts: %w", err)
	}
	if conflicts == 0 {
		result.AvailabilityScore = availabilityFree
	} else {
		backhaul, err := e.repo.HasBackhaulInto(ctx, carrier.ID, load.OriginState, load.PickupAt)
		if err != nil {
			return result, fmt.Errorf("backhaul check: %w", err)
		}
		if backhaul {
			result.AvailabilityScore = availabilityBackhaul
		}
	}

	if carrier.Source == enums.CarrierSourcePlatform {
		result.SourceScore = sourceBonus
	}

	result.TotalScore = result.LaneScore + result.RateScore + result.LoyaltyScore +
		result.AvailabilityScore + result.SourceScore
	return result, nil
}

// laneScore rewards exact-lane experience first, then a declared
// preferred lane, then partial origin/destination familiarity.
func laneScore(history LaneHistory, carrier models.CarrierProfile, lane string) int {
	switch {
	case history.LaneCount > 0:
		return laneScoreExact
	case carrier.HasPreferredLane(lane):
		return laneScorePreferred
	case history.OriginCount > 0:
		return laneScoreOrigin
	case history.DestCount > 0:
		return laneScoreDest
	default:
		return laneScoreBaseline
	}
}

// rateScore compares the load's carrier rate against the lane's trailing
// average. A lane with no history scores neutral rather than penalizing
// the first mover.
func rateScore(carrierRate, laneAverage decimal.Decimal, hasAverage bool) int {
	if !hasAverage || !laneAverage.IsPositive() {
		return rateScoreNoData
	}
	deviation := carrierRate.Sub(laneAverage).Abs().Div(laneAverage)
	switch {
	case deviation.LessThanOrEqual(decimal.NewFromFloat(0.05)):
		return rateScoreTight
	case deviation.LessThanOrEqual(decimal.NewFromFloat(0.10)):
		return rateScoreClose
	case deviation.LessThanOrEqual(decimal.NewFromFloat(0.15)):
		return rateScoreNear
	default:
		return rateScoreFloor
	}
}

func (e *engine) MarkAssigned(ctx context.Context, loadID, carrierID uuid.UUID) error {
	if err := e.repo.MarkAssigned(ctx, loadID, carrierID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark match assigned")
	}
	return nil
}

func (e *engine) MarkCompleted(ctx context.Context, loadID, carrierID uuid.UUID) error {
	if err := e.repo.MarkCompleted(ctx, loadID, carrierID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark match completed")
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
