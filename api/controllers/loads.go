package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/calderalogistics/loadpilot-backend/api/responses"
	"github.com/calderalogistics/loadpilot-backend/api/validators"
	"github.com/calderalogistics/loadpilot-backend/internal/falloff"
	"github.com/calderalogistics/loadpilot-backend/internal/matching"
	"github.com/calderalogistics/loadpilot-backend/internal/risk"
	"github.com/calderalogistics/loadpilot-backend/pkg/db/models"
	pkgerrors "github.com/calderalogistics/loadpilot-backend/pkg/errors"
	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
)

type checkCallScheduler interface {
	CreateSchedule(ctx context.Context, loadID uuid.UUID) (int, error)
}

type matchCandidate struct {
	CarrierID         uuid.UUID `json:"carrier_id"`
	CompanyName       string    `json:"company_name"`
	Rank              int       `json:"rank"`
	LaneScore         int       `json:"lane_score"`
	RateScore         int       `json:"rate_score"`
	LoyaltyScore      int       `json:"loyalty_score"`
	AvailabilityScore int       `json:"availability_score"`
	SourceScore       int       `json:"source_score"`
	TotalScore        int       `json:"total_score"`
}

type matchResponse struct {
	LoadID     uuid.UUID        `json:"load_id"`
	Lane       string           `json:"lane"`
	Candidates []matchCandidate `json:"candidates"`
	Filtered   int              `json:"filtered"`
}

type riskResponse struct {
	LoadID            uuid.UUID     `json:"load_id"`
	Score             int           `json:"score"`
	Level             string        `json:"level"`
	Factors           []risk.Factor `json:"factors"`
	RecoveryCandidate bool          `json:"recovery_candidate"`
}

type recoverRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

type recoverResponse struct {
	EventID          uuid.UUID `json:"event_id"`
	LoadID           uuid.UUID `json:"load_id"`
	CarrierID        uuid.UUID `json:"carrier_id"`
	Status           string    `json:"status"`
	BackupsContacted int       `json:"backups_contacted"`
	CreatedAt        time.Time `json:"created_at"`
}

func loadIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "loadId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid load id")
	}
	return id, nil
}

// MatchLoad runs the scoring pipeline for the load and returns the
// ranked candidates.
func MatchLoad(engine matching.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loadID, err := loadIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := engine.RankCarriers(r.Context(), loadID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := matchResponse{
			LoadID:     outcome.Load.ID,
			Lane:       outcome.Load.Lane(),
			Filtered:   outcome.Filtered,
			Candidates: make([]matchCandidate, 0, len(outcome.Candidates)),
		}
		for _, candidate := range outcome.Candidates {
			resp.Candidates = append(resp.Candidates, matchCandidate{
				CarrierID:         candidate.Carrier.ID,
				CompanyName:       candidate.Carrier.CompanyName,
				Rank:              candidate.Result.Rank,
				LaneScore:         candidate.Result.LaneScore,
				RateScore:         candidate.Result.RateScore,
				LoyaltyScore:      candidate.Result.LoyaltyScore,
				AvailabilityScore: candidate.Result.AvailabilityScore,
				SourceScore:       candidate.Result.SourceScore,
				TotalScore:        candidate.Result.TotalScore,
			})
		}
		responses.WriteSuccess(w, resp)
	}
}

// ScoreLoadRisk computes an on-demand risk assessment for the load.
func ScoreLoadRisk(svc risk.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loadID, err := loadIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assessment, err := svc.ScoreLoadByID(r.Context(), loadID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		factors := assessment.Factors
		if factors == nil {
			factors = []risk.Factor{}
		}
		responses.WriteSuccess(w, riskResponse{
			LoadID:            loadID,
			Score:             assessment.Score,
			Level:             string(assessment.Level),
			Factors:           factors,
			RecoveryCandidate: assessment.RecoveryCandidate,
		})
	}
}

// RecoverLoad reports a carrier fall-off and kicks off the recovery
// orchestration.
func RecoverLoad(svc falloff.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loadID, err := loadIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req recoverRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.ExecuteRecovery(r.Context(), loadID, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, toRecoverResponse(event))
	}
}

func toRecoverResponse(event *models.FallOffEvent) recoverResponse {
	return recoverResponse{
		EventID:          event.ID,
		LoadID:           event.LoadID,
		CarrierID:        event.CarrierID,
		Status:           string(event.Status),
		BackupsContacted: event.BackupsContacted,
		CreatedAt:        event.CreatedAt,
	}
}

// RegenerateCheckCalls rebuilds the touchpoint plan for an assigned load.
func RegenerateCheckCalls(svc checkCallScheduler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loadID, err := loadIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := svc.CreateSchedule(r.Context(), loadID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"load_id":     loadID,
			"touchpoints": count,
		})
	}
}
