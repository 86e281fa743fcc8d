package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/calderalogistics/loadpilot-backend/internal/matching"
	"github.com/calderalogistics/loadpilot-backend/internal/risk"
	"github.com/calderalogistics/loadpilot-backend/pkg/db/models"
	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
	pkgerrors "github.com/calderalogistics/loadpilot-backend/pkg/errors"
	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
)

type testMatchEngine struct {
	rankFn func(ctx context.Context, loadID uuid.UUID) (*matching.RankOutcome, error)
}

func (e *testMatchEngine) RankCarriers(ctx context.Context, loadID uuid.UUID) (*matching.RankOutcome, error) {
	if e.rankFn != nil {
		return e.rankFn(ctx, loadID)
	}
	return nil, nil
}

func (e *testMatchEngine) MarkAssigned(ctx context.Context, loadID, carrierID uuid.UUID) error {
	return nil
}

func (e *testMatchEngine) MarkCompleted(ctx context.Context, loadID, carrierID uuid.UUID) error {
	return nil
}

type testRiskService struct {
	scoreFn func(ctx context.Context, loadID uuid.UUID) (*risk.Assessment, error)
}

func (s *testRiskService) ScoreLoadByID(ctx context.Context, loadID uuid.UUID) (*risk.Assessment, error) {
	if s.scoreFn != nil {
		return s.scoreFn(ctx, loadID)
	}
	return nil, nil
}

func (s *testRiskService) ScoreLoad(ctx context.Context, load *models.Load) (*risk.Assessment, error) {
	return nil, nil
}

func (s *testRiskService) SweepActiveLoads(ctx context.Context) (risk.SweepSummary, error) {
	return risk.SweepSummary{}, nil
}

type testScheduler struct {
	createFn func(ctx context.Context, loadID uuid.UUID) (int, error)
}

func (s *testScheduler) CreateSchedule(ctx context.Context, loadID uuid.UUID) (int, error) {
	if s.createFn != nil {
		return s.createFn(ctx, loadID)
	}
	return 0, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestMatchLoadSuccess(t *testing.T) {
	loadID := uuid.New()
	carrierID := uuid.New()
	engine := &testMatchEngine{
		rankFn: func(ctx context.Context, id uuid.UUID) (*matching.RankOutcome, error) {
			if id != loadID {
				t.Fatalf("unexpected load id %s", id)
			}
			return &matching.RankOutcome{
				Load: &models.Load{
					ID:               loadID,
					OriginState:      "TX",
					DestinationState: "CA",
				},
				Filtered: 2,
				Candidates: []matching.ScoredCandidate{{
					Carrier: models.CarrierProfile{ID: carrierID, CompanyName: "Lone Star Freight"},
					Result:  models.MatchResult{Rank: 1, TotalScore: 95, LaneScore: 30},
				}},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/loads/"+loadID.String()+"/match", nil)
	req = addRouteParam(req, "loadId", loadID.String())
	resp := httptest.NewRecorder()
	MatchLoad(engine, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data matchResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Lane != "TX>CA" {
		t.Fatalf("unexpected lane %q", envelope.Data.Lane)
	}
	if envelope.Data.Filtered != 2 {
		t.Fatalf("expected filtered=2, got %d", envelope.Data.Filtered)
	}
	if len(envelope.Data.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(envelope.Data.Candidates))
	}
	candidate := envelope.Data.Candidates[0]
	if candidate.CarrierID != carrierID || candidate.TotalScore != 95 {
		t.Fatalf("unexpected candidate %+v", candidate)
	}
}

func TestMatchLoadInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loads/not-a-uuid/match", nil)
	req = addRouteParam(req, "loadId", "not-a-uuid")
	resp := httptest.NewRecorder()
	MatchLoad(&testMatchEngine{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMatchLoadNotFound(t *testing.T) {
	loadID := uuid.New()
	engine := &testMatchEngine{
		rankFn: func(ctx context.Context, id uuid.UUID) (*matching.RankOutcome, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "load not found")
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loads/"+loadID.String()+"/match", nil)
	req = addRouteParam(req, "loadId", loadID.String())
	resp := httptest.NewRecorder()
	MatchLoad(engine, testLogger())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestScoreLoadRiskEmptyFactors(t *testing.T) {
	loadID := uuid.New()
	svc := &testRiskService{
		scoreFn: func(ctx context.Context, id uuid.UUID) (*risk.Assessment, error) {
			return &risk.Assessment{Score: 0, Level: enums.RiskLevelGreen}, nil
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loads/"+loadID.String()+"/risk", nil)
	req = addRouteParam(req, "loadId", loadID.String())
	resp := httptest.NewRecorder()
	ScoreLoadRisk(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, `"factors":[]`) {
		t.Fatalf("expected empty factors array, got %s", body)
	}
	if !strings.Contains(body, `"level":"green"`) {
		t.Fatalf("expected green level, got %s", body)
	}
}

func TestRecoverLoadValidatesReason(t *testing.T) {
	loadID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loads/"+loadID.String()+"/recover", strings.NewReader(`{"reason":""}`))
	req = addRouteParam(req, "loadId", loadID.String())
	resp := httptest.NewRecorder()
	RecoverLoad(&testFallOffService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestRecoverLoadAccepted(t *testing.T) {
	loadID := uuid.New()
	carrierID := uuid.New()
	eventID := uuid.New()
	svc := &testFallOffService{
		recoverFn: func(ctx context.Context, id uuid.UUID, reason string) (*models.FallOffEvent, error) {
			if reason != "driver no-show" {
				t.Fatalf("unexpected reason %q", reason)
			}
			return &models.FallOffEvent{
				ID:               eventID,
				LoadID:           id,
				CarrierID:        carrierID,
				Status:           enums.FallOffStatusActive,
				BackupsContacted: 3,
			}, nil
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loads/"+loadID.String()+"/recover", strings.NewReader(`{"reason":"driver no-show"}`))
	req = addRouteParam(req, "loadId", loadID.String())
	resp := httptest.NewRecorder()
	RecoverLoad(svc, testLogger())(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d", resp.Code)
	}
	var envelope struct {
		Data recoverResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.EventID != eventID || envelope.Data.BackupsContacted != 3 {
		t.Fatalf("unexpected response %+v", envelope.Data)
	}
}

func TestRegenerateCheckCallsCreated(t *testing.T) {
	loadID := uuid.New()
	svc := &testScheduler{
		createFn: func(ctx context.Context, id uuid.UUID) (int, error) {
			return 8, nil
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loads/"+loadID.String()+"/check-calls", nil)
	req = addRouteParam(req, "loadId", loadID.String())
	resp := httptest.NewRecorder()
	RegenerateCheckCalls(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"touchpoints":8`) {
		t.Fatalf("expected touchpoint count in body, got %s", resp.Body.String())
	}
}

func TestRegenerateCheckCallsUnassignedLoad(t *testing.T) {
	loadID := uuid.New()
	svc := &testScheduler{
		createFn: func(ctx context.Context, id uuid.UUID) (int, error) {
			return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "load has no carrier assigned")
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loads/"+loadID.String()+"/check-calls", nil)
	req = addRouteParam(req, "loadId", loadID.String())
	resp := httptest.NewRecorder()
	RegenerateCheckCalls(svc, testLogger())(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}
