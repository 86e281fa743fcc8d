package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestPipelineMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPipelineMetrics(reg)

	metrics.IncMatchRun("matched")
	metrics.IncMatchRun("matched")
	metrics.IncRiskLevel("red")
	metrics.IncCheckCall("transit_check")
	metrics.IncEscalation()
	metrics.IncFallOff()
	metrics.IncRecovery("recovered")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "match_runs_total", "outcome", "matched"); err != nil {
		t.Fatalf("fetch match runs: %v", err)
	} else if got != 2 {
		t.Fatalf("expected match_runs=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "risk_classifications_total", "level", "red"); err != nil {
		t.Fatalf("fetch risk levels: %v", err)
	} else if got != 1 {
		t.Fatalf("expected risk=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "fall_off_recoveries_total", "outcome", "recovered"); err != nil {
		t.Fatalf("fetch recoveries: %v", err)
	} else if got != 1 {
		t.Fatalf("expected recoveries=1, got %f", got)
	}

	if mf := findMetricFamily(mfs, "check_call_escalations_total"); mf == nil {
		t.Fatal("escalations metric not registered")
	} else if mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected escalations=1, got %f", mf.GetMetric()[0].GetCounter().GetValue())
	}
}

func TestPipelineMetricsNilSafe(t *testing.T) {
	var metrics *PipelineMetrics
	metrics.IncMatchRun("matched")
	metrics.IncEscalation()

	empty := NewPipelineMetrics(nil)
	empty.IncRiskLevel("green")
	empty.IncRecovery("failed")
}
