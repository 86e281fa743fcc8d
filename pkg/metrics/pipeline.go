package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics records coverage-pipeline outcomes: matching runs, risk
// classifications, check-call escalations and fall-off recoveries.
type PipelineMetrics struct {
	matchRuns     *prometheus.CounterVec
	riskLevels    *prometheus.CounterVec
	checkCalls    *prometheus.CounterVec
	escalations   prometheus.Counter
	fallOffEvents prometheus.Counter
	recoveries    *prometheus.CounterVec
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	matchRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "match_runs_total",
		Help: "Matching engine runs, labelled by outcome.",
	}, []string{"outcome"})
	riskLevels := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_classifications_total",
		Help: "Risk scores computed, labelled by resulting level.",
	}, []string{"level"})
	checkCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "check_calls_total",
		Help: "Check-call touchpoints processed, labelled by type.",
	}, []string{"type"})
	escalations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "check_call_escalations_total",
		Help: "Check calls escalated after the retry window elapsed.",
	})
	fallOffEvents := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fall_off_events_total",
		Help: "Carrier fall-off events recorded.",
	})
	recoveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fall_off_recoveries_total",
		Help: "Fall-off recovery runs, labelled by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(matchRuns, riskLevels, checkCalls, escalations, fallOffEvents, recoveries)
	return &PipelineMetrics{
		matchRuns:     matchRuns,
		riskLevels:    riskLevels,
		checkCalls:    checkCalls,
		escalations:   escalations,
		fallOffEvents: fallOffEvents,
		recoveries:    recoveries,
	}
}

// IncMatchRun records a matching run with the given outcome
// ("matched" or "no_candidates").
func (p *PipelineMetrics) IncMatchRun(outcome string) {
	if p == nil || p.matchRuns == nil {
		return
	}
	p.matchRuns.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncRiskLevel records a computed risk classification.
func (p *PipelineMetrics) IncRiskLevel(level string) {
	if p == nil || p.riskLevels == nil {
		return
	}
	p.riskLevels.WithLabelValues(normalizeLabel(level)).Inc()
}

// IncCheckCall records a processed check-call touchpoint.
func (p *PipelineMetrics) IncCheckCall(callType string) {
	if p == nil || p.checkCalls == nil {
		return
	}
	p.checkCalls.WithLabelValues(normalizeLabel(callType)).Inc()
}

// IncEscalation records a check call that went unanswered past the retry.
func (p *PipelineMetrics) IncEscalation() {
	if p == nil || p.escalations == nil {
		return
	}
	p.escalations.Inc()
}

// IncFallOff records a new fall-off event.
func (p *PipelineMetrics) IncFallOff() {
	if p == nil || p.fallOffEvents == nil {
		return
	}
	p.fallOffEvents.Inc()
}

// IncRecovery records a recovery run with the given outcome
// ("recovered", "pending", "failed").
func (p *PipelineMetrics) IncRecovery(outcome string) {
	if p == nil || p.recoveries == nil {
		return
	}
	p.recoveries.WithLabelValues(normalizeLabel(outcome)).Inc()
}
