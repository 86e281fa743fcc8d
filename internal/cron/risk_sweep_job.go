package cron

import (
	"context"
	"fmt"

	"github.com/calderalogistics/loadpilot-backend/internal/risk"
	"github.com/calderalogistics/loadpilot-backend/pkg/config"
	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
)

type riskSweeper interface {
	SweepActiveLoads(ctx context.Context) (risk.SweepSummary, error)
}

// NewRiskSweepJob wraps the risk engine's active-load sweep. Per-load
// failures come back inside the summary; only a sweep-level failure
// fails the job.
func NewRiskSweepJob(sweeper riskSweeper, logg *logger.Logger, cfg config.JobsConfig) (Job, error) {
	if sweeper == nil {
		return Job{}, fmt.Errorf("risk sweeper required")
	}
	if logg == nil {
		return Job{}, fmt.Errorf("logger required")
	}
	return Job{
		Name:     "risk-sweep",
		Interval: cfg.RiskSweepInterval,
		TTL:      cfg.RiskSweepTTL,
		Run: func(ctx context.Context) error {
			summary, err := sweeper.SweepActiveLoads(ctx)
			if err != nil {
				return fmt.Errorf("risk sweep: %w", err)
			}
			if summary.Err != nil {
				logg.Error(ctx, "risk sweep finished with item failures", summary.Err)
			}
			return nil
		},
	}, nil
}
