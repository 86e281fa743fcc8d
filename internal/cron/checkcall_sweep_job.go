package cron

import (
	"context"
	"fmt"

	"github.com/calderalogistics/loadpilot-backend/internal/checkcalls"
	"github.com/calderalogistics/loadpilot-backend/pkg/config"
	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
)

type checkCallSweeper interface {
	ProcessDue(ctx context.Context) (checkcalls.SweepSummary, error)
}

// NewCheckCallSweepJob wraps the due-touchpoint sweep.
func NewCheckCallSweepJob(sweeper checkCallSweeper, logg *logger.Logger, cfg config.JobsConfig) (Job, error) {
	if sweeper == nil {
		return Job{}, fmt.Errorf("check-call sweeper required")
	}
	if logg == nil {
		return Job{}, fmt.Errorf("logger required")
	}
	return Job{
		Name:     "check-call-sweep",
		Interval: cfg.CheckCallInterval,
		TTL:      cfg.CheckCallTTL,
		Run: func(ctx context.Context) error {
			summary, err := sweeper.ProcessDue(ctx)
			if err != nil {
				return fmt.Errorf("check-call sweep: %w", err)
			}
			if summary.Err != nil {
				logg.Error(ctx, "check-call sweep finished with item failures", summary.Err)
			}
			return nil
		},
	}, nil
}
