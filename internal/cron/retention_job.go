package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/calderalogistics/loadpilot-backend/pkg/config"
	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
)

const defaultRetentionDays = 90

type retentionStore interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionJobParams name the per-table stores trimmed by the daily
// cleanup: risk snapshots, terminal check calls and read notifications.
type RetentionJobParams struct {
	Logger        *logger.Logger
	RiskLogs      retentionStore
	CheckCalls    retentionStore
	Notifications retentionStore
	Jobs          config.JobsConfig
}

// NewRetentionJob trims the pipeline's append-heavy tables.
func NewRetentionJob(params RetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return Job{}, fmt.Errorf("logger required")
	}
	if params.RiskLogs == nil {
		return Job{}, fmt.Errorf("risk log store required")
	}
	if params.CheckCalls == nil {
		return Job{}, fmt.Errorf("check-call store required")
	}
	if params.Notifications == nil {
		return Job{}, fmt.Errorf("notification store required")
	}
	days := params.Jobs.RetentionDays
	if days <= 0 {
		days = defaultRetentionDays
	}
	logg := params.Logger

	return Job{
		Name:     "pipeline-retention",
		Interval: params.Jobs.RetentionInterval,
		TTL:      params.Jobs.RetentionTTL,
		Run: func(ctx context.Context) error {
			cutoff := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)

			var errs error
			counts := map[string]int64{}
			stores := map[string]retentionStore{
				"risk_logs":     params.RiskLogs,
				"check_calls":   params.CheckCalls,
				"notifications": params.Notifications,
			}
			for name, store := range stores {
				deleted, err := store.DeleteOlderThan(ctx, cutoff)
				if err != nil {
					errs = multierr.Append(errs, fmt.Errorf("%s retention: %w", name, err))
					continue
				}
				counts[name] = deleted
			}

			logCtx := logg.WithFields(ctx, map[string]any{
				"cutoff":              cutoff,
				"retention_days":      days,
				"risk_logs_deleted":   counts["risk_logs"],
				"check_calls_deleted": counts["check_calls"],
				"notifications_gone":  counts["notifications"],
			})
			logg.Info(logCtx, "pipeline retention cleanup complete")
			return errs
		},
	}, nil
}
