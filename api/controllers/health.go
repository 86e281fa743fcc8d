package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/calderalogistics/loadpilot-backend/api/responses"
	"github.com/calderalogistics/loadpilot-backend/pkg/config"
	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
)

const readyCheckTimeout = 5 * time.Second

// Pinger is the health-check surface each backing dependency exposes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthLive reports process liveness only.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-LoadPilot-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the backing dependencies. A nil pinger is reported
// as skipped; the cron worker runs without pubsub, for example.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		w.Header().Set("X-LoadPilot-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				checks[name] = "skipped"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				healthy = false
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", name), "readiness check failed", err)
				}
				continue
			}
			checks[name] = "ok"
		}

		status := http.StatusOK
		overall := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": overall,
			"checks": checks,
		})
	}
}
