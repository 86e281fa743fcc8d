package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/calderalogistics/loadpilot-backend/api/controllers"
	"github.com/calderalogistics/loadpilot-backend/api/middleware"
	"github.com/calderalogistics/loadpilot-backend/internal/checkcalls"
	"github.com/calderalogistics/loadpilot-backend/internal/falloff"
	"github.com/calderalogistics/loadpilot-backend/internal/matching"
	"github.com/calderalogistics/loadpilot-backend/internal/risk"
	"github.com/calderalogistics/loadpilot-backend/pkg/config"
	"github.com/calderalogistics/loadpilot-backend/pkg/db"
	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
	"github.com/calderalogistics/loadpilot-backend/pkg/pubsub"
	"github.com/calderalogistics/loadpilot-backend/pkg/redis"
)

// RouterParams bundles the wired services for the HTTP surface.
type RouterParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         *db.Client
	Redis      *redis.Client
	PubSub     *pubsub.Client
	Matching   matching.Engine
	Risk       risk.Service
	CheckCalls checkcalls.Service
	FallOff    falloff.Service
}

// NewRouter assembles the coverage-pipeline API.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, readinessDeps(p)))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/carrier-reply", controllers.CarrierReplyWebhook(p.CheckCalls, p.Logger))
		r.Post("/fall-off-acceptance", controllers.FallOffAcceptanceWebhook(p.FallOff, p.Logger))
	})

	r.Route("/api/v1/loads/{loadId}", func(r chi.Router) {
		r.Post("/match", controllers.MatchLoad(p.Matching, p.Logger))
		r.Post("/risk", controllers.ScoreLoadRisk(p.Risk, p.Logger))
		r.Post("/recover", controllers.RecoverLoad(p.FallOff, p.Logger))
		r.Post("/check-calls", controllers.RegenerateCheckCalls(p.CheckCalls, p.Logger))
	})

	return r
}

// readinessDeps maps dependency names to pingers. Interface values stay
// nil for dependencies the deployment does not carry.
func readinessDeps(p RouterParams) map[string]controllers.Pinger {
	deps := map[string]controllers.Pinger{}
	if p.DB != nil {
		deps["postgres"] = p.DB
	}
	if p.Redis != nil {
		deps["redis"] = p.Redis
	}
	if p.PubSub != nil {
		deps["pubsub"] = p.PubSub
	}
	return deps
}
