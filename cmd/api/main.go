package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/calderalogistics/loadpilot-backend/api/routes"
	"github.com/calderalogistics/loadpilot-backend/internal/alerts"
	"github.com/calderalogistics/loadpilot-backend/internal/carriers"
	"github.com/calderalogistics/loadpilot-backend/internal/checkcalls"
	"github.com/calderalogistics/loadpilot-backend/internal/falloff"
	"github.com/calderalogistics/loadpilot-backend/internal/loads"
	"github.com/calderalogistics/loadpilot-backend/internal/matching"
	"github.com/calderalogistics/loadpilot-backend/internal/risk"
	"github.com/calderalogistics/loadpilot-backend/pkg/config"
	"github.com/calderalogistics/loadpilot-backend/pkg/db"
	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
	"github.com/calderalogistics/loadpilot-backend/pkg/metrics"
	"github.com/calderalogistics/loadpilot-backend/pkg/migrate"
	"github.com/calderalogistics/loadpilot-backend/pkg/pubsub"
	"github.com/calderalogistics/loadpilot-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	pipeline := metrics.NewPipelineMetrics(prometheus.DefaultRegisterer)

	loadService, err := loads.NewService(loads.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create load service", err)
		os.Exit(1)
	}

	messenger, err := alerts.NewPubSubMessenger(pubsubClient.MessagingPublisher())
	if err != nil {
		logg.Error(context.Background(), "failed to create messenger", err)
		os.Exit(1)
	}

	alertService, err := alerts.NewService(alerts.NewRepository(dbClient.DB()), messenger, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create alert service", err)
		os.Exit(1)
	}

	carrierRepo := carriers.NewRepository(dbClient.DB())

	matchEngine, err := matching.NewEngine(loadService, carrierRepo, matching.NewRepository(dbClient.DB()), logg, pipeline, cfg.Matching.MaxCandidates)
	if err != nil {
		logg.Error(context.Background(), "failed to create matching engine", err)
		os.Exit(1)
	}

	checkCallRepo := checkcalls.NewRepository(dbClient.DB())
	checkCallService, err := checkcalls.NewService(checkCallRepo, loadService, alertService, logg, pipeline, cfg.CheckCalls)
	if err != nil {
		logg.Error(context.Background(), "failed to create check-call service", err)
		os.Exit(1)
	}

	riskService, err := risk.NewService(risk.NewRepository(dbClient.DB()), loadService, carrierRepo, checkCallRepo, alertService, logg, pipeline, cfg.Risk)
	if err != nil {
		logg.Error(context.Background(), "failed to create risk service", err)
		os.Exit(1)
	}

	fallOffService, err := falloff.NewService(falloff.NewRepository(dbClient.DB()), loadService, matchEngine, carrierRepo, alertService, checkCallService, logg, pipeline, cfg.Matching.BackupOffers)
	if err != nil {
		logg.Error(context.Background(), "failed to create fall-off service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:     cfg,
			Logger:     logg,
			DB:         dbClient,
			Redis:      redisClient,
			PubSub:     pubsubClient,
			Matching:   matchEngine,
			Risk:       riskService,
			CheckCalls: checkCallService,
			FallOff:    fallOffService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
