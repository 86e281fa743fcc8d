package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/calderalogistics/loadpilot-backend/internal/alerts"
	"github.com/calderalogistics/loadpilot-backend/internal/carriers"
	"github.com/calderalogistics/loadpilot-backend/internal/checkcalls"
	"github.com/calderalogistics/loadpilot-backend/internal/falloff"
	"github.com/calderalogistics/loadpilot-backend/internal/inbound"
	"github.com/calderalogistics/loadpilot-backend/internal/loads"
	"github.com/calderalogistics/loadpilot-backend/internal/matching"
	"github.com/calderalogistics/loadpilot-backend/pkg/config"
	"github.com/calderalogistics/loadpilot-backend/pkg/db"
	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
	"github.com/calderalogistics/loadpilot-backend/pkg/metrics"
	"github.com/calderalogistics/loadpilot-backend/pkg/migrate"
	"github.com/calderalogistics/loadpilot-backend/pkg/pubsub"
	"github.com/calderalogistics/loadpilot-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
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

	checkCallService, err := checkcalls.NewService(checkcalls.NewRepository(dbClient.DB()), loadService, alertService, logg, pipeline, cfg.CheckCalls)
	if err != nil {
		logg.Error(context.Background(), "failed to create check-call service", err)
		os.Exit(1)
	}

	fallOffService, err := falloff.NewService(falloff.NewRepository(dbClient.DB()), loadService, matchEngine, carrierRepo, alertService, checkCallService, logg, pipeline, cfg.Matching.BackupOffers)
	if err != nil {
		logg.Error(context.Background(), "failed to create fall-off service", err)
		os.Exit(1)
	}

	consumer, err := inbound.NewConsumer(checkCallService, fallOffService, pubsubClient.InboundSubscription(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inbound consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:          cfg,
		Logger:          logg,
		DB:              dbClient,
		Redis:           redisClient,
		PubSub:          pubsubClient,
		InboundConsumer: consumer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}
