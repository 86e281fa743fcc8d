package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/calderalogistics/loadpilot-backend/internal/alerts"
	"github.com/calderalogistics/loadpilot-backend/internal/carriers"
	"github.com/calderalogistics/loadpilot-backend/internal/checkcalls"
	"github.com/calderalogistics/loadpilot-backend/internal/cron"
	"github.com/calderalogistics/loadpilot-backend/internal/loads"
	"github.com/calderalogistics/loadpilot-backend/internal/risk"
	"github.com/calderalogistics/loadpilot-backend/pkg/config"
	"github.com/calderalogistics/loadpilot-backend/pkg/db"
	"github.com/calderalogistics/loadpilot-backend/pkg/instance"
	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
	"github.com/calderalogistics/loadpilot-backend/pkg/metrics"
	"github.com/calderalogistics/loadpilot-backend/pkg/migrate"
	"github.com/calderalogistics/loadpilot-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	pipeline := metrics.NewPipelineMetrics(prometheus.DefaultRegisterer)

	loadService, err := loads.NewService(loads.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create load service", err)
		os.Exit(1)
	}

	// The sweeps only persist notifications; outbound delivery belongs
	// to the messaging worker, so no pubsub messenger is wired here.
	alertRepo := alerts.NewRepository(dbClient.DB())
	alertService, err := alerts.NewService(alertRepo, nil, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create alert service", err)
		os.Exit(1)
	}

	checkCallRepo := checkcalls.NewRepository(dbClient.DB())
	checkCallService, err := checkcalls.NewService(checkCallRepo, loadService, alertService, logg, pipeline, cfg.CheckCalls)
	if err != nil {
		logg.Error(context.Background(), "failed to create check-call service", err)
		os.Exit(1)
	}

	riskRepo := risk.NewRepository(dbClient.DB())
	riskService, err := risk.NewService(riskRepo, loadService, carriers.NewRepository(dbClient.DB()), checkCallRepo, alertService, logg, pipeline, cfg.Risk)
	if err != nil {
		logg.Error(context.Background(), "failed to create risk service", err)
		os.Exit(1)
	}

	locker, err := newLocker(cfg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	riskJob, err := cron.NewRiskSweepJob(riskService, logg, cfg.Jobs)
	if err != nil {
		logg.Error(context.Background(), "failed to create risk sweep job", err)
		os.Exit(1)
	}
	checkCallJob, err := cron.NewCheckCallSweepJob(checkCallService, logg, cfg.Jobs)
	if err != nil {
		logg.Error(context.Background(), "failed to create check-call sweep job", err)
		os.Exit(1)
	}
	retentionJob, err := cron.NewRetentionJob(cron.RetentionJobParams{
		Logger:        logg,
		RiskLogs:      riskRepo,
		CheckCalls:    checkCallRepo,
		Notifications: alertRepo,
		Jobs:          cfg.Jobs,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create retention job", err)
		os.Exit(1)
	}
	for _, job := range []cron.Job{riskJob, checkCallJob, retentionJob} {
		if err := registry.Register(job); err != nil {
			logg.Error(context.Background(), "failed to register cron job", err)
			os.Exit(1)
		}
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Locker:   locker,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"lockBackend": cfg.Jobs.LockBackend,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func newLocker(cfg *config.Config, dbClient *db.Client, redisClient *redis.Client) (cron.Locker, error) {
	switch cfg.Jobs.LockBackend {
	case "postgres":
		return cron.NewPGLock(dbClient.DB(), instance.GetID())
	case "redis":
		return cron.NewRedisLock(redisClient, instance.GetID())
	}
	return nil, fmt.Errorf("unknown lock backend %q", cfg.Jobs.LockBackend)
}
