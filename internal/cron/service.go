package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/calderalogistics/loadpilot-backend/pkg/logger"
	"github.com/calderalogistics/loadpilot-backend/pkg/metrics"
)

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Locker   Locker
	Metrics  *metrics.CronJobMetrics
}

// Service drives every registered job on its own cadence, each tick
// wrapped in the distributed lock so a job runs on at most one instance
// at a time.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	locker   Locker
	metrics  *metrics.CronJobMetrics
	now      func() time.Time
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Locker == nil {
		return nil, fmt.Errorf("locker required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		locker:   params.Locker,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

// Run starts one loop per registered job and blocks until the context is
// canceled. Each job ticks immediately on start, then on its interval.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	jobs := s.registry.Jobs()
	if len(jobs) == 0 {
		s.logg.Warn(ctx, "cron service started with no jobs registered")
		<-ctx.Done()
		return ctx.Err()
	}

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.runLoop(ctx, job)
		}(job)
	}
	wg.Wait()
	s.logg.Info(ctx, "cron service context canceled")
	return ctx.Err()
}

func (s *Service) runLoop(ctx context.Context, job Job) {
	s.tick(ctx, job)
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, job)
		}
	}
}

// tick runs one locked execution of the job. Lock contention is a
// normal skip, not an error.
func (s *Service) tick(ctx context.Context, job Job) {
	jobCtx := s.logg.WithJob(ctx, job.Name)

	acquired, err := s.locker.Acquire(jobCtx, job.Name, job.TTL)
	if err != nil {
		s.logg.Error(jobCtx, "lock acquire failed", err)
		s.recordFailure(job.Name)
		return
	}
	if !acquired {
		s.logg.Info(jobCtx, "another instance holds the job; skipping this tick")
		return
	}
	defer func() {
		if relErr := s.locker.Release(jobCtx, job.Name); relErr != nil {
			s.logg.Error(jobCtx, "failed to release job lock", relErr)
		}
	}()

	s.logg.Info(jobCtx, "job start")
	start := s.now()
	err = job.Run(jobCtx)
	duration := s.now().Sub(start)
	s.observeDuration(job.Name, duration)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.recordFailure(job.Name)
		return
	}
	s.logg.Info(jobCtx, "job completed")
	s.recordSuccess(job.Name)
}

func (s *Service) observeDuration(job string, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDuration(job, duration)
}

func (s *Service) recordSuccess(job string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncSuccess(job)
}

func (s *Service) recordFailure(job string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncFailure(job)
}
