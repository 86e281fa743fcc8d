package cron

import (
	"context"
	"fmt"
	"time"
)

// Job is one entry in the typed schedule table: a name, its cadence, the
// lock TTL bounding its worst-case duration, and the handler.
type Job struct {
	Name     string
	Interval time.Duration
	TTL      time.Duration
	Run      func(ctx context.Context) error
}

func (j Job) validate() error {
	if j.Name == "" {
		return fmt.Errorf("job name required")
	}
	if j.Interval <= 0 {
		return fmt.Errorf("job %s: interval required", j.Name)
	}
	if j.TTL <= 0 {
		return fmt.Errorf("job %s: lock ttl required", j.Name)
	}
	if j.TTL <= j.Interval {
		return fmt.Errorf("job %s: lock ttl must exceed the interval", j.Name)
	}
	if j.Run == nil {
		return fmt.Errorf("job %s: handler required", j.Name)
	}
	return nil
}

// Registry holds the schedule table. Job names are unique; the name is
// also the lock key.
type Registry struct {
	jobs []Job
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register validates and adds a job.
func (r *Registry) Register(job Job) error {
	if err := job.validate(); err != nil {
		return err
	}
	for _, existing := range r.jobs {
		if existing.Name == job.Name {
			return fmt.Errorf("job %s already registered", job.Name)
		}
	}
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns the registered jobs in registration order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
