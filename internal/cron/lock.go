package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/calderalogistics/loadpilot-backend/pkg/db"
	"github.com/calderalogistics/loadpilot-backend/pkg/db/models"
)

// Locker is the per-job mutual-exclusion primitive shared across process
// instances. Acquire has acquire-or-skip semantics: false means another
// holder owns the job right now and this run should be skipped, not
// queued.
type Locker interface {
	Acquire(ctx context.Context, jobName string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, jobName string) error
}

// PGLock implements Locker on the scheduler_locks table. Acquisition
// reclaims any expired row first, then relies on the primary key for
// atomic create-if-absent.
type PGLock struct {
	db     *gorm.DB
	holder string
	now    func() time.Time
}

// NewPGLock builds a Postgres-backed lock owned by the given holder id.
func NewPGLock(gdb *gorm.DB, holder string) (*PGLock, error) {
	if gdb == nil {
		return nil, errors.New("db required for lock")
	}
	if holder == "" {
		return nil, errors.New("holder id required")
	}
	return &PGLock{db: gdb, holder: holder, now: time.Now}, nil
}

// Acquire reclaims a stale row and then races on row creation.
func (l *PGLock) Acquire(ctx context.Context, jobName string, ttl time.Duration) (bool, error) {
	now := l.now().UTC()

	if err := l.db.WithContext(ctx).
		Where("job_name = ?", jobName).
		Where("expires_at <= ?", now).
		Delete(&models.SchedulerLock{}).Error; err != nil {
		return false, fmt.Errorf("reclaim expired lock: %w", err)
	}

	row := models.SchedulerLock{
		JobName:   jobName,
		Holder:    l.holder,
		ExpiresAt: now.Add(ttl),
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		if db.IsUniqueViolation(err, "") || errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("create lock row: %w", err)
	}
	return true, nil
}

// Release deletes the row only when this instance still holds it, so a
// slow job that outlived its TTL cannot free a successor's lock.
func (l *PGLock) Release(ctx context.Context, jobName string) error {
	if err := l.db.WithContext(ctx).
		Where("job_name = ?", jobName).
		Where("holder = ?", l.holder).
		Delete(&models.SchedulerLock{}).Error; err != nil {
		return fmt.Errorf("delete lock row: %w", err)
	}
	return nil
}

// redisStore defines the operations used by RedisLock.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(jobName string) string
}

// RedisLock implements Locker using SETNX + TTL. An alternative backend
// for deployments where the scheduler should not contend on Postgres.
type RedisLock struct {
	client redisStore
	holder string
}

// NewRedisLock constructs a Redis-backed lock owned by the given holder id.
func NewRedisLock(client redisStore, holder string) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if holder == "" {
		return nil, errors.New("holder id required")
	}
	return &RedisLock{client: client, holder: holder}, nil
}

// Acquire tries to own the job key for the TTL. Redis expires the key on
// its own, so stale locks need no explicit reclaim.
func (l *RedisLock) Acquire(ctx context.Context, jobName string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.client.LockKey(jobName), l.holder, ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	return ok, nil
}

// Release frees the job key only if this instance still owns it.
func (l *RedisLock) Release(ctx context.Context, jobName string) error {
	key := l.client.LockKey(jobName)
	value, err := l.client.Get(ctx, key)
	if err != nil {
		// key already expired or reclaimed
		return nil
	}
	if value != l.holder {
		return nil
	}
	if err := l.client.Del(ctx, key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	return nil
}
