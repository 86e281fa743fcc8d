package models

import "time"

// SchedulerLock is the advisory mutex row serializing one scheduled job
// across process instances. The row exists only while a holder runs the
// job; an expired row is reclaimable by anyone.
type SchedulerLock struct {
	JobName   string    `gorm:"type:text;primaryKey"`
	Holder    string    `gorm:"type:text;not null"`
	ExpiresAt time.Time `gorm:"type:timestamptz;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}
