package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
)

// CheckCallSchedule is one planned touchpoint with the carrier on an
// assigned load. The full set is regenerated whenever the load is
// reassigned.
type CheckCallSchedule struct {
	ID           uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	LoadID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	CarrierID    uuid.UUID             `gorm:"type:uuid;not null"`
	Type         enums.CheckCallType   `gorm:"type:check_call_type;not null"`
	Status       enums.CheckCallStatus `gorm:"type:check_call_status;not null;default:'pending'"`
	ScheduledAt  time.Time             `gorm:"type:timestamptz;not null;index"`
	CarrierPhone string                `gorm:"type:text"`
	RetryCount   int                   `gorm:"not null;default:0"`
	SentAt       *time.Time            `gorm:"type:timestamptz"`
	RespondedAt  *time.Time            `gorm:"type:timestamptz"`
	EscalatedAt  *time.Time            `gorm:"type:timestamptz"`
	CreatedAt    time.Time             `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt    time.Time             `gorm:"type:timestamptz;autoUpdateTime"`
}
