package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
)

// FallOffEvent is one recovery episode opened when a carrier backs out
// of a booked load and closed exactly once when a backup accepts.
type FallOffEvent struct {
	ID               uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	LoadID           uuid.UUID           `gorm:"type:uuid;not null;index"`
	CarrierID        uuid.UUID           `gorm:"type:uuid;not null"`
	Reason           string              `gorm:"type:text;not null"`
	Status           enums.FallOffStatus `gorm:"type:fall_off_status;not null;default:'active'"`
	BackupsContacted int                 `gorm:"not null;default:0"`
	BackupsAccepted  int                 `gorm:"not null;default:0"`
	NewCarrierID     *uuid.UUID          `gorm:"type:uuid"`
	RecoveryMinutes  *int                ``
	ResolvedAt       *time.Time          `gorm:"type:timestamptz"`
	CreatedAt        time.Time           `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"type:timestamptz;autoUpdateTime"`
}
