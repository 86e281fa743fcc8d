package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchResult records one scored candidate from one matching run. Rows
// are immutable except the two outcome booleans flipped by assignment
// and completion events.
type MatchResult struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	LoadID            uuid.UUID `gorm:"type:uuid;not null;index"`
	CarrierID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Rank              int       `gorm:"not null"`
	TotalScore        int       `gorm:"not null"`
	LaneScore         int       `gorm:"not null"`
	RateScore         int       `gorm:"not null"`
	LoyaltyScore      int       `gorm:"not null"`
	AvailabilityScore int       `gorm:"not null"`
	SourceScore       int       `gorm:"not null"`
	WasAssigned       bool      `gorm:"not null;default:false"`
	WasCompleted      bool      `gorm:"not null;default:false"`
	CreatedAt         time.Time `gorm:"type:timestamptz;autoCreateTime"`
}
