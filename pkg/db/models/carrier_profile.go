package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
)

// CarrierProfile is the scoring projection of a carrier. The matching and
// risk engines read it; only the fall-off note fields are written by this
// pipeline.
type CarrierProfile struct {
	ID                 uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID              `gorm:"type:uuid;not null"`
	CompanyName        string                 `gorm:"type:text;not null"`
	MCNumber           string                 `gorm:"type:text;not null;unique"`
	Phone              string                 `gorm:"type:text"`
	Email              string                 `gorm:"type:text"`
	EquipmentTypes     pq.StringArray         `gorm:"type:text[];not null"`
	OperatingStates    pq.StringArray         `gorm:"type:text[]"`
	PreferredLanes     pq.StringArray         `gorm:"type:text[]"`
	LoyaltyTier        enums.LoyaltyTier      `gorm:"type:loyalty_tier;not null;default:'none'"`
	OnboardingStatus   enums.OnboardingStatus `gorm:"type:onboarding_status;not null;default:'pending'"`
	Source             enums.CarrierSource    `gorm:"type:carrier_source;not null;default:'imported'"`
	InsuranceExpiresAt *time.Time             `gorm:"type:timestamptz"`
	PerformanceScore   float64                `gorm:"not null;default:0"`
	FallOffCount       int                    `gorm:"not null;default:0"`
	Notes              *string                `gorm:"type:text"`
	CreatedAt          time.Time              `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt          time.Time              `gorm:"type:timestamptz;autoUpdateTime"`
}

// HasEquipment reports whether the carrier runs the given trailer type.
func (c CarrierProfile) HasEquipment(equipment enums.EquipmentType) bool {
	for _, candidate := range c.EquipmentTypes {
		if candidate == string(equipment) {
			return true
		}
	}
	return false
}

// HasPreferredLane reports whether the carrier declared the lane.
func (c CarrierProfile) HasPreferredLane(lane string) bool {
	for _, candidate := range c.PreferredLanes {
		if candidate == lane {
			return true
		}
	}
	return false
}

// InsuranceValidAt reports whether the carrier's insurance covers the
// given instant. Missing expiry counts as invalid.
func (c CarrierProfile) InsuranceValidAt(at time.Time) bool {
	return c.InsuranceExpiresAt != nil && !c.InsuranceExpiresAt.Before(at)
}
