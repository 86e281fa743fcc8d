package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
)

// Load is a shipment order moving through the coverage pipeline.
// CarrierID is populated only once the load reaches booked.
type Load struct {
	ID                    uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ReferenceNumber       string              `gorm:"type:text;not null;unique"`
	Status                enums.LoadStatus    `gorm:"type:load_status;not null;default:'posted'"`
	OwnerID               uuid.UUID           `gorm:"type:uuid;not null"`
	CustomerID            uuid.UUID           `gorm:"type:uuid;not null"`
	CustomerLoyaltyRating int                 `gorm:"not null;default:0"`
	OriginCity            string              `gorm:"type:text;not null"`
	OriginState           string              `gorm:"type:text;not null"`
	DestinationCity       string              `gorm:"type:text;not null"`
	DestinationState      string              `gorm:"type:text;not null"`
	EquipmentType         enums.EquipmentType `gorm:"type:equipment_type;not null"`
	PickupAt              time.Time           `gorm:"type:timestamptz;not null"`
	DeliveryAt            time.Time           `gorm:"type:timestamptz;not null"`
	CustomerRate          decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	CarrierRate           decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	CarrierID             *uuid.UUID          `gorm:"type:uuid"`
	DriverName            *string             `gorm:"type:text"`
	DriverPhone           *string             `gorm:"type:text"`
	TruckNumber           *string             `gorm:"type:text"`
	TrailerNumber         *string             `gorm:"type:text"`
	CreatedAt             time.Time           `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"type:timestamptz;autoUpdateTime"`
}

// Lane returns the origin/destination state pair in "TX>CA" form, the
// shape carriers declare preferred lanes in.
func (l Load) Lane() string {
	return l.OriginState + ">" + l.DestinationState
}

// GrossMarginPercent returns (customer - carrier) / customer * 100, or
// zero when the customer rate is not positive.
func (l Load) GrossMarginPercent() decimal.Decimal {
	if !l.CustomerRate.IsPositive() {
		return decimal.Zero
	}
	return l.CustomerRate.Sub(l.CarrierRate).
		Div(l.CustomerRate).
		Mul(decimal.NewFromInt(100))
}
