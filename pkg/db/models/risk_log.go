package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
)

// RiskLog is one append-only risk snapshot for a load. Factors holds the
// serialized contributing-factor list (code, points, description).
type RiskLog struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	LoadID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Score     int             `gorm:"not null"`
	Level     enums.RiskLevel `gorm:"type:risk_level;not null"`
	Factors   []byte          `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt time.Time       `gorm:"type:timestamptz;autoCreateTime"`
}
