package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
)

// Notification stores in-app alert payloads for staff users. The table
// doubles as the dedup ledger for risk alerting: recent rows are queried
// by title and creation window before a new alert is raised.
type Notification struct {
	ID        uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID                  `gorm:"type:uuid;not null;index"`
	LoadID    *uuid.UUID                 `gorm:"type:uuid;index"`
	Type      enums.NotificationType     `gorm:"type:notification_type;not null"`
	Priority  enums.NotificationPriority `gorm:"type:notification_priority;not null;default:'normal'"`
	Title     string                     `gorm:"type:text;not null"`
	Message   string                     `gorm:"type:text;not null"`
	Link      *string                    `gorm:"type:text"`
	ReadAt    *time.Time                 `gorm:"type:timestamptz"`
	CreatedAt time.Time                  `gorm:"type:timestamptz;default:now()"`
}
