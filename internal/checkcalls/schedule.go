package checkcalls

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderalogistics/loadpilot-backend/pkg/db/models"
	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
)

// Fixed UTC touchpoint hours for transit days. Expedited loads get a
// morning and afternoon carrier check plus two shipper-facing updates;
// standard loads get a single midday check.
var (
	expeditedCarrierHours = []int{8, 14}
	expeditedShipperHours = []int{10, 16}
	standardCheckHour     = 12
)

type plannedTouchpoint struct {
	Type        enums.CheckCallType
	ScheduledAt time.Time
}

// buildPlan computes the full touchpoint plan for a load. Touchpoints
// already in the past at generation time are dropped. Transit-day
// touchpoints are laid out per whole 24h transit day after pickup.
func buildPlan(pickupAt, deliveryAt, now time.Time, expedited bool) []plannedTouchpoint {
	var plan []plannedTouchpoint

	plan = append(plan,
		plannedTouchpoint{enums.CheckCallPrePickup, pickupAt.Add(-2 * time.Hour)},
		plannedTouchpoint{enums.CheckCallPickupReminder, pickupAt.Add(-30 * time.Minute)},
		plannedTouchpoint{enums.CheckCallPickupConfirmation, pickupAt},
	)

	transitDays := int(deliveryAt.Sub(pickupAt).Hours() / 24)
	pickupMidnight := time.Date(pickupAt.Year(), pickupAt.Month(), pickupAt.Day(), 0, 0, 0, 0, time.UTC)
	for day := 1; day <= transitDays; day++ {
		dayStart := pickupMidnight.AddDate(0, 0, day)
		if expedited {
			for _, hour := range expeditedCarrierHours {
				plan = append(plan, plannedTouchpoint{enums.CheckCallTransitCheck, dayStart.Add(time.Duration(hour) * time.Hour)})
			}
			for _, hour := range expeditedShipperHours {
				plan = append(plan, plannedTouchpoint{enums.CheckCallShipperUpdate, dayStart.Add(time.Duration(hour) * time.Hour)})
			}
		} else {
			plan = append(plan, plannedTouchpoint{enums.CheckCallTransitCheck, dayStart.Add(time.Duration(standardCheckHour) * time.Hour)})
		}
	}

	plan = append(plan,
		plannedTouchpoint{enums.CheckCallPreDelivery, deliveryAt.Add(-2 * time.Hour)},
		plannedTouchpoint{enums.CheckCallPODRequest, deliveryAt.Add(30 * time.Minute)},
		plannedTouchpoint{enums.CheckCallPODRequest, deliveryAt.Add(time.Hour)},
	)

	kept := plan[:0]
	for _, tp := range plan {
		if tp.ScheduledAt.After(now) {
			kept = append(kept, tp)
		}
	}
	return kept
}

func planToRows(loadID, carrierID uuid.UUID, phone string, plan []plannedTouchpoint) []models.CheckCallSchedule {
	rows := make([]models.CheckCallSchedule, 0, len(plan))
	for _, tp := range plan {
		rows = append(rows, models.CheckCallSchedule{
			LoadID:       loadID,
			CarrierID:    carrierID,
			Type:         tp.Type,
			Status:       enums.CheckCallStatusPending,
			ScheduledAt:  tp.ScheduledAt,
			CarrierPhone: phone,
		})
	}
	return rows
}
