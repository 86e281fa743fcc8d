package checkcalls

import (
	"testing"
	"time"

	"github.com/calderalogistics/loadpilot-backend/pkg/enums"
)

func countByType(plan []plannedTouchpoint, t enums.CheckCallType) int {
	n := 0
	for _, tp := range plan {
		if tp.Type == t {
			n++
		}
	}
	return n
}

func TestBuildPlanStandardTwoDayTransit(t *testing.T) {
	pickup := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	delivery := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	plan := buildPlan(pickup, delivery, now, false)

	// 3 pickup-side + 2 transit checks + pre-delivery + 2 POD requests
	if len(plan) != 8 {
		t.Fatalf("expected 8 touchpoints, got %d", len(plan))
	}
	if got := countByType(plan, enums.CheckCallTransitCheck); got != 2 {
		t.Fatalf("expected 2 transit checks, got %d", got)
	}
	if got := countByType(plan, enums.CheckCallShipperUpdate); got != 0 {
		t.Fatalf("standard load planned %d shipper updates", got)
	}

	// transit checks land at noon UTC on the days after pickup
	want := []time.Time{
		time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC),
	}
	i := 0
	for _, tp := range plan {
		if tp.Type != enums.CheckCallTransitCheck {
			continue
		}
		if !tp.ScheduledAt.Equal(want[i]) {
			t.Fatalf("transit check %d at %s, expected %s", i, tp.ScheduledAt, want[i])
		}
		i++
	}
}

func TestBuildPlanExpeditedDoublesTransitCadence(t *testing.T) {
	pickup := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	delivery := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	plan := buildPlan(pickup, delivery, now, true)

	if got := countByType(plan, enums.CheckCallTransitCheck); got != 4 {
		t.Fatalf("expected 4 transit checks, got %d", got)
	}
	if got := countByType(plan, enums.CheckCallShipperUpdate); got != 4 {
		t.Fatalf("expected 4 shipper updates, got %d", got)
	}
	// 6 fixed + 4 per transit day
	if len(plan) != 14 {
		t.Fatalf("expected 14 touchpoints, got %d", len(plan))
	}
}

func TestBuildPlanSameDayDeliveryHasNoTransitChecks(t *testing.T) {
	pickup := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	delivery := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	plan := buildPlan(pickup, delivery, now, false)

	if got := countByType(plan, enums.CheckCallTransitCheck); got != 0 {
		t.Fatalf("expected 0 transit checks, got %d", got)
	}
	if len(plan) != 6 {
		t.Fatalf("expected 6 touchpoints, got %d", len(plan))
	}
}

func TestBuildPlanDropsPastTouchpoints(t *testing.T) {
	pickup := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	delivery := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)
	// plan regenerated mid-transit after a reassignment
	now := time.Date(2026, 3, 3, 13, 0, 0, 0, time.UTC)

	plan := buildPlan(pickup, delivery, now, false)

	for _, tp := range plan {
		if !tp.ScheduledAt.After(now) {
			t.Fatalf("%s at %s is not in the future", tp.Type, tp.ScheduledAt)
		}
	}
	if got := countByType(plan, enums.CheckCallPrePickup); got != 0 {
		t.Fatalf("pre-pickup survived regeneration")
	}
	// day-2 transit check, pre-delivery and both POD requests remain
	if len(plan) != 4 {
		t.Fatalf("expected 4 future touchpoints, got %d", len(plan))
	}
}

func TestBuildPlanOrderFollowsLifecycle(t *testing.T) {
	pickup := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	delivery := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	plan := buildPlan(pickup, delivery, now, false)

	if plan[0].Type != enums.CheckCallPrePickup {
		t.Fatalf("plan starts with %s", plan[0].Type)
	}
	if !plan[0].ScheduledAt.Equal(pickup.Add(-2 * time.Hour)) {
		t.Fatalf("pre-pickup at %s", plan[0].ScheduledAt)
	}
	last := plan[len(plan)-1]
	if last.Type != enums.CheckCallPODRequest {
		t.Fatalf("plan ends with %s", last.Type)
	}
	if !last.ScheduledAt.Equal(delivery.Add(time.Hour)) {
		t.Fatalf("final POD request at %s", last.ScheduledAt)
	}
}
