package enums

import "fmt"

// LoadStatus maps to the load_status enum in Postgres.
type LoadStatus string

const (
	LoadStatusPosted     LoadStatus = "posted"
	LoadStatusTendered   LoadStatus = "tendered"
	LoadStatusBooked     LoadStatus = "booked"
	LoadStatusDispatched LoadStatus = "dispatched"
	LoadStatusAtPickup   LoadStatus = "at_pickup"
	LoadStatusInTransit  LoadStatus = "in_transit"
	LoadStatusAtDelivery LoadStatus = "at_delivery"
	LoadStatusDelivered  LoadStatus = "delivered"
	LoadStatusCompleted  LoadStatus = "completed"
	LoadStatusCancelled  LoadStatus = "cancelled"
)

var validLoadStatuses = []LoadStatus{
	LoadStatusPosted,
	LoadStatusTendered,
	LoadStatusBooked,
	LoadStatusDispatched,
	LoadStatusAtPickup,
	LoadStatusInTransit,
	LoadStatusAtDelivery,
	LoadStatusDelivered,
	LoadStatusCompleted,
	LoadStatusCancelled,
}

// loadStatusOrder positions each status in the posted-to-completed
// progression. Cancelled sits outside the progression.
var loadStatusOrder = map[LoadStatus]int{
	LoadStatusPosted:     0,
	LoadStatusTendered:   1,
	LoadStatusBooked:     2,
	LoadStatusDispatched: 3,
	LoadStatusAtPickup:   4,
	LoadStatusInTransit:  5,
	LoadStatusAtDelivery: 6,
	LoadStatusDelivered:  7,
	LoadStatusCompleted:  8,
}

// String implements fmt.Stringer.
func (s LoadStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches the canonical load_status enum.
func (s LoadStatus) IsValid() bool {
	for _, candidate := range validLoadStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseLoadStatus converts raw input into LoadStatus.
func ParseLoadStatus(value string) (LoadStatus, error) {
	for _, candidate := range validLoadStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid load status %q", value)
}

// Order returns the position of the status in the canonical progression,
// or -1 for cancelled.
func (s LoadStatus) Order() int {
	if pos, ok := loadStatusOrder[s]; ok {
		return pos
	}
	return -1
}

// AtOrBeyond reports whether s has progressed at least as far as other.
func (s LoadStatus) AtOrBeyond(other LoadStatus) bool {
	a, b := s.Order(), other.Order()
	return a >= 0 && b >= 0 && a >= b
}

// IsTerminal reports whether no further transitions are allowed.
func (s LoadStatus) IsTerminal() bool {
	return s == LoadStatusCompleted || s == LoadStatusCancelled
}

// CanTransitionTo enforces the load transition table: forward moves along
// the canonical progression, a revert to posted while the load has not yet
// reached pickup (carrier fall-off), and cancellation from any non-terminal
// state. Everything else is rejected.
func (s LoadStatus) CanTransitionTo(next LoadStatus) bool {
	if !s.IsValid() || !next.IsValid() || s == next {
		return false
	}
	if s.IsTerminal() {
		return false
	}
	if next == LoadStatusCancelled {
		return true
	}
	if next == LoadStatusPosted {
		switch s {
		case LoadStatusTendered, LoadStatusBooked, LoadStatusDispatched:
			return true
		}
		return false
	}
	return next.Order() > s.Order()
}

// ActiveLoadStatuses lists the lifecycle states covered by the periodic
// risk sweep: everything between posted and at_delivery inclusive.
func ActiveLoadStatuses() []LoadStatus {
	return []LoadStatus{
		LoadStatusPosted,
		LoadStatusTendered,
		LoadStatusBooked,
		LoadStatusDispatched,
		LoadStatusAtPickup,
		LoadStatusInTransit,
		LoadStatusAtDelivery,
	}
}
