package enums

import "fmt"

// CheckCallType maps to the check_call_type enum in Postgres.
type CheckCallType string

const (
	CheckCallPrePickup          CheckCallType = "pre_pickup"
	CheckCallPickupReminder     CheckCallType = "pickup_reminder"
	CheckCallPickupConfirmation CheckCallType = "pickup_confirmation"
	CheckCallTransitCheck       CheckCallType = "transit_check"
	CheckCallShipperUpdate      CheckCallType = "shipper_update"
	CheckCallPreDelivery        CheckCallType = "pre_delivery"
	CheckCallPODRequest         CheckCallType = "pod_request"
)

var validCheckCallTypes = []CheckCallType{
	CheckCallPrePickup,
	CheckCallPickupReminder,
	CheckCallPickupConfirmation,
	CheckCallTransitCheck,
	CheckCallShipperUpdate,
	CheckCallPreDelivery,
	CheckCallPODRequest,
}

// String implements fmt.Stringer.
func (c CheckCallType) String() string {
	return string(c)
}

// IsValid reports whether the value matches the canonical check_call_type enum.
func (c CheckCallType) IsValid() bool {
	for _, candidate := range validCheckCallTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCheckCallType converts raw input into CheckCallType.
func ParseCheckCallType(value string) (CheckCallType, error) {
	for _, candidate := range validCheckCallTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid check call type %q", value)
}

// CheckCallStatus maps to the check_call_status enum in Postgres.
type CheckCallStatus string

const (
	CheckCallStatusPending   CheckCallStatus = "pending"
	CheckCallStatusSent      CheckCallStatus = "sent"
	CheckCallStatusResponded CheckCallStatus = "responded"
	CheckCallStatusEscalated CheckCallStatus = "escalated"
)

var validCheckCallStatuses = []CheckCallStatus{
	CheckCallStatusPending,
	CheckCallStatusSent,
	CheckCallStatusResponded,
	CheckCallStatusEscalated,
}

// checkCallTransitions is the per-touchpoint state machine. The retry
// resend stays inside sent, so sent->sent is not a table entry.
var checkCallTransitions = map[CheckCallStatus][]CheckCallStatus{
	CheckCallStatusPending: {CheckCallStatusSent},
	CheckCallStatusSent:    {CheckCallStatusResponded, CheckCallStatusEscalated},
}

// String implements fmt.Stringer.
func (c CheckCallStatus) String() string {
	return string(c)
}

// IsValid reports whether the value matches the canonical check_call_status enum.
func (c CheckCallStatus) IsValid() bool {
	for _, candidate := range validCheckCallStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCheckCallStatus converts raw input into CheckCallStatus.
func ParseCheckCallStatus(value string) (CheckCallStatus, error) {
	for _, candidate := range validCheckCallStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid check call status %q", value)
}

// IsTerminal reports whether the touchpoint can advance no further.
func (c CheckCallStatus) IsTerminal() bool {
	return c == CheckCallStatusResponded || c == CheckCallStatusEscalated
}

// CanTransitionTo consults the touchpoint transition table.
func (c CheckCallStatus) CanTransitionTo(next CheckCallStatus) bool {
	for _, candidate := range checkCallTransitions[c] {
		if candidate == next {
			return true
		}
	}
	return false
}
