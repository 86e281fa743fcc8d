package enums

import "fmt"

// FallOffStatus maps to the fall_off_status enum in Postgres.
type FallOffStatus string

const (
	FallOffStatusActive    FallOffStatus = "active"
	FallOffStatusRecovered FallOffStatus = "recovered"
)

var validFallOffStatuses = []FallOffStatus{
	FallOffStatusActive,
	FallOffStatusRecovered,
}

// String implements fmt.Stringer.
func (f FallOffStatus) String() string {
	return string(f)
}

// IsValid reports whether the value matches the canonical fall_off_status enum.
func (f FallOffStatus) IsValid() bool {
	for _, candidate := range validFallOffStatuses {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFallOffStatus converts raw input into FallOffStatus.
func ParseFallOffStatus(value string) (FallOffStatus, error) {
	for _, candidate := range validFallOffStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fall off status %q", value)
}

// CanTransitionTo allows the single recovery transition; a recovery event
// is closed exactly once.
func (f FallOffStatus) CanTransitionTo(next FallOffStatus) bool {
	return f == FallOffStatusActive && next == FallOffStatusRecovered
}
