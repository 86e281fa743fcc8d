package enums

import "fmt"

// OnboardingStatus maps to the onboarding_status enum in Postgres.
type OnboardingStatus string

const (
	OnboardingStatusPending   OnboardingStatus = "pending"
	OnboardingStatusApproved  OnboardingStatus = "approved"
	OnboardingStatusActive    OnboardingStatus = "active"
	OnboardingStatusSuspended OnboardingStatus = "suspended"
	OnboardingStatusRejected  OnboardingStatus = "rejected"
)

var validOnboardingStatuses = []OnboardingStatus{
	OnboardingStatusPending,
	OnboardingStatusApproved,
	OnboardingStatusActive,
	OnboardingStatusSuspended,
	OnboardingStatusRejected,
}

// String implements fmt.Stringer.
func (o OnboardingStatus) String() string {
	return string(o)
}

// IsValid reports whether the value matches the canonical onboarding_status enum.
func (o OnboardingStatus) IsValid() bool {
	for _, candidate := range validOnboardingStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOnboardingStatus converts raw input into OnboardingStatus.
func ParseOnboardingStatus(value string) (OnboardingStatus, error) {
	for _, candidate := range validOnboardingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid onboarding status %q", value)
}

// IsBookable reports whether the carrier may be offered loads.
func (o OnboardingStatus) IsBookable() bool {
	return o == OnboardingStatusApproved || o == OnboardingStatusActive
}

// CarrierSource maps to the carrier_source enum in Postgres. Carriers
// onboarded through the platform earn a small match-score bonus over
// rows imported from an external directory.
type CarrierSource string

const (
	CarrierSourcePlatform CarrierSource = "platform"
	CarrierSourceImported CarrierSource = "imported"
)

var validCarrierSources = []CarrierSource{
	CarrierSourcePlatform,
	CarrierSourceImported,
}

// String implements fmt.Stringer.
func (c CarrierSource) String() string {
	return string(c)
}

// IsValid reports whether the value matches the canonical carrier_source enum.
func (c CarrierSource) IsValid() bool {
	for _, candidate := range validCarrierSources {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCarrierSource converts raw input into CarrierSource.
func ParseCarrierSource(value string) (CarrierSource, error) {
	for _, candidate := range validCarrierSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid carrier source %q", value)
}
