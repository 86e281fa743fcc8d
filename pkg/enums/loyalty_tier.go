package enums

import "fmt"

// LoyaltyTier maps to the loyalty_tier enum in Postgres. It is the
// carrier's standing in the rewards program and feeds match scoring.
type LoyaltyTier string

const (
	LoyaltyTierPlatinum LoyaltyTier = "platinum"
	LoyaltyTierGold     LoyaltyTier = "gold"
	LoyaltyTierSilver   LoyaltyTier = "silver"
	LoyaltyTierBronze   LoyaltyTier = "bronze"
	LoyaltyTierNone     LoyaltyTier = "none"
)

var validLoyaltyTiers = []LoyaltyTier{
	LoyaltyTierPlatinum,
	LoyaltyTierGold,
	LoyaltyTierSilver,
	LoyaltyTierBronze,
	LoyaltyTierNone,
}

// loyaltyTierPoints fixes the match-score contribution per tier.
var loyaltyTierPoints = map[LoyaltyTier]int{
	LoyaltyTierPlatinum: 25,
	LoyaltyTierGold:     18,
	LoyaltyTierSilver:   12,
	LoyaltyTierBronze:   6,
	LoyaltyTierNone:     0,
}

// String implements fmt.Stringer.
func (l LoyaltyTier) String() string {
	return string(l)
}

// IsValid reports whether the value matches the canonical loyalty_tier enum.
func (l LoyaltyTier) IsValid() bool {
	for _, candidate := range validLoyaltyTiers {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLoyaltyTier converts raw input into LoyaltyTier.
func ParseLoyaltyTier(value string) (LoyaltyTier, error) {
	for _, candidate := range validLoyaltyTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid loyalty tier %q", value)
}

// Points returns the fixed match-score contribution for the tier.
// Unknown tiers score zero rather than failing the run.
func (l LoyaltyTier) Points() int {
	return loyaltyTierPoints[l]
}

// IsLowest reports whether the carrier sits at the bottom of the program.
func (l LoyaltyTier) IsLowest() bool {
	return l == LoyaltyTierNone || l == ""
}
