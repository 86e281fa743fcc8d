package enums

import "fmt"

// RiskLevel maps to the risk_level enum in Postgres.
type RiskLevel string

const (
	RiskLevelGreen RiskLevel = "green"
	RiskLevelAmber RiskLevel = "amber"
	RiskLevelRed   RiskLevel = "red"
)

var validRiskLevels = []RiskLevel{
	RiskLevelGreen,
	RiskLevelAmber,
	RiskLevelRed,
}

// String implements fmt.Stringer.
func (r RiskLevel) String() string {
	return string(r)
}

// IsValid reports whether the value matches the canonical risk_level enum.
func (r RiskLevel) IsValid() bool {
	for _, candidate := range validRiskLevels {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRiskLevel converts raw input into RiskLevel.
func ParseRiskLevel(value string) (RiskLevel, error) {
	for _, candidate := range validRiskLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid risk level %q", value)
}

// RiskLevelForScore thresholds a composite risk score: green up to 20,
// amber through 40, red above.
func RiskLevelForScore(score int) RiskLevel {
	switch {
	case score <= 20:
		return RiskLevelGreen
	case score <= 40:
		return RiskLevelAmber
	default:
		return RiskLevelRed
	}
}
