package enums

import "fmt"

// EquipmentType maps to the equipment_type enum in Postgres.
type EquipmentType string

const (
	EquipmentDryVan    EquipmentType = "dry_van"
	EquipmentReefer    EquipmentType = "reefer"
	EquipmentFlatbed   EquipmentType = "flatbed"
	EquipmentStepDeck  EquipmentType = "step_deck"
	EquipmentPowerOnly EquipmentType = "power_only"
	EquipmentBoxTruck  EquipmentType = "box_truck"
)

var validEquipmentTypes = []EquipmentType{
	EquipmentDryVan,
	EquipmentReefer,
	EquipmentFlatbed,
	EquipmentStepDeck,
	EquipmentPowerOnly,
	EquipmentBoxTruck,
}

// String implements fmt.Stringer.
func (e EquipmentType) String() string {
	return string(e)
}

// IsValid reports whether the value matches the canonical equipment_type enum.
func (e EquipmentType) IsValid() bool {
	for _, candidate := range validEquipmentTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEquipmentType converts raw input into EquipmentType.
func ParseEquipmentType(value string) (EquipmentType, error) {
	for _, candidate := range validEquipmentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid equipment type %q", value)
}
