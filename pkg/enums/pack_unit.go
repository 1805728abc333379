package enums

import "fmt"

// PackUnit is the base unit a pack size is normalized to.
type PackUnit string

const (
	PackUnitKilogram PackUnit = "kg"
	PackUnitLiter    PackUnit = "l"
	PackUnitPiece    PackUnit = "pcs"
)

var validPackUnits = []PackUnit{
	PackUnitKilogram,
	PackUnitLiter,
	PackUnitPiece,
}

// String implements fmt.Stringer.
func (p PackUnit) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PackUnit.
func (p PackUnit) IsValid() bool {
	for _, candidate := range validPackUnits {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsMeasured reports whether the unit is weight or volume (as opposed to pieces).
func (p PackUnit) IsMeasured() bool {
	return p == PackUnitKilogram || p == PackUnitLiter
}

// ParsePackUnit converts raw input into a PackUnit.
func ParsePackUnit(value string) (PackUnit, error) {
	for _, candidate := range validPackUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pack unit %q", value)
}
