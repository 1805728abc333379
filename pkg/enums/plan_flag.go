package enums

import "fmt"

// PlanFlag annotates a plan line that differs from what the buyer put in the cart.
type PlanFlag string

const (
	PlanFlagAutoTopUp         PlanFlag = "AUTO_TOPUP_10PCT"
	PlanFlagSupplierChanged   PlanFlag = "SUPPLIER_CHANGED"
	PlanFlagBrandReplaced     PlanFlag = "BRAND_REPLACED"
	PlanFlagPackToleranceUsed PlanFlag = "PACK_TOLERANCE_USED"
)

var validPlanFlags = []PlanFlag{
	PlanFlagAutoTopUp,
	PlanFlagSupplierChanged,
	PlanFlagBrandReplaced,
	PlanFlagPackToleranceUsed,
}

// String implements fmt.Stringer.
func (p PlanFlag) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PlanFlag.
func (p PlanFlag) IsValid() bool {
	for _, candidate := range validPlanFlags {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePlanFlag converts raw input into a PlanFlag.
func ParsePlanFlag(value string) (PlanFlag, error) {
	for _, candidate := range validPlanFlags {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid plan flag %q", value)
}
