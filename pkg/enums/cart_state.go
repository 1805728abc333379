package enums

import "fmt"

// CartState tracks where a buyer's cart is in the planning lifecycle.
type CartState string

const (
	CartStateDraft       CartState = "draft"
	CartStatePlanned     CartState = "planned"
	CartStateCheckedOut  CartState = "checked_out"
	CartStatePlanChanged CartState = "plan_changed"
)

var validCartStates = []CartState{
	CartStateDraft,
	CartStatePlanned,
	CartStateCheckedOut,
	CartStatePlanChanged,
}

var cartStateTransitions = map[CartState][]CartState{
	CartStateDraft:       {CartStatePlanned},
	CartStatePlanned:     {CartStatePlanned, CartStateCheckedOut, CartStatePlanChanged},
	CartStatePlanChanged: {CartStatePlanned, CartStatePlanChanged},
	CartStateCheckedOut:  {CartStateDraft},
}

// String implements fmt.Stringer.
func (c CartState) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartState.
func (c CartState) IsValid() bool {
	for _, candidate := range validCartStates {
		if candidate == c {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether moving from c to next is allowed.
func (c CartState) CanTransitionTo(next CartState) bool {
	for _, candidate := range cartStateTransitions[c] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseCartState converts raw input into a CartState.
func ParseCartState(value string) (CartState, error) {
	for _, candidate := range validCartStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart state %q", value)
}
