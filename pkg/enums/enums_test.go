package enums

import "testing"

func TestParseMatchModeDefaultsToStrict(t *testing.T) {
	mode, err := ParseMatchMode("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != MatchModeStrict {
		t.Fatalf("expected strict, got %s", mode)
	}
	if mode, _ := ParseMatchMode(" Similar "); mode != MatchModeSimilar {
		t.Fatalf("expected similar, got %s", mode)
	}
	if _, err := ParseMatchMode("fuzzy"); err == nil {
		t.Fatalf("expected a third mode to be rejected")
	}
	if MatchMode("").String() != "strict" {
		t.Fatalf("zero mode should render as strict")
	}
}

func TestReasonsCarryExplanations(t *testing.T) {
	for reason := range reasonExplanations {
		if reason.Explain() == "" || reason.Explain() == "unknown reason" {
			t.Fatalf("reason %s has no explanation", reason)
		}
		parsed, err := ParseReason(string(reason))
		if err != nil || parsed != reason {
			t.Fatalf("round trip failed for %s: %v", reason, err)
		}
	}
	if Reason("BOGUS").Explain() != "unknown reason" {
		t.Fatalf("unexpected explanation for unknown reason")
	}
}

func TestCartStateTransitions(t *testing.T) {
	cases := []struct {
		from, to CartState
		allowed  bool
	}{
		{CartStateDraft, CartStatePlanned, true},
		{CartStateDraft, CartStateCheckedOut, false},
		{CartStatePlanned, CartStatePlanChanged, true},
		{CartStatePlanned, CartStateCheckedOut, true},
		{CartStatePlanChanged, CartStateCheckedOut, false},
		{CartStatePlanChanged, CartStatePlanned, true},
		{CartStateCheckedOut, CartStateDraft, true},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestPackUnitMeasured(t *testing.T) {
	if !PackUnitKilogram.IsMeasured() || !PackUnitLiter.IsMeasured() {
		t.Fatalf("kg and l are measured units")
	}
	if PackUnitPiece.IsMeasured() {
		t.Fatalf("pieces are not measured")
	}
}
