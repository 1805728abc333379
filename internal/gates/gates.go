// Package gates decides candidate eligibility with hard per-domain checks.
package gates

import (
	"math"
	"strings"

	"github.com/angelmondragon/procurematch-backend/internal/signature"
)

// Gate names reported in results and traces.
const (
	GateCategory       = "category"
	GateForbiddenClass = "forbidden_class"
	GateCaliber        = "caliber"
	GateCutForm        = "cut_form"
	GateBreaded        = "breaded"
	GateSkin           = "skin"
	GateState          = "state"
	GateUnitClass      = "unit_class"
	GatePackTolerance  = "pack_tolerance"
	GateBrand          = "brand"
	GatePeeled         = "peeled"
	GateCooked         = "cooked"
	GateFat            = "fat"
)

// packEpsilon absorbs float error so that a pack at exactly ref*(1±t) passes.
const packEpsilon = 1e-9

// Constraints are the buyer-side limits attached to a reference.
type Constraints struct {
	BrandCritical bool
	TargetBrand   string
	// PackTolerance overrides the domain tolerance when set.
	PackTolerance *float64
}

// Result is the outcome of evaluating one (reference, candidate) pair.
type Result struct {
	Passed     bool     `json:"passed"`
	Evaluated  []string `json:"evaluated"`
	FailedGate string   `json:"failed_gate,omitempty"`
}

type check func(ref, cand signature.Signature, c Constraints, p *profile) bool

type gate struct {
	name  string
	check check
}

func universalGates() []gate {
	return []gate{
		{name: GateCategory, check: categoryMatches},
		{name: GateForbiddenClass, check: notForbidden},
		{name: GateCaliber, check: caliberMatches},
	}
}

func strictGates() []gate {
	return []gate{
		{name: GateCutForm, check: cutMatches},
		{name: GateBreaded, check: breadedMatches},
		{name: GateSkin, check: bothKnownEqual(func(s signature.Signature) string { return s.Skin })},
		{name: GateState, check: bothKnownEqual(func(s signature.Signature) string { return s.State })},
		{name: GateUnitClass, check: unitClassMatches},
		{name: GatePackTolerance, check: packWithinTolerance},
		{name: GateBrand, check: brandMatches},
	}
}

// evaluate runs gates in order and stops at the first failure.
func evaluate(gs []gate, ref, cand signature.Signature, c Constraints, p *profile) Result {
	res := Result{Evaluated: make([]string, 0, len(gs))}
	for _, g := range gs {
		res.Evaluated = append(res.Evaluated, g.name)
		if !g.check(ref, cand, c, p) {
			res.FailedGate = g.name
			return res
		}
	}
	res.Passed = true
	return res
}

func categoryMatches(ref, cand signature.Signature, _ Constraints, _ *profile) bool {
	return SameCategory(ref.Category, cand.Category)
}

// SameCategory reports whether cand is ref or one of its dotted subcategories.
func SameCategory(ref, cand string) bool {
	if ref == "" || cand == "" {
		return false
	}
	return cand == ref || strings.HasPrefix(cand, ref+".")
}

// A blacklisted class only excludes when the reference is not itself that class.
func notForbidden(ref, cand signature.Signature, _ Constraints, p *profile) bool {
	if cand.Class == "" || cand.Class == ref.Class {
		return true
	}
	_, banned := p.forbidden[cand.Class]
	return !banned
}

func caliberMatches(ref, cand signature.Signature, _ Constraints, _ *profile) bool {
	return ref.Caliber == "" || ref.Caliber == cand.Caliber
}

func cutMatches(ref, cand signature.Signature, _ Constraints, _ *profile) bool {
	return ref.Cut == "" || ref.Cut == cand.Cut
}

func breadedMatches(ref, cand signature.Signature, _ Constraints, _ *profile) bool {
	return ref.Breaded == cand.Breaded
}

func bothKnownEqual(get func(signature.Signature) string) check {
	return func(ref, cand signature.Signature, _ Constraints, _ *profile) bool {
		a, b := get(ref), get(cand)
		return a == "" || b == "" || a == b
	}
}

func unitClassMatches(ref, cand signature.Signature, _ Constraints, _ *profile) bool {
	if ref.PackUnit == "" || cand.PackUnit == "" {
		return true
	}
	return ref.PackUnit == cand.PackUnit
}

// Symmetric relative tolerance: |c-r|/r <= t.
func packWithinTolerance(ref, cand signature.Signature, c Constraints, p *profile) bool {
	if !ref.HasPack() || !cand.HasPack() || ref.PackUnit != cand.PackUnit {
		return true
	}
	tol := p.packTolerance
	if c.PackTolerance != nil && *c.PackTolerance >= 0 {
		tol = *c.PackTolerance
	}
	return RelativeDiff(ref.PackValue, cand.PackValue) <= tol+packEpsilon
}

func brandMatches(ref, cand signature.Signature, c Constraints, _ *profile) bool {
	if !c.BrandCritical {
		return true
	}
	target := c.TargetBrand
	if target == "" {
		target = ref.Brand
	}
	if target == "" {
		return true
	}
	return signature.BrandEquals(target, cand.Brand)
}

func fatWithin(tol float64) check {
	return func(ref, cand signature.Signature, _ Constraints, _ *profile) bool {
		if ref.FatPct == nil || cand.FatPct == nil {
			return true
		}
		return math.Abs(*ref.FatPct-*cand.FatPct) <= tol+packEpsilon
	}
}

// RelativeDiff returns |c-r|/r, or +Inf when r is not positive.
func RelativeDiff(r, c float64) float64 {
	if r <= 0 {
		return math.Inf(1)
	}
	return math.Abs(c-r) / r
}
