package gates

import (
	"slices"

	"github.com/angelmondragon/procurematch-backend/internal/signature"
	"github.com/angelmondragon/procurematch-backend/pkg/enums"
)

// Kind names a product family with its own gate set.
type Kind string

const (
	KindGeneric    Kind = "generic"
	KindShrimp     Kind = "shrimp"
	KindFishFillet Kind = "fish_fillet"
	KindMeat       Kind = "meat"
	KindDairy      Kind = "dairy"
)

// Domain is one product family's signature refinement and gate set.
type Domain interface {
	Kind() Kind
	PackTolerance() float64
	MinScore() float64
	Forbidden(class string) bool
	ForbiddenClasses() []string
	// Refine drops or derives attributes that only make sense in this family.
	Refine(sig signature.Signature) signature.Signature
	Check(ref, cand signature.Signature, mode enums.MatchMode, c Constraints) Result
}

type profile struct {
	kind          Kind
	packTolerance float64
	minScore      float64
	forbidden     map[string]struct{}
	universal     []gate
	strict        []gate
}

func newProfile(kind Kind, tolerance, minScore float64, forbidden []string, extra ...gate) profile {
	p := profile{
		kind:          kind,
		packTolerance: tolerance,
		minScore:      minScore,
		forbidden:     make(map[string]struct{}, len(forbidden)),
		universal:     universalGates(),
	}
	for _, class := range forbidden {
		p.forbidden[class] = struct{}{}
	}
	p.strict = append(append(universalGates(), strictGates()...), extra...)
	return p
}

func (p *profile) Kind() Kind             { return p.kind }
func (p *profile) PackTolerance() float64 { return p.packTolerance }
func (p *profile) MinScore() float64      { return p.minScore }

func (p *profile) Forbidden(class string) bool {
	_, ok := p.forbidden[class]
	return ok
}

func (p *profile) ForbiddenClasses() []string {
	out := make([]string, 0, len(p.forbidden))
	for class := range p.forbidden {
		out = append(out, class)
	}
	slices.Sort(out)
	return out
}

func (p *profile) Check(ref, cand signature.Signature, mode enums.MatchMode, c Constraints) Result {
	if mode.IsSimilar() {
		return evaluate(p.universal, ref, cand, c, p)
	}
	return evaluate(p.strict, ref, cand, c, p)
}

var rawProteinForbidden = []string{
	signature.ClassDumplings,
	signature.ClassSoup,
	signature.ClassSalad,
	signature.ClassKit,
	signature.ClassCutlets,
	signature.ClassNuggets,
	signature.ClassPizza,
	signature.ClassPancakes,
	signature.ClassSurimi,
}

var dairyForbidden = []string{
	signature.ClassSyrniki,
	signature.ClassPancakes,
	signature.ClassDumplings,
	signature.ClassPizza,
	signature.ClassSalad,
	signature.ClassKit,
}

type genericDomain struct{ profile }

// NewGeneric is the fallback family for staples: ±20% pack tolerance, no blacklist.
func NewGeneric() Domain {
	return &genericDomain{newProfile(KindGeneric, 0.20, 40, nil)}
}

func (d *genericDomain) Refine(sig signature.Signature) signature.Signature { return sig }

type shrimpDomain struct{ profile }

// NewShrimp gates count-graded shrimp. Names are short and caliber is already
// a hard gate, so the score floor sits lower than elsewhere.
func NewShrimp() Domain {
	return &shrimpDomain{newProfile(KindShrimp, 0.10, 35, rawProteinForbidden,
		gate{name: GatePeeled, check: bothKnownEqual(func(s signature.Signature) string { return s.Peeled })},
		gate{name: GateCooked, check: bothKnownEqual(func(s signature.Signature) string { return s.Cooked })},
	)}
}

func (d *shrimpDomain) Refine(sig signature.Signature) signature.Signature {
	sig.Skin = ""
	sig.FatPct = nil
	return sig
}

type fishFilletDomain struct{ profile }

// NewFishFillet gates portioned fish: ±10% packs, cut and skin matter.
func NewFishFillet() Domain {
	return &fishFilletDomain{newProfile(KindFishFillet, 0.10, 40, rawProteinForbidden)}
}

func (d *fishFilletDomain) Refine(sig signature.Signature) signature.Signature {
	sig.Peeled = ""
	sig.Cooked = ""
	return sig
}

type meatDomain struct{ profile }

// NewMeat gates meat and poultry: ±20% packs and fat within 2 points.
func NewMeat() Domain {
	return &meatDomain{newProfile(KindMeat, 0.20, 40, rawProteinForbidden,
		gate{name: GateFat, check: fatWithin(2)},
	)}
}

// Meat is not count-graded; any a/b token is a pack fraction or noise.
func (d *meatDomain) Refine(sig signature.Signature) signature.Signature {
	sig.Caliber = ""
	sig.Peeled = ""
	sig.Cooked = ""
	return sig
}

type dairyDomain struct{ profile }

// NewDairy gates dairy: ±10% packs and fat within half a point.
func NewDairy() Domain {
	return &dairyDomain{newProfile(KindDairy, 0.10, 45, dairyForbidden,
		gate{name: GateFat, check: fatWithin(0.5)},
	)}
}

func (d *dairyDomain) Refine(sig signature.Signature) signature.Signature {
	sig.Caliber = ""
	sig.Cut = ""
	sig.Skin = ""
	sig.Peeled = ""
	sig.Cooked = ""
	return sig
}
