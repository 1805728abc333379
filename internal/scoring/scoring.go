// Package scoring ranks gate-passing candidates by a bounded additive score.
package scoring

import (
	"math"

	"github.com/angelmondragon/procurematch-backend/internal/gates"
	"github.com/angelmondragon/procurematch-backend/internal/signature"
)

// Component ceilings. Total is clamped to [0, MaxScore].
const (
	MaxScore       = 100
	nameWeight     = 50
	subsetBonus    = 10
	brandMatch     = 10
	brandUnknown   = 5
	attrMax        = 10
	attrUnknown    = 5
	packUnknown    = 5
	caliberPenalty = -100
	fatSlack       = 1.0
)

var packBands = []struct {
	within float64
	points float64
}{
	{0.05, 20},
	{0.10, 15},
	{0.20, 8},
}

// Breakdown keeps every component so traces can show why a candidate ranked where it did.
type Breakdown struct {
	Name       float64 `json:"name"`
	Pack       float64 `json:"pack"`
	Brand      float64 `json:"brand"`
	Attributes float64 `json:"attributes"`
	Penalty    float64 `json:"penalty,omitempty"`
	Total      float64 `json:"total"`
}

// Score compares a reference signature with a candidate. Both must be refined
// by the same domain beforehand.
func Score(ref, cand signature.Signature) Breakdown {
	b := Breakdown{
		Name:       nameScore(ref.Tokens, cand.Tokens),
		Pack:       packScore(ref, cand),
		Brand:      brandScore(ref.Brand, cand.Brand),
		Attributes: attributeScore(ref, cand),
	}
	if ref.Caliber != "" && ref.Caliber != cand.Caliber {
		b.Penalty = caliberPenalty
	}
	total := b.Name + b.Pack + b.Brand + b.Attributes + b.Penalty
	b.Total = round2(math.Max(0, math.Min(MaxScore, total)))
	return b
}

func nameScore(ref, cand []string) float64 {
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(cand))
	for _, t := range cand {
		set[t] = struct{}{}
	}
	refSet := make(map[string]struct{}, len(ref))
	shared := 0
	for _, t := range ref {
		if _, dup := refSet[t]; dup {
			continue
		}
		refSet[t] = struct{}{}
		if _, ok := set[t]; ok {
			shared++
		}
	}
	union := len(refSet) + len(set) - shared
	score := nameWeight * float64(shared) / float64(union)
	if shared == len(refSet) {
		score += subsetBonus
	}
	return round2(score)
}

func packScore(ref, cand signature.Signature) float64 {
	if !ref.HasPack() || !cand.HasPack() {
		return packUnknown
	}
	if ref.PackUnit != cand.PackUnit {
		return 0
	}
	diff := gates.RelativeDiff(ref.PackValue, cand.PackValue)
	for _, band := range packBands {
		if diff <= band.within+1e-9 {
			return band.points
		}
	}
	return 0
}

func brandScore(ref, cand string) float64 {
	switch {
	case ref == "":
		return brandUnknown
	case signature.BrandEquals(ref, cand):
		return brandMatch
	default:
		return 0
	}
}

// attributeScore is the share of attributes known on both sides that agree.
func attributeScore(ref, cand signature.Signature) float64 {
	var known, equal int
	compare := func(a, b string) {
		if a == "" || b == "" {
			return
		}
		known++
		if a == b {
			equal++
		}
	}
	flag := func(a, b bool) {
		if !a && !b {
			return
		}
		known++
		if a == b {
			equal++
		}
	}
	compare(ref.Cut, cand.Cut)
	compare(ref.Skin, cand.Skin)
	compare(ref.State, cand.State)
	compare(ref.Peeled, cand.Peeled)
	compare(ref.Cooked, cand.Cooked)
	flag(ref.Breaded, cand.Breaded)
	flag(ref.Smoked, cand.Smoked)
	flag(ref.Marinated, cand.Marinated)
	if ref.FatPct != nil && cand.FatPct != nil {
		known++
		if math.Abs(*ref.FatPct-*cand.FatPct) <= fatSlack {
			equal++
		}
	}
	if known == 0 {
		return attrUnknown
	}
	return round2(attrMax * float64(equal) / float64(known))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
