package scoring

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Candidate is one gate-passing offer prepared for ranking.
type Candidate struct {
	Key      string
	Score    Breakdown
	PPU      decimal.NullDecimal
	LineCost decimal.Decimal
}

// Rank drops candidates under minScore and orders the rest by score desc, then
// ppu asc (unknown last), then line cost asc, then key. The input is not modified.
func Rank(cands []Candidate, minScore float64) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Score.Total >= minScore {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, Compare)
	return out
}

// Compare is the ranking order as a comparison function.
func Compare(a, b Candidate) int {
	if a.Score.Total != b.Score.Total {
		if a.Score.Total > b.Score.Total {
			return -1
		}
		return 1
	}
	if c := comparePPU(a.PPU, b.PPU); c != 0 {
		return c
	}
	if c := a.LineCost.Cmp(b.LineCost); c != 0 {
		return c
	}
	return strings.Compare(a.Key, b.Key)
}

func comparePPU(a, b decimal.NullDecimal) int {
	switch {
	case a.Valid && b.Valid:
		return a.Decimal.Cmp(b.Decimal)
	case a.Valid:
		return -1
	case b.Valid:
		return 1
	}
	return 0
}
