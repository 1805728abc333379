package matching

import (
	"strings"

	"github.com/angelmondragon/procurematch-backend/internal/scoring"
)

// SelectBestPrice picks the cheapest-per-base-unit candidate among the top of
// an already ranked list. The top set is every candidate within band points of
// the best score, capped at topK. Candidates without a ppu are ignored. Ties go
// to the higher score, then the smaller key, so equal inputs give equal winners.
func SelectBestPrice(ranked []scoring.Candidate, topK int, band float64) (scoring.Candidate, bool) {
	if len(ranked) == 0 {
		return scoring.Candidate{}, false
	}
	best := ranked[0].Score.Total
	var (
		winner scoring.Candidate
		found  bool
		taken  int
	)
	for _, c := range ranked {
		if topK > 0 && taken >= topK {
			break
		}
		if c.Score.Total < best-band {
			break
		}
		taken++
		if !c.PPU.Valid {
			continue
		}
		if !found || cheaper(c, winner) {
			winner, found = c, true
		}
	}
	return winner, found
}

func cheaper(a, b scoring.Candidate) bool {
	if c := a.PPU.Decimal.Cmp(b.PPU.Decimal); c != 0 {
		return c < 0
	}
	if a.Score.Total != b.Score.Total {
		return a.Score.Total > b.Score.Total
	}
	return strings.Compare(a.Key, b.Key) < 0
}
