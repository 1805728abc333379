package matching

import (
	"github.com/angelmondragon/procurematch-backend/internal/gates"
	"github.com/angelmondragon/procurematch-backend/pkg/enums"
)

type diagnosis struct {
	inCategory int
	passed     int
	priced     int
	brandSeen  bool
	failures   map[string]int
}

// diagnose names the most specific reason an empty match can be explained by.
func diagnose(res Resolved, d diagnosis) enums.Reason {
	if d.inCategory == 0 {
		return enums.ReasonNoSupplierOffers
	}
	if res.Constraints.BrandCritical && res.Constraints.TargetBrand != "" && !d.brandSeen {
		return enums.ReasonBrandRequiredNotFound
	}
	if d.passed > 0 {
		if d.priced == 0 {
			return enums.ReasonPriceInvalid
		}
		return enums.ReasonNotFound
	}
	switch dominantGate(d.failures) {
	case gates.GatePackTolerance:
		return enums.ReasonPackToleranceFailed
	case gates.GateBrand:
		return enums.ReasonBrandRequiredNotFound
	case "":
		return enums.ReasonNotFound
	default:
		return enums.ReasonStrictAttrMismatch
	}
}

func dominantGate(failures map[string]int) string {
	var (
		gate string
		top  int
	)
	for name, n := range failures {
		if n > top || (n == top && name < gate) {
			gate, top = name, n
		}
	}
	return gate
}
