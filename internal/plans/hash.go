package plans

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is the part of a cart intent that a plan depends on.
type CartLine struct {
	Key      string
	Quantity decimal.Decimal
	Locked   bool
}

// LineKey identifies an intent by its pinned offer, or by its reference when
// nothing is pinned.
func LineKey(pinnedOfferID *uuid.UUID, referenceID uuid.UUID) string {
	if pinnedOfferID != nil && *pinnedOfferID != uuid.Nil {
		return pinnedOfferID.String()
	}
	return "ref:" + referenceID.String()
}

// HashCart returns a hex SHA-256 over the lines sorted by key. Quantities are
// normalised so 10 and 10.000 hash the same.
func HashCart(lines []CartLine) string {
	rows := make([]string, 0, len(lines))
	for _, l := range lines {
		locked := "0"
		if l.Locked {
			locked = "1"
		}
		rows = append(rows, l.Key+"|"+l.Quantity.String()+"|"+locked)
	}
	slices.Sort(rows)

	sum := sha256.Sum256([]byte(strings.Join(rows, "\n")))
	return hex.EncodeToString(sum[:])
}
