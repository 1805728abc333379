// Package signature turns free-text product names into comparable attribute sets.
package signature

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/procurematch-backend/pkg/enums"
)

// ExtractorVersion changes whenever a pass or vocabulary table changes meaning.
const ExtractorVersion = "sig-3"

// Tri-state attribute values. Empty means the attribute was not recognized.
const (
	SkinOn  = "on"
	SkinOff = "off"

	StateFrozen  = "frozen"
	StateChilled = "chilled"

	PeeledYes = "peeled"
	PeeledNo  = "unpeeled"

	CookedYes = "cooked"
	CookedNo  = "raw"
)

// Cut/form values.
const (
	CutFillet = "fillet"
	CutWhole  = "whole"
	CutSteak  = "steak"
	CutGround = "ground"
	CutTail   = "tail"
)

// Signature is the derived attribute view of an offer or a reference.
type Signature struct {
	Version    string         `json:"version"`
	Normalized string         `json:"normalized"`
	Tokens     []string       `json:"tokens,omitempty"`
	Category   string         `json:"category,omitempty"`
	Class      string         `json:"class,omitempty"`
	Cut        string         `json:"cut,omitempty"`
	Caliber    string         `json:"caliber,omitempty"`
	Brand      string         `json:"brand,omitempty"`
	PackValue  float64        `json:"pack_value,omitempty"`
	PackUnit   enums.PackUnit `json:"pack_unit,omitempty"`
	PackCount  int            `json:"pack_count,omitempty"`
	Breaded    bool           `json:"breaded,omitempty"`
	Skin       string         `json:"skin,omitempty"`
	State      string         `json:"state,omitempty"`
	Smoked     bool           `json:"smoked,omitempty"`
	Marinated  bool           `json:"marinated,omitempty"`
	Peeled     string         `json:"peeled,omitempty"`
	Cooked     string         `json:"cooked,omitempty"`
	FatPct     *float64       `json:"fat_pct,omitempty"`
}

// HasPack reports whether a usable pack size was recognized.
func (s Signature) HasPack() bool {
	return s.PackValue > 0 && s.PackUnit.IsValid()
}

// Comparable reports whether both signatures come from the same extractor and dictionary.
func Comparable(a, b Signature) bool {
	return a.Version != "" && a.Version == b.Version
}

// BrandEquals compares canonical brand names case-insensitively.
func BrandEquals(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func versionFor(dictVersion int64) string {
	return fmt.Sprintf("%s/d%d", ExtractorVersion, dictVersion)
}
