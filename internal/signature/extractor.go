package signature

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/angelmondragon/procurematch-backend/pkg/enums"
)

var (
	caliberPattern   = regexp.MustCompile(`(?:^|[^\d/.-])(\d{1,3})[/-](\d{1,3})(?:[^\d/.-]|$)`)
	fractionPattern  = regexp.MustCompile(`(?:^|[^\d/.-])(\d{1,2})/(\d{1,2})\s*(кг|kg|л|l)(?:[^\p{L}]|$)`)
	unitAhead        = regexp.MustCompile(`^\s*(?:кг|kg|гр|г|g|мл|ml|л|l|шт|pcs)(?:[^\p{L}]|$)`)
	multipackPattern = regexp.MustCompile(`(?:^|[^\d./])(\d{1,3})\s*[xх×*]\s*(\d+(?:\.\d+)?)\s*(кг|kg|гр|г|g|мл|ml|л|l|шт|pcs)(?:[^\p{L}]|$)`)
	packPattern      = regexp.MustCompile(`(?:^|[^\d./])(\d+(?:\.\d+)?)\s*(кг|kg|гр|г|g|мл|ml|л|l|шт|pcs)(?:[^\p{L}]|$)`)
	fatPattern       = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
)

// Dictionary holds the brand alias table the extractor was built with.
type Dictionary struct {
	Version int64
	// Brands maps an alias (any spelling) to its canonical brand name.
	Brands map[string]string
}

type brandAlias struct {
	alias     string
	canonical string
}

// Fields carries structured offer columns that override text extraction.
type Fields struct {
	Name      string
	Category  string
	Brand     string
	PackValue float64
	PackUnit  string
	Caliber   string
	FatPct    *float64
	Flags     []string
}

// Extractor runs the ordered pass pipeline. It is immutable once built and
// safe for concurrent use.
type Extractor struct {
	version string
	brands  []brandAlias
	passes  []pass
}

type scan struct {
	text   string
	padded string
	words  []string
	sig    *Signature
}

type pass struct {
	field string
	run   func(e *Extractor, sc *scan)
}

// NewExtractor builds an extractor for the given dictionary.
func NewExtractor(dict Dictionary) *Extractor {
	aliases := make([]brandAlias, 0, len(dict.Brands))
	for alias, canonical := range dict.Brands {
		a := Normalize(alias)
		if a == "" || strings.TrimSpace(canonical) == "" {
			continue
		}
		aliases = append(aliases, brandAlias{alias: a, canonical: strings.TrimSpace(canonical)})
	}
	slices.SortFunc(aliases, func(a, b brandAlias) int {
		if len(a.alias) != len(b.alias) {
			return len(b.alias) - len(a.alias)
		}
		return strings.Compare(a.alias, b.alias)
	})
	return &Extractor{
		version: versionFor(dict.Version),
		brands:  aliases,
		passes:  pipeline,
	}
}

// Version identifies the extractor and dictionary pair.
func (e *Extractor) Version() string {
	return e.version
}

// Fields lists the signature fields in pass order.
func (e *Extractor) Fields() []string {
	out := make([]string, len(e.passes))
	for i, p := range e.passes {
		out[i] = p.field
	}
	return out
}

// Extract derives a signature from free text. It performs no I/O.
func (e *Extractor) Extract(text string) Signature {
	normalized := Normalize(text)
	sig := Signature{Version: e.version, Normalized: normalized}
	sc := &scan{
		text:   normalized,
		padded: " " + normalized + " ",
		words:  strings.Fields(normalized),
		sig:    &sig,
	}
	for _, p := range e.passes {
		p.run(e, sc)
	}
	return sig
}

// ExtractOffer derives a signature from an offer's name and structured columns.
func (e *Extractor) ExtractOffer(f Fields) Signature {
	sig := e.Extract(f.Name)
	sig.Category = strings.TrimSpace(f.Category)
	if f.Brand != "" {
		sig.Brand = e.CanonicalBrand(f.Brand)
	}
	if f.PackValue > 0 {
		if unit, factor, ok := ParseUnit(f.PackUnit); ok {
			sig.PackValue = f.PackValue * factor
			sig.PackUnit = unit
		}
	}
	if c := strings.TrimSpace(f.Caliber); c != "" {
		sig.Caliber = c
	}
	if f.FatPct != nil {
		v := *f.FatPct
		sig.FatPct = &v
	}
	for _, flag := range f.Flags {
		if set, ok := flagSetters[strings.ToLower(strings.TrimSpace(flag))]; ok {
			set(&sig)
		}
	}
	return sig
}

// CanonicalBrand resolves an alias to its canonical name, or returns the input trimmed.
func (e *Extractor) CanonicalBrand(raw string) string {
	n := Normalize(raw)
	for _, b := range e.brands {
		if b.alias == n {
			return b.canonical
		}
	}
	return strings.TrimSpace(raw)
}

// ParseUnit maps a raw unit onto its base unit and the factor to convert into it.
func ParseUnit(raw string) (enums.PackUnit, float64, bool) {
	switch strings.Trim(strings.ToLower(strings.TrimSpace(raw)), ".") {
	case "кг", "kg":
		return enums.PackUnitKilogram, 1, true
	case "г", "гр", "g":
		return enums.PackUnitKilogram, 0.001, true
	case "л", "l":
		return enums.PackUnitLiter, 1, true
	case "мл", "ml":
		return enums.PackUnitLiter, 0.001, true
	case "шт", "pcs":
		return enums.PackUnitPiece, 1, true
	}
	return "", 0, false
}

var pipeline = []pass{
	{field: "caliber", run: extractCaliber},
	{field: "pack", run: extractPack},
	{field: "fat_pct", run: extractFat},
	{field: "brand", run: extractBrand},
	{field: "cut", run: func(_ *Extractor, sc *scan) { sc.sig.Cut = firstMatch(cutRules, sc.words, sc.padded) }},
	{field: "breaded", run: func(_ *Extractor, sc *scan) { sc.sig.Breaded = breadedRule.match(sc.words, sc.padded) }},
	{field: "skin", run: func(_ *Extractor, sc *scan) { sc.sig.Skin = firstMatch(skinRules, sc.words, sc.padded) }},
	{field: "state", run: func(_ *Extractor, sc *scan) { sc.sig.State = firstMatch(stateRules, sc.words, sc.padded) }},
	{field: "smoked", run: func(_ *Extractor, sc *scan) { sc.sig.Smoked = smokedRule.match(sc.words, sc.padded) }},
	{field: "marinated", run: func(_ *Extractor, sc *scan) { sc.sig.Marinated = marinatedRule.match(sc.words, sc.padded) }},
	{field: "peeled", run: func(_ *Extractor, sc *scan) { sc.sig.Peeled = firstMatch(peeledRules, sc.words, sc.padded) }},
	{field: "cooked", run: func(_ *Extractor, sc *scan) { sc.sig.Cooked = firstMatch(cookedRules, sc.words, sc.padded) }},
	{field: "class", run: func(_ *Extractor, sc *scan) { sc.sig.Class = firstMatch(classRules, sc.words, sc.padded) }},
	{field: "tokens", run: func(_ *Extractor, sc *scan) { sc.sig.Tokens = uniqueSorted(tokensFromWords(sc.words)) }},
}

// Caliber is kept as the literal token; "16/20" and "16/21" never compare equal.
// "16-20" is stored as "16/20". A pair directly followed by a unit is a pack.
func extractCaliber(_ *Extractor, sc *scan) {
	for _, idx := range caliberPattern.FindAllStringSubmatchIndex(sc.text, -1) {
		lo, errLo := strconv.Atoi(sc.text[idx[2]:idx[3]])
		hi, errHi := strconv.Atoi(sc.text[idx[4]:idx[5]])
		if errLo != nil || errHi != nil || lo <= 0 || lo >= hi {
			continue
		}
		if unitAhead.MatchString(sc.text[idx[5]:]) {
			continue
		}
		sc.sig.Caliber = sc.text[idx[2]:idx[3]] + "/" + sc.text[idx[4]:idx[5]]
		return
	}
}

func extractPack(_ *Extractor, sc *scan) {
	if m := multipackPattern.FindStringSubmatch(sc.text); m != nil {
		count, _ := strconv.Atoi(m[1])
		if setPack(sc.sig, m[2], m[3]) && count > 1 {
			sc.sig.PackCount = count
		}
		return
	}
	if m := fractionPattern.FindStringSubmatch(sc.text); m != nil {
		num, _ := strconv.Atoi(m[1])
		den, _ := strconv.Atoi(m[2])
		if num > 0 && num < den {
			setPack(sc.sig, strconv.FormatFloat(float64(num)/float64(den), 'f', -1, 64), m[3])
			return
		}
	}
	if m := packPattern.FindStringSubmatch(sc.text); m != nil {
		setPack(sc.sig, m[1], m[2])
	}
}

func setPack(sig *Signature, rawValue, rawUnit string) bool {
	value, err := strconv.ParseFloat(rawValue, 64)
	if err != nil || value <= 0 {
		return false
	}
	unit, factor, ok := ParseUnit(rawUnit)
	if !ok {
		return false
	}
	sig.PackValue = value * factor
	sig.PackUnit = unit
	return true
}

func extractFat(_ *Extractor, sc *scan) {
	m := fatPattern.FindStringSubmatch(sc.text)
	if m == nil {
		return
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < 0 || v > 100 {
		return
	}
	sc.sig.FatPct = &v
}

// Aliases are sorted longest first, so overlapping aliases resolve to the longest.
func extractBrand(e *Extractor, sc *scan) {
	for _, b := range e.brands {
		if containsPhrase(sc.padded, b.alias) {
			sc.sig.Brand = b.canonical
			return
		}
	}
}

func containsPhrase(padded, phrase string) bool {
	return strings.Contains(padded, " "+phrase+" ")
}
