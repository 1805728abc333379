package matching

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/procurematch-backend/internal/catalog"
	"github.com/angelmondragon/procurematch-backend/internal/classifier"
	"github.com/angelmondragon/procurematch-backend/internal/gates"
	"github.com/angelmondragon/procurematch-backend/internal/signature"
)

// Reference is what the buyer asked for: free text or a favorite's stored
// signature, plus constraints.
type Reference struct {
	ID      uuid.UUID
	RawName string
	// Category is a known category hint; it skips classification.
	Category        string
	Stored          *signature.Signature
	BrandCritical   bool
	TargetBrand     string
	TargetPackValue float64
	TargetPackUnit  string
	PackTolerance   *float64
	Quantity        decimal.Decimal
}

// Resolved is a reference bound to a catalog snapshot: its refined signature,
// its classification and the domain selected from it.
type Resolved struct {
	Ref            Reference
	Signature      signature.Signature
	Classification classifier.Result
	Domain         gates.Domain
	Constraints    gates.Constraints
	snapshot       *catalog.Snapshot
}

// Category is the resolved category, empty when classification failed.
func (r Resolved) Category() string {
	return r.Signature.Category
}

// Classified reports whether a domain could be selected.
func (r Resolved) Classified() bool {
	return r.Domain != nil
}

// Resolve extracts (or reuses) the reference signature, classifies it and picks
// the domain. A stored signature is reused only when it came from the same
// extractor and dictionary.
func (m *Matcher) Resolve(snap *catalog.Snapshot, ref Reference) Resolved {
	var sig signature.Signature
	if ref.Stored != nil && ref.Stored.Version == snap.Extractor.Version() {
		sig = *ref.Stored
	} else {
		sig = snap.Extractor.Extract(ref.RawName)
	}

	if ref.TargetPackValue > 0 {
		if unit, factor, ok := signature.ParseUnit(ref.TargetPackUnit); ok {
			sig.PackValue = ref.TargetPackValue * factor
			sig.PackUnit = unit
		}
	}
	target := strings.TrimSpace(ref.TargetBrand)
	if target != "" {
		target = snap.Extractor.CanonicalBrand(target)
		sig.Brand = target
	}

	res := Resolved{
		Ref: ref,
		Constraints: gates.Constraints{
			BrandCritical: ref.BrandCritical,
			TargetBrand:   target,
			PackTolerance: ref.PackTolerance,
		},
		snapshot: snap,
	}

	category := strings.TrimSpace(sig.Category)
	if category == "" {
		category = strings.TrimSpace(ref.Category)
	}
	if category != "" {
		res.Classification = classifier.Result{Category: category, Confidence: 1, Found: true}
	} else {
		if strings.TrimSpace(ref.RawName) != "" {
			res.Classification = snap.Index.Classify(ref.RawName, m.threshold)
		} else {
			res.Classification = snap.Index.ClassifyTokens(sig.Tokens, m.threshold)
		}
		if res.Classification.Found {
			category = res.Classification.Category
		}
	}
	if category == "" {
		res.Signature = sig
		return res
	}

	res.Domain = m.registry.For(category)
	sig = res.Domain.Refine(sig)
	sig.Category = category
	res.Signature = sig
	return res
}
