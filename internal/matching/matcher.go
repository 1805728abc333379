// Package matching runs a reference through classification, gating, scoring
// and best-price selection against a plain offer collection.
package matching

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/procurematch-backend/internal/catalog"
	"github.com/angelmondragon/procurematch-backend/internal/gates"
	"github.com/angelmondragon/procurematch-backend/internal/scoring"
	"github.com/angelmondragon/procurematch-backend/internal/signature"
	"github.com/angelmondragon/procurematch-backend/pkg/config"
	"github.com/angelmondragon/procurematch-backend/pkg/enums"
)

// Stage names recorded in the trace, in pipeline order.
const (
	StageInput    = "input"
	StageEligible = "eligible"
	StageCategory = "category"
	StageGates    = "gates"
	StagePriced   = "priced"
	StageScored   = "scored"
)

// Options tune one match call. Zero values fall back to the matcher defaults.
type Options struct {
	Mode         enums.MatchMode
	TopK         int
	TopBand      float64
	Alternatives int
}

// Candidate is a gate-passing, scored offer.
type Candidate struct {
	Offer catalog.Offer `json:"offer"`
	// Brand is the canonical brand extracted from the offer, which may differ
	// from the offer's brand column.
	Brand             string              `json:"brand,omitempty"`
	Score             scoring.Breakdown   `json:"score"`
	PPU               decimal.NullDecimal `json:"ppu"`
	LineCost          decimal.Decimal     `json:"line_cost"`
	PackToleranceUsed bool                `json:"pack_tolerance_used,omitempty"`
}

// Stage counts how many offers entered and left a pipeline step.
type Stage struct {
	Name string `json:"name"`
	In   int    `json:"in"`
	Out  int    `json:"out"`
}

// Trace is the debug view of one match.
type Trace struct {
	Extractor    string          `json:"extractor"`
	Category     string          `json:"category,omitempty"`
	Confidence   float64         `json:"confidence"`
	Domain       gates.Kind      `json:"domain,omitempty"`
	Mode         enums.MatchMode `json:"mode"`
	Stages       []Stage         `json:"stages"`
	GateFailures map[string]int  `json:"gate_failures,omitempty"`
	Malformed    int             `json:"malformed,omitempty"`

	// MalformedOffers names each skipped record by id, or by name when the id is missing.
	MalformedOffers []string `json:"malformed_offers,omitempty"`
}

// Result is the outcome of matching one reference.
type Result struct {
	Status       enums.MatchStatus `json:"status"`
	Reason       enums.Reason      `json:"reason,omitempty"`
	Message      string            `json:"message,omitempty"`
	Selected     *Candidate        `json:"selected,omitempty"`
	Alternatives []Candidate       `json:"alternatives"`
	// Ranked holds every candidate above the score floor in rank order.
	Ranked []Candidate `json:"-"`
	Trace  Trace       `json:"trace"`
}

// Matcher is stateless apart from its configuration and safe for concurrent use.
type Matcher struct {
	registry  *gates.Registry
	threshold float64
	defaults  Options
}

// NewMatcher builds a matcher. A nil registry uses the built-in domains.
func NewMatcher(registry *gates.Registry, cfg config.MatchingConfig) *Matcher {
	if registry == nil {
		registry = gates.DefaultRegistry()
	}
	mode, err := enums.ParseMatchMode(cfg.DefaultMode)
	if err != nil {
		mode = enums.MatchModeStrict
	}
	return &Matcher{
		registry:  registry,
		threshold: cfg.ClassifierThreshold,
		defaults: Options{
			Mode:         mode,
			TopK:         positiveOr(cfg.TopK, 5),
			TopBand:      cfg.TopBand,
			Alternatives: positiveOr(cfg.Alternatives, 5),
		},
	}
}

func (m *Matcher) withDefaults(opts Options) Options {
	if !opts.Mode.IsValid() {
		opts.Mode = m.defaults.Mode
	}
	if opts.TopK <= 0 {
		opts.TopK = m.defaults.TopK
	}
	if opts.TopBand <= 0 {
		opts.TopBand = m.defaults.TopBand
	}
	if opts.Alternatives <= 0 {
		opts.Alternatives = m.defaults.Alternatives
	}
	return opts
}

// Match resolves ref against snap and matches it against offers.
func (m *Matcher) Match(snap *catalog.Snapshot, ref Reference, offers []catalog.Offer, opts Options) Result {
	return m.MatchResolved(m.Resolve(snap, ref), offers, opts)
}

// MatchResolved runs the gate, score and selection stages. It never mutates offers.
func (m *Matcher) MatchResolved(res Resolved, offers []catalog.Offer, opts Options) Result {
	opts = m.withDefaults(opts)
	out := Result{
		Alternatives: []Candidate{},
		Trace: Trace{
			Extractor:  res.snapshot.Extractor.Version(),
			Category:   res.Classification.Category,
			Confidence: res.Classification.Confidence,
			Mode:       opts.Mode,
		},
	}
	if !res.Classified() {
		return fail(out, enums.MatchStatusInsufficientData, enums.ReasonInsufficientData)
	}
	out.Trace.Domain = res.Domain.Kind()

	var (
		eligible, inCategory, passed int
		brandSeen                    bool
		failures                     = make(map[string]int)
		byKey                        = make(map[string]Candidate)
		scored                       []scoring.Candidate
	)
	qty := res.Ref.Quantity
	if !qty.IsPositive() {
		qty = decimal.NewFromInt(1)
	}

	for _, o := range offers {
		if o.Malformed() {
			out.Trace.Malformed++
			out.Trace.MalformedOffers = append(out.Trace.MalformedOffers, malformedLabel(o))
			continue
		}
		if !o.Active || !o.Priced() {
			continue
		}
		eligible++

		cand := res.Domain.Refine(res.snapshot.Extractor.ExtractOffer(o.Fields()))
		if !gates.SameCategory(res.Signature.Category, cand.Category) {
			continue
		}
		inCategory++
		if res.Constraints.TargetBrand != "" && signature.BrandEquals(res.Constraints.TargetBrand, cand.Brand) {
			brandSeen = true
		}

		check := res.Domain.Check(res.Signature, cand, opts.Mode, res.Constraints)
		if !check.Passed {
			failures[check.FailedGate]++
			continue
		}
		passed++

		ppu := o.PPU()
		if !ppu.Valid {
			if !pieceToPiece(res.Signature, cand) {
				continue
			}
			ppu = decimal.NewNullDecimal(o.Price)
		}
		c := Candidate{
			Offer:             o,
			Brand:             cand.Brand,
			Score:             scoring.Score(res.Signature, cand),
			PPU:               ppu,
			LineCost:          o.LineCost(qty),
			PackToleranceUsed: packDiffers(res.Signature, cand),
		}
		key := o.ID.String()
		byKey[key] = c
		scored = append(scored, scoring.Candidate{Key: key, Score: c.Score, PPU: c.PPU, LineCost: c.LineCost})
	}

	ranked := scoring.Rank(scored, res.Domain.MinScore())
	out.Trace.Stages = []Stage{
		{Name: StageInput, In: len(offers), Out: len(offers) - out.Trace.Malformed},
		{Name: StageEligible, In: len(offers) - out.Trace.Malformed, Out: eligible},
		{Name: StageCategory, In: eligible, Out: inCategory},
		{Name: StageGates, In: inCategory, Out: passed},
		{Name: StagePriced, In: passed, Out: len(scored)},
		{Name: StageScored, In: len(scored), Out: len(ranked)},
	}
	if len(failures) > 0 {
		out.Trace.GateFailures = failures
	}

	out.Ranked = make([]Candidate, 0, len(ranked))
	for _, r := range ranked {
		out.Ranked = append(out.Ranked, byKey[r.Key])
	}

	winner, ok := SelectBestPrice(ranked, opts.TopK, opts.TopBand)
	if !ok {
		reason := diagnose(res, diagnosis{
			inCategory: inCategory,
			passed:     passed,
			priced:     len(scored),
			brandSeen:  brandSeen,
			failures:   failures,
		})
		return fail(out, enums.MatchStatusNotFound, reason)
	}

	selected := byKey[winner.Key]
	out.Status = enums.MatchStatusOK
	out.Selected = &selected
	for _, c := range out.Ranked {
		if len(out.Alternatives) >= opts.Alternatives {
			break
		}
		if c.Offer.ID != selected.Offer.ID {
			out.Alternatives = append(out.Alternatives, c)
		}
	}
	return out
}

// Evaluate checks a single pinned offer against the resolved reference in
// strict mode. The reason is empty when the offer is usable.
func (m *Matcher) Evaluate(res Resolved, o catalog.Offer) (Candidate, enums.Reason) {
	switch {
	case o.Malformed():
		return Candidate{}, enums.ReasonInternalError
	case !o.Active:
		return Candidate{}, enums.ReasonOfferInactive
	case !o.Priced():
		return Candidate{}, enums.ReasonPriceInvalid
	}
	qty := res.Ref.Quantity
	if !qty.IsPositive() {
		qty = decimal.NewFromInt(1)
	}
	c := Candidate{Offer: o, PPU: o.PPU(), LineCost: o.LineCost(qty)}
	if !res.Classified() {
		c.Brand = res.snapshot.Extractor.ExtractOffer(o.Fields()).Brand
		return c, ""
	}
	cand := res.Domain.Refine(res.snapshot.Extractor.ExtractOffer(o.Fields()))
	c.Brand = cand.Brand
	if !res.Domain.Check(res.Signature, cand, enums.MatchModeStrict, res.Constraints).Passed {
		return Candidate{}, enums.ReasonStrictAttrMismatch
	}
	c.Score = scoring.Score(res.Signature, cand)
	c.PackToleranceUsed = packDiffers(res.Signature, cand)
	return c, ""
}

// IDs returns the offer ids of candidates in order.
func IDs(cands []Candidate) []uuid.UUID {
	out := make([]uuid.UUID, len(cands))
	for i, c := range cands {
		out[i] = c.Offer.ID
	}
	return out
}

func fail(out Result, status enums.MatchStatus, reason enums.Reason) Result {
	out.Status = status
	out.Reason = reason
	out.Message = reason.Explain()
	return out
}

func pieceToPiece(ref, cand signature.Signature) bool {
	refPiece := !ref.HasPack() || ref.PackUnit == enums.PackUnitPiece
	candPiece := !cand.HasPack() || cand.PackUnit == enums.PackUnitPiece
	return refPiece && candPiece
}

func packDiffers(ref, cand signature.Signature) bool {
	if !ref.HasPack() || !cand.HasPack() || ref.PackUnit != cand.PackUnit {
		return false
	}
	return gates.RelativeDiff(ref.PackValue, cand.PackValue) > 1e-9
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func malformedLabel(o catalog.Offer) string {
	if o.ID != uuid.Nil {
		return o.ID.String()
	}
	return "name:" + o.Name
}
