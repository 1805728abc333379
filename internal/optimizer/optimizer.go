// Package optimizer allocates resolved cart lines across suppliers so every
// kept supplier reaches its minimum order amount.
package optimizer

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/procurematch-backend/internal/signature"
	"github.com/angelmondragon/procurematch-backend/pkg/config"
	"github.com/angelmondragon/procurematch-backend/pkg/enums"
)

// Optimizer is pure and safe for concurrent use.
type Optimizer struct {
	topUpRatio     decimal.Decimal
	maxPerSupplier int
	maxPerLine     int
}

// New builds an optimizer from configuration, falling back to the defaults for
// non-positive values.
func New(cfg config.OptimizerConfig) *Optimizer {
	ratio := decimal.NewFromFloat(cfg.TopUpRatio)
	if !ratio.IsPositive() {
		ratio = decimal.RequireFromString("0.10")
	}
	perSupplier := cfg.MaxAttemptsPerSupplier
	if perSupplier <= 0 {
		perSupplier = 20
	}
	perLine := cfg.MaxAttemptsPerLine
	if perLine <= 0 {
		perLine = 3
	}
	return &Optimizer{topUpRatio: ratio, maxPerSupplier: perSupplier, maxPerLine: perLine}
}

// assignment is the mutable working state of one resolved line.
type assignment struct {
	line     *Line
	options  []Option
	option   int
	qty      decimal.Decimal
	attempts int
}

func (a *assignment) current() Option {
	return a.options[a.option]
}

func (a *assignment) supplier() uuid.UUID {
	return a.current().Offer.SupplierID
}

func (a *assignment) cost() decimal.Decimal {
	return a.current().Offer.Price.Mul(a.qty)
}

// optionAt returns the best-ranked option offered by supplier, or -1.
func (a *assignment) optionAt(supplier uuid.UUID) int {
	for i, opt := range a.options {
		if opt.Offer.SupplierID == supplier {
			return i
		}
	}
	return -1
}

type run struct {
	opt         *Optimizer
	minimums    map[uuid.UUID]decimal.Decimal
	assignments []*assignment
	stats       Stats
}

// Optimize groups lines by supplier, tops up and redistributes within bounds,
// and drops suppliers that still miss their minimum.
func (o *Optimizer) Optimize(in Input) Result {
	r := &run{opt: o, minimums: in.Minimums}
	var unfulfilled []PlanLine

	for i := range in.Lines {
		line := &in.Lines[i]
		if a, reason := r.resolve(line); reason != "" {
			unfulfilled = append(unfulfilled, unresolvedLine(line, reason))
		} else {
			r.assignments = append(r.assignments, a)
		}
	}
	slices.SortFunc(r.assignments, func(a, b *assignment) int {
		return compareIDs(a.line.IntentID, b.line.IntentID)
	})

	for _, s := range r.suppliers() {
		if !r.meets(s) {
			r.topUp(s)
		}
	}
	for _, s := range r.suppliers() {
		if r.meets(s) {
			continue
		}
		if !r.pullIn(s) {
			r.pushOut(s)
		}
	}

	res := Result{Total: decimal.Zero}
	for _, s := range r.suppliers() {
		if !r.meets(s) && !r.topUp(s) {
			r.stats.DroppedSuppliers++
			for _, a := range r.members(s) {
				unfulfilled = append(unfulfilled, droppedLine(a))
			}
			continue
		}
		plan := r.supplierPlan(s)
		res.Total = res.Total.Add(plan.Subtotal)
		res.Suppliers = append(res.Suppliers, plan)
	}

	slices.SortFunc(unfulfilled, func(a, b PlanLine) int {
		return compareIDs(a.IntentID, b.IntentID)
	})
	res.Unfulfilled = unfulfilled
	if res.Unfulfilled == nil {
		res.Unfulfilled = []PlanLine{}
	}
	if res.Suppliers == nil {
		res.Suppliers = []SupplierPlan{}
	}
	res.Success = len(res.Suppliers) > 0
	for _, p := range res.Suppliers {
		res.Success = res.Success && p.MeetsMinimum
	}
	res.Complete = len(res.Unfulfilled) == 0
	res.Stats = r.stats
	return res
}

// resolve keeps only options from known suppliers and starts at the best one.
func (r *run) resolve(line *Line) (*assignment, enums.Reason) {
	if line.Reason != "" {
		return nil, line.Reason
	}
	if !line.Requested.IsPositive() {
		return nil, enums.ReasonInternalError
	}
	var options []Option
	for _, opt := range line.Options {
		if _, ok := r.minimums[opt.Offer.SupplierID]; !ok {
			continue
		}
		if line.Locked && len(options) == 1 {
			break
		}
		options = append(options, opt)
	}
	if len(options) == 0 {
		return nil, enums.ReasonNoSupplierOffers
	}
	return &assignment{line: line, options: options, qty: line.Requested}, ""
}

func (r *run) suppliers() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, a := range r.assignments {
		s := a.supplier()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	slices.SortFunc(out, compareIDs)
	return out
}

func (r *run) members(supplier uuid.UUID) []*assignment {
	var out []*assignment
	for _, a := range r.assignments {
		if a.supplier() == supplier {
			out = append(out, a)
		}
	}
	return out
}

func (r *run) subtotal(supplier uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, a := range r.members(supplier) {
		total = total.Add(a.cost())
	}
	return total
}

func (r *run) minimum(supplier uuid.UUID) decimal.Decimal {
	return r.minimums[supplier]
}

func (r *run) meets(supplier uuid.UUID) bool {
	return r.subtotal(supplier).GreaterThanOrEqual(r.minimum(supplier))
}

// topUp raises unlocked quantities of supplier's existing lines, each at most
// to its ceiling. All increases are reverted when the minimum stays out of reach.
func (r *run) topUp(supplier uuid.UUID) bool {
	need := r.minimum(supplier).Sub(r.subtotal(supplier))
	if !need.IsPositive() {
		return true
	}
	previous := make(map[*assignment]decimal.Decimal)
	for _, a := range r.members(supplier) {
		if a.line.Locked {
			continue
		}
		offer := a.current().Offer
		step := offer.Step()
		room := r.ceiling(a.line.Requested, step).Sub(a.qty)
		if !room.IsPositive() {
			continue
		}
		add := ceilToStep(need.Div(offer.Price), step)
		if add.GreaterThan(room) {
			add = room
		}
		previous[a] = a.qty
		a.qty = a.qty.Add(add)
		need = need.Sub(offer.Price.Mul(add))
		if !need.IsPositive() {
			break
		}
	}
	if need.IsPositive() {
		for a, qty := range previous {
			a.qty = qty
		}
		return false
	}
	r.stats.TopUps += len(previous)
	return true
}

// ceiling is requested*(1+ratio) rounded down to the offer step.
func (r *run) ceiling(requested, step decimal.Decimal) decimal.Decimal {
	limit := floorToStep(requested.Mul(decimal.NewFromInt(1).Add(r.opt.topUpRatio)), step)
	if limit.LessThan(requested) {
		return requested
	}
	return limit
}

type move struct {
	a      *assignment
	option int
	qty    decimal.Decimal
}

func (r *run) apply(a *assignment, option int) move {
	prev := move{a: a, option: a.option, qty: a.qty}
	a.option = option
	a.qty = a.line.Requested
	a.attempts++
	r.stats.Attempts++
	return prev
}

func (r *run) movable(a *assignment, option int) bool {
	if a.line.Locked || a.attempts >= r.opt.maxPerLine || option < 0 {
		return false
	}
	target := a.options[option]
	if core := a.productCore(); core != "" && target.Offer.ProductCoreID != core {
		return false
	}
	if a.line.BrandCritical && a.line.TargetBrand != "" {
		return signature.BrandEquals(a.line.TargetBrand, target.Brand)
	}
	return true
}

// productCore is the core id of what the buyer saw, or of the best option
// when the line has no original. Empty means unconstrained.
func (a *assignment) productCore() string {
	if a.line.Original != nil {
		return a.line.Original.Offer.ProductCoreID
	}
	return a.options[0].Offer.ProductCoreID
}

// pullIn moves lines from other suppliers into supplier when their donors can
// spare them. Moves are kept only if supplier then reaches its minimum.
func (r *run) pullIn(supplier uuid.UUID) bool {
	var moves []move
	for attempts := 0; attempts < r.opt.maxPerSupplier; attempts++ {
		if r.topUp(supplier) {
			r.stats.Moves += len(moves)
			return true
		}
		a, option := r.nextPull(supplier)
		if a == nil {
			break
		}
		moves = append(moves, r.apply(a, option))
	}
	if r.meets(supplier) || r.topUp(supplier) {
		r.stats.Moves += len(moves)
		return true
	}
	for i := len(moves) - 1; i >= 0; i-- {
		moves[i].a.option = moves[i].option
		moves[i].a.qty = moves[i].qty
	}
	return false
}

func (r *run) nextPull(supplier uuid.UUID) (*assignment, int) {
	for _, a := range r.assignments {
		donor := a.supplier()
		if donor == supplier {
			continue
		}
		option := a.optionAt(supplier)
		if !r.movable(a, option) {
			continue
		}
		if r.meets(donor) && r.subtotal(donor).Sub(a.cost()).LessThan(r.minimum(donor)) {
			continue
		}
		return a, option
	}
	return nil, -1
}

// pushOut moves supplier's unlocked lines to suppliers that meet their minimum
// once the line is added. Lines with nowhere to go stay and are dropped later.
func (r *run) pushOut(supplier uuid.UUID) {
	attempts := 0
	for _, a := range r.members(supplier) {
		if attempts >= r.opt.maxPerSupplier {
			return
		}
		for i, opt := range a.options {
			target := opt.Offer.SupplierID
			if target == supplier || !r.movable(a, i) {
				continue
			}
			gain := opt.Offer.Price.Mul(a.line.Requested)
			if r.subtotal(target).Add(gain).LessThan(r.minimum(target)) {
				continue
			}
			r.apply(a, i)
			r.stats.Moves++
			attempts++
			break
		}
	}
}

func (r *run) supplierPlan(supplier uuid.UUID) SupplierPlan {
	plan := SupplierPlan{
		SupplierID:   supplier,
		MinimumOrder: r.minimum(supplier),
		Subtotal:     decimal.Zero,
	}
	for _, a := range r.members(supplier) {
		pl := placedLine(a)
		plan.Subtotal = plan.Subtotal.Add(pl.LineTotal)
		plan.Lines = append(plan.Lines, pl)
	}
	plan.MeetsMinimum = plan.Subtotal.GreaterThanOrEqual(plan.MinimumOrder)
	return plan
}

func placedLine(a *assignment) PlanLine {
	opt := a.current()
	offer := opt.Offer
	pl := PlanLine{
		IntentID:    a.line.IntentID,
		ReferenceID: a.line.ReferenceID,
		Name:        offer.Name,
		Offer:       &offer,
		Requested:   a.line.Requested,
		Quantity:    a.qty,
		UnitPrice:   offer.Price,
		LineTotal:   offer.Price.Mul(a.qty),
		Locked:      a.line.Locked,
	}
	if a.qty.GreaterThan(a.line.Requested) {
		pl.Flags = append(pl.Flags, enums.PlanFlagAutoTopUp)
	}
	if orig := a.line.Original; orig != nil {
		if orig.Offer.SupplierID != offer.SupplierID {
			pl.Flags = append(pl.Flags, enums.PlanFlagSupplierChanged)
		}
		if orig.Brand != "" && !signature.BrandEquals(orig.Brand, opt.Brand) {
			pl.Flags = append(pl.Flags, enums.PlanFlagBrandReplaced)
		}
	}
	if opt.PackToleranceUsed {
		pl.Flags = append(pl.Flags, enums.PlanFlagPackToleranceUsed)
	}
	return pl
}

func droppedLine(a *assignment) PlanLine {
	offer := a.current().Offer
	return PlanLine{
		IntentID:    a.line.IntentID,
		ReferenceID: a.line.ReferenceID,
		Name:        offer.Name,
		Offer:       &offer,
		Requested:   a.line.Requested,
		Quantity:    decimal.Zero,
		UnitPrice:   offer.Price,
		LineTotal:   decimal.Zero,
		Locked:      a.line.Locked,
		Reason:      enums.ReasonMinQtyNotMet,
		Message:     enums.ReasonMinQtyNotMet.Explain(),
	}
}

func unresolvedLine(line *Line, reason enums.Reason) PlanLine {
	pl := PlanLine{
		IntentID:    line.IntentID,
		ReferenceID: line.ReferenceID,
		Name:        line.Name,
		Requested:   line.Requested,
		Quantity:    decimal.Zero,
		UnitPrice:   decimal.Zero,
		LineTotal:   decimal.Zero,
		Locked:      line.Locked,
		Reason:      reason,
		Message:     reason.Explain(),
	}
	if line.Original != nil {
		offer := line.Original.Offer
		pl.Offer = &offer
	}
	return pl
}

func floorToStep(v, step decimal.Decimal) decimal.Decimal {
	return v.Div(step).Floor().Mul(step)
}

func ceilToStep(v, step decimal.Decimal) decimal.Decimal {
	return v.Div(step).Ceil().Mul(step)
}

func compareIDs(a, b uuid.UUID) int {
	return strings.Compare(a.String(), b.String())
}
