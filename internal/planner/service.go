// Package planner turns a buyer's cart into an optimised, snapshotted order plan.
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/procurematch-backend/internal/cart"
	"github.com/angelmondragon/procurematch-backend/internal/catalog"
	"github.com/angelmondragon/procurematch-backend/internal/gates"
	"github.com/angelmondragon/procurematch-backend/internal/matching"
	"github.com/angelmondragon/procurematch-backend/internal/optimizer"
	"github.com/angelmondragon/procurematch-backend/internal/plans"
	"github.com/angelmondragon/procurematch-backend/pkg/db/models"
	"github.com/angelmondragon/procurematch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/procurematch-backend/pkg/errors"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
	"github.com/angelmondragon/procurematch-backend/pkg/metrics"
)

type snapshotSource interface {
	Current() *catalog.Snapshot
}

type cartStore interface {
	GetOrCreate(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error)
	ListIntents(ctx context.Context, cartID uuid.UUID) ([]models.CartIntent, error)
}

type cartMarker interface {
	MarkPlanned(ctx context.Context, buyerID uuid.UUID, planID string) error
}

type referenceResolver interface {
	Resolve(ctx context.Context, buyerID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]matching.Reference, error)
}

type offerStore interface {
	ListActive(ctx context.Context) ([]catalog.Offer, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Offer, error)
	Minimums(ctx context.Context, supplierIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

type planCreator interface {
	Create(ctx context.Context, buyerID uuid.UUID, lines []plans.CartLine, result optimizer.Result, minimums map[uuid.UUID]decimal.Decimal) (plans.Snapshot, error)
}

// Options tunes one planning run.
type Options struct {
	Mode enums.MatchMode
}

// Service builds order plans.
type Service interface {
	Plan(ctx context.Context, buyerID uuid.UUID, opts Options) (plans.Snapshot, error)
}

type ServiceParams struct {
	Logger     *logger.Logger
	Metrics    *metrics.MatchMetrics
	Catalog    snapshotSource
	Carts      cartStore
	CartState  cartMarker
	References referenceResolver
	Offers     offerStore
	Matcher    *matching.Matcher
	Optimizer  *optimizer.Optimizer
	Plans      planCreator
}

type service struct {
	logg      *logger.Logger
	metrics   *metrics.MatchMetrics
	catalog   snapshotSource
	carts     cartStore
	cartState cartMarker
	refs      referenceResolver
	offers    offerStore
	matcher   *matching.Matcher
	optimizer *optimizer.Optimizer
	plans     planCreator
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.Catalog == nil:
		return nil, fmt.Errorf("catalog snapshot source required")
	case params.Carts == nil:
		return nil, fmt.Errorf("cart store required")
	case params.CartState == nil:
		return nil, fmt.Errorf("cart state marker required")
	case params.References == nil:
		return nil, fmt.Errorf("reference resolver required")
	case params.Offers == nil:
		return nil, fmt.Errorf("offer store required")
	case params.Matcher == nil:
		return nil, fmt.Errorf("matcher required")
	case params.Optimizer == nil:
		return nil, fmt.Errorf("optimizer required")
	case params.Plans == nil:
		return nil, fmt.Errorf("plan manager required")
	}
	return &service{
		logg:      params.Logger,
		metrics:   params.Metrics,
		catalog:   params.Catalog,
		carts:     params.Carts,
		cartState: params.CartState,
		refs:      params.References,
		offers:    params.Offers,
		matcher:   params.Matcher,
		optimizer: params.Optimizer,
		plans:     params.Plans,
		now:       time.Now,
	}, nil
}

// inputs is everything a planning run reads from storage.
type inputs struct {
	refs   map[uuid.UUID]matching.Reference
	offers []catalog.Offer
	pins   map[uuid.UUID]catalog.Offer
}

// Plan resolves every intent against one catalog snapshot, optimises the
// allocation and stores it as the buyer's only live plan.
func (s *service) Plan(ctx context.Context, buyerID uuid.UUID, opts Options) (plans.Snapshot, error) {
	snap := s.catalog.Current()
	if snap == nil {
		return plans.Snapshot{}, pkgerrors.New(pkgerrors.CodeDependency, "catalog snapshot not loaded")
	}
	c, err := s.carts.GetOrCreate(ctx, buyerID)
	if err != nil {
		return plans.Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	intents, err := s.carts.ListIntents(ctx, c.ID)
	if err != nil {
		return plans.Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart intents")
	}
	if len(intents) == 0 {
		return plans.Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	in, err := s.load(ctx, buyerID, intents)
	if err != nil {
		return plans.Snapshot{}, err
	}

	lines := make([]optimizer.Line, 0, len(intents))
	for _, intent := range intents {
		lines = append(lines, s.resolveLine(ctx, snap, intent, in, opts))
	}

	minimums, err := s.offers.Minimums(ctx, supplierIDs(lines))
	if err != nil {
		return plans.Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier minimums")
	}

	start := s.now()
	result := s.optimizer.Optimize(optimizer.Input{Lines: lines, Minimums: minimums})
	s.metrics.ObserveOptimize(result.Success, s.now().Sub(start))
	for _, pl := range result.Unfulfilled {
		s.metrics.IncUnfulfilled(pl.Reason.String())
	}

	plan, err := s.plans.Create(ctx, buyerID, cart.HashLines(intents), result, minimums)
	if err != nil {
		return plans.Snapshot{}, err
	}
	if err := s.cartState.MarkPlanned(ctx, buyerID, plan.ID); err != nil {
		return plans.Snapshot{}, err
	}

	logCtx := s.logg.WithFields(s.logg.WithPlanID(ctx, plan.ID), map[string]any{
		"suppliers":   len(result.Suppliers),
		"unfulfilled": len(result.Unfulfilled),
		"success":     result.Success,
		"top_ups":     result.Stats.TopUps,
		"moves":       result.Stats.Moves,
	})
	s.logg.Info(logCtx, "order plan created")
	return plan, nil
}

// load reads references, active offers and pinned offers concurrently.
func (s *service) load(ctx context.Context, buyerID uuid.UUID, intents []models.CartIntent) (inputs, error) {
	var (
		refIDs []uuid.UUID
		pinIDs []uuid.UUID
		in     inputs
	)
	for _, intent := range intents {
		refIDs = append(refIDs, intent.ReferenceID)
		if intent.PinnedOfferID != nil {
			pinIDs = append(pinIDs, *intent.PinnedOfferID)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		refs, err := s.refs.Resolve(gctx, buyerID, refIDs)
		if err != nil {
			return err
		}
		in.refs = refs
		return nil
	})
	g.Go(func() error {
		offers, err := s.offers.ListActive(gctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offers")
		}
		in.offers = offers
		return nil
	})
	g.Go(func() error {
		pinned, err := s.offers.ListByIDs(gctx, pinIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pinned offers")
		}
		in.pins = make(map[uuid.UUID]catalog.Offer, len(pinned))
		for _, o := range pinned {
			in.pins[o.ID] = o
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return inputs{}, err
	}
	return in, nil
}

// resolveLine turns one intent into optimiser input. A locked pin is the only
// option; an unlocked pin goes first, ahead of the matched offers.
func (s *service) resolveLine(ctx context.Context, snap *catalog.Snapshot, intent models.CartIntent, in inputs, opts Options) optimizer.Line {
	line := optimizer.Line{
		IntentID:    intent.ID,
		ReferenceID: intent.ReferenceID,
		Requested:   intent.Quantity,
		Locked:      intent.Locked,
	}
	ref, ok := in.refs[intent.ReferenceID]
	if !ok {
		line.Reason = enums.ReasonInternalError
		return line
	}
	ref.Quantity = intent.Quantity
	line.Name = ref.RawName
	line.BrandCritical = ref.BrandCritical

	resolved := s.matcher.Resolve(snap, ref)
	line.TargetBrand = resolved.Constraints.TargetBrand

	if intent.PinnedOfferID != nil {
		pin, found := in.pins[*intent.PinnedOfferID]
		reason := enums.ReasonOfferInactive
		var cand matching.Candidate
		if found {
			cand, reason = s.matcher.Evaluate(resolved, pin)
		}
		if reason == "" {
			opt := toOption(cand)
			line.Original = &opt
			line.Options = append(line.Options, opt)
		} else if intent.Locked {
			if found {
				line.Original = &optimizer.Option{Offer: pin}
			}
			line.Reason = reason
			return line
		}
		if intent.Locked {
			return line
		}
	}

	if !resolved.Classified() {
		if len(line.Options) == 0 {
			line.Reason = enums.ReasonClassificationMissing
		}
		return line
	}

	res := s.matcher.MatchResolved(resolved, inCategory(in.offers, resolved.Category()), matching.Options{Mode: opts.Mode})
	matching.Observe(ctx, s.logg, s.metrics, ref, res)
	if res.Selected != nil {
		opt := toOption(*res.Selected)
		if line.Original == nil {
			line.Original = &opt
		}
		line.Options = appendOption(line.Options, opt)
		for _, c := range res.Ranked {
			line.Options = appendOption(line.Options, toOption(c))
		}
	}
	if len(line.Options) == 0 {
		line.Reason = res.Reason
	}
	return line
}

func toOption(c matching.Candidate) optimizer.Option {
	return optimizer.Option{
		Offer:             c.Offer,
		Brand:             c.Brand,
		Score:             c.Score.Total,
		PackToleranceUsed: c.PackToleranceUsed,
	}
}

func appendOption(opts []optimizer.Option, opt optimizer.Option) []optimizer.Option {
	for _, existing := range opts {
		if existing.Offer.ID == opt.Offer.ID {
			return opts
		}
	}
	return append(opts, opt)
}

// inCategory keeps offers whose category column is category or below it.
func inCategory(offers []catalog.Offer, category string) []catalog.Offer {
	var out []catalog.Offer
	for _, o := range offers {
		if gates.SameCategory(category, o.Category) {
			out = append(out, o)
		}
	}
	return out
}

func supplierIDs(lines []optimizer.Line) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, l := range lines {
		for _, opt := range l.Options {
			id := opt.Offer.SupplierID
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
