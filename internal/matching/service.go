package matching

import (
	"context"
	"fmt"

	"github.com/angelmondragon/procurematch-backend/internal/catalog"
	"github.com/angelmondragon/procurematch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/procurematch-backend/pkg/errors"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
	"github.com/angelmondragon/procurematch-backend/pkg/metrics"
)

type snapshotSource interface {
	Current() *catalog.Snapshot
}

type offerLoader interface {
	ListActiveByCategory(ctx context.Context, category string) ([]catalog.Offer, error)
}

// Service matches ad-hoc references against the live catalog.
type Service interface {
	Match(ctx context.Context, ref Reference, opts Options) (Result, error)
}

type service struct {
	matcher *Matcher
	catalog snapshotSource
	offers  offerLoader
	logg    *logger.Logger
	metrics *metrics.MatchMetrics
}

// NewService wires the matcher to the catalog snapshot and offer store.
func NewService(matcher *Matcher, snapshots snapshotSource, offers offerLoader, logg *logger.Logger, m *metrics.MatchMetrics) (Service, error) {
	if matcher == nil {
		return nil, fmt.Errorf("matcher required")
	}
	if snapshots == nil {
		return nil, fmt.Errorf("catalog snapshot source required")
	}
	if offers == nil {
		return nil, fmt.Errorf("offer loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		matcher: matcher,
		catalog: snapshots,
		offers:  offers,
		logg:    logg,
		metrics: m,
	}, nil
}

// Match loads only offers in the resolved category. No-match outcomes are
// returned in the result; errors mean the catalog or the store is unavailable.
func (s *service) Match(ctx context.Context, ref Reference, opts Options) (Result, error) {
	snap := s.catalog.Current()
	if snap == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeDependency, "catalog snapshot not loaded")
	}

	resolved := s.matcher.Resolve(snap, ref)
	var offers []catalog.Offer
	if resolved.Classified() {
		loaded, err := s.offers.ListActiveByCategory(ctx, resolved.Category())
		if err != nil {
			return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offers")
		}
		offers = loaded
	}

	res := s.matcher.MatchResolved(resolved, offers, opts)
	Observe(ctx, s.logg, s.metrics, ref, res)
	return res, nil
}

// Observe reports a finished match to logs and metrics. Malformed offers are
// logged, never dropped silently.
func Observe(ctx context.Context, logg *logger.Logger, m *metrics.MatchMetrics, ref Reference, res Result) {
	domain := string(res.Trace.Domain)
	m.ObserveMatch(res.Status.String(), domain)
	m.AddGateFailures(domain, res.Trace.GateFailures)
	if res.Trace.Malformed == 0 {
		return
	}
	m.AddMalformed(res.Trace.Malformed)
	if logg == nil {
		return
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"reference_id": ref.ID.String(),
		"category":     res.Trace.Category,
		"malformed":    res.Trace.Malformed,
		"offer_ids":    res.Trace.MalformedOffers,
		"reason":       enums.ReasonInternalError.String(),
	})
	logg.Warn(ctx, "skipped malformed offer records")
}
