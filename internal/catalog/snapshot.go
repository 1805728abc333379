// Package catalog owns the read-only offer view and the rebuildable
// classifier/dictionary snapshot shared by concurrent match requests.
package catalog

import (
	"context"
	"fmt"
	"hash/fnv"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/procurematch-backend/internal/classifier"
	"github.com/angelmondragon/procurematch-backend/internal/signature"
	"github.com/angelmondragon/procurematch-backend/pkg/config"
	"github.com/angelmondragon/procurematch-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/procurematch-backend/pkg/errors"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
	"github.com/angelmondragon/procurematch-backend/pkg/metrics"
)

// Snapshot is an immutable extractor + classifier pair. Requests hold on to the
// snapshot they started with even if a rebuild swaps in a newer one.
type Snapshot struct {
	Version   int64
	Extractor *signature.Extractor
	Index     *classifier.Index
	BuiltAt   time.Time
}

// Source supplies the rebuild inputs.
type Source interface {
	ListClassified(ctx context.Context) ([]classifier.Document, error)
	ListBrands(ctx context.Context) ([]models.Brand, error)
}

// Holder publishes catalog snapshots. Rebuild is explicit; reads never trigger one.
type Holder struct {
	source  Source
	opts    classifier.BuildOptions
	logg    *logger.Logger
	metrics *metrics.MatchMetrics
	now     func() time.Time

	current atomic.Pointer[Snapshot]
	seq     atomic.Int64
	group   singleflight.Group
}

// NewHolder constructs an empty holder. Call Rebuild before serving matches.
func NewHolder(source Source, cfg config.MatchingConfig, logg *logger.Logger, m *metrics.MatchMetrics) (*Holder, error) {
	if source == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	weight := cfg.CuratedWeight
	if weight <= 0 {
		weight = 1
	}
	return &Holder{
		source:  source,
		opts:    classifier.BuildOptions{Curated: classifier.DefaultCurated(), CuratedWeight: weight},
		logg:    logg,
		metrics: m,
		now:     time.Now,
	}, nil
}

// Current returns the live snapshot, or nil before the first successful rebuild.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Rebuild loads sources, builds a new snapshot and swaps it in atomically.
// Concurrent callers share one build.
func (h *Holder) Rebuild(ctx context.Context) (*Snapshot, error) {
	v, err, _ := h.group.Do("rebuild", func() (any, error) {
		return h.rebuild(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (h *Holder) rebuild(ctx context.Context) (*Snapshot, error) {
	docs, docsErr := h.source.ListClassified(ctx)
	brands, brandsErr := h.source.ListBrands(ctx)
	if err := multierr.Combine(docsErr, brandsErr); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog sources")
	}

	version := h.seq.Add(1)
	now := h.now().UTC()
	dict := Dictionary(brands)
	snap := &Snapshot{
		Version:   version,
		Extractor: signature.NewExtractor(dict),
		Index:     classifier.Build(version, docs, h.opts, now),
		BuiltAt:   now,
	}
	h.current.Store(snap)
	h.metrics.SetCatalogVersion(version)

	keywords, documents := snap.Index.Size()
	ctx = h.logg.WithFields(ctx, map[string]any{
		"catalog_version": version,
		"extractor":       snap.Extractor.Version(),
		"keywords":        keywords,
		"documents":       documents,
		"brand_aliases":   len(dict.Brands),
	})
	h.logg.Info(ctx, "catalog snapshot rebuilt")
	return snap, nil
}

// Dictionary turns brand rows into an extractor dictionary. The version is a
// content hash so signatures cached across restarts stay comparable.
func Dictionary(brands []models.Brand) signature.Dictionary {
	aliases := make(map[string]string)
	for _, b := range brands {
		canonical := strings.TrimSpace(b.Canonical)
		if canonical == "" {
			continue
		}
		aliases[canonical] = canonical
		for _, a := range b.Aliases {
			if a = strings.TrimSpace(a); a != "" {
				aliases[a] = canonical
			}
		}
	}
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	h := fnv.New64a()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s\n", k, aliases[k])
	}
	return signature.Dictionary{
		Version: int64(h.Sum64() >> 1),
		Brands:  aliases,
	}
}
