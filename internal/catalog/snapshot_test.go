package catalog

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/procurematch-backend/internal/classifier"
	"github.com/angelmondragon/procurematch-backend/pkg/config"
	"github.com/angelmondragon/procurematch-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/procurematch-backend/pkg/errors"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
	"github.com/angelmondragon/procurematch-backend/pkg/metrics"
)

type stubSource struct {
	mu        sync.Mutex
	docs      []classifier.Document
	brands    []models.Brand
	docsErr   error
	brandsErr error
	calls     int
}

func (s *stubSource) ListClassified(context.Context) ([]classifier.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.docs, s.docsErr
}

func (s *stubSource) ListBrands(context.Context) ([]models.Brand, error) {
	return s.brands, s.brandsErr
}

func newTestHolder(t *testing.T, src Source) *Holder {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	h, err := NewHolder(src, config.MatchingConfig{CuratedWeight: 3}, logg, metrics.NewMatchMetrics(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("new holder: %v", err)
	}
	return h
}

func TestHolderRebuildPublishesSnapshot(t *testing.T) {
	src := &stubSource{
		docs: []classifier.Document{
			{Category: "seafood.shrimp", Text: "Креветка тигровая 16/20"},
			{Category: "seafood.shrimp", Text: "Креветка северная"},
		},
		brands: []models.Brand{{Canonical: "Agama", Aliases: pq.StringArray{"агама"}}},
	}
	h := newTestHolder(t, src)
	if h.Current() != nil {
		t.Fatalf("expected no snapshot before rebuild")
	}

	snap, err := h.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if h.Current() != snap || snap.Version != 1 {
		t.Fatalf("expected published snapshot version 1, got %+v", snap)
	}
	res := snap.Index.Classify("креветки королевские", 0)
	if !res.Found || res.Category != "seafood.shrimp" {
		t.Fatalf("expected shrimp classification, got %+v", res)
	}
	if got := snap.Extractor.Extract("Креветка Агама 1 кг").Brand; got != "Agama" {
		t.Fatalf("expected canonical brand, got %q", got)
	}

	next, err := h.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	if next.Version != 2 || snap.Version != 1 {
		t.Fatalf("expected new snapshot without mutating the old one")
	}
}

func TestHolderRebuildKeepsPreviousSnapshotOnError(t *testing.T) {
	src := &stubSource{}
	h := newTestHolder(t, src)
	first, err := h.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	src.docsErr = errors.New("offers down")
	src.brandsErr = errors.New("brands down")
	_, err = h.Rebuild(context.Background())
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if !errors.Is(err, src.docsErr) || !errors.Is(err, src.brandsErr) {
		t.Fatalf("expected both source errors combined, got %v", err)
	}
	if h.Current() != first {
		t.Fatalf("failed rebuild must not replace the live snapshot")
	}
}

func TestDictionaryVersionIsContentHash(t *testing.T) {
	a := Dictionary([]models.Brand{{Canonical: "Valio", Aliases: pq.StringArray{"валио", " "}}})
	b := Dictionary([]models.Brand{{Canonical: "Valio", Aliases: pq.StringArray{"валио"}}})
	c := Dictionary([]models.Brand{{Canonical: "Valio", Aliases: pq.StringArray{"валио", "valio ltd"}}})
	if a.Version != b.Version {
		t.Fatalf("expected equal versions for equal content")
	}
	if a.Version == c.Version {
		t.Fatalf("expected version change when aliases change")
	}
	if a.Version < 0 {
		t.Fatalf("expected non-negative version")
	}
	if a.Brands["валио"] != "Valio" || a.Brands["Valio"] != "Valio" {
		t.Fatalf("unexpected aliases %v", a.Brands)
	}
}
