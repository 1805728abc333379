package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/procurematch-backend/internal/cart"
	"github.com/angelmondragon/procurematch-backend/internal/catalog"
	"github.com/angelmondragon/procurematch-backend/internal/checkout"
	"github.com/angelmondragon/procurematch-backend/internal/gates"
	"github.com/angelmondragon/procurematch-backend/internal/matching"
	"github.com/angelmondragon/procurematch-backend/internal/optimizer"
	"github.com/angelmondragon/procurematch-backend/internal/planner"
	"github.com/angelmondragon/procurematch-backend/internal/plans"
	"github.com/angelmondragon/procurematch-backend/internal/references"
	"github.com/angelmondragon/procurematch-backend/pkg/config"
	"github.com/angelmondragon/procurematch-backend/pkg/db/dbtest"
	"github.com/angelmondragon/procurematch-backend/pkg/db/models"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
	"github.com/angelmondragon/procurematch-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type gormTx struct{ db *gorm.DB }

func (g gormTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		Matching: config.MatchingConfig{
			ClassifierThreshold: 0.5,
			CuratedWeight:       3,
			TopK:                5,
			TopBand:             10,
			Alternatives:        5,
		},
		Plans: config.PlansConfig{TTL: time.Hour, Store: config.PlanStoreDB},
	}
}

func seedCatalog(t *testing.T, conn *gorm.DB) models.Offer {
	t.Helper()
	supplier := models.Supplier{
		ID:             uuid.New(),
		Name:           "Seafood Co",
		MinOrderAmount: decimal.Zero,
		IsActive:       true,
	}
	require.NoError(t, conn.Create(&supplier).Error)
	pack := 1.0
	unit := "kg"
	offer := models.Offer{
		ID:         uuid.New(),
		SupplierID: supplier.ID,
		RawName:    "Креветка тигровая 16/20 с/м 1 кг",
		Category:   "seafood.shrimp",
		Price:      decimal.NewFromInt(1200),
		PackValue:  &pack,
		PackUnit:   &unit,
		QtyStep:    decimal.NewFromInt(1),
		IsActive:   true,
	}
	require.NoError(t, conn.Create(&offer).Error)
	return offer
}

func newTestRouter(t *testing.T) (http.Handler, models.Offer) {
	t.Helper()
	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	conn := dbtest.Open(t)
	offer := seedCatalog(t, conn)
	tx := gormTx{db: conn}

	registry := prometheus.NewRegistry()
	m := metrics.NewMatchMetrics(registry)
	offers := catalog.NewRepository(conn)

	holder, err := catalog.NewHolder(offers, cfg.Matching, logg, m)
	require.NoError(t, err)
	_, err = holder.Rebuild(context.Background())
	require.NoError(t, err)

	store, err := plans.OpenStore(cfg.Plans, conn, nil)
	require.NoError(t, err)
	manager, err := plans.NewManager(store, cfg.Plans, logg, m)
	require.NoError(t, err)

	matcher := matching.NewMatcher(gates.DefaultRegistry(), cfg.Matching)
	matchSvc, err := matching.NewService(matcher, holder, offers, logg, m)
	require.NoError(t, err)

	refRepo := references.NewRepository(conn)
	refSvc, err := references.NewService(refRepo, holder)
	require.NoError(t, err)

	cartRepo := cart.NewRepository(conn)
	cartSvc, err := cart.NewService(cartRepo, tx, refRepo, offers)
	require.NoError(t, err)

	plannerSvc, err := planner.NewService(planner.ServiceParams{
		Logger:     logg,
		Metrics:    m,
		Catalog:    holder,
		Carts:      cartRepo,
		CartState:  cartSvc,
		References: refSvc,
		Offers:     offers,
		Matcher:    matcher,
		Optimizer:  optimizer.New(cfg.Optimizer),
		Plans:      manager,
	})
	require.NoError(t, err)

	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Logger:  logg,
		Metrics: m,
		DB:      tx,
		Carts:   cartRepo,
		Orders:  checkout.NewRepository(conn),
		Plans:   manager,
	})
	require.NoError(t, err)

	return NewRouter(RouterParams{
		Config:     cfg,
		Logger:     logg,
		DB:         stubPinger{},
		Gatherer:   registry,
		Catalog:    holder,
		Matching:   matchSvc,
		References: refSvc,
		Cart:       cartSvc,
		Planner:    plannerSvc,
		Plans:      manager,
		Checkout:   checkoutSvc,
	}), offer
}

func call(t *testing.T, h http.Handler, method, path, buyer string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if buyer != "" {
		req.Header.Set("X-Buyer-Id", buyer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := newTestRouter(t)

	rec, _ := call(t, h, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-ProcureMatch-Env"))

	rec, env := call(t, h, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "catalog_version")
}

func TestBuyerRoutesRequireBuyerHeader(t *testing.T) {
	h, _ := newTestRouter(t)

	rec, env := call(t, h, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	rec, _ = call(t, h, http.MethodGet, "/api/v1/cart", "not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatchEndpoint(t *testing.T) {
	h, offer := newTestRouter(t)
	buyer := uuid.NewString()

	rec, env := call(t, h, http.MethodPost, "/api/v1/match", buyer, map[string]any{
		"raw_name": "Креветка 16/20 1 кг",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Status   string `json:"status"`
		Selected *struct {
			Offer struct {
				ID uuid.UUID `json:"id"`
			} `json:"offer"`
		} `json:"selected"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "ok", res.Status)
	require.NotNil(t, res.Selected)
	assert.Equal(t, offer.ID, res.Selected.Offer.ID)

	rec, _ = call(t, h, http.MethodPost, "/api/v1/match", buyer, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlanAndCheckoutFlow(t *testing.T) {
	h, offer := newTestRouter(t)
	buyer := uuid.NewString()

	rec, env := call(t, h, http.MethodPost, "/api/v1/references", buyer, map[string]any{
		"raw_name": "Креветка 16/20 1 кг",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ref struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ref))

	rec, _ = call(t, h, http.MethodPost, "/api/v1/cart/intents", buyer, map[string]any{
		"reference_id": ref.ID,
		"quantity":     "5",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env = call(t, h, http.MethodPost, "/api/v1/plans", buyer, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var plan struct {
		PlanID  string `json:"plan_id"`
		Success bool   `json:"success"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &plan))
	require.True(t, plan.Success)

	rec, env = call(t, h, http.MethodPost, "/api/v1/plans/"+plan.PlanID+"/validate", buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(env.Data), `"valid":true`)

	other := uuid.NewString()
	rec, env = call(t, h, http.MethodGet, "/api/v1/plans/"+plan.PlanID, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "PLAN_NOT_FOUND", env.Error.Code)

	rec, env = call(t, h, http.MethodPost, "/api/v1/plans/"+plan.PlanID+"/checkout", buyer, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var result struct {
		Orders []struct {
			Lines []struct {
				OfferID uuid.UUID `json:"offer_id"`
			} `json:"lines"`
		} `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Len(t, result.Orders, 1)
	require.Len(t, result.Orders[0].Lines, 1)
	assert.Equal(t, offer.ID, result.Orders[0].Lines[0].OfferID)

	rec, env = call(t, h, http.MethodGet, "/api/v1/orders", buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Orders     []json.RawMessage `json:"orders"`
		NextCursor string            `json:"next_cursor"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Len(t, history.Orders, 1)
	assert.Empty(t, history.NextCursor)

	rec, _ = call(t, h, http.MethodGet, "/api/v1/orders?limit=x", buyer, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = call(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "procurematch_")
}

func TestAdminCatalogRebuild(t *testing.T) {
	h, _ := newTestRouter(t)
	rec, env := call(t, h, http.MethodPost, "/api/admin/v1/catalog/rebuild", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(env.Data), "version")
}
