package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/procurematch-backend/api/middleware"
	"github.com/angelmondragon/procurematch-backend/internal/matching"
	"github.com/angelmondragon/procurematch-backend/internal/plans"
	"github.com/angelmondragon/procurematch-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/procurematch-backend/pkg/errors"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
)

type stubMatcher struct {
	got    matching.Reference
	opts   matching.Options
	result matching.Result
}

func (s *stubMatcher) Match(_ context.Context, ref matching.Reference, opts matching.Options) (matching.Result, error) {
	s.got = ref
	s.opts = opts
	return s.result, nil
}

type stubResolver struct {
	refs map[uuid.UUID]matching.Reference
}

func (s stubResolver) Resolve(context.Context, uuid.UUID, []uuid.UUID) (map[uuid.UUID]matching.Reference, error) {
	return s.refs, nil
}

type stubPlanStore struct {
	err error
}

func (s stubPlanStore) Load(context.Context, uuid.UUID, string) (plans.Snapshot, error) {
	return plans.Snapshot{}, s.err
}

func (s stubPlanStore) ValidateUnchanged(context.Context, uuid.UUID, string, []plans.CartLine) (bool, string, error) {
	return false, "", s.err
}

func (s stubPlanStore) Delete(context.Context, uuid.UUID, string) error {
	return s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func buyerRequest(method, target, body string, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithBuyerID(req.Context(), uuid.New())
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rc)
	return req.WithContext(ctx)
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error.Code
}

func TestMatchNoMatchIsSuccess(t *testing.T) {
	svc := &stubMatcher{result: matching.Result{
		Status: enums.MatchStatusNotFound,
		Reason: enums.ReasonStrictAttrMismatch,
	}}
	rec := httptest.NewRecorder()
	Match(svc, stubResolver{}, testLogger())(rec, buyerRequest(http.MethodPost, "/api/v1/match",
		`{"raw_name":"  Креветка 16/20  ","mode":"similar","alternatives":2}`, nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]any
	decodeData(t, rec, &out)
	assert.Equal(t, "not_found", out["status"])
	assert.Equal(t, []any{}, out["alternatives"])

	assert.Equal(t, enums.MatchModeSimilar, svc.opts.Mode)
	assert.Equal(t, 2, svc.opts.Alternatives)
	assert.Equal(t, "1", svc.got.Quantity.String())
	assert.Equal(t, "Креветка 16/20", svc.got.RawName)
}

func TestMatchValidatesInput(t *testing.T) {
	cases := map[string]string{
		"missing name":  `{}`,
		"bad mode":      `{"raw_name":"x","mode":"fuzzy"}`,
		"zero quantity": `{"raw_name":"x","quantity":"0"}`,
		"unknown field": `{"raw_name":"x","colour":"red"}`,
		"tolerance > 1": `{"raw_name":"x","pack_tolerance":1.5}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Match(&stubMatcher{}, stubResolver{}, testLogger())(rec, buyerRequest(http.MethodPost, "/api/v1/match", body, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestMatchStoredReference(t *testing.T) {
	refID := uuid.New()
	svc := &stubMatcher{result: matching.Result{Status: enums.MatchStatusOK}}
	resolver := stubResolver{refs: map[uuid.UUID]matching.Reference{refID: {ID: refID, RawName: "Сыр 45% 1 кг"}}}

	rec := httptest.NewRecorder()
	Match(svc, resolver, testLogger())(rec, buyerRequest(http.MethodPost, "/api/v1/match",
		`{"reference_id":"`+refID.String()+`","quantity":"3"}`, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Сыр 45% 1 кг", svc.got.RawName)
	assert.Equal(t, "3", svc.got.Quantity.String())

	rec = httptest.NewRecorder()
	Match(svc, stubResolver{}, testLogger())(rec, buyerRequest(http.MethodPost, "/api/v1/match",
		`{"reference_id":"`+uuid.NewString()+`"}`, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))
}

func TestPlanHandlersSurfacePlanErrors(t *testing.T) {
	logg := testLogger()
	params := map[string]string{"planId": "plan-1"}

	rec := httptest.NewRecorder()
	PlanGet(stubPlanStore{err: pkgerrors.New(pkgerrors.CodePlanExpired, "plan expired")}, logg)(rec,
		buyerRequest(http.MethodGet, "/api/v1/plans/plan-1", "", params))
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, "PLAN_EXPIRED", errorCode(t, rec))

	rec = httptest.NewRecorder()
	PlanDelete(stubPlanStore{}, logg)(rec, buyerRequest(http.MethodDelete, "/api/v1/plans/plan-1", "", params))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	PlanGet(stubPlanStore{}, logg)(rec, buyerRequest(http.MethodGet, "/api/v1/plans/", "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUUIDParamRejectsGarbage(t *testing.T) {
	_, err := uuidParam(buyerRequest(http.MethodGet, "/", "", map[string]string{"intentId": "nope"}), "intentId")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	id := uuid.New()
	got, err := uuidParam(buyerRequest(http.MethodGet, "/", "", map[string]string{"intentId": id.String()}), "intentId")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}
