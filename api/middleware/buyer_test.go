package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/procurematch-backend/pkg/logger"
	"github.com/angelmondragon/procurematch-backend/pkg/types"
)

func TestBuyerSetsContext(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	want := uuid.New()
	var got uuid.UUID
	handler := Buyer(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := BuyerIDFromContext(r.Context())
		require.True(t, ok)
		got = id
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Buyer-Id", " "+want.String()+" ")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, want, got)
}

func TestBuyerRejectsMissingOrInvalidHeader(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	handler := Buyer(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, value := range []string{"", "buyer-1", uuid.Nil.String()} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		if value != "" {
			req.Header.Set("X-Buyer-Id", value)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, value)
		var env types.ErrorEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	}
}

func TestBuyerIDFromContextMissing(t *testing.T) {
	_, ok := BuyerIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
