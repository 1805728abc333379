package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORSPreflight(t *testing.T) {
	handler := CORS([]string{"https://buyers.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/plans", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	allowed := preflight("https://buyers.example.com")
	assert.Equal(t, "https://buyers.example.com", allowed.Header().Get("Access-Control-Allow-Origin"))

	denied := preflight("https://elsewhere.example.com")
	assert.Empty(t, denied.Header().Get("Access-Control-Allow-Origin"))
}
