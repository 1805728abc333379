package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/procurematch-backend/api/responses"
	pkgerrors "github.com/angelmondragon/procurematch-backend/pkg/errors"
	"github.com/angelmondragon/procurematch-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/procurematch-backend/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayHeader      = "Idempotent-Replay"
	maxIdempotencyKey = 128

	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
	// A claim outlives any sane handler; a crashed one frees the key after this.
	pendingTTL = 2 * time.Minute
)

type idempotencyRule struct {
	method string
	match  func(path string) bool
	ttl    time.Duration
}

var idempotencyRules = []idempotencyRule{
	{method: http.MethodPost, match: exactPath("/api/v1/cart/intents"), ttl: defaultIdempotencyTTL},
	{method: http.MethodPost, match: exactPath("/api/v1/references"), ttl: defaultIdempotencyTTL},
	// checkout writes purchase orders
	{method: http.MethodPost, match: planAction("checkout"), ttl: criticalIdempotencyTTL},
}

const (
	statePending  = "pending"
	stateComplete = "complete"
)

type idempotencyRecord struct {
	State       string `json:"state"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency makes the listed buyer writes safe to retry. The first request
// claims the key; a replay with the same body gets the stored response, a
// different body gets 409, and a replay racing the first gets 409 too.
// 5xx responses are not stored so the buyer can retry them.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := routeTTL(r.Method, routePattern(r))
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" || len(clientKey) > maxIdempotencyKey {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required").
					WithDetails(map[string]any{"field": idempotencyHeader, "max_length": maxIdempotencyKey}))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := requestHash(r, body)
			key := store.IdempotencyKey(buildScope(r), clientKey)

			claimed, err := claim(ctx, store, key, hash)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !claimed {
				replay(ctx, store, logg, w, key, hash)
				return
			}

			rec := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if rec.status >= http.StatusInternalServerError {
				if err := store.Del(ctx, key); err != nil {
					logError(ctx, logg, "release idempotency claim", err)
				}
				return
			}
			done := idempotencyRecord{
				State:       stateComplete,
				RequestHash: hash,
				Status:      rec.statusOrOK(),
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			}
			payload, err := json.Marshal(done)
			if err == nil {
				err = store.Set(ctx, key, string(payload), ttl)
			}
			if err != nil {
				logError(ctx, logg, "persist idempotency record", err)
			}
		})
	}
}

func claim(ctx context.Context, store pkgredis.IdempotencyStore, key, hash string) (bool, error) {
	payload, err := json.Marshal(idempotencyRecord{State: statePending, RequestHash: hash})
	if err != nil {
		return false, err
	}
	return store.SetNX(ctx, key, string(payload), pendingTTL)
}

func replay(ctx context.Context, store pkgredis.IdempotencyStore, logg *logger.Logger, w http.ResponseWriter, key, hash string) {
	stored, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		// claim expired between SetNX and Get
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request still in progress, retry").
			WithDetails(map[string]any{"state": statePending}))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read idempotency record"))
		return
	}
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}

	switch {
	case record.RequestHash != hash:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case record.State != stateComplete:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request still in progress, retry").
			WithDetails(map[string]any{"state": statePending}))
	default:
		if record.ContentType != "" {
			w.Header().Set("Content-Type", record.ContentType)
		}
		w.Header().Set(replayHeader, "true")
		w.WriteHeader(record.Status)
		_, _ = w.Write(record.Body)
	}
}

// Scope is per buyer and per concrete path, so one key may be reused across
// plans without colliding.
func buildScope(r *http.Request) string {
	buyerID, _ := BuyerIDFromContext(r.Context())
	return buyerID.String() + "|" + r.Method + "|" + r.URL.Path
}

func requestHash(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method + " " + r.URL.Path + "\n"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// routePattern prefers the resolved chi pattern. Mounted middleware runs before
// the sub-router resolves, so a trailing wildcard falls back to the path.
func routePattern(r *http.Request) string {
	if r == nil {
		return ""
	}
	if ctx := chi.RouteContext(r.Context()); ctx != nil {
		if pattern := ctx.RoutePattern(); pattern != "" && !strings.HasSuffix(pattern, "/*") {
			return pattern
		}
	}
	return strings.TrimSuffix(r.URL.Path, "/")
}

func routeTTL(method, path string) (time.Duration, bool) {
	if path == "" {
		return 0, false
	}
	for _, rule := range idempotencyRules {
		if rule.method == method && rule.match(path) {
			return rule.ttl, true
		}
	}
	return 0, false
}

func exactPath(want string) func(string) bool {
	return func(path string) bool { return path == want }
}

// planAction matches /api/v1/plans/{planId}/<action> for both a resolved
// pattern and a concrete path.
func planAction(action string) func(string) bool {
	return func(path string) bool {
		rest, ok := strings.CutPrefix(path, "/api/v1/plans/")
		if !ok {
			return false
		}
		id, tail, ok := strings.Cut(rest, "/")
		return ok && id != "" && tail == action
	}
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) statusOrOK() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
