package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/farmacia-backend/api/responses"
	pkgerrors "github.com/angelmondragon/farmacia-backend/pkg/errors"
	"github.com/angelmondragon/farmacia-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/farmacia-backend/pkg/redis"
)

const (
	IdempotencyHeader     = "Idempotency-Key"
	IdempotentReplayed    = "Idempotent-Replayed"
	defaultIdempotencyTTL = 24 * time.Hour
	inFlightTTL           = 2 * time.Minute
	maxIdempotencyKey     = 128
	maxIdempotentBody     = 1 << 20
)

// replayedHeaders are copied from the first response into every replay.
var replayedHeaders = []string{"Content-Type", "Location"}

type idempotencyRecord struct {
	Status      int               `json:"status"`
	Body        string            `json:"body,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequestHash string            `json:"request_hash"`
	Pending     bool              `json:"pending,omitempty"`
}

// Idempotency replays the stored response when a client repeats a request
// with the same Idempotency-Key, for ttl after the first one completed.
// Requests without the header run normally. A key is reserved while its
// first request is in flight, and 5xx outcomes are not stored so the client
// may retry them with the same key.
//
// Mount it per route: the replay scope is the caller's pharmacy, user and
// request path.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if store == nil || clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(clientKey) > maxIdempotencyKey {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key too long"))
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBody))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			g := idempotencyGuard{
				store: store,
				logg:  logg,
				key:   store.IdempotencyKey(idempotencyScope(r), clientKey),
				hash:  hashBody(body),
			}
			reserved, err := g.reserve(r.Context())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
				return
			}
			if !reserved {
				g.replay(r.Context(), w)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			g.commit(r.Context(), capture, ttl)
		})
	}
}

type idempotencyGuard struct {
	store pkgredis.IdempotencyStore
	logg  *logger.Logger
	key   string
	hash  string
}

func (g idempotencyGuard) reserve(ctx context.Context) (bool, error) {
	marker, err := json.Marshal(idempotencyRecord{RequestHash: g.hash, Pending: true})
	if err != nil {
		return false, err
	}
	return g.store.SetNX(ctx, g.key, string(marker), inFlightTTL)
}

// commit swaps the in-flight marker for the captured response. Server errors
// only drop the marker.
func (g idempotencyGuard) commit(ctx context.Context, capture *responseCapture, ttl time.Duration) {
	if err := g.store.Del(ctx, g.key); err != nil {
		g.logError(ctx, "release idempotency reservation", err)
	}
	status := capture.statusOrOK()
	if status >= http.StatusInternalServerError {
		return
	}

	record := idempotencyRecord{
		Status:      status,
		Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
		RequestHash: g.hash,
	}
	for _, name := range replayedHeaders {
		if v := capture.Header().Get(name); v != "" {
			if record.Headers == nil {
				record.Headers = map[string]string{}
			}
			record.Headers[name] = v
		}
	}

	payload, err := json.Marshal(record)
	if err != nil {
		g.logError(ctx, "marshal idempotency record", err)
		return
	}
	if _, err := g.store.SetNX(ctx, g.key, string(payload), ttl); err != nil {
		g.logError(ctx, "persist idempotency record", err)
	}
}

func (g idempotencyGuard) replay(ctx context.Context, w http.ResponseWriter) {
	inProgress := pkgerrors.New(pkgerrors.CodeIdempotency, "request with this Idempotency-Key is in progress; retry")

	stored, err := g.store.Get(ctx, g.key)
	switch {
	case errors.Is(err, redis.Nil):
		// The first request ended with a 5xx between our SETNX and GET.
		responses.WriteError(ctx, g.logg, w, inProgress)
		return
	case err != nil:
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
		return
	}

	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	switch {
	case record.RequestHash != g.hash:
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case record.Pending:
		responses.WriteError(ctx, g.logg, w, inProgress)
	default:
		for name, v := range record.Headers {
			w.Header().Set(name, v)
		}
		w.Header().Set(IdempotentReplayed, "true")
		w.WriteHeader(record.Status)
		if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
			_, _ = w.Write(decoded)
		}
	}
}

func (g idempotencyGuard) logError(ctx context.Context, msg string, err error) {
	if g.logg != nil {
		g.logg.Error(ctx, msg, err)
	}
}

func idempotencyScope(r *http.Request) string {
	return strings.Join([]string{
		PharmacyIDFromContext(r.Context()),
		UserIDFromContext(r.Context()),
		r.Method,
		r.URL.Path,
	}, "|")
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusOrOK() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
