package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/cache"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
)

// IdempotencyStore remembers responses to writes that carried an Idempotency-Key
type IdempotencyStore struct {
	entries *cache.Expiring[string, *idempotencyEntry]
	ttl     time.Duration
}

// idempotencyEntry is written once by the request that owns it. Readers must
// wait on done before touching the other fields.
type idempotencyEntry struct {
	fingerprint string
	done        chan struct{}
	replayable  bool
	status      int
	headers     http.Header
	body        []byte
}

// IdempotencyConfig holds configuration for idempotency middleware
type IdempotencyConfig struct {
	TTL     time.Duration // How long to keep results (default 24h)
	Cleanup time.Duration // Cleanup interval (default 1h)
}

// NewIdempotencyStore creates a new idempotency store. Call Stop to release it.
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = time.Hour
	}

	return &IdempotencyStore{
		entries: cache.NewExpiring[string, *idempotencyEntry](cache.Config{TTL: cfg.TTL, Cleanup: cfg.Cleanup}),
		ttl:     cfg.TTL,
	}
}

// Stop stops the cleanup goroutine
func (s *IdempotencyStore) Stop() {
	s.entries.Stop()
}

// Len returns the number of remembered keys
func (s *IdempotencyStore) Len() int {
	return s.entries.Len()
}

// claim returns the entry for key, creating an in-flight one when absent.
// owner is true when the caller must run the request and call finish.
func (s *IdempotencyStore) claim(key, fingerprint string) (entry *idempotencyEntry, owner bool) {
	fresh := &idempotencyEntry{fingerprint: fingerprint, done: make(chan struct{})}
	existing, found := s.entries.SetIfAbsent(key, fresh, s.ttl)
	if found {
		return existing, false
	}
	return fresh, true
}

// finish publishes the owner's response. Server errors are not remembered so
// the client can retry with the same key.
func (s *IdempotencyStore) finish(key string, entry *idempotencyEntry, w *idempotencyResponseWriter) {
	if w.status >= http.StatusInternalServerError {
		s.entries.Delete(key)
	} else {
		entry.replayable = true
		entry.status = w.status
		entry.headers = w.Header().Clone()
		entry.body = w.body.Bytes()
	}
	close(entry.done)
}

// scopeKey identifies a caller's use of an Idempotency-Key
func scopeKey(caller, idempotencyKey string) string {
	h := sha256.New()
	h.Write([]byte(caller))
	h.Write([]byte{0})
	h.Write([]byte(idempotencyKey))
	return hex.EncodeToString(h.Sum(nil))
}

// fingerprintRequest identifies the request a key was first used with
func fingerprintRequest(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// idempotencyResponseWriter captures the response for caching
type idempotencyResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (w *idempotencyResponseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func replay(w http.ResponseWriter, entry *idempotencyEntry) {
	for k, v := range entry.headers {
		for _, val := range v {
			w.Header().Add(k, val)
		}
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(entry.status)
	_, _ = w.Write(entry.body)
}

// Idempotency returns middleware that replays the first response to a POST or
// PATCH carrying the same Idempotency-Key from the same caller. Reusing a key
// for a different request is rejected with 409.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			idempotencyKey := r.Header.Get("Idempotency-Key")
			if idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				model.NewBadRequestError("could not read request body").WriteJSON(w)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := scopeKey(callerKey(r, nil), idempotencyKey)
			fingerprint := fingerprintRequest(r.Method, r.URL.Path, body)

			for {
				entry, owner := store.claim(key, fingerprint)
				if entry.fingerprint != fingerprint {
					model.NewConflictError("Idempotency-Key was already used for a different request").WriteJSON(w)
					return
				}

				if owner {
					irw := &idempotencyResponseWriter{ResponseWriter: w, status: http.StatusOK}
					completed := false
					// A panicking handler must not leave waiters blocked
					defer func() {
						if !completed {
							irw.status = http.StatusInternalServerError
						}
						store.finish(key, entry, irw)
					}()
					next.ServeHTTP(irw, r)
					completed = true
					return
				}

				select {
				case <-entry.done:
				case <-r.Context().Done():
					return
				}
				if entry.replayable {
					replay(w, entry)
					return
				}
				// The owner failed and released the key; try to claim it
			}
		})
	}
}
