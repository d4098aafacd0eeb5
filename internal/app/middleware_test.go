package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryKeyStore struct {
	mu       sync.Mutex
	claimed  map[string]bool
	releases int
}

func newMemoryKeyStore() *memoryKeyStore {
	return &memoryKeyStore{claimed: map[string]bool{}}
}

func (s *memoryKeyStore) Register(ctx context.Context, key, module string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed[key] {
		return shared.ErrIdempotencyConflict
	}
	s.claimed[key] = true
	return nil
}

func (s *memoryKeyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claimed, key)
	s.releases++
	return nil
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(ctx context.Context) error {
	c.calls++
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIdempotencyKeyFreedAfterFailedRequest(t *testing.T) {
	store := newMemoryKeyStore()

	calls := 0
	handler := IdempotencyMiddleware(store, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/sales-orders", nil)
		req.Header.Set("Idempotency-Key", "order-42")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := post()
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, 1, store.releases, "failed request must free its key")
	require.False(t, store.claimed["order-42"])

	rec = post()
	require.Equal(t, http.StatusCreated, rec.Code, "retry after correction must be honoured")
	require.Equal(t, 2, calls)

	rec = post()
	require.Equal(t, http.StatusConflict, rec.Code, "replay after success must be rejected")
	require.Equal(t, 2, calls, "handler must not run for a replayed key")
	require.Equal(t, 1, store.releases, "success must keep the key claimed")
}

func TestIdempotencyMiddlewareSkipsReads(t *testing.T) {
	store := newMemoryKeyStore()

	served := false
	handler := IdempotencyMiddleware(store, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/sales-orders", nil)
	req.Header.Set("Idempotency-Key", "order-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.True(t, served)
	require.Empty(t, store.claimed)
}

func TestCacheInvalidationAfterSuccessfulMutation(t *testing.T) {
	inv := &countingInvalidator{}
	warmups := 0
	warm := func(ctx context.Context) error {
		warmups++
		return nil
	}

	status := http.StatusCreated
	handler := CacheInvalidationMiddleware(inv, warm, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	req := httptest.NewRequest(http.MethodPost, "/sales-orders", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, 1, inv.calls)
	require.Equal(t, 1, warmups)

	req = httptest.NewRequest(http.MethodGet, "/sales-orders", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, 1, inv.calls, "reads must not bump the cache")

	status = http.StatusUnprocessableEntity
	req = httptest.NewRequest(http.MethodPost, "/sales-orders", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, 1, inv.calls, "failed mutations change no state")
	require.Equal(t, 1, warmups)
}
