package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/unrolled/secure"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger *slog.Logger
	Config *Config
}

// KeyStore is the claim/release surface of the idempotency store.
type KeyStore interface {
	Register(ctx context.Context, key, module string) error
	Release(ctx context.Context, key string) error
}

// IdempotencyMiddleware claims the Idempotency-Key header before mutating
// requests reach a handler. A key that was claimed before yields 409 without
// touching the handler, so retried document posts apply at most once. Keys
// claimed by a request that ends in an error response are released again:
// state-conflict failures are retryable once the caller corrects state, and
// the same key must then be honoured.
func IdempotencyMiddleware(store KeyStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if store == nil || key == "" || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			if err := store.Register(r.Context(), key, r.URL.Path); err != nil {
				if errors.Is(err, shared.ErrIdempotencyConflict) {
					httpx.Problem(w, http.StatusConflict, "Conflict", "request with this idempotency key was already processed")
					return
				}
				logger.Error("idempotency register failed", slog.Any("error", err))
				httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "could not register idempotency key")
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() >= http.StatusBadRequest {
				if err := store.Release(r.Context(), key); err != nil {
					logger.Error("idempotency release failed", slog.String("key", key), slog.Any("error", err))
				}
			}
		})
	}
}

// DashboardInvalidator bumps cached dashboard aggregates after a mutation.
type DashboardInvalidator interface {
	Invalidate(ctx context.Context) error
}

// CacheInvalidationMiddleware bumps the dashboard cache version after every
// successful mutating request and optionally enqueues a cache warmup. Failed
// requests change no state, so they leave the cache generation alone.
func CacheInvalidationMiddleware(inv DashboardInvalidator, warm func(context.Context) error, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() >= http.StatusBadRequest {
				return
			}
			if err := inv.Invalidate(r.Context()); err != nil {
				logger.Warn("dashboard invalidate failed", slog.Any("error", err))
				return
			}
			if warm != nil {
				if err := warm(r.Context()); err != nil {
					logger.Warn("dashboard warmup enqueue failed", slog.Any("error", err))
				}
			}
		})
	}
}

// identityMiddleware lifts the caller identity from the X-User-ID header into
// the request context. Authentication itself happens at the gateway in front
// of this service; the header carries the already verified user id.
func identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get("X-User-ID"); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				r = r.WithContext(shared.ContextWithUser(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// MiddlewareStack installs the Meridian middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
	})

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	return []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
		httprate.Limit(120, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
		identityMiddleware,
	}
}
