package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-Id"

type ctxKey int

const requestIDKey ctxKey = iota

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// accessLog writes one line per request and feeds the HTTP metrics. The
// route label is the matched mux pattern, so path ids do not explode it.
func accessLog(logger *zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(route, recorder.status, dur)

		event := logger.Info()
		if recorder.status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("request_id", requestIDFrom(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

// HTTPAuth checks API keys and applies the per-key rate limit.
type HTTPAuth struct {
	cfg     config.APIAuthConfig
	keys    *keyRing
	limiter *keyLimiter
}

func NewHTTPAuth(cfg config.APIConfig, limiter *keyLimiter) *HTTPAuth {
	return &HTTPAuth{cfg: cfg.Auth, keys: newKeyRing(cfg.Auth.APIKeys), limiter: limiter}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isProbe(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		key := a.presentedKey(r)
		if a.cfg.Enabled {
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing api key")
				return
			}
			if _, ok := a.keys.lookup(key); !ok {
				writeError(w, http.StatusUnauthorized, "invalid api key")
				return
			}
		}

		if !a.limiter.Allow(clientKey(key, r)) {
			metrics.IncRateLimited("api_key")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAuth) presentedKey(r *http.Request) string {
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return strings.TrimSpace(r.Header.Get(headerName(a.cfg)))
}

func clientKey(apiKey string, r *http.Request) string {
	if apiKey != "" {
		return apiKey
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func isProbe(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

// userWriteLimit caps mutating requests per caller id. Store errors let the
// request through.
func userWriteLimit(store domain.RateLimitStore, cfg config.UserRateLimit, logger *zerolog.Logger, next http.Handler) http.Handler {
	if store == nil || cfg.Requests <= 0 {
		return next
	}
	window := time.Duration(cfg.WindowSeconds) * time.Second

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		userID, err := callerID(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		allowed, err := store.CheckRateLimit(r.Context(), userID, cfg.Requests, window)
		if err != nil {
			logger.Warn().Err(err).Int64("user_id", userID).Msg("user rate limit check failed")
		} else if !allowed {
			metrics.IncRateLimited("user")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
