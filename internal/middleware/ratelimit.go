package middleware

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Limiter scopes. Each scope keeps its own counters and metric series.
const (
	ScopeGlobal = "global"
	ScopeSearch = "search"
)

// RateLimitConfig is a fixed window: at most RequestsPerWindow requests per
// client and scope in every WindowDuration.
type RateLimitConfig struct {
	// Scope names the limiter in metrics. Empty means ScopeGlobal.
	Scope             string
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// ErrInvalidRateLimit is returned by RateLimitConfig.Validate.
var ErrInvalidRateLimit = errors.New("invalid rate limit")

// Validate rejects non-positive budgets and windows.
func (c RateLimitConfig) Validate() error {
	switch {
	case c.RequestsPerWindow <= 0:
		return fmt.Errorf("%w: %d requests per window", ErrInvalidRateLimit, c.RequestsPerWindow)
	case c.WindowDuration <= 0:
		return fmt.Errorf("%w: window of %s", ErrInvalidRateLimit, c.WindowDuration)
	}
	return nil
}

func (c RateLimitConfig) scope() string {
	if c.Scope == "" {
		return ScopeGlobal
	}
	return c.Scope
}

// DefaultGlobalLimit is 100 requests a minute across every route.
func DefaultGlobalLimit() RateLimitConfig {
	return RateLimitConfig{Scope: ScopeGlobal, RequestsPerWindow: 100, WindowDuration: time.Minute}
}

// DefaultSearchLimit is 30 searches a minute. Every search reads the whole
// candidate source, so it gets a tighter budget than the global limit.
func DefaultSearchLimit() RateLimitConfig {
	return RateLimitConfig{Scope: ScopeSearch, RequestsPerWindow: 30, WindowDuration: time.Minute}
}

// RateLimitStore counts requests per key.
type RateLimitStore interface {
	// Allow counts one request for key. It returns whether the request fits
	// the window, the requests left in it and, when rejected, the seconds
	// until the window resets.
	Allow(ctx context.Context, key string, config RateLimitConfig) (allowed bool, remaining int, retryAfter int)
}

// KeyFunc derives the counter key of a request.
type KeyFunc func(r *http.Request) string

// ClientIP returns the caller address: the first X-Forwarded-For hop, then
// X-Real-IP, then the host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// IPKeyFunc keys requests by ClientIP alone.
func IPKeyFunc() KeyFunc {
	return ClientIP
}

// RouteKeyFunc keys requests by scope and ClientIP, so several limiters can
// share one store without sharing budgets.
func RouteKeyFunc(scope string) KeyFunc {
	return func(r *http.Request) string {
		return scope + ":ip:" + ClientIP(r)
	}
}

// RateLimiter rejects requests over budget with 429 and the rate_limited
// envelope. Every response carries X-RateLimit-Limit and
// X-RateLimit-Remaining; rejections add Retry-After and X-RateLimit-Reset
// (unix seconds). metrics may be nil.
func RateLimiter(store RateLimitStore, config RateLimitConfig, keyFunc KeyFunc, metrics *Metrics) func(http.Handler) http.Handler {
	limit := strconv.Itoa(config.RequestsPerWindow)
	scope := config.scope()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, retryAfter := store.Allow(r.Context(), keyFunc(r), config)
			if metrics != nil {
				metrics.ObserveRateLimit(scope, RouteOf(r.URL.Path), allowed)
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			reset := time.Now().Add(time.Duration(retryAfter) * time.Second)
			h.Set("Retry-After", strconv.Itoa(retryAfter))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			rejectRequest(w, r, http.StatusTooManyRequests, codeRateLimited, "Too many requests, retry later")
		})
	}
}
