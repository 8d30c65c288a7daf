// SPDX-License-Identifier: MIT

package middleware

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/ManuGH/argustv-pvr/internal/log"
)

// RateLimitConfig configures the per-client limiter.
type RateLimitConfig struct {
	RequestLimit int
	WindowSize   time.Duration
	// ExemptPaths are never counted, so health probes and scrapers do not eat
	// a viewer's budget.
	ExemptPaths []string
}

// RateLimit limits requests per client IP with a sliding window. Rejected
// requests get 429 with Retry-After set to the window length.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(cfg.WindowSize.Seconds()))
	limiter := httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowSize,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger := log.WithComponentFromContext(r.Context(), "http")
			logger.Warn().
				Str(log.FieldEvent, "http.rate_limited").
				Str(log.FieldPath, r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Msg("request rate limited")

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", retryAfter)
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":     "rate_limit_exceeded",
				"requestId": log.RequestIDFromContext(r.Context()),
			})
		}),
	)

	return func(next http.Handler) http.Handler {
		limited := limiter(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(cfg.ExemptPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}
