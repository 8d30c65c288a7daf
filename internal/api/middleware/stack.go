// SPDX-License-Identifier: MIT

// Package middleware provides the HTTP middleware for the API server.
package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// StackConfig selects the optional layers of the ingress stack.
type StackConfig struct {
	EnableMetrics bool
	EnableLogging bool
	// TracingService names the tracer; empty disables tracing.
	TracingService string

	// RateLimit is requests per minute per client IP; 0 disables.
	RateLimit int
	// RateLimitExempt lists paths the limiter ignores.
	RateLimitExempt []string
}

// NewRouter returns a chi router with the stack installed.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(Chain(cfg)...)
	return r
}

// Chain lists the middlewares outermost first. Recovery and the request id
// always run; everything after them is optional. The limiter is innermost
// so rejected requests are still counted, traced and logged.
func Chain(cfg StackConfig) []func(http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{Recoverer, RequestID}
	if cfg.EnableMetrics {
		chain = append(chain, Metrics())
	}
	if cfg.TracingService != "" {
		chain = append(chain, Tracing(cfg.TracingService))
	}
	if cfg.EnableLogging {
		chain = append(chain, AccessLog)
	}
	if cfg.RateLimit > 0 {
		chain = append(chain, RateLimit(RateLimitConfig{
			RequestLimit: cfg.RateLimit,
			WindowSize:   time.Minute,
			ExemptPaths:  cfg.RateLimitExempt,
		}))
	}
	return chain
}
