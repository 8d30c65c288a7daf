// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "argustv_http_request_duration_seconds",
		Help: "Time from request start until the handler returned.",
		// Live streams stay open for hours; the upper buckets catch them.
		Buckets: []float64{.005, .025, .1, .5, 2.5, 10, 60, 600, 3600},
	}, []string{"route", "method", "code"})

	requestsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "argustv_http_requests_in_flight",
		Help: "Requests currently being served.",
	})

	responseBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argustv_http_response_bytes_total",
		Help: "Response body bytes written, by route.",
	}, []string{"route"})
)

// Metrics records duration, in-flight count and body bytes per chi route.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestsActive.Inc()
			start := time.Now()
			sw := wrapWriter(w)
			defer func() {
				requestsActive.Dec()
				route := routePattern(r)
				requestSeconds.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).
					Observe(time.Since(start).Seconds())
				responseBytes.WithLabelValues(route).Add(float64(sw.bytes))
			}()
			next.ServeHTTP(sw, r)
		})
	}
}

// routePattern is the matched chi pattern, so path parameters such as
// channel ids do not become label values.
func routePattern(r *http.Request) string {
	rc := chi.RouteContext(r.Context())
	if rc == nil || rc.RoutePattern() == "" {
		return "unmatched"
	}
	return rc.RoutePattern()
}
