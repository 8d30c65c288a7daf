// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package argustv

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Attempt metrics are labelled by the command route (see commandRoute) so
// ids in paths do not explode cardinality.
var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argustv_client_attempts_total",
		Help: "ARGUS TV REST attempts by command route and outcome",
	}, []string{"method", "route", "outcome"})

	attemptSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "argustv_client_attempt_duration_seconds",
		Help: "ARGUS TV REST attempt latency",
		// Guide and recording listings on a busy server take seconds.
		Buckets: []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method", "route"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argustv_client_retries_total",
		Help: "ARGUS TV REST attempts that were followed by a retry",
	}, []string{"method", "route"})

	tuneResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argustv_tune_results_total",
		Help: "TuneLiveStream answers by LiveStreamResult",
	}, []string{"result"})
)

// outcome is "transport" for failures without a response, otherwise the
// status class ("2xx", "5xx", ...).
func outcome(status int, err error) string {
	if err != nil && status == 0 {
		return "transport"
	}
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

func observeAttempt(method, route string, status int, err error, retrying bool) {
	attemptsTotal.WithLabelValues(method, route, outcome(status, err)).Inc()
	if retrying {
		retriesTotal.WithLabelValues(method, route).Inc()
	}
}
