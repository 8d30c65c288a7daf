// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BreakerStates are the label values of argustv_circuit_breaker_state.
var BreakerStates = []string{"closed", "half-open", "open"}

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "argustv_circuit_breaker_state",
		Help: "1 for the breaker's current state, 0 for the others",
	}, []string{"component", "state"})

	breakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argustv_circuit_breaker_transitions_total",
		Help: "Circuit breaker state changes",
	}, []string{"component", "from", "to"})
)

// SetBreakerState marks state as the only active one for component.
func SetBreakerState(component, state string) {
	for _, s := range BreakerStates {
		v := 0.0
		if s == state {
			v = 1
		}
		breakerState.WithLabelValues(component, s).Set(v)
	}
}

// ObserveBreakerTransition records a state change and updates the gauge.
// A transition to "open" is a trip.
func ObserveBreakerTransition(component, from, to string) {
	breakerTransitions.WithLabelValues(component, from, to).Inc()
	SetBreakerState(component, to)
}
