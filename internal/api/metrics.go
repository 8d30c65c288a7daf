// SPDX-License-Identifier: MIT

package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	liveBytesStreamed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "argustv_live_bytes_streamed_total",
		Help: "Bytes of live transport stream written to HTTP clients",
	})

	liveStreamsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argustv_live_http_streams_ended_total",
		Help: "Live HTTP streams by end reason",
	}, []string{"reason"})

	liveBusyRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "argustv_live_busy_rejected_total",
		Help: "Live requests rejected because another stream was active",
	})
)

func recordLiveEnd(reason string) {
	liveStreamsEnded.WithLabelValues(reason).Inc()
}
