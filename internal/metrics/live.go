package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LiveTuneDuration tracks the time from tune request to an open reader
	// (TuneLiveStream + path mapping + buffer open + tune delay).
	LiveTuneDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "argustv_live_tune_duration_seconds",
		Help:    "Time taken to open a live stream",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13},
	}, []string{"result"})

	// LiveStartTotal tracks the outcome of live stream opens.
	LiveStartTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argustv_live_start_total",
		Help: "Total number of live stream open attempts by result and reason",
	}, []string{"result", "reason"})

	// LiveSessionsActive is the number of open live sessions.
	LiveSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "argustv_live_sessions_active",
		Help: "Number of live sessions currently streaming",
	})

	// LiveReadStalls counts reads that gave up waiting for the writer.
	LiveReadStalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "argustv_live_read_stalls_total",
		Help: "Reads that returned short after the no-data window elapsed",
	})

	recordingOpenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argustv_recording_open_total",
		Help: "Recorded stream open attempts by result",
	}, []string{"result"})

	keepAliveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argustv_keepalive_total",
		Help: "KeepLiveStreamAlive calls by outcome",
	}, []string{"result"})

	serviceEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argustv_service_events_total",
		Help: "Service events received by name",
	}, []string{"name"})
)

// ObserveLiveTune records the duration of a live stream open.
func ObserveLiveTune(success bool, duration time.Duration) {
	LiveTuneDuration.WithLabelValues(result(success)).Observe(duration.Seconds())
}

// IncLiveStart records a live stream open outcome.
func IncLiveStart(success bool, reason string) {
	LiveStartTotal.WithLabelValues(result(success), reason).Inc()
}

// IncRecordingOpen records a recorded stream open outcome.
func IncRecordingOpen(success bool) {
	recordingOpenTotal.WithLabelValues(result(success)).Inc()
}

// IncKeepAlive records a keep-alive outcome.
func IncKeepAlive(success bool) {
	keepAliveTotal.WithLabelValues(result(success)).Inc()
}

// IncServiceEvent records a received service event.
func IncServiceEvent(name string) {
	serviceEventsTotal.WithLabelValues(name).Inc()
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
