// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tsbuffer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argustv_tsbuffer_refresh_total",
		Help: "Descriptor refresh outcomes",
	}, []string{
		"result", // unchanged|updated|not_ready|torn|malformed|segment_unreachable|error
	})
	integrityRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "argustv_tsbuffer_integrity_retries_total",
		Help: "Descriptor re-reads caused by torn writes or short reads",
	})
	segmentSwitches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "argustv_tsbuffer_segment_switch_total",
		Help: "Number of times the reader switched to another segment file",
	})
	bytesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "argustv_tsbuffer_read_bytes_total",
		Help: "Bytes returned from timeshift buffer reads",
	})
)
