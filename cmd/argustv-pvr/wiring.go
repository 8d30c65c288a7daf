// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"github.com/ManuGH/argustv-pvr/internal/argustv"
	"github.com/ManuGH/argustv-pvr/internal/config"
	"github.com/ManuGH/argustv-pvr/internal/pvr"
	"github.com/ManuGH/argustv-pvr/internal/telemetry"
	"github.com/ManuGH/argustv-pvr/internal/tsbuffer"
	"github.com/ManuGH/argustv-pvr/internal/tsreader"
)

type loadFunc func() (config.AppConfig, string, error)

func clientOptions(cfg config.AppConfig) argustv.Options {
	return argustv.Options{
		Timeout:   cfg.Timeout,
		UserAgent: "argustv-pvr/" + version,
	}
}

func readerOptions(cfg config.AppConfig) tsreader.Options {
	ts := cfg.Timeshift
	return tsreader.Options{
		Buffer: tsbuffer.Options{
			MaxDescriptorRetries: ts.DescriptorRetries,
			RetryDelay:           ts.RetryDelay,
			OpenTimeout:          ts.OpenTimeout,
			OpenPollInterval:     ts.OpenPoll,
			OpenStatRetries:      ts.StatRetries,
			OpenStatRetryDelay:   ts.StatRetryDelay,
		},
		FileOpenRetries:    ts.StatRetries,
		FileOpenRetryDelay: ts.StatRetryDelay,
	}
}

func sessionOptions(cfg config.AppConfig) pvr.SessionOptions {
	return pvr.SessionOptions{
		TuneDelay:         cfg.TuneDelay,
		KeepAliveInterval: cfg.KeepAliveInterval,
		Reader:            readerOptions(cfg),
	}
}

func tracingConfig(cfg config.AppConfig) telemetry.Config {
	return telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    "argustv-pvr",
		ServiceVersion: version,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	}
}
