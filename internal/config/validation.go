// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"

	"github.com/ManuGH/argustv-pvr/internal/validate"
)

// Validate validates an AppConfig using the centralized validation package
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.NotEmpty("Host", cfg.Host)
	v.Port("Port", cfg.Port)
	v.PositiveDuration("Timeout", cfg.Timeout)
	v.NotEmpty("Listen", cfg.Listen)
	if _, err := validate.ParseLogLevel(cfg.LogLevel); err != nil {
		v.AddError("LogLevel", err.Error(), cfg.LogLevel)
	}
	if cfg.TuneDelay < 0 {
		v.AddError("TuneDelay", "duration cannot be negative", cfg.TuneDelay)
	}
	if cfg.RateLimit < 0 {
		v.AddError("RateLimit", "value cannot be negative", cfg.RateLimit)
	}
	v.PositiveDuration("KeepAliveInterval", cfg.KeepAliveInterval)
	v.PositiveDuration("EventPollInterval", cfg.EventPollInterval)

	ts := cfg.Timeshift
	v.Range("Timeshift.DescriptorRetries", ts.DescriptorRetries, 1, 100)
	v.PositiveDuration("Timeshift.RetryDelay", ts.RetryDelay)
	v.PositiveDuration("Timeshift.OpenTimeout", ts.OpenTimeout)
	v.PositiveDuration("Timeshift.OpenPoll", ts.OpenPoll)
	v.Range("Timeshift.StatRetries", ts.StatRetries, 1, 1000)
	v.PositiveDuration("Timeshift.StatRetryDelay", ts.StatRetryDelay)

	for i, m := range cfg.PathMappings {
		v.UNCRoot(fmt.Sprintf("PathMappings[%d].RemoteRoot", i), m.RemoteRoot)
		v.AbsPath(fmt.Sprintf("PathMappings[%d].LocalRoot", i), m.LocalRoot)
	}

	if cfg.Tracing.Enabled {
		v.OneOf("Tracing.Exporter", cfg.Tracing.Exporter, []string{"grpc", "http"})
		v.NotEmpty("Tracing.Endpoint", cfg.Tracing.Endpoint)
		if cfg.Tracing.SamplingRate < 0 || cfg.Tracing.SamplingRate > 1 {
			v.AddError("Tracing.SamplingRate", "value must be between 0 and 1", cfg.Tracing.SamplingRate)
		}
	}

	return v.Err()
}
