// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

const redactedSecret = "***"

// ToFileConfig converts a resolved configuration back into file form, so the
// effective settings (defaults + file + env) can be written out as YAML.
func ToFileConfig(cfg AppConfig) FileConfig {
	ts := cfg.Timeshift
	tr := cfg.Tracing
	return FileConfig{
		Host:              &cfg.Host,
		Port:              &cfg.Port,
		Timeout:           &cfg.Timeout,
		User:              &cfg.User,
		Pass:              &cfg.Pass,
		Radio:             &cfg.Radio,
		TuneDelay:         &cfg.TuneDelay,
		UseFolder:         &cfg.UseFolder,
		Listen:            &cfg.Listen,
		LogLevel:          &cfg.LogLevel,
		RateLimit:         &cfg.RateLimit,
		KeepAliveInterval: &cfg.KeepAliveInterval,
		EventPollInterval: &cfg.EventPollInterval,
		Timeshift: &TimeshiftFileConfig{
			DescriptorRetries: &ts.DescriptorRetries,
			RetryDelay:        &ts.RetryDelay,
			OpenTimeout:       &ts.OpenTimeout,
			OpenPoll:          &ts.OpenPoll,
			StatRetries:       &ts.StatRetries,
			StatRetryDelay:    &ts.StatRetryDelay,
		},
		PathMappings: append([]PathMapping(nil), cfg.PathMappings...),
		Tracing: &TracingFileConfig{
			Enabled:      &tr.Enabled,
			Exporter:     &tr.Exporter,
			Endpoint:     &tr.Endpoint,
			SamplingRate: &tr.SamplingRate,
		},
	}
}

// RedactSecrets masks credentials in place. Empty values stay empty.
func RedactSecrets(f *FileConfig) {
	if f.Pass != nil && *f.Pass != "" {
		s := redactedSecret
		f.Pass = &s
	}
}
