// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults match the ARGUS TV addon settings.
const (
	DefaultHost              = "127.0.0.1"
	DefaultPort              = 49943
	DefaultTimeout           = 10 * time.Second
	DefaultUser              = "Guest"
	DefaultTuneDelay         = 200 * time.Millisecond
	DefaultListen            = ":8089"
	DefaultLogLevel          = "info"
	DefaultRateLimit         = 120
	DefaultKeepAliveInterval = 10 * time.Second
	DefaultEventPollInterval = 10 * time.Second
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envKey(name string) string {
	key := EnvPrefix + name
	l.ConsumedEnvKeys[key] = struct{}{}
	return key
}

func (l *Loader) envString(name, def string) string  { return ParseString(l.envKey(name), def) }
func (l *Loader) envBool(name string, def bool) bool { return ParseBool(l.envKey(name), def) }
func (l *Loader) envInt(name string, def int) int    { return ParseInt(l.envKey(name), def) }
func (l *Loader) envFloat(name string, def float64) float64 {
	return ParseFloat(l.envKey(name), def)
}
func (l *Loader) envDuration(name string, def time.Duration) time.Duration {
	return ParseDuration(l.envKey(name), def)
}

// Load loads configuration with precedence: ENV > File > Defaults, then validates.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()
	cfg.Version = l.version

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFileConfig(&cfg, fileCfg)
	}

	if err := l.mergeEnvConfig(&cfg); err != nil {
		return cfg, err
	}

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Defaults returns the configuration used when neither file nor ENV set a key.
func Defaults() AppConfig {
	return AppConfig{
		Host:              DefaultHost,
		Port:              DefaultPort,
		Timeout:           DefaultTimeout,
		User:              DefaultUser,
		Radio:             true,
		TuneDelay:         DefaultTuneDelay,
		Listen:            DefaultListen,
		LogLevel:          DefaultLogLevel,
		RateLimit:         DefaultRateLimit,
		KeepAliveInterval: DefaultKeepAliveInterval,
		EventPollInterval: DefaultEventPollInterval,
		Timeshift: TimeshiftConfig{
			DescriptorRetries: 10,
			RetryDelay:        5 * time.Millisecond,
			OpenTimeout:       1500 * time.Millisecond,
			OpenPoll:          100 * time.Millisecond,
			StatRetries:       20,
			StatRetryDelay:    500 * time.Millisecond,
		},
		Tracing: TracingConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}

func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, ErrMultipleDocuments
	}

	return &fileCfg, nil
}

// LoadFileConfig parses a YAML config file without applying defaults or env overrides.
func LoadFileConfig(path string) (*FileConfig, error) {
	return NewLoader(path, "").loadFile(path)
}

func mergeFileConfig(cfg *AppConfig, f *FileConfig) {
	set(&cfg.Host, f.Host)
	set(&cfg.Port, f.Port)
	set(&cfg.Timeout, f.Timeout)
	set(&cfg.User, f.User)
	set(&cfg.Pass, f.Pass)
	set(&cfg.Radio, f.Radio)
	set(&cfg.TuneDelay, f.TuneDelay)
	set(&cfg.UseFolder, f.UseFolder)
	set(&cfg.Listen, f.Listen)
	set(&cfg.LogLevel, f.LogLevel)
	set(&cfg.RateLimit, f.RateLimit)
	set(&cfg.KeepAliveInterval, f.KeepAliveInterval)
	set(&cfg.EventPollInterval, f.EventPollInterval)

	if ts := f.Timeshift; ts != nil {
		set(&cfg.Timeshift.DescriptorRetries, ts.DescriptorRetries)
		set(&cfg.Timeshift.RetryDelay, ts.RetryDelay)
		set(&cfg.Timeshift.OpenTimeout, ts.OpenTimeout)
		set(&cfg.Timeshift.OpenPoll, ts.OpenPoll)
		set(&cfg.Timeshift.StatRetries, ts.StatRetries)
		set(&cfg.Timeshift.StatRetryDelay, ts.StatRetryDelay)
	}
	if len(f.PathMappings) > 0 {
		cfg.PathMappings = append([]PathMapping(nil), f.PathMappings...)
	}
	if tr := f.Tracing; tr != nil {
		set(&cfg.Tracing.Enabled, tr.Enabled)
		set(&cfg.Tracing.Exporter, tr.Exporter)
		set(&cfg.Tracing.Endpoint, tr.Endpoint)
		set(&cfg.Tracing.SamplingRate, tr.SamplingRate)
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) error {
	cfg.Host = l.envString("HOST", cfg.Host)
	cfg.Port = l.envInt("PORT", cfg.Port)
	cfg.Timeout = l.envDuration("TIMEOUT", cfg.Timeout)
	cfg.User = l.envString("USER", cfg.User)
	cfg.Pass = l.envString("PASS", cfg.Pass)
	cfg.Radio = l.envBool("RADIO", cfg.Radio)
	cfg.TuneDelay = l.envDuration("TUNE_DELAY", cfg.TuneDelay)
	cfg.UseFolder = l.envBool("USE_FOLDER", cfg.UseFolder)
	cfg.Listen = l.envString("LISTEN", cfg.Listen)
	cfg.LogLevel = strings.ToLower(l.envString("LOG_LEVEL", cfg.LogLevel))
	cfg.RateLimit = l.envInt("RATE_LIMIT", cfg.RateLimit)
	cfg.KeepAliveInterval = l.envDuration("KEEPALIVE_INTERVAL", cfg.KeepAliveInterval)
	cfg.EventPollInterval = l.envDuration("EVENT_POLL_INTERVAL", cfg.EventPollInterval)

	ts := &cfg.Timeshift
	ts.DescriptorRetries = l.envInt("TIMESHIFT_DESCRIPTOR_RETRIES", ts.DescriptorRetries)
	ts.RetryDelay = l.envDuration("TIMESHIFT_RETRY_DELAY", ts.RetryDelay)
	ts.OpenTimeout = l.envDuration("TIMESHIFT_OPEN_TIMEOUT", ts.OpenTimeout)
	ts.OpenPoll = l.envDuration("TIMESHIFT_OPEN_POLL", ts.OpenPoll)
	ts.StatRetries = l.envInt("TIMESHIFT_STAT_RETRIES", ts.StatRetries)
	ts.StatRetryDelay = l.envDuration("TIMESHIFT_STAT_RETRY_DELAY", ts.StatRetryDelay)

	tr := &cfg.Tracing
	tr.Enabled = l.envBool("TRACING_ENABLED", tr.Enabled)
	tr.Exporter = l.envString("TRACING_EXPORTER", tr.Exporter)
	tr.Endpoint = l.envString("TRACING_ENDPOINT", tr.Endpoint)
	tr.SamplingRate = l.envFloat("TRACING_SAMPLING_RATE", tr.SamplingRate)

	if raw, ok := os.LookupEnv(l.envKey("PATH_MAPPINGS")); ok && strings.TrimSpace(raw) != "" {
		mappings, err := parsePathMappings(raw)
		if err != nil {
			return fmt.Errorf("%w: %sPATH_MAPPINGS must be remote=local pairs separated by ';'", ErrInvalidConfig, EnvPrefix)
		}
		cfg.PathMappings = mappings
	}
	return nil
}
