// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// AppConfig is the resolved configuration.
type AppConfig struct {
	Version string

	// ARGUS TV server connection
	Host      string
	Port      int
	Timeout   time.Duration
	User      string
	Pass      string
	Radio     bool
	TuneDelay time.Duration
	UseFolder bool

	Listen    string
	LogLevel  string
	RateLimit int // requests per minute per client IP; 0 disables

	KeepAliveInterval time.Duration
	EventPollInterval time.Duration

	Timeshift    TimeshiftConfig
	PathMappings []PathMapping
	Tracing      TracingConfig
}

// TimeshiftConfig tunes the timeshift buffer reader.
type TimeshiftConfig struct {
	DescriptorRetries int
	RetryDelay        time.Duration
	OpenTimeout       time.Duration
	OpenPoll          time.Duration
	StatRetries       int
	StatRetryDelay    time.Duration
}

// PathMapping maps a server-side share root to a locally mounted directory.
type PathMapping struct {
	RemoteRoot string `yaml:"remoteRoot"`
	LocalRoot  string `yaml:"localRoot"`
}

type TracingConfig struct {
	Enabled      bool
	Exporter     string // grpc|http
	Endpoint     string
	SamplingRate float64
}

// BaseURL is the REST root of the ARGUS TV server.
func (c AppConfig) BaseURL() string {
	return fmt.Sprintf("http://%s/", net.JoinHostPort(c.Host, strconv.Itoa(c.Port)))
}

// FileConfig mirrors the YAML file. Pointers distinguish unset from zero.
type FileConfig struct {
	Host      *string        `yaml:"host,omitempty"`
	Port      *int           `yaml:"port,omitempty"`
	Timeout   *time.Duration `yaml:"timeout,omitempty"`
	User      *string        `yaml:"user,omitempty"`
	Pass      *string        `yaml:"pass,omitempty"`
	Radio     *bool          `yaml:"radio,omitempty"`
	TuneDelay *time.Duration `yaml:"tuneDelay,omitempty"`
	UseFolder *bool          `yaml:"useFolder,omitempty"`

	Listen    *string `yaml:"listen,omitempty"`
	LogLevel  *string `yaml:"logLevel,omitempty"`
	RateLimit *int    `yaml:"rateLimit,omitempty"`

	KeepAliveInterval *time.Duration `yaml:"keepAliveInterval,omitempty"`
	EventPollInterval *time.Duration `yaml:"eventPollInterval,omitempty"`

	Timeshift    *TimeshiftFileConfig `yaml:"timeshift,omitempty"`
	PathMappings []PathMapping        `yaml:"pathMappings,omitempty"`
	Tracing      *TracingFileConfig   `yaml:"tracing,omitempty"`
}

type TimeshiftFileConfig struct {
	DescriptorRetries *int           `yaml:"descriptorRetries,omitempty"`
	RetryDelay        *time.Duration `yaml:"retryDelay,omitempty"`
	OpenTimeout       *time.Duration `yaml:"openTimeout,omitempty"`
	OpenPoll          *time.Duration `yaml:"openPoll,omitempty"`
	StatRetries       *int           `yaml:"statRetries,omitempty"`
	StatRetryDelay    *time.Duration `yaml:"statRetryDelay,omitempty"`
}

type TracingFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     *string  `yaml:"exporter,omitempty"`
	Endpoint     *string  `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}
