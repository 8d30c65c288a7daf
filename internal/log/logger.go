// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package log holds the process-wide zerolog logger and its correlation
// helpers.
package log

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Config describes the global logger.
type Config struct {
	// Level is a zerolog level name. Empty falls back to $ARGUSTV_LOG_LEVEL,
	// then info.
	Level string
	// Format is "json" (default) or "console".
	Format string
	// Output defaults to stderr; stdout may carry stream data.
	Output  io.Writer
	Service string
	Version string
}

var base atomic.Pointer[zerolog.Logger]

// Configure replaces the global logger. init installs a default so packages
// can log before the configuration is loaded.
func Configure(cfg Config) {
	level := cfg.Level
	if level == "" {
		level = os.Getenv("ARGUSTV_LOG_LEVEL")
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}
	if cfg.Service == "" {
		cfg.Service = "argustv-pvr"
	}

	l := zerolog.New(out).With().
		Timestamp().
		Str("service", cfg.Service).
		Str("version", cfg.Version).
		Logger()
	base.Store(&l)
}

// SetLevel changes the global level in place; used on config reload.
func SetLevel(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

func Base() zerolog.Logger {
	return *base.Load()
}

// WithComponent returns a child of the base logger tagged with component.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str(FieldComponent, component).Logger()
}

func init() {
	Configure(Config{})
}
