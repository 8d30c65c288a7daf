// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon owns the runtime: HTTP server, service event monitor and
// configuration reloads.
package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/argustv-pvr/internal/config"
	xglog "github.com/ManuGH/argustv-pvr/internal/log"
)

// Runner is a background loop that stops when ctx is done.
type Runner interface {
	Run(ctx context.Context) error
}

// ConfigSource is the reloadable configuration; *config.Holder implements it.
type ConfigSource interface {
	Watch(ctx context.Context) error
	Reload(ctx context.Context) error
	RegisterListener(ch chan<- config.AppConfig)
}

// App ties the HTTP manager, the event monitor and config reloads to one
// lifetime.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfg          ConfigSource
	monitor      Runner
	reloadSignal os.Signal
}

// NewApp wires an App. cfg and monitor may be nil; SIGHUP triggers reloads.
func NewApp(logger zerolog.Logger, manager Manager, cfg ConfigSource, monitor Runner) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		cfg:          cfg,
		monitor:      monitor,
		reloadSignal: syscall.SIGHUP,
	}
}

// Run starts the subsystems in one errgroup and blocks until ctx is
// cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)
	if a.cfg != nil {
		updates := make(chan config.AppConfig, 1)
		a.cfg.RegisterListener(updates)
		g.Go(func() error { return a.watchConfig(ctx) })
		g.Go(func() error { return a.applyUpdates(ctx, updates) })
		if a.reloadSignal != nil {
			g.Go(func() error { return a.reloadOnSignal(ctx) })
		}
	}
	if a.monitor != nil {
		g.Go(func() error { return a.monitor.Run(ctx) })
	}
	g.Go(func() error {
		if err := a.manager.Start(ctx); err != nil {
			_ = a.manager.Shutdown(context.Background())
			return err
		}
		return nil
	})
	return g.Wait()
}

// watchConfig never fails the group; without a watcher the daemon keeps
// running on the configuration it started with.
func (a *App) watchConfig(ctx context.Context) error {
	if err := a.cfg.Watch(ctx); err != nil {
		a.logger.Warn().Err(err).
			Str(xglog.FieldEvent, "config.watch_failed").
			Msg("config file watcher unavailable")
	}
	return nil
}

func (a *App) applyUpdates(ctx context.Context, updates <-chan config.AppConfig) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg := <-updates:
			a.apply(cfg)
		}
	}
}

func (a *App) reloadOnSignal(ctx context.Context) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, a.reloadSignal)
	defer signal.Stop(sig)

	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-sig:
			a.logger.Info().
				Str(xglog.FieldEvent, "config.reload_signal").
				Stringer("signal", s).
				Msg("reloading configuration")
			if err := a.cfg.Reload(ctx); err != nil {
				a.logger.Warn().Err(err).
					Str(xglog.FieldEvent, "config.reload_failed").
					Msg("configuration reload rejected, keeping current settings")
			}
		}
	}
}

// apply takes over the log level. Everything else needs a restart.
func (a *App) apply(cfg config.AppConfig) {
	if err := xglog.SetLevel(cfg.LogLevel); err != nil {
		a.logger.Warn().Err(err).
			Str(xglog.FieldEvent, "config.log_level_invalid").
			Str("level", cfg.LogLevel).
			Msg("ignoring log level")
		return
	}
	a.logger.Info().
		Str(xglog.FieldEvent, "config.applied").
		Str("log_level", cfg.LogLevel).
		Msg("runtime settings applied")
}
