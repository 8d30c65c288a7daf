// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/argustv-pvr/internal/log"
)

const reloadDebounce = 500 * time.Millisecond

// Holder owns the live configuration. Readers get a consistent snapshot;
// Reload swaps it only after the new file loaded and validated.
type Holder struct {
	current atomic.Pointer[AppConfig]
	loader  *Loader
	path    string
	logger  zerolog.Logger

	mu        sync.Mutex
	watcher   *fsnotify.Watcher
	listeners []chan<- AppConfig
}

// NewHolder starts from initial. path may be empty for env-only setups.
func NewHolder(initial AppConfig, loader *Loader, path string) *Holder {
	h := &Holder{loader: loader, path: path, logger: xglog.WithComponent("config")}
	h.current.Store(&initial)
	return h
}

// Get returns the current snapshot.
func (h *Holder) Get() AppConfig {
	return *h.current.Load()
}

// Reload re-reads the file and environment. On error the running
// configuration is kept.
func (h *Holder) Reload(_ context.Context) error {
	next, err := h.loader.Load()
	if err != nil {
		h.logger.Error().Err(err).
			Str(xglog.FieldEvent, "config.reload_failed").
			Msg("new configuration rejected")
		return fmt.Errorf("reload %s: %w", h.path, err)
	}
	prev := h.current.Swap(&next)

	ev := h.logger.Info().Str(xglog.FieldEvent, "config.reloaded")
	if fields := RestartRequired(*prev, next); len(fields) > 0 {
		ev = h.logger.Warn().
			Str(xglog.FieldEvent, "config.reloaded").
			Strs("restart_required", fields)
	}
	ev.Str("log_level", next.LogLevel).Msg("configuration reloaded")

	h.broadcast(next)
	return nil
}

// RestartRequired names the changed settings that only take effect on
// the next start. Secrets are reported by name only.
func RestartRequired(prev, next AppConfig) []string {
	var changed []string
	note := func(name string, differs bool) {
		if differs {
			changed = append(changed, name)
		}
	}
	note("host", prev.Host != next.Host)
	note("port", prev.Port != next.Port)
	note("timeout", prev.Timeout != next.Timeout)
	note("credentials", prev.User != next.User || prev.Pass != next.Pass)
	note("radio", prev.Radio != next.Radio)
	note("tuneDelay", prev.TuneDelay != next.TuneDelay)
	note("useFolder", prev.UseFolder != next.UseFolder)
	note("listen", prev.Listen != next.Listen)
	note("rateLimit", prev.RateLimit != next.RateLimit)
	note("keepAliveInterval", prev.KeepAliveInterval != next.KeepAliveInterval)
	note("eventPollInterval", prev.EventPollInterval != next.EventPollInterval)
	note("timeshift", prev.Timeshift != next.Timeshift)
	note("pathMappings", !slices.Equal(prev.PathMappings, next.PathMappings))
	note("tracing", prev.Tracing != next.Tracing)
	return changed
}

// Watch reloads after the config file changes and blocks until ctx is
// done. Without a file it only waits.
func (h *Holder) Watch(ctx context.Context) error {
	if h.path == "" {
		h.logger.Debug().Str(xglog.FieldEvent, "config.watch_skipped").Msg("no config file to watch")
		<-ctx.Done()
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	// Editors save by rename, which drops a watch on the file itself.
	if err := w.Add(filepath.Dir(h.path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(h.path), err)
	}
	h.mu.Lock()
	h.watcher = w
	h.mu.Unlock()
	defer h.Stop()

	h.logger.Info().
		Str(xglog.FieldEvent, "config.watching").
		Str(xglog.FieldPath, h.path).
		Msg("watching config file")

	h.watch(ctx, w)
	return nil
}

func (h *Holder) watch(ctx context.Context, w *fsnotify.Watcher) {
	target := filepath.Clean(h.path)
	relevant := fsnotify.Write | fsnotify.Create | fsnotify.Rename

	// A stopped, drained timer arms the debounce on the first event.
	pending := time.NewTimer(time.Hour)
	pending.Stop()
	defer pending.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) == target && ev.Op&relevant != 0 {
				h.logger.Debug().Str(xglog.FieldEvent, "config.file_event").Stringer("op", ev.Op).Send()
				pending.Reset(reloadDebounce)
			}
		case <-pending.C:
			// Failures are logged by Reload.
			_ = h.Reload(ctx)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			h.logger.Warn().Err(err).Str(xglog.FieldEvent, "config.watch_error").Msg("config watcher error")
		}
	}
}

// Stop closes the file watcher if Watch is running.
func (h *Holder) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watcher != nil {
		_ = h.watcher.Close()
		h.watcher = nil
	}
}

// RegisterListener adds ch to the receivers of every reloaded config.
// Delivery never blocks: a listener whose buffer is full misses that update.
func (h *Holder) RegisterListener(ch chan<- AppConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) broadcast(cfg AppConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.listeners {
		select {
		case ch <- cfg:
		default:
			h.logger.Warn().Str(xglog.FieldEvent, "config.listener_busy").Msg("listener missed a config update")
		}
	}
}
