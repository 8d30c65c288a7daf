// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/argustv-pvr/internal/log"
)

// ShutdownHook releases a resource during shutdown. Hooks run after the HTTP
// server has stopped, newest first.
type ShutdownHook func(ctx context.Context) error

// Manager runs the HTTP server and owns the shutdown sequence.
type Manager interface {
	// Start serves until ctx is done or the server fails, then shuts down.
	Start(ctx context.Context) error
	// Shutdown stops the server and runs the hooks. Repeated calls are no-ops.
	Shutdown(ctx context.Context) error
	RegisterShutdownHook(name string, hook ShutdownHook)
}

type hookEntry struct {
	name string
	fn   ShutdownHook
}

type manager struct {
	cfg    ServerConfig
	deps   Deps
	logger zerolog.Logger

	mu       sync.Mutex
	server   *http.Server
	hooks    []hookEntry
	started  bool
	stopping bool
	// endRequests cancels the base context of every request, which is the only
	// way a never-ending /live response lets go of its connection.
	endRequests context.CancelFunc
}

// NewManager validates deps and returns a Manager that has not bound yet.
func NewManager(cfg ServerConfig, deps Deps) (Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultServerConfig(cfg.ListenAddr).ShutdownTimeout
	}
	return &manager{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.With().Str(xglog.FieldComponent, "manager").Logger(),
	}, nil
}

func (m *manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	// Bind before returning control so an occupied port fails Start itself.
	ln, err := net.Listen("tcp", m.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", m.cfg.ListenAddr, err)
	}
	serveErr := m.serve(ln)

	var cause error
	select {
	case cause = <-serveErr:
		m.logger.Error().Err(cause).Str(xglog.FieldEvent, "http.failed").Msg("HTTP server failed, shutting down")
	case <-ctx.Done():
		m.logger.Info().Str(xglog.FieldEvent, "http.stopping").Msg("stop requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.ShutdownTimeout)
	defer cancel()
	if err := m.Shutdown(shutdownCtx); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (m *manager) serve(ln net.Listener) <-chan error {
	baseCtx, endRequests := context.WithCancel(context.Background())
	srv := &http.Server{
		Handler:           m.deps.APIHandler,
		ReadTimeout:       m.cfg.ReadTimeout,
		ReadHeaderTimeout: m.cfg.ReadTimeout / 2,
		WriteTimeout:      m.cfg.WriteTimeout,
		IdleTimeout:       m.cfg.IdleTimeout,
		MaxHeaderBytes:    m.cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	m.mu.Lock()
	m.server = srv
	m.endRequests = endRequests
	m.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		m.logger.Info().
			Str(xglog.FieldEvent, "http.listening").
			Str("addr", ln.Addr().String()).
			Dur("read_timeout", m.cfg.ReadTimeout).
			Msg("HTTP server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve: %w", err)
		}
	}()
	return errCh
}

func (m *manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	switch {
	case m.stopping:
		m.mu.Unlock()
		return nil
	case !m.started:
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	srv, endRequests := m.server, m.endRequests
	hooks := append([]hookEntry(nil), m.hooks...)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if endRequests != nil {
		endRequests()
	}
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	errs = append(errs, m.runHooks(ctx, hooks)...)

	if err := errors.Join(errs...); err != nil {
		m.logger.Error().Err(err).Str(xglog.FieldEvent, "shutdown.failed").Msg("shutdown finished with errors")
		return err
	}
	m.logger.Info().Str(xglog.FieldEvent, "shutdown.done").Msg("shutdown complete")
	return nil
}

func (m *manager) runHooks(ctx context.Context, hooks []hookEntry) []error {
	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		start := time.Now()
		err := h.fn(ctx)
		ev := m.logger.Debug()
		if err != nil {
			ev = m.logger.Warn().Err(err)
			errs = append(errs, fmt.Errorf("hook %s: %w", h.name, err))
		}
		ev.Str("hook", h.name).Dur("took", time.Since(start)).Msg("shutdown hook ran")
	}
	return errs
}

func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	m.hooks = append(m.hooks, hookEntry{name: name, fn: hook})
	m.mu.Unlock()
}
