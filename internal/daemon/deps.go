// SPDX-License-Identifier: MIT

package daemon

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Deps is what the Manager needs from the wiring in cmd.
type Deps struct {
	Logger zerolog.Logger
	// APIHandler is the complete router: /live, /api, /healthz and /metrics.
	APIHandler http.Handler
}

// Validate reports every missing dependency at once.
func (d *Deps) Validate() error {
	var errs []error
	if d.Logger.GetLevel() == zerolog.Disabled {
		errs = append(errs, ErrMissingLogger)
	}
	if d.APIHandler == nil {
		errs = append(errs, ErrMissingAPIHandler)
	}
	return errors.Join(errs...)
}

// ServerConfig tunes the http.Server. WriteTimeout is 0 unless set: a live
// response lasts as long as someone is watching.
type ServerConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	ShutdownTimeout time.Duration
}

// DefaultServerConfig is what `serve` listens with.
func DefaultServerConfig(listen string) ServerConfig {
	return ServerConfig{
		ListenAddr:      listen,
		ReadTimeout:     10 * time.Second,
		IdleTimeout:     2 * time.Minute,
		MaxHeaderBytes:  64 << 10,
		ShutdownTimeout: 10 * time.Second,
	}
}
