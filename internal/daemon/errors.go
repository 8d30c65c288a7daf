// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import "errors"

var (
	ErrMissingLogger     = errors.New("daemon: logger is required")
	ErrMissingAPIHandler = errors.New("daemon: HTTP handler is required")
	ErrMissingManager    = errors.New("daemon: manager is required")

	// ErrAlreadyStarted is returned by a second Start on the same manager.
	ErrAlreadyStarted = errors.New("daemon: manager already started")
	// ErrManagerNotStarted is returned by Shutdown before Start bound the listener.
	ErrManagerNotStarted = errors.New("daemon: manager not started")
)
