// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package argustv

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrNotFound            = errors.New("argustv: resource not found")
	ErrUpstreamUnavailable = errors.New("argustv: host unreachable or transport failure")
	ErrUpstreamError       = errors.New("argustv: internal error (5xx)")
	ErrUpstreamBadResponse = errors.New("argustv: invalid response format or malformed data")
	ErrEmptyResponse       = errors.New("argustv: empty response")
	ErrNoLiveStream        = errors.New("argustv: no live stream active")
	ErrCircuitOpen         = errors.New("argustv: circuit breaker open")
)

// APIError wraps a sentinel with the command that produced it.
type APIError struct {
	Sentinel error
	Command  string
	Status   int
	Body     string
	Err      error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("argustv: %s: %v", e.Command, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Sentinel
}

// LiveStreamError reports a TuneLiveStream call the server answered with a
// result other than Succeed.
type LiveStreamError struct {
	ChannelID string
	Result    LiveStreamResult
}

func (e *LiveStreamError) Error() string {
	return fmt.Sprintf("argustv: tune %s: %s", e.ChannelID, e.Result)
}

// IsLiveStreamResult reports whether err carries the given tune result.
func IsLiveStreamResult(err error, result LiveStreamResult) bool {
	var lsErr *LiveStreamError
	if errors.As(err, &lsErr) {
		return lsErr.Result == result
	}
	return false
}

func newAPIError(sentinel error, command string, status int, body string, err error) *APIError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &APIError{Sentinel: sentinel, Command: command, Status: status, Body: body, Err: err}
}

const maxErrorBody = 256
