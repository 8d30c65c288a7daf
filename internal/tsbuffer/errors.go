// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tsbuffer

import (
	"errors"
	"fmt"
)

var (
	// ErrNotYetAvailable means the descriptor or a segment has not been created or
	// populated yet. Retrying later is expected to succeed.
	ErrNotYetAvailable = errors.New("tsbuffer: not yet available")
	// ErrTornWrite means the descriptor was observed mid-update (counter mismatch or short read).
	ErrTornWrite = errors.New("tsbuffer: torn descriptor write")
	// ErrMalformedDescriptor means the descriptor has structurally impossible sizes.
	ErrMalformedDescriptor = errors.New("tsbuffer: malformed descriptor")
	// ErrSegmentUnreachable means a segment file could not be stat'ed, opened or read.
	ErrSegmentUnreachable = errors.New("tsbuffer: segment unreachable")
	// ErrBufferUnavailable means Open gave up waiting for a usable descriptor.
	ErrBufferUnavailable = errors.New("tsbuffer: buffer unavailable")
	// ErrClosed is returned by operations on a stream that is not open.
	ErrClosed = errors.New("tsbuffer: stream closed")
)

// BufferError wraps one of the sentinel errors with the failing operation and path.
type BufferError struct {
	Sentinel error
	Op       string
	Path     string
	Err      error
}

func (e *BufferError) Error() string {
	msg := fmt.Sprintf("%v: %s", e.Sentinel, e.Op)
	if e.Path != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *BufferError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Err}
}

func newError(sentinel error, op, path string, err error) *BufferError {
	return &BufferError{Sentinel: sentinel, Op: op, Path: path, Err: err}
}
