// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package tsreader opens recorded or live transport streams behind one
// read/seek/size/zap contract. Names ending in ".tsbuffer" are timeshift
// buffers served by tsbuffer.Stream; anything else is read as a single file.
package tsreader

import (
	"context"
	"io"
	"strings"

	"github.com/ManuGH/argustv-pvr/internal/tsbuffer"
)

// BufferExtension marks a timeshift buffer descriptor.
const BufferExtension = ".tsbuffer"

// Backend is implemented by *tsbuffer.Stream and *FileReader.
//
// Read returns (0, nil) when no data is available yet. Seek clamps into the
// readable range instead of failing.
type Backend interface {
	io.ReadSeekCloser
	Open(ctx context.Context) error
	Tell() int64
	Size() int64
	Zap() error
}

var (
	_ Backend = (*tsbuffer.Stream)(nil)
	_ Backend = (*FileReader)(nil)
)

// IsBuffer reports whether name selects the timeshift buffer backend.
func IsBuffer(name string) bool {
	return len(name) >= len(BufferExtension) &&
		strings.EqualFold(name[len(name)-len(BufferExtension):], BufferExtension)
}
