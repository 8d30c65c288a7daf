// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tsreader

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/avfs/avfs"
	"github.com/avfs/avfs/vfs/osfs"

	xglog "github.com/ManuGH/argustv-pvr/internal/log"
	"github.com/ManuGH/argustv-pvr/internal/tsbuffer"
)

// Options configures both backends.
type Options struct {
	Buffer tsbuffer.Options
	// FileOpenRetries and FileOpenRetryDelay apply to plain files only.
	FileOpenRetries    int
	FileOpenRetryDelay time.Duration
}

// Reader is the facade handed to playback. The backend is chosen once from the
// file name and never changes.
type Reader struct {
	name      string
	timeshift bool
	backend   Backend
}

// New selects the backend for name. A nil vfs reads the host filesystem.
func New(vfs avfs.VFS, name string, opts Options) *Reader {
	if vfs == nil {
		vfs = osfs.New()
	}
	r := &Reader{name: name, timeshift: IsBuffer(name)}
	if r.timeshift {
		r.backend = tsbuffer.New(vfs, name, opts.Buffer)
	} else {
		r.backend = NewFileReader(vfs, name, opts.FileOpenRetries, opts.FileOpenRetryDelay)
	}
	return r
}

// Open opens name and positions the reader at the start of the readable range.
func Open(ctx context.Context, vfs avfs.VFS, name string, opts Options) (*Reader, error) {
	r := New(vfs, name, opts)
	if err := r.Open(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) Open(ctx context.Context) error {
	logger := xglog.WithComponent("tsreader")
	logger.Debug().
		Str(xglog.FieldPath, r.name).
		Bool("timeshift", r.timeshift).
		Msg("opening stream")

	if err := r.backend.Open(ctx); err != nil {
		_ = r.backend.Close()
		logger.Error().Err(err).Str(xglog.FieldPath, r.name).Msg("open stream failed")
		return fmt.Errorf("open %s: %w", r.name, err)
	}
	if _, err := r.backend.Seek(0, io.SeekStart); err != nil {
		_ = r.backend.Close()
		return fmt.Errorf("rewind %s: %w", r.name, err)
	}
	return nil
}

// IsTimeshift reports whether the buffer backend is active.
func (r *Reader) IsTimeshift() bool { return r.timeshift }

func (r *Reader) Read(p []byte) (int, error)                   { return r.backend.Read(p) }
func (r *Reader) Seek(offset int64, whence int) (int64, error) { return r.backend.Seek(offset, whence) }
func (r *Reader) Tell() int64                                  { return r.backend.Tell() }
func (r *Reader) Size() int64                                  { return r.backend.Size() }
func (r *Reader) Zap() error                                   { return r.backend.Zap() }
func (r *Reader) Close() error                                 { return r.backend.Close() }
