// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tsreader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/avfs/avfs"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/argustv-pvr/internal/log"
)

const (
	defaultFileOpenRetries    = 25
	defaultFileOpenRetryDelay = 20 * time.Millisecond
)

// ErrNotOpen is returned by FileReader operations before Open or after Close.
var ErrNotOpen = errors.New("tsreader: file not open")

// FileReader reads one plain recording file. The file may still be growing.
type FileReader struct {
	vfs    avfs.VFS
	path   string
	logger zerolog.Logger

	retries    int
	retryDelay time.Duration

	f   avfs.File
	pos int64
}

// NewFileReader prepares a reader for path. Open retries transient failures
// up to retries times, retryDelay apart.
func NewFileReader(vfs avfs.VFS, path string, retries int, retryDelay time.Duration) *FileReader {
	if retries <= 0 {
		retries = defaultFileOpenRetries
	}
	if retryDelay <= 0 {
		retryDelay = defaultFileOpenRetryDelay
	}
	return &FileReader{
		vfs:        vfs,
		path:       path,
		retries:    retries,
		retryDelay: retryDelay,
		logger:     xglog.WithComponent("tsreader").With().Str(xglog.FieldPath, path).Logger(),
	}
}

func (r *FileReader) Open(ctx context.Context) error {
	if r.f != nil {
		r.logger.Info().Msg("file already open")
		return nil
	}
	if r.path == "" {
		return fmt.Errorf("tsreader: no file name")
	}

	var lastErr error
	for attempt := 1; attempt <= r.retries; attempt++ {
		f, err := r.vfs.Open(r.path)
		if err == nil {
			if attempt > 2 {
				r.logger.Debug().Int(xglog.FieldAttempt, attempt).Msg("file opened after retries")
			}
			r.f = f
			r.pos = 0
			return nil
		}
		lastErr = err
		if attempt == r.retries {
			break
		}
		timer := time.NewTimer(r.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	r.logger.Error().Err(lastErr).Int("attempts", r.retries).Msg("open file failed")
	return fmt.Errorf("tsreader: open %s: %w", r.path, lastErr)
}

func (r *FileReader) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	r.pos = 0
	return err
}

// Read returns what the file currently holds. Reaching the end of a file that
// may still grow is reported as a short read, not io.EOF.
func (r *FileReader) Read(p []byte) (int, error) {
	if r.f == nil {
		return 0, ErrNotOpen
	}
	n, err := io.ReadFull(r.f, p)
	r.pos += int64(n)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return n, err
	}
	if n < len(p) {
		r.logger.Debug().Int("requested", len(p)).Int("read", n).Msg("short read")
	}
	return n, nil
}

// Seek moves the cursor, clamped to [0, size] of the file as it is now.
func (r *FileReader) Seek(offset int64, whence int) (int64, error) {
	if r.f == nil {
		return 0, ErrNotOpen
	}
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.pos + offset
	case io.SeekEnd:
		target = r.Size() + offset
	default:
		return r.pos, fmt.Errorf("tsreader: invalid whence %d", whence)
	}
	target = max(0, min(target, r.Size()))

	pos, err := r.f.Seek(target, io.SeekStart)
	if err != nil {
		return r.pos, err
	}
	r.pos = pos
	return pos, nil
}

func (r *FileReader) Tell() int64 {
	return r.pos
}

func (r *FileReader) Size() int64 {
	if r.f == nil {
		return 0
	}
	info, err := r.f.Stat()
	if err != nil {
		r.logger.Warn().Err(err).Msg("stat failed")
		return 0
	}
	return info.Size()
}

// Zap moves to the current end of the file.
func (r *FileReader) Zap() error {
	_, err := r.Seek(0, io.SeekEnd)
	return err
}
