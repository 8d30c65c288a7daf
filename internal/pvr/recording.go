// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pvr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/avfs/avfs"
	"github.com/rs/zerolog"

	"github.com/ManuGH/argustv-pvr/internal/argustv"
	xglog "github.com/ManuGH/argustv-pvr/internal/log"
	"github.com/ManuGH/argustv-pvr/internal/metrics"
	"github.com/ManuGH/argustv-pvr/internal/tsreader"
)

// ErrNegativeValue rejects a negative resume point or play count.
var ErrNegativeValue = errors.New("pvr: value must not be negative")

// RecordingSource is the part of the ARGUS TV client recorded playback needs.
type RecordingSource interface {
	RecordingByID(ctx context.Context, id string) (argustv.Recording, error)
	RecordingLastWatchedPosition(ctx context.Context, fileName string) (int, error)
	SetRecordingLastWatchedPosition(ctx context.Context, fileName string, seconds int) error
	SetRecordingFullyWatchedCount(ctx context.Context, fileName string, count int) error
}

// Recordings opens finished or in-progress recordings for playback and keeps
// their resume point and play count on the server.
type Recordings struct {
	client RecordingSource
	vfs    avfs.VFS
	paths  *PathMapper
	opts   tsreader.Options
	logger zerolog.Logger
}

// NewRecordings returns a Recordings reading files through vfs.
func NewRecordings(client RecordingSource, vfs avfs.VFS, paths *PathMapper, opts tsreader.Options) *Recordings {
	return &Recordings{
		client: client,
		vfs:    vfs,
		paths:  paths,
		opts:   opts,
		logger: xglog.WithComponent("pvr"),
	}
}

// Open resolves recording id to a local file and opens it for reading.
func (r *Recordings) Open(ctx context.Context, id string) (*RecordedStream, error) {
	rs, err := r.open(ctx, id)
	metrics.IncRecordingOpen(err == nil)
	return rs, err
}

func (r *Recordings) open(ctx context.Context, id string) (*RecordedStream, error) {
	rec, err := r.client.RecordingByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("recording %s: %w", id, err)
	}
	local, err := r.paths.Resolve(rec.RecordingFileName)
	if err != nil {
		return nil, fmt.Errorf("recording %s: %w", id, err)
	}
	reader, err := tsreader.Open(ctx, r.vfs, local, r.opts)
	if err != nil {
		return nil, fmt.Errorf("recording %s: %w", id, err)
	}
	r.logger.Info().
		Str(xglog.FieldEvent, "pvr.recording_opened").
		Str("recording_id", id).
		Str(xglog.FieldPath, local).
		Int64("size", reader.Size()).
		Msg("recorded stream opened")
	return &RecordedStream{rec: rec, reader: reader}, nil
}

// LastPlayedPosition returns the resume point of recording id in seconds.
func (r *Recordings) LastPlayedPosition(ctx context.Context, id string) (int, error) {
	rec, err := r.client.RecordingByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("recording %s: %w", id, err)
	}
	return r.client.RecordingLastWatchedPosition(ctx, rec.RecordingFileName)
}

// SetLastPlayedPosition stores the resume point of recording id.
func (r *Recordings) SetLastPlayedPosition(ctx context.Context, id string, seconds int) error {
	if seconds < 0 {
		return ErrNegativeValue
	}
	rec, err := r.client.RecordingByID(ctx, id)
	if err != nil {
		return fmt.Errorf("recording %s: %w", id, err)
	}
	return r.client.SetRecordingLastWatchedPosition(ctx, rec.RecordingFileName, seconds)
}

// SetPlayCount stores how often recording id was watched to the end.
func (r *Recordings) SetPlayCount(ctx context.Context, id string, count int) error {
	if count < 0 {
		return ErrNegativeValue
	}
	rec, err := r.client.RecordingByID(ctx, id)
	if err != nil {
		return fmt.Errorf("recording %s: %w", id, err)
	}
	return r.client.SetRecordingFullyWatchedCount(ctx, rec.RecordingFileName, count)
}

// RecordedStream reads one recording. Unlike the live reader it reports
// io.EOF once the cursor reaches the current end of the file.
type RecordedStream struct {
	mu     sync.Mutex
	rec    argustv.Recording
	reader *tsreader.Reader
}

// Recording returns the metadata the stream was opened from.
func (s *RecordedStream) Recording() argustv.Recording { return s.rec }

func (s *RecordedStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader == nil {
		return 0, ErrNotStreaming
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, err := s.reader.Read(p)
	if n == 0 && err == nil {
		return 0, io.EOF
	}
	return n, err
}

// Seek positions the stream; targets outside the file are clamped.
func (s *RecordedStream) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader == nil {
		return 0, ErrNotStreaming
	}
	return s.reader.Seek(offset, whence)
}

// Size is the length of the recording as it is now.
func (s *RecordedStream) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader == nil {
		return 0
	}
	return s.reader.Size()
}

func (s *RecordedStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader == nil {
		return nil
	}
	err := s.reader.Close()
	s.reader = nil
	return err
}
