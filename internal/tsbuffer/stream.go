// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tsbuffer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/avfs/avfs"
	"github.com/avfs/avfs/vfs/osfs"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/argustv-pvr/internal/log"
)

// Stream presents a timeshift buffer as one seekable, growing byte stream.
//
// A Stream is driven by a single consumer goroutine and is not safe for
// concurrent use. Every public operation refreshes the segment table from the
// descriptor first; when the counters are unchanged that is one small read.
type Stream struct {
	vfs    avfs.VFS
	path   string
	opts   Options
	logger zerolog.Logger

	// open stays set while the descriptor handle is being replaced; a lost
	// handle is reopened by the next refresh.
	open       bool
	descriptor avfs.File
	segments   segmentTable
	current    *segmentFile

	filesAdded   int32
	filesRemoved int32

	startPosition   int64
	endPosition     int64
	readPosition    int64
	lastZapPosition int64
}

// New prepares a Stream for the descriptor at path. A nil vfs reads the host
// filesystem.
func New(vfs avfs.VFS, path string, opts Options) *Stream {
	if vfs == nil {
		vfs = osfs.New()
	}
	return &Stream{
		vfs:    vfs,
		path:   path,
		opts:   normalizeOptions(opts),
		logger: xglog.WithComponent("tsbuffer").With().Str(xglog.FieldPath, path).Logger(),
	}
}

// Open waits for the descriptor to exist and parse. The wait is bounded by
// OpenStatRetries and OpenTimeout; ctx cancels it early.
func (s *Stream) Open(ctx context.Context) error {
	if s.open {
		s.logger.Debug().Str(xglog.FieldEvent, "tsbuffer.already_open").Msg("buffer file already open")
		return nil
	}

	size, err := s.waitForDescriptor(ctx)
	if err != nil {
		return err
	}
	s.logger.Debug().Int64("size", size).Msg("buffer file present")

	f, err := s.vfs.Open(s.path)
	if err != nil {
		return newError(ErrNotYetAvailable, "open", s.path, err)
	}
	s.descriptor = f

	err = s.refresh()
	if err != nil {
		deadline := time.Now().Add(s.opts.OpenTimeout)
		for err != nil {
			if errors.Is(err, ErrMalformedDescriptor) {
				_ = s.Close()
				return err
			}
			if sleepErr := sleepWithContext(ctx, s.opts.OpenPollInterval); sleepErr != nil {
				_ = s.Close()
				return sleepErr
			}
			if !time.Now().Before(deadline) {
				s.logger.Error().
					Err(err).
					Str(xglog.FieldEvent, "tsbuffer.open_timeout").
					Dur("timeout", s.opts.OpenTimeout).
					Msg("timed out while waiting for buffer file to become available")
				_ = s.Close()
				return newError(ErrBufferUnavailable, "open", s.path, err)
			}
			err = s.refresh()
		}
	}

	s.open = true
	s.readPosition = 0
	s.logger.Info().
		Str(xglog.FieldEvent, "tsbuffer.opened").
		Int("segments", len(s.segments)).
		Int64(xglog.FieldStartPosition, s.startPosition).
		Int64(xglog.FieldEndPosition, s.endPosition).
		Msg("timeshift buffer opened")
	return nil
}

// waitForDescriptor covers the recorder's file creation race: the descriptor
// may be missing or empty for a short while after tuning.
func (s *Stream) waitForDescriptor(ctx context.Context) (int64, error) {
	var (
		size    int64
		statErr error
	)
	for attempt := 0; ; attempt++ {
		info, err := s.vfs.Stat(s.path)
		statErr = err
		if err == nil {
			size = info.Size()
			if size > 0 {
				return size, nil
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return 0, newError(ErrNotYetAvailable, "stat", s.path, err)
		}
		if attempt >= s.opts.OpenStatRetries {
			break
		}
		s.logger.Debug().
			Int(xglog.FieldAttempt, attempt+1).
			Msg("buffer file missing or empty, waiting")
		if err := sleepWithContext(ctx, s.opts.OpenStatRetryDelay); err != nil {
			return 0, err
		}
	}
	if statErr != nil {
		return 0, newError(ErrBufferUnavailable, "open", s.path,
			newError(ErrNotYetAvailable, "stat", s.path, statErr))
	}
	// Still empty: let the refresh loop in Open decide.
	return size, nil
}

// Close releases every handle and resets the stream. It is safe in any state.
func (s *Stream) Close() error {
	var errs []error
	if err := s.current.close(); err != nil {
		errs = append(errs, err)
	}
	s.current = nil
	s.open = false
	if s.descriptor != nil {
		if err := s.descriptor.Close(); err != nil {
			errs = append(errs, err)
		}
		s.descriptor = nil
	}
	s.segments = nil
	s.filesAdded, s.filesRemoved = 0, 0
	s.startPosition, s.endPosition, s.readPosition, s.lastZapPosition = 0, 0, 0, 0
	return errors.Join(errs...)
}

// Read copies bytes from the read cursor into p, crossing segment boundaries
// as needed. Zero bytes with a nil error means no data is available yet at
// the cursor; it is not end of stream.
func (s *Stream) Read(p []byte) (int, error) {
	if !s.open {
		return 0, ErrClosed
	}
	if err := s.refresh(); err != nil && !errors.Is(err, ErrNotYetAvailable) {
		return 0, err
	}

	if s.readPosition < s.startPosition {
		s.logger.Debug().
			Int64(xglog.FieldReadPosition, s.readPosition).
			Int64(xglog.FieldStartPosition, s.startPosition).
			Msg("read position fell out of the buffer, advancing")
		s.readPosition = s.startPosition
	}

	total := 0
	for total < len(p) {
		idx, ok := s.segments.find(s.readPosition)
		if !ok {
			break
		}
		seg := s.segments[idx]

		sf, err := s.segmentFor(seg)
		if err != nil {
			if total > 0 {
				break
			}
			return 0, err
		}

		offset := s.readPosition - seg.StartPosition
		if err := sf.seek(offset); err != nil {
			s.dropCurrent()
			if total > 0 {
				break
			}
			return 0, err
		}

		want := int64(len(p) - total)
		if avail := seg.Length - offset; want > avail {
			want = avail
		}

		n, err := sf.read(p[total : total+int(want)])
		total += n
		s.readPosition += int64(n)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				onDisk, _ := sf.length()
				s.logger.Debug().
					Str(xglog.FieldSegment, seg.Filename).
					Int64("known_length", seg.Length).
					Int64("on_disk", onDisk).
					Msg("segment shorter than announced, returning partial read")
				break
			}
			s.dropCurrent()
			if total > 0 {
				break
			}
			return 0, newError(ErrSegmentUnreachable, "read", seg.Filename, err)
		}
	}

	bytesRead.Add(float64(total))
	return total, nil
}

// segmentFor returns the open handle for seg, switching files if needed.
func (s *Stream) segmentFor(seg Segment) (*segmentFile, error) {
	if s.current.matches(seg) {
		return s.current, nil
	}
	s.dropCurrent()

	sf, err := openSegment(s.vfs, seg)
	if err != nil {
		s.logger.Warn().Err(err).Str(xglog.FieldSegment, seg.Filename).Msg("cannot open segment")
		return nil, err
	}
	s.current = sf
	segmentSwitches.Inc()
	s.logger.Debug().
		Str(xglog.FieldSegment, seg.Filename).
		Int64("position_id", seg.PositionID).
		Msg("current segment changed")
	return sf, nil
}

func (s *Stream) dropCurrent() {
	if err := s.current.close(); err != nil {
		s.logger.Debug().Err(err).Msg("close segment")
	}
	s.current = nil
}

// Seek moves the read cursor. io.SeekStart is anchored at the start of the
// valid range, not at logical offset zero. The result is clamped into
// [start, end].
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	if !s.open {
		return 0, ErrClosed
	}
	if err := s.refresh(); err != nil && !errors.Is(err, ErrNotYetAvailable) {
		s.logger.Warn().Err(err).Msg("seeking on last known buffer state")
	}

	var pos int64
	switch whence {
	case io.SeekStart:
		pos = s.startPosition + offset
	case io.SeekCurrent:
		pos = s.readPosition + offset
	case io.SeekEnd:
		pos = s.endPosition + offset
	default:
		return s.readPosition, fmt.Errorf("tsbuffer: invalid whence %d", whence)
	}

	if pos < s.startPosition {
		pos = s.startPosition
	}
	if pos > s.endPosition {
		s.logger.Debug().
			Int64("requested", pos).
			Int64(xglog.FieldEndPosition, s.endPosition).
			Msg("seek beyond end position, clamping")
		pos = s.endPosition
	}
	s.readPosition = pos
	return pos, nil
}

// Tell returns the read cursor without refreshing.
func (s *Stream) Tell() int64 {
	return s.readPosition
}

// Size returns the length of the valid range. It grows while the recorder runs.
func (s *Stream) Size() int64 {
	if !s.open {
		return 0
	}
	if err := s.refresh(); err != nil && !errors.Is(err, ErrNotYetAvailable) {
		s.logger.Warn().Err(err).Msg("reporting size of last known buffer state")
	}
	return s.endPosition - s.startPosition
}

// Zap jumps to the live edge and makes it the new floor, so data recorded for
// a previous channel in the same buffer can no longer be reached.
func (s *Stream) Zap() error {
	if _, err := s.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	s.lastZapPosition = s.readPosition
	if s.startPosition < s.lastZapPosition {
		s.startPosition = s.lastZapPosition
	}
	s.logger.Debug().Int64("zap_position", s.lastZapPosition).Msg("zap floor set")
	return nil
}

// Segments returns a copy of the current segment table.
func (s *Stream) Segments() []Segment {
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// refresh re-reads the descriptor and brings the segment table up to date.
// ErrNotYetAvailable means the descriptor is too short to hold any file and
// the previous state was kept. A descriptor handle lost by an earlier failed
// reopen is opened again first.
func (s *Stream) refresh() error {
	if s.descriptor == nil {
		if err := s.reopenDescriptor(); err != nil {
			refreshTotal.WithLabelValues("error").Inc()
			return err
		}
	}

	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxDescriptorRetries; attempt++ {
		data, err := s.readDescriptor()
		if err == nil {
			var hdr header
			hdr, err = parseHeader(data)
			if err == nil && hdr.filesAdded == s.filesAdded && hdr.filesRemoved == s.filesRemoved {
				s.applyWritePosition(hdr.writePosition)
				refreshTotal.WithLabelValues("unchanged").Inc()
				return nil
			}
			if err == nil {
				var snap Snapshot
				snap, err = parseDescriptor(data, s.opts.MaxFileListBytes)
				if err == nil {
					return s.apply(snap)
				}
			}
		}

		switch {
		case errors.Is(err, ErrNotYetAvailable):
			refreshTotal.WithLabelValues("not_ready").Inc()
			return err
		case errors.Is(err, ErrMalformedDescriptor):
			refreshTotal.WithLabelValues("malformed").Inc()
			s.logger.Error().Err(err).Str(xglog.FieldEvent, "tsbuffer.malformed").Msg("descriptor rejected")
			return newError(ErrMalformedDescriptor, "refresh", s.path, err)
		}

		lastErr = err
		integrityRetries.Inc()
		s.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "tsbuffer.integrity_retry").
			Int(xglog.FieldAttempt, attempt).
			Msg("descriptor integrity check failed, re-opening to clear cached reads")

		if reopenErr := s.reopenDescriptor(); reopenErr != nil {
			refreshTotal.WithLabelValues("error").Inc()
			return reopenErr
		}
		if attempt < s.opts.MaxDescriptorRetries {
			time.Sleep(s.opts.RetryDelay)
		}
	}

	refreshTotal.WithLabelValues("torn").Inc()
	s.logger.Error().
		Err(lastErr).
		Str(xglog.FieldEvent, "tsbuffer.integrity_failed").
		Int("attempts", s.opts.MaxDescriptorRetries).
		Msg("descriptor integrity could not be established")
	return newError(ErrTornWrite, fmt.Sprintf("refresh after %d attempts", s.opts.MaxDescriptorRetries), s.path, lastErr)
}

// readDescriptor returns the whole current content of the descriptor.
func (s *Stream) readDescriptor() ([]byte, error) {
	info, err := s.descriptor.Stat()
	if err != nil {
		return nil, newError(ErrTornWrite, "stat", s.path, err)
	}
	size := info.Size()
	if size <= minDescriptorSize {
		return nil, newError(ErrNotYetAvailable, "read", s.path, fmt.Errorf("descriptor too short (%d bytes)", size))
	}
	if size > headerSize+footerSize+s.opts.MaxFileListBytes {
		return nil, newError(ErrMalformedDescriptor, "read", s.path, fmt.Errorf("descriptor size %d exceeds bound", size))
	}

	if _, err := s.descriptor.Seek(0, io.SeekStart); err != nil {
		return nil, newError(ErrTornWrite, "seek", s.path, err)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(s.descriptor, buf); err != nil {
		return nil, newError(ErrTornWrite, "read", s.path, err)
	}
	return buf, nil
}

// reopenDescriptor replaces the descriptor handle. On failure the stream
// keeps its segment table and stays open without a handle.
func (s *Stream) reopenDescriptor() error {
	if s.descriptor != nil {
		_ = s.descriptor.Close()
		s.descriptor = nil
	}
	f, err := s.vfs.Open(s.path)
	if err != nil {
		s.logger.Warn().Err(err).Str(xglog.FieldEvent, "tsbuffer.reopen_failed").Msg("cannot reopen descriptor")
		return newError(ErrTornWrite, "reopen", s.path, err)
	}
	s.descriptor = f
	return nil
}

// apply commits a validated snapshot whose counters changed.
func (s *Stream) apply(snap Snapshot) error {
	for i, name := range snap.FileNames {
		snap.FileNames[i] = SegmentPath(s.path, name)
	}

	res, err := reconcile(s.segments, s.filesAdded, s.filesRemoved, snap, fileLength(s.vfs))
	if err != nil {
		refreshTotal.WithLabelValues("segment_unreachable").Inc()
		s.logger.Warn().Err(err).Msg("segment table not updated")
		return err
	}

	if res.reset {
		s.logger.Warn().
			Int32(xglog.FieldFilesAdded, snap.FilesAdded).
			Int32(xglog.FieldFilesRemoved, snap.FilesRemoved).
			Msg("descriptor counters went backwards, rebuilding segment table")
		s.dropCurrent()
	}
	if res.missing {
		s.logger.Debug().Msg("descriptor lists fewer files than the segment table holds")
	}
	s.logger.Debug().
		Int("removed", res.removed).
		Int("added", res.added).
		Int32(xglog.FieldFilesAdded, snap.FilesAdded).
		Int32(xglog.FieldFilesRemoved, snap.FilesRemoved).
		Msg("segment table updated")

	s.segments = res.table
	s.filesAdded = snap.FilesAdded
	s.filesRemoved = snap.FilesRemoved

	if len(s.segments) == 0 {
		s.startPosition, s.endPosition = 0, 0
		refreshTotal.WithLabelValues("updated").Inc()
		return nil
	}

	// The recorder may recycle segment files, so the last segment's valid
	// length is the write position, not its size on disk.
	last := &s.segments[len(s.segments)-1]
	last.Length = snap.WritePosition
	s.endPosition = last.End()
	s.updateStart()
	refreshTotal.WithLabelValues("updated").Inc()
	return nil
}

// applyWritePosition handles the common case where only the tail grew.
func (s *Stream) applyWritePosition(pos int64) {
	if len(s.segments) == 0 {
		s.startPosition, s.endPosition = 0, 0
		return
	}
	last := &s.segments[len(s.segments)-1]
	if pos < last.Length {
		s.logger.Debug().
			Int64("write_position", pos).
			Int64("known_length", last.Length).
			Msg("write position moved backwards, keeping known length")
		pos = last.Length
	}
	last.Length = pos
	s.endPosition = last.End()
	s.updateStart()
}

func (s *Stream) updateStart() {
	s.startPosition = s.segments[0].StartPosition
	if s.lastZapPosition > s.startPosition {
		s.startPosition = s.lastZapPosition
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
