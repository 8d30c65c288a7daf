// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package pvr drives live TV on an ARGUS TV server: it tunes a channel, maps
// the server's timeshift file to a local path and reads it through tsreader,
// keeps the stream alive and relays the server's service events.
package pvr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/avfs/avfs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/argustv-pvr/internal/argustv"
	xglog "github.com/ManuGH/argustv-pvr/internal/log"
	"github.com/ManuGH/argustv-pvr/internal/metrics"
	"github.com/ManuGH/argustv-pvr/internal/tsreader"
)

// ErrNotStreaming is returned by stream operations before Open succeeded.
var ErrNotStreaming = errors.New("pvr: no live stream open")

// LiveStreamer is the part of the ARGUS TV client a Session needs.
type LiveStreamer interface {
	KeepAliver
	TuneLiveStream(ctx context.Context, ch argustv.Channel) (argustv.LiveStream, error)
	StopLiveStream(ctx context.Context) error
}

const (
	defaultReadPoll     = 40 * time.Millisecond
	defaultMaxReadWaits = 25
)

// SessionOptions tunes a Session. Zero values take the defaults.
type SessionOptions struct {
	// TuneDelay is slept after the reader is open so the buffer can fill.
	TuneDelay time.Duration
	// KeepAliveInterval is the KeepLiveStreamAlive cadence.
	KeepAliveInterval time.Duration
	// ReadPoll is the pause between reads while waiting for the writer.
	ReadPoll time.Duration
	// MaxReadWaits bounds the pauses of a single Read.
	MaxReadWaits int
	Reader       tsreader.Options
}

func (o SessionOptions) normalize() SessionOptions {
	if o.TuneDelay < 0 {
		o.TuneDelay = 0
	}
	if o.KeepAliveInterval <= 0 {
		o.KeepAliveInterval = 10 * time.Second
	}
	if o.ReadPoll <= 0 {
		o.ReadPoll = defaultReadPoll
	}
	if o.MaxReadWaits <= 0 {
		o.MaxReadWaits = defaultMaxReadWaits
	}
	return o
}

// Session is one live TV stream: at most one tuned channel at a time.
type Session struct {
	mu     sync.Mutex
	client LiveStreamer
	vfs    avfs.VFS
	paths  *PathMapper
	opts   SessionOptions
	logger zerolog.Logger
	id     string

	channelID     string
	timeshiftFile string
	reader        *tsreader.Reader
	keepAlive     *KeepAlive
	tuned         bool

	sleep func(ctx context.Context, d time.Duration) error
}

// NewSession creates an idle session. A nil vfs reads the host filesystem.
func NewSession(client LiveStreamer, vfs avfs.VFS, paths *PathMapper, opts SessionOptions) *Session {
	id := uuid.NewString()
	return &Session{
		client: client,
		vfs:    vfs,
		paths:  paths,
		opts:   opts.normalize(),
		id:     id,
		logger: xglog.WithComponent("pvr").With().Str(xglog.FieldSessionID, id).Logger(),
		sleep:  sleepWithContext,
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// ChannelID returns the channel currently streaming, or "".
func (s *Session) ChannelID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelID
}

// TimeshiftFile returns the local path being read, or "".
func (s *Session) TimeshiftFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeshiftFile
}

// Open tunes ch and opens its timeshift buffer positioned at the live edge.
// Re-opening the channel that is already streaming is a no-op.
func (s *Session) Open(ctx context.Context, ch argustv.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.logger.With().Str(xglog.FieldChannelID, ch.ChannelID).Logger()
	if s.reader != nil && s.channelID == ch.ChannelID {
		logger.Info().Str(xglog.FieldEvent, "pvr.retune_skipped").Msg("channel already streaming, skipping re-tune")
		return nil
	}

	start := time.Now()
	err := s.open(ctx, ch, logger)
	metrics.ObserveLiveTune(err == nil, time.Since(start))
	metrics.IncLiveStart(err == nil, failureReason(err))
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "pvr.open_failed").Msg("could not open live stream")
		return err
	}
	logger.Info().
		Str(xglog.FieldEvent, "pvr.opened").
		Str(xglog.FieldPath, s.timeshiftFile).
		Int64(xglog.FieldDuration, time.Since(start).Milliseconds()).
		Msg("live stream opened")
	return nil
}

func (s *Session) open(ctx context.Context, ch argustv.Channel, logger zerolog.Logger) error {
	// Invalid until the new stream is fully open.
	s.channelID = ""

	ls, err := s.client.TuneLiveStream(ctx, ch)
	if argustv.IsLiveStreamResult(err, argustv.NoReTunePossible) {
		// The server cannot move the running stream; stop it and tune fresh.
		logger.Info().Str(xglog.FieldEvent, "pvr.retune").Msg("re-tune not possible, restarting live stream")
		_ = s.closeLocked(ctx)
		ls, err = s.client.TuneLiveStream(ctx, ch)
	}
	if err != nil {
		_ = s.closeLocked(ctx)
		return fmt.Errorf("tune %s: %w", ch.ChannelID, err)
	}
	s.tuned = true

	if s.keepAlive == nil {
		s.keepAlive = StartKeepAlive(s.client, s.opts.KeepAliveInterval, s.logger)
	}

	local, err := s.paths.Resolve(ls.TimeshiftFile)
	if err != nil {
		_ = s.closeLocked(ctx)
		return fmt.Errorf("timeshift file for %s: %w", ch.ChannelID, err)
	}

	if s.reader != nil {
		logger.Debug().Str(xglog.FieldEvent, "pvr.reader_replaced").Msg("closing previous reader")
		_ = s.reader.Close()
		s.reader = nil
		metrics.LiveSessionsActive.Dec()
	}

	reader := tsreader.New(s.vfs, local, s.opts.Reader)
	if err := reader.Open(ctx); err != nil {
		_ = s.closeLocked(ctx)
		return fmt.Errorf("open %s: %w", local, err)
	}
	if err := reader.Zap(); err != nil {
		_ = reader.Close()
		_ = s.closeLocked(ctx)
		return fmt.Errorf("zap %s: %w", local, err)
	}
	s.reader = reader
	s.timeshiftFile = local
	metrics.LiveSessionsActive.Inc()

	if err := s.sleep(ctx, s.opts.TuneDelay); err != nil {
		_ = s.closeLocked(ctx)
		return err
	}
	s.channelID = ch.ChannelID
	return nil
}

// Read fills p from the live buffer. When the writer has not produced enough
// data yet it waits ReadPoll between attempts and returns what it has after
// MaxReadWaits pauses; a zero count then means no data arrived in that window.
func (s *Session) Read(ctx context.Context, p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader == nil {
		return 0, ErrNotStreaming
	}

	done := 0
	waits := 0
	for done < len(p) {
		n, err := s.reader.Read(p[done:])
		done += n
		if err != nil && !errors.Is(err, io.EOF) {
			return done, err
		}
		if done == len(p) {
			break
		}
		if waits >= s.opts.MaxReadWaits {
			metrics.LiveReadStalls.Inc()
			s.logger.Debug().
				Str(xglog.FieldEvent, "pvr.read_stalled").
				Int("requested", len(p)).
				Int("read", done).
				Msg("no data within the wait window")
			break
		}
		waits++
		if err := s.sleep(ctx, s.opts.ReadPoll); err != nil {
			return done, err
		}
	}
	return done, nil
}

// Seek moves the cursor within the buffer; see tsbuffer.Stream.Seek.
func (s *Session) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader == nil {
		return 0, ErrNotStreaming
	}
	return s.reader.Seek(offset, whence)
}

// Position returns the cursor.
func (s *Session) Position() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader == nil {
		return 0, ErrNotStreaming
	}
	return s.reader.Tell(), nil
}

// Length returns the readable length of the buffer.
func (s *Session) Length() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader == nil {
		return 0, ErrNotStreaming
	}
	return s.reader.Size(), nil
}

// Close stops the keep-alive, closes the reader and stops the server-side
// live stream.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked(ctx)
}

func (s *Session) closeLocked(ctx context.Context) error {
	s.keepAlive.Stop()
	s.keepAlive = nil

	var errs []error
	if s.reader != nil {
		if err := s.reader.Close(); err != nil {
			errs = append(errs, err)
		}
		s.reader = nil
		metrics.LiveSessionsActive.Dec()
	}
	if s.tuned {
		if err := s.client.StopLiveStream(ctx); err != nil && !errors.Is(err, argustv.ErrNoLiveStream) {
			errs = append(errs, fmt.Errorf("stop live stream: %w", err))
		}
		s.tuned = false
	}
	if s.channelID != "" || s.timeshiftFile != "" {
		s.logger.Info().Str(xglog.FieldEvent, "pvr.closed").Str(xglog.FieldChannelID, s.channelID).Msg("live stream closed")
	}
	s.channelID = ""
	s.timeshiftFile = ""
	return errors.Join(errs...)
}

func failureReason(err error) string {
	var lsErr *argustv.LiveStreamError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &lsErr):
		return strings.ReplaceAll(lsErr.Result.String(), " ", "_")
	case errors.Is(err, ErrUnsupportedPath):
		return "unsupported_path"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "error"
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
