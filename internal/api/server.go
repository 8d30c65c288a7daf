// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes the live stream, recorded playback and a read-only view
// of the ARGUS TV server over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/argustv-pvr/internal/api/middleware"
	"github.com/ManuGH/argustv-pvr/internal/argustv"
)

// Upstream is the part of the ARGUS TV client the read-only endpoints use.
type Upstream interface {
	Ping(ctx context.Context, apiVersion int) (int, error)
	Channels(ctx context.Context, channelType argustv.ChannelType) ([]argustv.Channel, error)
	GuidePrograms(ctx context.Context, guideChannelID string, from, to time.Time) ([]argustv.GuideProgram, error)
	RecordingGroups(ctx context.Context) ([]argustv.RecordingGroup, error)
	RecordingsForTitle(ctx context.Context, title string) ([]argustv.Recording, error)
	UpcomingRecordings(ctx context.Context) ([]argustv.UpcomingRecording, error)
}

// LiveSession is the live TV stream the /live endpoint drives; *pvr.Session
// implements it.
type LiveSession interface {
	ID() string
	Open(ctx context.Context, ch argustv.Channel) error
	Read(ctx context.Context, p []byte) (int, error)
	Close(ctx context.Context) error
}

// Options configures a Server. Zero values take the defaults.
type Options struct {
	// Radio also resolves /live channel IDs among radio channels.
	Radio bool
	// RateLimit is requests per minute per client IP; 0 disables.
	RateLimit int
	// TracingService names the HTTP tracer; empty disables tracing.
	TracingService string
	// MaxLiveStalls ends a live response after that many consecutive reads
	// without data.
	MaxLiveStalls int
	// ChunkSize is the live read buffer, a multiple of the 188 byte TS packet.
	ChunkSize int
	// Recordings enables recorded playback and the resume point endpoints.
	Recordings RecordingLibrary
}

const (
	tsPacketSize         = 188
	defaultChunkSize     = tsPacketSize * 348
	defaultMaxLiveStalls = 10
	defaultGuideWindow   = 24 * time.Hour
)

// Server holds the HTTP surface.
type Server struct {
	upstream Upstream
	live     LiveSession
	opts     Options

	// liveSlot admits one live stream at a time; the server tunes a single
	// stream per client.
	liveSlot chan struct{}
	now      func() time.Time
}

// New creates a Server. live may be nil, which disables /live.
func New(upstream Upstream, live LiveSession, opts Options) *Server {
	if opts.MaxLiveStalls <= 0 {
		opts.MaxLiveStalls = defaultMaxLiveStalls
	}
	if opts.ChunkSize < tsPacketSize {
		opts.ChunkSize = defaultChunkSize
	}
	opts.ChunkSize -= opts.ChunkSize % tsPacketSize
	return &Server{
		upstream: upstream,
		live:     live,
		opts:     opts,
		liveSlot: make(chan struct{}, 1),
		now:      time.Now,
	}
}

// Handler returns the routed handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:  true,
		TracingService: s.opts.TracingService,
		EnableLogging:  true,
		RateLimit:      s.opts.RateLimit,
		// Probes and scrapers poll on their own schedule.
		RateLimitExempt: []string{"/healthz", "/metrics"},
	})

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/channels", s.handleChannels)
		r.Get("/guide/{guideChannelId}", s.handleGuide)
		r.Get("/recordings", s.handleRecordingGroups)
		r.Get("/recordings/{title}", s.handleRecordingsForTitle)
		r.Get("/upcoming", s.handleUpcoming)
		if s.opts.Recordings != nil {
			r.Get("/recording/{id}/position", s.handleGetPosition)
			r.Put("/recording/{id}/position", s.handleSetPosition)
			r.Put("/recording/{id}/playcount", s.handleSetPlayCount)
		}
	})

	if s.opts.Recordings != nil {
		r.Get("/recording/{id}", s.handleRecordingStream)
		r.Head("/recording/{id}", s.handleRecordingStream)
	}

	if s.live != nil {
		r.Get("/live/{channelId}", s.handleLive)
	}
	return r
}
