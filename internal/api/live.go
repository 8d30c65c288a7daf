// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/argustv-pvr/internal/argustv"
	xglog "github.com/ManuGH/argustv-pvr/internal/log"
)

var errChannelNotFound = errors.New("channel not found")

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channelID := chi.URLParam(r, "channelId")
	log := logger(ctx, "live").With().Str(xglog.FieldChannelID, channelID).Logger()

	select {
	case s.liveSlot <- struct{}{}:
		defer func() { <-s.liveSlot }()
	default:
		liveBusyRejected.Inc()
		writeJSON(w, http.StatusConflict, map[string]string{"error": "another live stream is active"})
		return
	}

	ch, err := s.findChannel(ctx, channelID)
	if errors.Is(err, errChannelNotFound) {
		writeNotFound(w, err.Error())
		return
	}
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}

	if err := s.live.Open(ctx, ch); err != nil {
		recordLiveEnd("open_failed")
		writeUpstreamError(w, r, err)
		return
	}
	ctx = xglog.ContextWithSessionID(ctx, s.live.ID())
	log = logger(ctx, "live").With().Str(xglog.FieldChannelID, channelID).Logger()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.live.Close(closeCtx); err != nil {
			log.Warn().Err(err).Str(xglog.FieldEvent, "live.close_failed").Msg("closing live stream failed")
		}
	}()

	w.Header().Set("Content-Type", "video/mp2t")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Session-ID", s.live.ID())
	w.WriteHeader(http.StatusOK)

	reason, written := s.pump(ctx, w)
	recordLiveEnd(reason)
	log.Info().
		Str(xglog.FieldEvent, "live.ended").
		Str("reason", reason).
		Int64("bytes", written).
		Msg("live stream ended")
}

// pump copies the live buffer to w until the client goes away, the buffer
// stops growing or a read fails.
func (s *Server) pump(ctx context.Context, w http.ResponseWriter) (string, int64) {
	rc := http.NewResponseController(w)
	buf := make([]byte, s.opts.ChunkSize)
	var written int64
	stalls := 0
	for {
		n, err := s.live.Read(ctx, buf)
		if n > 0 {
			stalls = 0
			if _, werr := w.Write(buf[:n]); werr != nil {
				return "client_gone", written
			}
			written += int64(n)
			liveBytesStreamed.Add(float64(n))
			if ferr := rc.Flush(); ferr != nil && !errors.Is(ferr, http.ErrNotSupported) {
				return "client_gone", written
			}
		}
		switch {
		case ctx.Err() != nil:
			return "client_gone", written
		case err != nil:
			logger(ctx, "live").Error().Err(err).Str(xglog.FieldEvent, "live.read_failed").Msg("live read failed")
			return "read_error", written
		case n == 0:
			stalls++
			if stalls >= s.opts.MaxLiveStalls {
				return "stalled", written
			}
		}
	}
}

// findChannel resolves a channel ID against television and, when enabled,
// radio channels. ARGUS TV IDs are GUIDs, compared case-insensitively.
func (s *Server) findChannel(ctx context.Context, id string) (argustv.Channel, error) {
	types := []argustv.ChannelType{argustv.Television}
	if s.opts.Radio {
		types = append(types, argustv.Radio)
	}
	for _, t := range types {
		channels, err := s.upstream.Channels(ctx, t)
		if err != nil {
			return argustv.Channel{}, fmt.Errorf("list %s channels: %w", t, err)
		}
		for _, ch := range channels {
			if strings.EqualFold(ch.ChannelID, id) {
				return ch, nil
			}
		}
	}
	return argustv.Channel{}, fmt.Errorf("%w: %s", errChannelNotFound, id)
}
