// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	xglog "github.com/ManuGH/argustv-pvr/internal/log"
	"github.com/ManuGH/argustv-pvr/internal/pvr"
)

// RecordingLibrary plays recordings and keeps their playback state;
// *pvr.Recordings implements it.
type RecordingLibrary interface {
	Open(ctx context.Context, id string) (*pvr.RecordedStream, error)
	LastPlayedPosition(ctx context.Context, id string) (int, error)
	SetLastPlayedPosition(ctx context.Context, id string, seconds int) error
	SetPlayCount(ctx context.Context, id string, count int) error
}

type positionBody struct {
	Seconds int `json:"seconds"`
}

type playCountBody struct {
	Count int `json:"count"`
}

// handleRecordingStream serves a recording with Range and HEAD support.
func (s *Server) handleRecordingStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	rs, err := s.opts.Recordings.Open(ctx, id)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	defer func() {
		if err := rs.Close(); err != nil {
			logger(ctx, "recording").Warn().Err(err).Str(xglog.FieldEvent, "recording.close_failed").Msg("closing recording failed")
		}
	}()

	w.Header().Set("Content-Type", "video/mp2t")
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, "", time.Time{}, rs)
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	seconds, err := s.opts.Recordings.LastPlayedPosition(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, positionBody{Seconds: seconds})
}

func (s *Server) handleSetPosition(w http.ResponseWriter, r *http.Request) {
	var body positionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid body: "+err.Error())
		return
	}
	if body.Seconds < 0 {
		writeBadRequest(w, "seconds must not be negative")
		return
	}
	if err := s.opts.Recordings.SetLastPlayedPosition(r.Context(), chi.URLParam(r, "id"), body.Seconds); err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetPlayCount(w http.ResponseWriter, r *http.Request) {
	var body playCountBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid body: "+err.Error())
		return
	}
	if body.Count < 0 {
		writeBadRequest(w, "count must not be negative")
		return
	}
	if err := s.opts.Recordings.SetPlayCount(r.Context(), chi.URLParam(r, "id"), body.Count); err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
