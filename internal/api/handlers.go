// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/argustv-pvr/internal/argustv"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rc, err := s.upstream.Ping(r.Context(), argustv.APIVersion)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	switch {
	case rc < 0:
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "incompatible", "detail": "server requires a newer client", "ping": rc})
	case rc > 0:
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "incompatible", "detail": "server is too old", "ping": rc})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "apiVersion": argustv.APIVersion})
	}
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	var chType argustv.ChannelType
	switch strings.ToLower(r.URL.Query().Get("type")) {
	case "", "tv", "television":
		chType = argustv.Television
	case "radio":
		chType = argustv.Radio
	default:
		writeBadRequest(w, "type must be tv or radio")
		return
	}
	channels, err := s.upstream.Channels(r.Context(), chType)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, channels)
}

func (s *Server) handleGuide(w http.ResponseWriter, r *http.Request) {
	from := s.now()
	to := from.Add(defaultGuideWindow)
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "from must be RFC 3339")
			return
		}
		from = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "to must be RFC 3339")
			return
		}
		to = t
	}
	if !to.After(from) {
		writeBadRequest(w, "to must be after from")
		return
	}

	programs, err := s.upstream.GuidePrograms(r.Context(), chi.URLParam(r, "guideChannelId"), from, to)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, programs)
}

func (s *Server) handleRecordingGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.upstream.RecordingGroups(r.Context())
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleRecordingsForTitle(w http.ResponseWriter, r *http.Request) {
	recordings, err := s.upstream.RecordingsForTitle(r.Context(), chi.URLParam(r, "title"))
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordings)
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	upcoming, err := s.upstream.UpcomingRecordings(r.Context())
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, upcoming)
}
