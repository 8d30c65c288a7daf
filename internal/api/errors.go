// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/ManuGH/argustv-pvr/internal/argustv"
	"github.com/ManuGH/argustv-pvr/internal/pvr"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeBadRequest writes a 400 with the given message
func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// writeNotFound writes a 404 Not Found response
func writeNotFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": msg})
}

// upstreamStatus maps client and session errors onto HTTP status codes.
func upstreamStatus(err error) int {
	var lsErr *argustv.LiveStreamError
	switch {
	case errors.Is(err, argustv.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &lsErr):
		return http.StatusServiceUnavailable
	case errors.Is(err, argustv.ErrCircuitOpen), errors.Is(err, argustv.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, argustv.ErrUpstreamError),
		errors.Is(err, argustv.ErrUpstreamBadResponse),
		errors.Is(err, argustv.ErrEmptyResponse):
		return http.StatusBadGateway
	case errors.Is(err, pvr.ErrUnsupportedPath):
		return http.StatusBadGateway
	case errors.Is(err, pvr.ErrNegativeValue):
		return http.StatusBadRequest
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// writeUpstreamError reports a failed ARGUS TV call. Client disconnects get no
// response.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		return
	}
	code := upstreamStatus(err)
	body := map[string]string{"error": err.Error()}
	var lsErr *argustv.LiveStreamError
	if errors.As(err, &lsErr) {
		body["result"] = lsErr.Result.String()
	}
	logger(r.Context(), "api").Warn().Err(err).Int("status", code).Str("path", r.URL.Path).Msg("upstream request failed")
	writeJSON(w, code, body)
}
