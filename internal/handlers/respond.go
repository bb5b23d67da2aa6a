// Package handlers adapts the report services to net/http. Every Cloud
// Function binary and the local dashboard server mount these handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lllllllleong/workorderflow/internal/gcp"
	"github.com/Lllllllleong/workorderflow/internal/models"
	"github.com/Lllllllleong/workorderflow/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response.", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

// statusFor maps a service error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrPathRequired):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrPathForbidden), errors.Is(err, models.ErrNoEmployee):
		return http.StatusForbidden
	case errors.Is(err, gcp.ErrRecordNotFound), errors.Is(err, gcp.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrRecordMissing):
		// The record store failed for a reason other than a missing key.
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrRefreshInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}
