package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rowanh/notegraph/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeServiceError maps the error taxonomy to HTTP statuses: tenant-not-ready
// is retryable (503 with a hint), soft absence is 404, everything else is a
// wrapped 500.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrTenantNotReady):
		writeJSON(w, http.StatusServiceUnavailable, errResponse{
			Error:   "tenant database not ready",
			Details: "the graph database for this user is still provisioning; retry shortly",
		})
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errResponse{
			Error:   op + " failed",
			Details: err.Error(),
		})
	}
}
