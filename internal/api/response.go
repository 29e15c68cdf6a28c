package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hassanidea/Subscription-Status-Viewer/internal/billing"
)

// envelope is the standard JSON response structure. Exactly one of Data and
// Error is set.
type envelope struct {
	Data  any          `json:"data,omitempty"`
	Error *errorDetail `json:"error,omitempty"`
}

// errorDetail contains error information for clients.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Data: data})
}

// writeError maps the billing error taxonomy to HTTP status codes. Upstream
// and storage failures keep their detail in logs only; clients get a stable
// code and a short human-readable message.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status := http.StatusInternalServerError
	detail := errorDetail{Code: "internal_error", Message: "internal server error"}

	switch {
	case errors.Is(err, billing.ErrInvalidArgument):
		status = http.StatusBadRequest
		detail = errorDetail{Code: "invalid_argument", Message: err.Error()}
	case errors.Is(err, billing.ErrNoCustomer):
		status = http.StatusNotFound
		detail = errorDetail{Code: "no_customer", Message: "no billing customer for user"}
	case errors.Is(err, billing.ErrUpstreamProvider):
		status = http.StatusBadGateway
		detail = errorDetail{Code: "upstream_provider", Message: "billing provider error"}
	case errors.Is(err, billing.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
		detail = errorDetail{Code: "storage_unavailable", Message: "storage unavailable"}
	}

	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Any("error", err))
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: &detail})
}
