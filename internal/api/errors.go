package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/flowmatrix/roiportal/internal/apperr"
	"github.com/flowmatrix/roiportal/internal/store"
)

// defaultMaxBodySize caps request bodies when the router is not configured.
const defaultMaxBodySize = 1 << 20

// errorEnvelope is the standard error response shape.
type errorEnvelope struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// writeError writes a JSON error response with the given status code.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorEnvelope{Error: message, Code: code})
}

// writeAppError is the single place errors become responses. Store errors
// are mapped first; unexpected errors are logged with the request id and
// answered with a generic message.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.As(store.MapError(err))
	if ae.Kind == apperr.KindUnexpected {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
	}
	writeJSON(w, ae.StatusCode(), errorEnvelope{
		Error:   ae.Message,
		Code:    ae.Kind.String(),
		Details: ae.Details,
	})
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// readJSON decodes the request body into v. Bodies are already size-limited
// by the router; an empty, oversized or malformed body is a validation error.
func readJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return apperr.Validation("request body too large", nil)
	case errors.Is(err, io.EOF):
		return apperr.Validation("request body is required", nil)
	default:
		return apperr.Validation("failed to parse request body", nil)
	}
}
