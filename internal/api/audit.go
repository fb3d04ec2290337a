package api

import (
	"log/slog"
	"net/http"

	"github.com/flowmatrix/roiportal/internal/auth"
)

// auditLog emits a structured audit entry for a mutation.
func auditLog(r *http.Request, action string, resourceType string, resourceID string, detail ...any) {
	attrs := []any{
		"action", action,
		"resource_type", resourceType,
		"resource_id", resourceID,
		"ip", r.RemoteAddr,
		"request_id", RequestIDFromContext(r.Context()),
	}

	if u := auth.UserFromContext(r.Context()); u != nil {
		attrs = append(attrs, "user_id", u.ID, "user_role", string(u.Role))
	}

	attrs = append(attrs, detail...)
	slog.Info("audit", attrs...)
}
