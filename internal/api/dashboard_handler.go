package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flowmatrix/roiportal/internal/auth"
	"github.com/flowmatrix/roiportal/internal/policy"
	"github.com/flowmatrix/roiportal/internal/roi"
	"github.com/flowmatrix/roiportal/internal/validate"
)

type dashboardHandler struct {
	guard *policy.Guard
	views Dashboards
}

func newDashboardHandler(guard *policy.Guard, views Dashboards) *dashboardHandler {
	return &dashboardHandler{guard: guard, views: views}
}

// Client handles GET /api/v1/dashboard/client?range=. A client user without
// a company link gets a view flagged setup_incomplete.
func (h *dashboardHandler) Client(w http.ResponseWriter, r *http.Request) {
	u, err := h.guard.Authorize(r.Context(), policy.Rule{
		Action:       "dashboard.client",
		RequiredRole: auth.RoleClient,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	clientID, err := h.guard.ClientIDFor(r.Context(), u)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	view, err := h.views.Client(r.Context(), clientID, roi.ParseRange(r.URL.Query().Get("range")))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Employee handles GET /api/v1/dashboard/employee.
func (h *dashboardHandler) Employee(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), policy.Rule{
		Action:       "dashboard.employee",
		RequiredRole: auth.RoleEmployee,
	}); err != nil {
		writeAppError(w, r, err)
		return
	}

	view, err := h.views.Employee(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ClientDetail handles GET /api/v1/dashboard/employee/clients/{id}.
func (h *dashboardHandler) ClientDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := validate.UUID("id", id).Err(); err != nil {
		writeAppError(w, r, err)
		return
	}

	if _, err := h.guard.Authorize(r.Context(), policy.Rule{
		Action:       "dashboard.client_detail",
		RequiredRole: auth.RoleEmployee,
	}); err != nil {
		writeAppError(w, r, err)
		return
	}

	view, err := h.views.ClientDetail(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Demo handles GET /api/v1/demo/dashboard. It needs no session.
func (h *dashboardHandler) Demo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.views.Demo(roi.ParseRange(r.URL.Query().Get("range"))))
}
