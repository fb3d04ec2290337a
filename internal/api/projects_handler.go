package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flowmatrix/roiportal/internal/auth"
	"github.com/flowmatrix/roiportal/internal/policy"
	"github.com/flowmatrix/roiportal/internal/project"
	"github.com/flowmatrix/roiportal/internal/validate"
)

type projectsHandler struct {
	guard    *policy.Guard
	projects ProjectStore
	views    Dashboards
}

func newProjectsHandler(guard *policy.Guard, projects ProjectStore, views Dashboards) *projectsHandler {
	return &projectsHandler{guard: guard, projects: projects, views: views}
}

// projectOwner resolves the client owning project id.
func projectOwner(projects ProjectStore, id string) policy.OwnerResolver {
	return func(ctx context.Context) (string, error) {
		return projects.ClientIDOf(ctx, id)
	}
}

// Get handles GET /api/v1/projects/{id}.
func (h *projectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := validate.UUID("id", id).Err(); err != nil {
		writeAppError(w, r, err)
		return
	}

	if _, err := h.guard.Authorize(r.Context(), policy.Rule{
		Action: "project.read",
		Owner:  projectOwner(h.projects, id),
	}); err != nil {
		writeAppError(w, r, err)
		return
	}

	view, err := h.views.Project(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Update handles PATCH /api/v1/projects/{id}.
func (h *projectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := validate.UUID("id", id).Err(); err != nil {
		writeAppError(w, r, err)
		return
	}

	var in project.UpdateProjectInput
	if err := readJSON(r, &in); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := validate.ProjectUpdate(&in).Err(); err != nil {
		writeAppError(w, r, err)
		return
	}

	if _, err := h.guard.Authorize(r.Context(), policy.Rule{
		Action:       "project.update",
		RequiredRole: auth.RoleEmployee,
		Owner:        projectOwner(h.projects, id),
	}); err != nil {
		writeAppError(w, r, err)
		return
	}

	p, err := h.projects.Update(r.Context(), id, in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	auditLog(r, "project.update", "project", p.ID, "status", p.Status)
	writeJSON(w, http.StatusOK, p)
}
