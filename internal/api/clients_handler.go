package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flowmatrix/roiportal/internal/auth"
	"github.com/flowmatrix/roiportal/internal/client"
	"github.com/flowmatrix/roiportal/internal/policy"
	"github.com/flowmatrix/roiportal/internal/validate"
)

type clientsHandler struct {
	guard   *policy.Guard
	clients ClientStore
}

func newClientsHandler(guard *policy.Guard, clients ClientStore) *clientsHandler {
	return &clientsHandler{guard: guard, clients: clients}
}

// Update handles PATCH /api/v1/clients/{id}.
func (h *clientsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := validate.UUID("id", id).Err(); err != nil {
		writeAppError(w, r, err)
		return
	}

	var in client.UpdateClientInput
	if err := readJSON(r, &in); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := validate.ClientUpdate(&in).Err(); err != nil {
		writeAppError(w, r, err)
		return
	}

	if _, err := h.guard.Authorize(r.Context(), policy.Rule{
		Action:       "client.update",
		RequiredRole: auth.RoleEmployee,
	}); err != nil {
		writeAppError(w, r, err)
		return
	}

	c, err := h.clients.Update(r.Context(), id, in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	auditLog(r, "client.update", "client", c.ID)
	writeJSON(w, http.StatusOK, c)
}
