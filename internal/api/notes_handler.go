package api

import (
	"context"
	"net/http"

	"github.com/flowmatrix/roiportal/internal/apperr"
	"github.com/flowmatrix/roiportal/internal/auth"
	"github.com/flowmatrix/roiportal/internal/note"
	"github.com/flowmatrix/roiportal/internal/policy"
	"github.com/flowmatrix/roiportal/internal/validate"
)

type notesHandler struct {
	guard    *policy.Guard
	notes    NoteStore
	projects ProjectStore
}

func newNotesHandler(guard *policy.Guard, notes NoteStore, projects ProjectStore) *notesHandler {
	return &notesHandler{guard: guard, notes: notes, projects: projects}
}

// noteTypeFor is the only note type role may author.
func noteTypeFor(role auth.Role) string {
	if role == auth.RoleEmployee {
		return note.TypeFlowmatrixAI
	}
	return note.TypeClient
}

// ownNote restricts client callers to client notes they wrote.
func ownNote(n *note.Note) policy.SelfCheck {
	return func(_ context.Context, u *auth.User) error {
		if n.NoteType != note.TypeClient {
			return apperr.Forbidden("Clients can only edit client notes")
		}
		if n.AuthorID != u.ID {
			return apperr.Forbidden("You can only modify your own notes")
		}
		return nil
	}
}

// List handles GET /api/v1/notes?project_id=.
func (h *notesHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if err := validate.UUID("project_id", projectID).Err(); err != nil {
		writeAppError(w, r, err)
		return
	}

	if _, err := h.guard.Authorize(r.Context(), policy.Rule{
		Action: "note.list",
		Owner:  projectOwner(h.projects, projectID),
	}); err != nil {
		writeAppError(w, r, err)
		return
	}

	notes, err := h.notes.ListByProject(r.Context(), projectID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if notes == nil {
		notes = []*note.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}

// Create handles POST /api/v1/notes. The note type must match the caller's
// role and the author is always the caller.
func (h *notesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in note.CreateNoteInput
	if err := readJSON(r, &in); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := validate.NoteCreate(&in).Err(); err != nil {
		writeAppError(w, r, err)
		return
	}

	u, err := h.guard.Authorize(r.Context(), policy.Rule{
		Action: "note.create",
		Owner:  projectOwner(h.projects, in.ProjectID),
		Check: func(ctx context.Context, u *auth.User) error {
			if in.NoteType != noteTypeFor(u.Role) {
				if u.IsClient() {
					return apperr.Forbidden("Clients can only create client notes")
				}
				return apperr.Forbidden("Employees can only create FlowMatrix AI notes")
			}
			if u.IsEmployee() {
				_, err := h.projects.ClientIDOf(ctx, in.ProjectID)
				return err
			}
			return nil
		},
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	n, err := h.notes.Create(r.Context(), u.ID, in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	auditLog(r, "note.create", "note", n.ID, "project_id", n.ProjectID, "note_type", n.NoteType)
	writeJSON(w, http.StatusCreated, n)
}

// Update handles PATCH /api/v1/notes. Clients may edit the content of their
// own client notes; only employees change the read state.
func (h *notesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in note.UpdateNoteInput
	if err := readJSON(r, &in); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := validate.NoteUpdate(&in).Err(); err != nil {
		writeAppError(w, r, err)
		return
	}

	existing, err := h.notes.GetByID(r.Context(), in.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	if _, err := h.guard.Authorize(r.Context(), policy.Rule{
		Action:   "note.update",
		Owner:    projectOwner(h.projects, existing.ProjectID),
		SelfOnly: ownNote(existing),
		Check: func(_ context.Context, u *auth.User) error {
			if in.IsRead != nil && !u.IsEmployee() {
				return apperr.Forbidden("Only employees can change the read status of a note")
			}
			return nil
		},
	}); err != nil {
		writeAppError(w, r, err)
		return
	}

	n, err := h.notes.Update(r.Context(), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	auditLog(r, "note.update", "note", n.ID)
	writeJSON(w, http.StatusOK, n)
}

// Delete handles DELETE /api/v1/notes?id=.
func (h *notesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if err := validate.UUID("id", id).Err(); err != nil {
		writeAppError(w, r, err)
		return
	}

	existing, err := h.notes.GetByID(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	if _, err := h.guard.Authorize(r.Context(), policy.Rule{
		Action:   "note.delete",
		Owner:    projectOwner(h.projects, existing.ProjectID),
		SelfOnly: ownNote(existing),
	}); err != nil {
		writeAppError(w, r, err)
		return
	}

	if err := h.notes.Delete(r.Context(), id); err != nil {
		writeAppError(w, r, err)
		return
	}

	auditLog(r, "note.delete", "note", id)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
