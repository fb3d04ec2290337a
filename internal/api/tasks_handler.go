package api

import (
	"context"
	"net/http"
	"time"

	"github.com/flowmatrix/roiportal/internal/auth"
	"github.com/flowmatrix/roiportal/internal/policy"
	"github.com/flowmatrix/roiportal/internal/project"
	"github.com/flowmatrix/roiportal/internal/store"
	"github.com/flowmatrix/roiportal/internal/task"
	"github.com/flowmatrix/roiportal/internal/validate"
)

type tasksHandler struct {
	guard    *policy.Guard
	tasks    TaskStore
	projects ProjectStore
	now      func() time.Time
}

func newTasksHandler(guard *policy.Guard, tasks TaskStore, projects ProjectStore) *tasksHandler {
	return &tasksHandler{guard: guard, tasks: tasks, projects: projects, now: time.Now}
}

// Create handles POST /api/v1/tasks.
func (h *tasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in task.CreateTaskInput
	if err := readJSON(r, &in); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := validate.TaskCreate(&in).Err(); err != nil {
		writeAppError(w, r, err)
		return
	}

	// The project must exist; a dangling id answers 404 rather than a
	// foreign-key failure.
	if _, err := h.guard.Authorize(r.Context(), policy.Rule{
		Action:       "task.create",
		RequiredRole: auth.RoleEmployee,
		Check: func(ctx context.Context, _ *auth.User) error {
			_, err := h.projects.ClientIDOf(ctx, in.ProjectID)
			return err
		},
	}); err != nil {
		writeAppError(w, r, err)
		return
	}

	var due *time.Time
	if in.DueDate != nil && *in.DueDate != "" {
		parsed, err := project.ParseDate(store.Some(*in.DueDate))
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		due = parsed
	}

	t, err := h.tasks.Create(r.Context(), in.ProjectID, in.Description, due)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	auditLog(r, "task.create", "task", t.ID, "project_id", t.ProjectID)
	writeJSON(w, http.StatusCreated, t)
}

// Toggle handles PATCH /api/v1/tasks. Setting a task to the state it is
// already in returns it unchanged without a write.
func (h *tasksHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var in task.ToggleTaskInput
	if err := readJSON(r, &in); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := validate.TaskToggle(&in).Err(); err != nil {
		writeAppError(w, r, err)
		return
	}

	if _, err := h.guard.Authorize(r.Context(), policy.Rule{
		Action:       "task.toggle",
		RequiredRole: auth.RoleEmployee,
	}); err != nil {
		writeAppError(w, r, err)
		return
	}

	current, err := h.tasks.GetByID(r.Context(), in.ID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if current.IsCompleted == *in.IsCompleted {
		writeJSON(w, http.StatusOK, current)
		return
	}

	t, err := h.tasks.SetCompleted(r.Context(), in.ID, *in.IsCompleted, h.now())
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	auditLog(r, "task.toggle", "task", t.ID, "is_completed", t.IsCompleted)
	writeJSON(w, http.StatusOK, t)
}

// Delete handles DELETE /api/v1/tasks?id=.
func (h *tasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if err := validate.UUID("id", id).Err(); err != nil {
		writeAppError(w, r, err)
		return
	}

	if _, err := h.guard.Authorize(r.Context(), policy.Rule{
		Action:       "task.delete",
		RequiredRole: auth.RoleEmployee,
	}); err != nil {
		writeAppError(w, r, err)
		return
	}

	if _, err := h.tasks.GetByID(r.Context(), id); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := h.tasks.Delete(r.Context(), id); err != nil {
		writeAppError(w, r, err)
		return
	}

	auditLog(r, "task.delete", "task", id)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Task deleted successfully"})
}
