package api

import (
	"net/http"

	"github.com/flowmatrix/roiportal/internal/auth"
	"github.com/flowmatrix/roiportal/internal/policy"
	"github.com/flowmatrix/roiportal/internal/validate"
)

type employeesHandler struct {
	guard   *policy.Guard
	invites Invitations
	obs     AccountObserver
}

func newEmployeesHandler(guard *policy.Guard, invites Invitations, obs AccountObserver) *employeesHandler {
	return &employeesHandler{guard: guard, invites: invites, obs: obs}
}

// Invite handles POST /api/v1/employees/invite.
func (h *employeesHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req validate.InviteRequest
	if err := readJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := validate.EmployeeInvite(&req).Err(); err != nil {
		writeAppError(w, r, err)
		return
	}

	u, err := h.guard.Authorize(r.Context(), policy.Rule{
		Action:       "employee.invite",
		RequiredRole: auth.RoleEmployee,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	res, err := h.invites.Invite(r.Context(), req.Email, u.ID)
	if h.obs != nil {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		h.obs.IncAccountEvent("invite", outcome)
	}
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	auditLog(r, "employee.invite", "user", res.UserID, "mode", res.Mode)
	writeJSON(w, http.StatusOK, res)
}
