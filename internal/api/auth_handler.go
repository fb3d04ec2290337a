package api

import (
	"net/http"
	"time"

	"github.com/flowmatrix/roiportal/internal/account"
	"github.com/flowmatrix/roiportal/internal/auth"
	"github.com/flowmatrix/roiportal/internal/invite"
	"github.com/flowmatrix/roiportal/internal/policy"
	"github.com/flowmatrix/roiportal/internal/user"
	"github.com/flowmatrix/roiportal/internal/validate"
)

type authHandler struct {
	guard    *policy.Guard
	accounts Accounts
	invites  Invitations
	obs      AccountObserver
}

func newAuthHandler(guard *policy.Guard, accounts Accounts, invites Invitations, obs AccountObserver) *authHandler {
	return &authHandler{guard: guard, accounts: accounts, invites: invites, obs: obs}
}

func (h *authHandler) record(event string, err error) {
	if h.obs == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	h.obs.IncAccountEvent(event, outcome)
}

type loginResponse struct {
	User      *user.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Signup handles POST /api/v1/auth/signup.
func (h *authHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req validate.SignupRequest
	if err := readJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := validate.Signup(&req).Err(); err != nil {
		writeAppError(w, r, err)
		return
	}

	res, err := h.accounts.Signup(r.Context(), req)
	h.record("signup", err)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	auditLog(r, "user.signup", "user", res.User.ID, "client_id", res.Client.ID)
	writeJSON(w, http.StatusCreated, res)
}

// Login handles POST /api/v1/auth/login.
func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.accounts.Local() {
		writeAppError(w, r, account.ErrLocalOnly)
		return
	}

	var req validate.LoginRequest
	if err := readJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := validate.Login(&req).Err(); err != nil {
		writeAppError(w, r, err)
		return
	}

	u, sess, err := h.accounts.Login(r.Context(), req)
	h.record("login", err)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{User: u, Token: sess.Token, ExpiresAt: sess.ExpiresAt})
}

// Logout handles POST /api/v1/auth/logout.
func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Logout(r.Context(), auth.ExtractBearerToken(r)); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type meResponse struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Role     auth.Role `json:"role"`
	ClientID *string   `json:"client_id"`
}

// Me handles GET /api/v1/auth/me.
func (h *authHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.guard.Authorize(r.Context(), policy.Rule{Action: "auth.me"})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	resp := meResponse{ID: u.ID, Email: u.Email, Role: u.Role}
	if u.IsClient() {
		clientID, err := h.guard.ClientIDFor(r.Context(), u)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		if clientID != "" {
			resp.ClientID = &clientID
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// AcceptInvite handles POST /api/v1/auth/invitations/accept.
func (h *authHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	if h.invites.Mode() != invite.ModeLocal {
		writeAppError(w, r, account.ErrLocalOnly)
		return
	}

	var req validate.AcceptInviteRequest
	if err := readJSON(r, &req); err != nil {
		writeAppError(w, r, err)
		return
	}
	if err := validate.AcceptInvite(&req).Err(); err != nil {
		writeAppError(w, r, err)
		return
	}

	u, err := h.invites.Accept(r.Context(), req.Token, req.Password)
	h.record("invite_accept", err)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	auditLog(r, "invitation.accept", "user", u.ID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": u})
}
