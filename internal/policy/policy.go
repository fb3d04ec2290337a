// Package policy is the single authorization guard of the API. Every
// handler describes its access requirements as a Rule and asks the Guard to
// enforce it; no handler inspects roles or client ownership itself.
package policy

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/flowmatrix/roiportal/internal/apperr"
	"github.com/flowmatrix/roiportal/internal/auth"
	"github.com/flowmatrix/roiportal/internal/store"
)

// Denial reasons reported to the Observer.
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonRole            = "role"
	ReasonNoClient        = "no_client"
	ReasonOwnership       = "ownership"
	ReasonSelf            = "self"
	ReasonCheck           = "check"
)

// Memberships resolves which client company a user belongs to. An empty id
// with a nil error means the user has no client link.
type Memberships interface {
	ClientIDForUser(ctx context.Context, userID string) (string, error)
}

// OwnerResolver returns the client that owns the target resource.
type OwnerResolver func(ctx context.Context) (clientID string, err error)

// SelfCheck inspects the caller against the target resource.
type SelfCheck func(ctx context.Context, user *auth.User) error

// Rule describes the access requirements of one endpoint.
type Rule struct {
	// Action names the operation in logs and metrics, e.g. "task.create".
	Action string

	// RequiredRole, when set, must equal the caller's role.
	RequiredRole auth.Role

	// Owner, when set, restricts client callers to resources owned by their
	// client. Employees are never subject to ownership checks.
	Owner OwnerResolver

	// SelfOnly, when set, runs for client callers after the ownership check.
	SelfOnly SelfCheck

	// Check, when set, runs for every caller last.
	Check SelfCheck
}

// Observer receives policy denials.
type Observer interface {
	IncPolicyDenied(action, reason string)
}

// Guard enforces Rules.
type Guard struct {
	members Memberships
	obs     Observer
}

// NewGuard creates a Guard. obs may be nil.
func NewGuard(members Memberships, obs Observer) *Guard {
	return &Guard{members: members, obs: obs}
}

// Authorize enforces rule for the caller carried by ctx and returns the
// caller. Failures are *apperr.Error values: Unauthenticated without a
// caller, Forbidden on a role or ownership mismatch, NotFound when the
// owner resolver cannot find the target.
func (g *Guard) Authorize(ctx context.Context, rule Rule) (*auth.User, error) {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return nil, g.deny(rule, nil, ReasonUnauthenticated, apperr.Unauthenticated("authentication required"))
	}

	if rule.RequiredRole != "" && user.Role != rule.RequiredRole {
		return nil, g.deny(rule, user, ReasonRole, apperr.Forbidden("requires "+string(rule.RequiredRole)+" role"))
	}

	if user.IsClient() {
		if rule.Owner != nil {
			if err := g.checkOwner(ctx, rule, user); err != nil {
				return nil, err
			}
		}
		if rule.SelfOnly != nil {
			if err := rule.SelfOnly(ctx, user); err != nil {
				return nil, g.deny(rule, user, ReasonSelf, store.MapError(err))
			}
		}
	}

	if rule.Check != nil {
		if err := rule.Check(ctx, user); err != nil {
			return nil, g.deny(rule, user, ReasonCheck, store.MapError(err))
		}
	}

	return user, nil
}

func (g *Guard) checkOwner(ctx context.Context, rule Rule, user *auth.User) error {
	clientID, err := g.members.ClientIDForUser(ctx, user.ID)
	if err != nil {
		return store.MapError(err)
	}
	if clientID == "" {
		return g.deny(rule, user, ReasonNoClient, apperr.Forbidden("not associated with any clients"))
	}

	ownerID, err := rule.Owner(ctx)
	if err != nil {
		return store.MapError(err)
	}
	if ownerID != clientID {
		return g.deny(rule, user, ReasonOwnership, apperr.Forbidden("access denied"))
	}
	return nil
}

// ClientIDFor returns the client linked to user, or "" when there is none.
func (g *Guard) ClientIDFor(ctx context.Context, user *auth.User) (string, error) {
	clientID, err := g.members.ClientIDForUser(ctx, user.ID)
	if err != nil {
		return "", store.MapError(err)
	}
	return clientID, nil
}

func (g *Guard) deny(rule Rule, user *auth.User, reason string, err error) error {
	if g.obs != nil {
		g.obs.IncPolicyDenied(rule.Action, reason)
	}
	attrs := []any{"action", rule.Action, "reason", reason}
	if user != nil {
		attrs = append(attrs, "user_id", user.ID, "role", string(user.Role))
	}
	slog.Debug("access denied", attrs...)
	return err
}

// RequireRole is middleware that rejects callers without role before the
// handler runs. It is used for route groups that are entirely restricted.
func RequireRole(g *Guard, role auth.Role, writeErr func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	rule := Rule{Action: "route." + string(role), RequiredRole: role}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := g.Authorize(r.Context(), rule); err != nil {
				writeErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
