package policy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/flowmatrix/roiportal/internal/apperr"
	"github.com/flowmatrix/roiportal/internal/auth"
)

type fakeMemberships map[string]string

func (f fakeMemberships) ClientIDForUser(ctx context.Context, userID string) (string, error) {
	return f[userID], nil
}

type recordingObserver struct {
	denials []string
}

func (o *recordingObserver) IncPolicyDenied(action, reason string) {
	o.denials = append(o.denials, action+":"+reason)
}

var (
	employee   = &auth.User{ID: "emp-1", Email: "staff@flowmatrix.ai", Role: auth.RoleEmployee}
	clientA    = &auth.User{ID: "cli-a", Email: "a@acme.test", Role: auth.RoleClient}
	orphan     = &auth.User{ID: "cli-x", Email: "x@nowhere.test", Role: auth.RoleClient}
	membership = fakeMemberships{"cli-a": "client-a"}
)

func ownedBy(clientID string) OwnerResolver {
	return func(context.Context) (string, error) { return clientID, nil }
}

func as(u *auth.User) context.Context {
	return auth.ContextWithUser(context.Background(), u)
}

func TestAuthorize_Unauthenticated(t *testing.T) {
	obs := &recordingObserver{}
	g := NewGuard(membership, obs)
	_, err := g.Authorize(context.Background(), Rule{Action: "project.read"})
	if !apperr.Is(err, apperr.KindUnauthenticated) {
		t.Fatalf("err = %v, want unauthenticated", err)
	}
	if len(obs.denials) != 1 || obs.denials[0] != "project.read:unauthenticated" {
		t.Errorf("denials = %v", obs.denials)
	}
}

func TestAuthorize_RequiredRole(t *testing.T) {
	g := NewGuard(membership, nil)
	rule := Rule{Action: "task.create", RequiredRole: auth.RoleEmployee}

	if _, err := g.Authorize(as(clientA), rule); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("client: err = %v, want forbidden", err)
	}
	u, err := g.Authorize(as(employee), rule)
	if err != nil {
		t.Fatalf("employee: unexpected error %v", err)
	}
	if u.ID != employee.ID {
		t.Errorf("returned user = %+v", u)
	}
}

func TestAuthorize_ClientOfOtherTenantAlwaysForbidden(t *testing.T) {
	g := NewGuard(membership, nil)
	for _, action := range []string{"project.read", "project.update.name", "project.update.status", "note.list", "note.create"} {
		t.Run(action, func(t *testing.T) {
			_, err := g.Authorize(as(clientA), Rule{Action: action, Owner: ownedBy("client-b")})
			if !apperr.Is(err, apperr.KindForbidden) {
				t.Errorf("err = %v, want forbidden", err)
			}
		})
	}
}

func TestAuthorize_ClientOwnResource(t *testing.T) {
	g := NewGuard(membership, nil)
	if _, err := g.Authorize(as(clientA), Rule{Action: "project.read", Owner: ownedBy("client-a")}); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestAuthorize_ClientWithoutLink(t *testing.T) {
	obs := &recordingObserver{}
	g := NewGuard(membership, obs)
	_, err := g.Authorize(as(orphan), Rule{Action: "project.read", Owner: ownedBy("client-a")})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
	if apperr.As(err).Message != "not associated with any clients" {
		t.Errorf("message = %q", apperr.As(err).Message)
	}
	if len(obs.denials) != 1 || obs.denials[0] != "project.read:no_client" {
		t.Errorf("denials = %v", obs.denials)
	}
}

func TestAuthorize_OwnerNotFound(t *testing.T) {
	g := NewGuard(membership, nil)
	missing := func(context.Context) (string, error) {
		return "", fmt.Errorf("getting project: %w", pgx.ErrNoRows)
	}
	if _, err := g.Authorize(as(clientA), Rule{Action: "project.read", Owner: missing}); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestAuthorize_EmployeeBypassesOwnership(t *testing.T) {
	g := NewGuard(fakeMemberships{}, nil)
	called := false
	owner := func(context.Context) (string, error) {
		called = true
		return "client-zzz", nil
	}
	self := func(context.Context, *auth.User) error {
		called = true
		return apperr.Forbidden("not yours")
	}

	for _, action := range []string{"project.read", "note.update", "note.delete", "testimonial.list", "client.update"} {
		if _, err := g.Authorize(as(employee), Rule{Action: action, Owner: owner, SelfOnly: self}); err != nil {
			t.Errorf("%s: employee blocked: %v", action, err)
		}
	}
	if called {
		t.Error("ownership and self checks must not run for employees")
	}
}

func TestAuthorize_SelfOnly(t *testing.T) {
	g := NewGuard(membership, nil)
	authorIs := func(authorID string) SelfCheck {
		return func(_ context.Context, u *auth.User) error {
			if u.ID != authorID {
				return apperr.Forbidden("can only modify your own notes")
			}
			return nil
		}
	}

	if _, err := g.Authorize(as(clientA), Rule{Action: "note.update", Owner: ownedBy("client-a"), SelfOnly: authorIs("cli-a")}); err != nil {
		t.Errorf("author: unexpected error %v", err)
	}
	if _, err := g.Authorize(as(clientA), Rule{Action: "note.update", Owner: ownedBy("client-a"), SelfOnly: authorIs("someone-else")}); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("non-author: err = %v, want forbidden", err)
	}
}

func TestAuthorize_ClientCannotWriteStaffNote(t *testing.T) {
	g := NewGuard(membership, nil)
	writes := 0
	noteTypeMatchesRole := func(noteType string) SelfCheck {
		return func(_ context.Context, u *auth.User) error {
			if (noteType == "client") != u.IsClient() {
				return apperr.Forbidden("note_type does not match your role")
			}
			return nil
		}
	}

	create := func(ctx context.Context, noteType string) error {
		if _, err := g.Authorize(ctx, Rule{Action: "note.create", Owner: ownedBy("client-a"), Check: noteTypeMatchesRole(noteType)}); err != nil {
			return err
		}
		writes++
		return nil
	}

	if err := create(as(clientA), "flowmatrix_ai"); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("client staff note: err = %v, want forbidden", err)
	}
	if err := create(as(employee), "client"); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("employee client note: err = %v, want forbidden", err)
	}
	if writes != 0 {
		t.Fatalf("writes = %d, want 0 after rejections", writes)
	}
	if err := create(as(clientA), "client"); err != nil {
		t.Errorf("client note: %v", err)
	}
	if err := create(as(employee), "flowmatrix_ai"); err != nil {
		t.Errorf("staff note: %v", err)
	}
	if writes != 2 {
		t.Errorf("writes = %d, want 2", writes)
	}
}

type failingMemberships struct{}

func (failingMemberships) ClientIDForUser(context.Context, string) (string, error) {
	return "", errors.New("connection refused")
}

func TestAuthorize_MembershipFailureIsUnexpected(t *testing.T) {
	g := NewGuard(failingMemberships{}, nil)
	_, err := g.Authorize(as(clientA), Rule{Action: "project.read", Owner: ownedBy("client-a")})
	if !apperr.Is(err, apperr.KindUnexpected) {
		t.Errorf("err = %v, want unexpected", err)
	}
}

func TestClientIDFor(t *testing.T) {
	g := NewGuard(membership, nil)
	id, err := g.ClientIDFor(context.Background(), clientA)
	if err != nil || id != "client-a" {
		t.Errorf("ClientIDFor(clientA) = %q, %v", id, err)
	}
	id, err = g.ClientIDFor(context.Background(), orphan)
	if err != nil || id != "" {
		t.Errorf("ClientIDFor(orphan) = %q, %v", id, err)
	}
}

func TestRequireRole(t *testing.T) {
	g := NewGuard(membership, nil)
	writeErr := func(w http.ResponseWriter, r *http.Request, err error) {
		w.WriteHeader(apperr.As(err).StatusCode())
	}
	h := RequireRole(g, auth.RoleEmployee, writeErr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name string
		user *auth.User
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"client", clientA, http.StatusForbidden},
		{"employee", employee, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/employee", nil)
			if tt.user != nil {
				req = req.WithContext(auth.ContextWithUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
