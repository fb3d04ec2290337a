package invite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/flowmatrix/roiportal/internal/apperr"
	"github.com/flowmatrix/roiportal/internal/auth"
	"github.com/flowmatrix/roiportal/internal/user"
)

// --- fakes ---

type fakeUsers struct {
	byID      map[string]*user.User
	passwords map[string]string
	createErr error
	seq       int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]*user.User{}, passwords: map[string]string{}}
}

func (f *fakeUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) Create(_ context.Context, in user.CreateUserInput) (*user.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	id := in.ID
	if id == "" {
		f.seq++
		id = fmt.Sprintf("user-%d", f.seq)
	}
	u := &user.User{ID: id, Email: in.Email, Role: in.Role}
	f.byID[id] = u
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) SetPassword(_ context.Context, id, password string) error {
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	f.passwords[id] = password
	return nil
}

type fakeInvitations struct {
	byHash map[string]*Invitation
	now    time.Time
	// claimed makes MarkAccepted behave as if another request consumed the
	// token after GetPending returned it.
	claimed bool
}

func (f *fakeInvitations) Create(_ context.Context, email, userID, tokenHash, invitedBy string, expiresAt time.Time) (*Invitation, error) {
	inv := &Invitation{ID: "inv-" + userID, Email: email, UserID: userID, InvitedBy: invitedBy, ExpiresAt: expiresAt}
	f.byHash[tokenHash] = inv
	return inv, nil
}

func (f *fakeInvitations) GetPending(_ context.Context, tokenHash string) (*Invitation, error) {
	inv, ok := f.byHash[tokenHash]
	if !ok || inv.AcceptedAt != nil || !inv.ExpiresAt.After(f.now) {
		return nil, fmt.Errorf("getting invitation: %w", pgx.ErrNoRows)
	}
	return inv, nil
}

func (f *fakeInvitations) MarkAccepted(_ context.Context, id string, at time.Time) error {
	if f.claimed {
		return fmt.Errorf("accepting invitation: %w", pgx.ErrNoRows)
	}
	for _, inv := range f.byHash {
		if inv.ID == id && inv.AcceptedAt == nil {
			inv.AcceptedAt = &at
			return nil
		}
	}
	return fmt.Errorf("accepting invitation: %w", pgx.ErrNoRows)
}

type fakeAdmin struct {
	invited []string
	data    map[string]any
	err     error
}

func (f *fakeAdmin) InviteUserByEmail(_ context.Context, email string, data map[string]any) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.invited = append(f.invited, email)
	f.data = data
	return "sb-" + email, nil
}

type directTx struct{ calls int }

func (d *directTx) ExecTx(ctx context.Context, fn func(ctx context.Context) error) error {
	d.calls++
	return fn(ctx)
}

var fixedNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func newLocalService() (*Service, *fakeUsers, *fakeInvitations, *directTx) {
	users := newFakeUsers()
	invs := &fakeInvitations{byHash: map[string]*Invitation{}, now: fixedNow}
	tx := &directTx{}
	svc := NewService(users, invs, nil, tx, 48*time.Hour)
	svc.now = func() time.Time { return fixedNow }
	return svc, users, invs, tx
}

// --- tests ---

func TestInvite_Supabase(t *testing.T) {
	users := newFakeUsers()
	admin := &fakeAdmin{}
	svc := NewService(users, nil, admin, &directTx{}, 0)

	if svc.Mode() != ModeSupabase {
		t.Fatalf("Mode() = %q", svc.Mode())
	}
	res, err := svc.Invite(context.Background(), "new@flowmatrix.ai", "emp-1")
	if err != nil {
		t.Fatalf("Invite() error: %v", err)
	}
	if res.UserID != "sb-new@flowmatrix.ai" || res.Token != "" || res.Message != "Invitation sent to new@flowmatrix.ai" {
		t.Errorf("result = %+v", res)
	}
	if admin.data["role"] != "employee" {
		t.Errorf("metadata role = %v", admin.data["role"])
	}
	u := users.byID["sb-new@flowmatrix.ai"]
	if u == nil || u.Role != auth.RoleEmployee {
		t.Errorf("users row = %+v", u)
	}
}

func TestInvite_SupabaseRecordFailureStillSucceeds(t *testing.T) {
	users := newFakeUsers()
	users.createErr = errors.New("duplicate key")
	svc := NewService(users, nil, &fakeAdmin{}, &directTx{}, 0)

	if _, err := svc.Invite(context.Background(), "new@flowmatrix.ai", "emp-1"); err != nil {
		t.Errorf("Invite() error = %v, want nil once the invitation is sent", err)
	}
}

func TestInvite_SupabaseSendFailure(t *testing.T) {
	users := newFakeUsers()
	svc := NewService(users, nil, &fakeAdmin{err: errors.New("smtp down")}, &directTx{}, 0)

	if _, err := svc.Invite(context.Background(), "new@flowmatrix.ai", "emp-1"); err == nil {
		t.Fatal("expected error")
	}
	if len(users.byID) != 0 {
		t.Error("no users row should be written when the invitation fails")
	}
}

func TestInvite_ExistingEmail(t *testing.T) {
	svc, users, _, _ := newLocalService()
	users.byID["x"] = &user.User{ID: "x", Email: "taken@flowmatrix.ai"}

	_, err := svc.Invite(context.Background(), "taken@flowmatrix.ai", "emp-1")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestInvite_LocalThenAccept(t *testing.T) {
	svc, users, invs, tx := newLocalService()

	res, err := svc.Invite(context.Background(), "new@flowmatrix.ai", "emp-1")
	if err != nil {
		t.Fatalf("Invite() error: %v", err)
	}
	if res.Mode != ModeLocal || len(res.Token) != 64 {
		t.Fatalf("result = %+v", res)
	}
	if want := fixedNow.Add(48 * time.Hour); !res.ExpiresAt.Equal(want) {
		t.Errorf("expires_at = %v, want %v", res.ExpiresAt, want)
	}
	if tx.calls != 1 {
		t.Errorf("tx calls = %d, want 1", tx.calls)
	}
	if _, ok := invs.byHash[res.Token]; ok {
		t.Error("plaintext token must not be stored")
	}

	u, err := svc.Accept(context.Background(), res.Token, "a-new-password")
	if err != nil {
		t.Fatalf("Accept() error: %v", err)
	}
	if u.ID != res.UserID || u.Role != auth.RoleEmployee {
		t.Errorf("accepted user = %+v", u)
	}
	if users.passwords[u.ID] != "a-new-password" {
		t.Error("password not set")
	}

	if _, err := svc.Accept(context.Background(), res.Token, "again-password"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("second Accept() err = %v, want not found", err)
	}
}

func TestAccept_Expired(t *testing.T) {
	svc, _, invs, _ := newLocalService()
	res, err := svc.Invite(context.Background(), "late@flowmatrix.ai", "emp-1")
	if err != nil {
		t.Fatal(err)
	}
	invs.now = fixedNow.Add(49 * time.Hour)

	if _, err := svc.Accept(context.Background(), res.Token, "a-new-password"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestAccept_TokenClaimedConcurrently(t *testing.T) {
	svc, users, invs, _ := newLocalService()
	res, err := svc.Invite(context.Background(), "race@flowmatrix.ai", "emp-1")
	if err != nil {
		t.Fatal(err)
	}
	invs.claimed = true

	if _, err := svc.Accept(context.Background(), res.Token, "second-password"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if _, ok := users.passwords[res.UserID]; ok {
		t.Error("password written for an invitation that was already used")
	}
}
