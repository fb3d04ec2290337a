// Package invite onboards new employees. With Supabase Auth the invitation
// email is sent by Supabase; in local mode a single-use token is issued and
// handed back to the inviting employee.
package invite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/flowmatrix/roiportal/internal/apperr"
	"github.com/flowmatrix/roiportal/internal/auth"
	"github.com/flowmatrix/roiportal/internal/user"
)

// DefaultTTL is how long a local invitation stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// Modes.
const (
	ModeSupabase = "supabase"
	ModeLocal    = "local"
)

// Users is the subset of the user store the service needs.
type Users interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, in user.CreateUserInput) (*user.User, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
	SetPassword(ctx context.Context, id, password string) error
}

// Invitations is the subset of Store the service needs.
type Invitations interface {
	Create(ctx context.Context, email, userID, tokenHash, invitedBy string, expiresAt time.Time) (*Invitation, error)
	GetPending(ctx context.Context, tokenHash string) (*Invitation, error)
	MarkAccepted(ctx context.Context, id string, at time.Time) error
}

// AuthAdmin sends invitations through the identity provider.
type AuthAdmin interface {
	InviteUserByEmail(ctx context.Context, email string, data map[string]any) (string, error)
}

// TxRunner runs fn in a transaction.
type TxRunner interface {
	ExecTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Result describes a sent invitation. Token is only set in local mode.
type Result struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	Mode      string     `json:"mode"`
	UserID    string     `json:"user_id"`
	Token     string     `json:"invite_token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Service creates and accepts employee invitations.
type Service struct {
	users       Users
	invitations Invitations
	admin       AuthAdmin
	tx          TxRunner
	ttl         time.Duration
	now         func() time.Time
}

// NewService creates a Service. A nil admin selects local mode.
func NewService(users Users, invitations Invitations, admin AuthAdmin, tx TxRunner, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		users:       users,
		invitations: invitations,
		admin:       admin,
		tx:          tx,
		ttl:         ttl,
		now:         time.Now,
	}
}

// Mode reports which flow Invite uses.
func (s *Service) Mode() string {
	if s.admin != nil {
		return ModeSupabase
	}
	return ModeLocal
}

// Invite creates an employee account for email on behalf of invitedBy.
func (s *Service) Invite(ctx context.Context, email, invitedBy string) (*Result, error) {
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Validation("User with this email already exists", map[string]string{
			"email": "User with this email already exists",
		})
	}

	if s.admin != nil {
		return s.inviteSupabase(ctx, email)
	}
	return s.inviteLocal(ctx, email, invitedBy)
}

func (s *Service) inviteSupabase(ctx context.Context, email string) (*Result, error) {
	id, err := s.admin.InviteUserByEmail(ctx, email, map[string]any{"role": string(auth.RoleEmployee)})
	if err != nil {
		return nil, fmt.Errorf("sending invitation: %w", err)
	}

	// The invitation email is already out. A failed insert leaves an identity
	// without a users row, which an operator has to add by hand before the
	// employee can sign in.
	if _, err := s.users.Create(ctx, user.CreateUserInput{ID: id, Email: email, Role: auth.RoleEmployee}); err != nil {
		slog.Error("failed to create invited user record", "user_id", id, "error", err)
	}

	return &Result{
		Success: true,
		Message: "Invitation sent to " + email,
		Mode:    ModeSupabase,
		UserID:  id,
	}, nil
}

func (s *Service) inviteLocal(ctx context.Context, email, invitedBy string) (*Result, error) {
	token, err := auth.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generating invitation token: %w", err)
	}
	expiresAt := s.now().Add(s.ttl)

	var userID string
	err = s.tx.ExecTx(ctx, func(ctx context.Context) error {
		u, err := s.users.Create(ctx, user.CreateUserInput{Email: email, Role: auth.RoleEmployee})
		if err != nil {
			return err
		}
		if _, err := s.invitations.Create(ctx, u.Email, u.ID, auth.HashToken(token), invitedBy, expiresAt); err != nil {
			return err
		}
		userID = u.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Success:   true,
		Message:   "Invitation created for " + email,
		Mode:      ModeLocal,
		UserID:    userID,
		Token:     token,
		ExpiresAt: &expiresAt,
	}, nil
}

// ErrInvitationUnavailable is returned for unknown, expired or used tokens.
var ErrInvitationUnavailable = apperr.NotFound("invitation not found or expired")

// Accept consumes the token and sets the password of the invited account.
// The token is claimed before the password is written; a token consumed by a
// concurrent accept yields ErrInvitationUnavailable.
func (s *Service) Accept(ctx context.Context, token, password string) (*user.User, error) {
	inv, err := s.invitations.GetPending(ctx, auth.HashToken(token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvitationUnavailable
	}
	if err != nil {
		return nil, err
	}

	var u *user.User
	err = s.tx.ExecTx(ctx, func(ctx context.Context) error {
		err := s.invitations.MarkAccepted(ctx, inv.ID, s.now())
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvitationUnavailable
		}
		if err != nil {
			return err
		}
		if err := s.users.SetPassword(ctx, inv.UserID, password); err != nil {
			return err
		}
		got, err := s.users.GetByID(ctx, inv.UserID)
		if err != nil {
			return err
		}
		u = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}
