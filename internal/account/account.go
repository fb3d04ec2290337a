// Package account implements client self-serve signup and local sign-in.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/flowmatrix/roiportal/internal/apperr"
	"github.com/flowmatrix/roiportal/internal/auth"
	"github.com/flowmatrix/roiportal/internal/client"
	"github.com/flowmatrix/roiportal/internal/store"
	"github.com/flowmatrix/roiportal/internal/user"
	"github.com/flowmatrix/roiportal/internal/validate"
)

// ErrLocalOnly is returned by operations that only exist with local auth.
var ErrLocalOnly = apperr.NotFound("password sign-in is handled by the identity provider")

// Users is the subset of the user store the service needs.
type Users interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, in user.CreateUserInput) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	LinkClient(ctx context.Context, userID, clientID string) error
	CreateSession(ctx context.Context, userID string) (string, *user.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// Clients creates client companies.
type Clients interface {
	Create(ctx context.Context, in client.CreateClientInput) (*client.Client, error)
}

// Registrar creates identities at an external identity provider.
type Registrar interface {
	SignUp(ctx context.Context, email, password string, data map[string]any) (string, error)
	DeleteUser(ctx context.Context, id string) error
}

// TxRunner runs fn in a transaction.
type TxRunner interface {
	ExecTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ActivityRecorder is notified of successful sign-ins.
type ActivityRecorder interface {
	Record(userID string, at time.Time)
}

// Session is a local session handed to the caller.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignupResult is returned by Signup. Session is only set with local auth;
// Supabase users sign in through Supabase once their email is confirmed.
type SignupResult struct {
	User    *user.User     `json:"user"`
	Client  *client.Client `json:"client"`
	Session *Session       `json:"session,omitempty"`
}

// Service implements signup, login and logout.
type Service struct {
	users     Users
	clients   Clients
	tx        TxRunner
	registrar Registrar
	activity  ActivityRecorder
	now       func() time.Time
}

// NewService creates a Service. A nil registrar selects local auth.
func NewService(users Users, clients Clients, tx TxRunner, registrar Registrar, activity ActivityRecorder) *Service {
	return &Service{
		users:     users,
		clients:   clients,
		tx:        tx,
		registrar: registrar,
		activity:  activity,
		now:       time.Now,
	}
}

// Local reports whether passwords are verified by this service.
func (s *Service) Local() bool {
	return s.registrar == nil
}

// Signup registers a client user together with their company. The user, the
// client and the link between them are written in one transaction so that a
// failure never leaves a user without a client.
func (s *Service) Signup(ctx context.Context, req validate.SignupRequest) (*SignupResult, error) {
	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("An account with this email already exists")
	}

	in := user.CreateUserInput{Email: req.Email, Role: auth.RoleClient}
	if s.registrar != nil {
		id, err := s.registrar.SignUp(ctx, req.Email, req.Password, map[string]any{
			"role":         string(auth.RoleClient),
			"company_name": req.CompanyName,
		})
		if err != nil {
			return nil, fmt.Errorf("registering identity: %w", err)
		}
		in.ID = id
	} else {
		in.Password = req.Password
	}

	res := &SignupResult{}
	err = s.tx.ExecTx(ctx, func(ctx context.Context) error {
		u, err := s.users.Create(ctx, in)
		if err != nil {
			return err
		}
		var industry *string
		if req.Industry != "" {
			industry = &req.Industry
		}
		c, err := s.clients.Create(ctx, client.CreateClientInput{CompanyName: req.CompanyName, Industry: industry})
		if err != nil {
			return err
		}
		if err := s.users.LinkClient(ctx, u.ID, c.ID); err != nil {
			return err
		}
		res.User, res.Client = u, c
		return nil
	})
	if err != nil {
		if s.registrar != nil {
			if derr := s.registrar.DeleteUser(context.WithoutCancel(ctx), in.ID); derr != nil {
				slog.Error("failed to remove identity after signup failure", "user_id", in.ID, "error", derr)
			}
		}
		if store.IsUniqueViolation(err) {
			return nil, apperr.Conflict("An account with this email already exists")
		}
		return nil, err
	}

	if s.registrar == nil {
		sess, err := s.startSession(ctx, res.User.ID)
		if err != nil {
			return nil, err
		}
		res.Session = sess
	}
	return res, nil
}

// Login verifies a local password and opens a session.
func (s *Service) Login(ctx context.Context, req validate.LoginRequest) (*user.User, *Session, error) {
	if !s.Local() {
		return nil, nil, ErrLocalOnly
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, apperr.Unauthenticated("invalid email or password")
	}
	if err != nil {
		return nil, nil, err
	}
	if !user.CheckPassword(u, req.Password) {
		return nil, nil, apperr.Unauthenticated("invalid email or password")
	}

	sess, err := s.startSession(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	return u, sess, nil
}

// Logout ends a local session. With an external provider the session lives
// there and Logout does nothing.
func (s *Service) Logout(ctx context.Context, token string) error {
	if !s.Local() || token == "" {
		return nil
	}
	return s.users.DeleteSession(ctx, token)
}

// Touch records activity for a signed-in user.
func (s *Service) Touch(userID string) {
	if s.activity != nil {
		s.activity.Record(userID, s.now())
	}
}

func (s *Service) startSession(ctx context.Context, userID string) (*Session, error) {
	token, sess, err := s.users.CreateSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.Touch(userID)
	return &Session{Token: token, ExpiresAt: sess.ExpiresAt}, nil
}
