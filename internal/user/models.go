package user

import (
	"time"

	"github.com/flowmatrix/roiportal/internal/auth"
)

// User represents a portal account. Role is fixed at creation.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         auth.Role  `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// CreateUserInput holds the fields required to create a user. ID is set
// when the identity already exists at an external provider. Password is
// empty for accounts that have not chosen one yet.
type CreateUserInput struct {
	ID       string
	Email    string
	Password string
	Role     auth.Role
}

// Session represents an active local session.
type Session struct {
	TokenHash string    `json:"-"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthUser converts u to the identity carried in request contexts.
func (u *User) AuthUser() *auth.User {
	return &auth.User{ID: u.ID, Email: u.Email, Role: u.Role}
}
