package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Role is a user's portal role. It is fixed when the user is created.
type Role string

const (
	RoleClient   Role = "client"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleEmployee
}

// User represents an authenticated portal user.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsEmployee returns true for staff users, who see every client.
func (u *User) IsEmployee() bool {
	return u.Role == RoleEmployee
}

// IsClient returns true for users scoped to a single client company.
func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

// SessionLookup resolves a bearer token to a user. Implementations exist for
// local opaque sessions and for Supabase-issued JWTs.
type SessionLookup interface {
	LookupSession(ctx context.Context, token string) (*User, error)
}

// GenerateToken returns a random 64-character hex token. Only its HashToken
// digest is ever stored.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashToken returns the hex-encoded SHA-256 hash of a plaintext token.
func HashToken(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}
