package user

import (
	"context"

	"github.com/flowmatrix/roiportal/internal/auth"
)

// AuthAdapter exposes the user store to the auth package, both as the local
// session lookup and as the directory used to resolve Supabase subjects.
type AuthAdapter struct {
	store *Store
}

// NewAuthAdapter creates a new AuthAdapter wrapping the given user store.
func NewAuthAdapter(store *Store) *AuthAdapter {
	return &AuthAdapter{store: store}
}

// LookupSession resolves a local session token to its user.
func (a *AuthAdapter) LookupSession(ctx context.Context, token string) (*auth.User, error) {
	u, err := a.store.GetSessionUser(ctx, token)
	if err != nil {
		return nil, err
	}
	return u.AuthUser(), nil
}

// LookupUser loads the portal user for an identity provider subject.
func (a *AuthAdapter) LookupUser(ctx context.Context, id string) (*auth.User, error) {
	u, err := a.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.AuthUser(), nil
}
