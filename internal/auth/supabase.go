package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// SupabaseClaims are the claims carried by a Supabase access token.
type SupabaseClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	Role         string         `json:"role"` // "authenticated" or "anon"
	UserMetadata map[string]any `json:"user_metadata"`
	SessionID    string         `json:"session_id"`
	IsAnonymous  bool           `json:"is_anonymous"`
}

// JWTVerifier validates Supabase access tokens.
type JWTVerifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
}

// NewJWTVerifier creates a verifier that resolves signing keys with kf.
// Only asymmetric RS256 and ES256 signatures are accepted.
func NewJWTVerifier(kf jwt.Keyfunc) *JWTVerifier {
	return &JWTVerifier{
		keyfunc: kf,
		parser:  jwt.NewParser(jwt.WithValidMethods([]string{"RS256", "ES256"}), jwt.WithExpirationRequired()),
	}
}

// NewJWKSVerifier creates a verifier whose keys come from the project's JWKS
// endpoint. Keys are cached and refreshed in the background until ctx ends.
func NewJWKSVerifier(ctx context.Context, jwksURL string) (*JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("creating JWKS client: %w", err)
	}
	slog.Info("JWT verifier initialized", "jwks_url", jwksURL)
	return NewJWTVerifier(jwks.Keyfunc), nil
}

// Verify parses and validates token. The subject must be present and the
// token must belong to a signed-in (non-anonymous) user.
func (v *JWTVerifier) Verify(token string) (*SupabaseClaims, error) {
	claims := &SupabaseClaims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, v.keyfunc)
	if err != nil || !parsed.Valid {
		slog.Debug("token rejected", "error", err)
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		slog.Debug("token missing subject claim")
		return nil, ErrInvalidToken
	}
	if claims.Role != "authenticated" || claims.IsAnonymous {
		slog.Warn("token has unexpected role", "role", claims.Role, "user_id", claims.Subject)
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// UserDirectory loads a portal user by id.
type UserDirectory interface {
	LookupUser(ctx context.Context, id string) (*User, error)
}

// SupabaseSessions implements SessionLookup for Supabase access tokens. The
// token proves identity; the role always comes from the users table.
type SupabaseSessions struct {
	verifier  *JWTVerifier
	directory UserDirectory
}

// NewSupabaseSessions creates a SessionLookup over verifier and directory.
func NewSupabaseSessions(verifier *JWTVerifier, directory UserDirectory) *SupabaseSessions {
	return &SupabaseSessions{verifier: verifier, directory: directory}
}

// LookupSession verifies token and loads the matching portal user.
func (s *SupabaseSessions) LookupSession(ctx context.Context, token string) (*User, error) {
	claims, err := s.verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	u, err := s.directory.LookupUser(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("loading user %s: %w", claims.Subject, err)
	}
	return u, nil
}
