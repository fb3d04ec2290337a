package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flowmatrix/roiportal/internal/auth"
	"github.com/flowmatrix/roiportal/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL is used when the store is created without a session TTL.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Store provides database operations for users, their client links and
// local sessions.
type Store struct {
	pool       *pgxpool.Pool
	sessionTTL time.Duration
}

// NewStore creates a new user store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool, sessionTTL time.Duration) *Store {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Store{pool: pool, sessionTTL: sessionTTL}
}

const userColumns = `id, email, COALESCE(password_hash, ''), role, created_at, last_login`

func scanUser(scan func(dest ...any) error) (*User, error) {
	u := &User{}
	var role string
	if err := scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.LastLogin); err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)
	return u, nil
}

// Create inserts a new user. The password, when given, is stored as a
// bcrypt hash. Emails are stored lower-cased.
func (s *Store) Create(ctx context.Context, in CreateUserInput) (*User, error) {
	var hash *string
	if in.Password != "" {
		h, err := HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		hash = &h
	}

	var id *string
	if in.ID != "" {
		id = &in.ID
	}

	u, err := scanUser(func(dest ...any) error {
		return store.Conn(ctx, s.pool).QueryRow(ctx,
			`INSERT INTO users (id, email, password_hash, role)
			 VALUES (COALESCE($1::uuid, gen_random_uuid()), $2, $3, $4)
			 RETURNING `+userColumns,
			id, normalizeEmail(in.Email), hash, string(in.Role),
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return u, nil
}

// GetByID retrieves a user by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return store.Conn(ctx, s.pool).QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting user by id: %w", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email address, ignoring case.
func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return store.Conn(ctx, s.pool).QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`, normalizeEmail(email),
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// ExistsByEmail reports whether an account already uses email.
func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := store.Conn(ctx, s.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, normalizeEmail(email),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email: %w", err)
	}
	return exists, nil
}

// SetPassword replaces the password hash of the user.
func (s *Store) SetPassword(ctx context.Context, id, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	tag, err := store.Conn(ctx, s.pool).Exec(ctx,
		`UPDATE users SET password_hash = $1 WHERE id = $2`, hash, id)
	if err != nil {
		return fmt.Errorf("setting password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("setting password: %w", pgx.ErrNoRows)
	}
	return nil
}

// LinkClient associates the user with a client company.
func (s *Store) LinkClient(ctx context.Context, userID, clientID string) error {
	_, err := store.Conn(ctx, s.pool).Exec(ctx,
		`INSERT INTO user_clients (user_id, client_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, client_id) DO NOTHING`,
		userID, clientID)
	if err != nil {
		return fmt.Errorf("linking user to client: %w", err)
	}
	return nil
}

// ClientIDForUser returns the client the user belongs to, or "" when the user
// is not linked to any client. A user linked to several clients resolves to
// the earliest link.
func (s *Store) ClientIDForUser(ctx context.Context, userID string) (string, error) {
	var clientID string
	err := store.Conn(ctx, s.pool).QueryRow(ctx,
		`SELECT client_id FROM user_clients WHERE user_id = $1
		 ORDER BY created_at ASC LIMIT 1`, userID,
	).Scan(&clientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting client for user: %w", err)
	}
	return clientID, nil
}

// RecordLogins stores the latest sign-in time of each user in one statement.
// Older timestamps never overwrite newer ones.
func (s *Store) RecordLogins(ctx context.Context, logins map[string]time.Time) error {
	if len(logins) == 0 {
		return nil
	}
	ids := make([]string, 0, len(logins))
	times := make([]time.Time, 0, len(logins))
	for id, at := range logins {
		ids = append(ids, id)
		times = append(times, at)
	}

	_, err := store.Conn(ctx, s.pool).Exec(ctx,
		`UPDATE users u SET last_login = v.at
		 FROM (SELECT unnest($1::uuid[]) AS id, unnest($2::timestamptz[]) AS at) v
		 WHERE u.id = v.id AND (u.last_login IS NULL OR u.last_login < v.at)`,
		ids, times)
	if err != nil {
		return fmt.Errorf("recording logins: %w", err)
	}
	return nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword verifies a plaintext password against the user's stored hash.
// Accounts without a password never match.
func CheckPassword(u *User, password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// CreateSession creates a new session for the given user. It returns the
// opaque plaintext token (to be sent to the client) and the stored session.
func (s *Store) CreateSession(ctx context.Context, userID string) (string, *Session, error) {
	plaintext, err := auth.GenerateToken()
	if err != nil {
		return "", nil, fmt.Errorf("generating session token: %w", err)
	}

	now := time.Now()
	sess := &Session{}
	err = store.Conn(ctx, s.pool).QueryRow(ctx,
		`INSERT INTO sessions (token_hash, user_id, created_at, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING token_hash, user_id, created_at, expires_at`,
		auth.HashToken(plaintext), userID, now, now.Add(s.sessionTTL),
	).Scan(&sess.TokenHash, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		return "", nil, fmt.Errorf("creating session: %w", err)
	}

	return plaintext, sess, nil
}

// GetSessionUser looks up an unexpired session by its plaintext token and
// returns the associated user.
func (s *Store) GetSessionUser(ctx context.Context, plaintext string) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return store.Conn(ctx, s.pool).QueryRow(ctx,
			`SELECT u.id, u.email, COALESCE(u.password_hash, ''), u.role, u.created_at, u.last_login
			 FROM sessions s JOIN users u ON s.user_id = u.id
			 WHERE s.token_hash = $1 AND s.expires_at > now()`,
			auth.HashToken(plaintext),
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting session user: %w", err)
	}
	return u, nil
}

// DeleteSession removes a session by its plaintext token.
func (s *Store) DeleteSession(ctx context.Context, plaintext string) error {
	_, err := store.Conn(ctx, s.pool).Exec(ctx,
		`DELETE FROM sessions WHERE token_hash = $1`, auth.HashToken(plaintext))
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// CleanExpiredSessions deletes all sessions that have expired.
func (s *Store) CleanExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := store.Conn(ctx, s.pool).Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("cleaning expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
