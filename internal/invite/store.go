package invite

import (
	"context"
	"fmt"
	"time"

	"github.com/flowmatrix/roiportal/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Invitation is a pending or accepted local invitation.
type Invitation struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	UserID     string     `json:"user_id"`
	InvitedBy  string     `json:"invited_by"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at"`
}

// Store provides database operations for invitations.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const invitationColumns = `id, email, user_id, invited_by, created_at, expires_at, accepted_at`

func scanInvitation(scan func(dest ...any) error) (*Invitation, error) {
	inv := &Invitation{}
	if err := scan(&inv.ID, &inv.Email, &inv.UserID, &inv.InvitedBy, &inv.CreatedAt, &inv.ExpiresAt, &inv.AcceptedAt); err != nil {
		return nil, err
	}
	return inv, nil
}

// Create stores an invitation. Only the hash of the token is kept.
func (s *Store) Create(ctx context.Context, email, userID, tokenHash, invitedBy string, expiresAt time.Time) (*Invitation, error) {
	inv, err := scanInvitation(func(dest ...any) error {
		return store.Conn(ctx, s.pool).QueryRow(ctx,
			`INSERT INTO invitations (email, user_id, token_hash, invited_by, expires_at)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING `+invitationColumns,
			email, userID, tokenHash, invitedBy, expiresAt,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("creating invitation: %w", err)
	}
	return inv, nil
}

// GetPending returns the unaccepted, unexpired invitation with tokenHash.
func (s *Store) GetPending(ctx context.Context, tokenHash string) (*Invitation, error) {
	inv, err := scanInvitation(func(dest ...any) error {
		return store.Conn(ctx, s.pool).QueryRow(ctx,
			`SELECT `+invitationColumns+` FROM invitations
			 WHERE token_hash = $1 AND accepted_at IS NULL AND expires_at > now()`,
			tokenHash,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting invitation: %w", err)
	}
	return inv, nil
}

// MarkAccepted consumes a pending invitation. It returns pgx.ErrNoRows when
// the invitation was already accepted or has expired.
func (s *Store) MarkAccepted(ctx context.Context, id string, at time.Time) error {
	tag, err := store.Conn(ctx, s.pool).Exec(ctx,
		`UPDATE invitations SET accepted_at = $1
		 WHERE id = $2 AND accepted_at IS NULL AND expires_at > now()`, at, id)
	if err != nil {
		return fmt.Errorf("accepting invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("accepting invitation: %w", pgx.ErrNoRows)
	}
	return nil
}
