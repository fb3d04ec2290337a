// Package testimonial stores client-submitted testimonials. Testimonials are
// write-once: there is no update or delete.
package testimonial

import (
	"context"
	"fmt"
	"time"

	"github.com/flowmatrix/roiportal/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Testimonial is a short statement from a client user.
type Testimonial struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// Filled by List from the joined client and user.
	CompanyName string `json:"company_name,omitempty"`
	UserEmail   string `json:"user_email,omitempty"`
}

// CreateTestimonialInput is the POST body for a testimonial.
type CreateTestimonialInput struct {
	ClientID string `json:"client_id"`
	UserID   string `json:"user_id"`
	Content  string `json:"content"`
}

// Store provides database operations for testimonials.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Create inserts a testimonial.
func (s *Store) Create(ctx context.Context, in CreateTestimonialInput) (*Testimonial, error) {
	t := &Testimonial{}
	err := store.Conn(ctx, s.pool).QueryRow(ctx,
		`INSERT INTO testimonials (client_id, user_id, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, client_id, user_id, content, created_at`,
		in.ClientID, in.UserID, in.Content,
	).Scan(&t.ID, &t.ClientID, &t.UserID, &t.Content, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating testimonial: %w", err)
	}
	return t, nil
}

// List returns all testimonials with company name and author email, newest
// first.
func (s *Store) List(ctx context.Context) ([]*Testimonial, error) {
	rows, err := store.Conn(ctx, s.pool).Query(ctx,
		`SELECT t.id, t.client_id, t.user_id, t.content, t.created_at,
		        c.company_name, u.email
		 FROM testimonials t
		 JOIN clients c ON c.id = t.client_id
		 JOIN users u ON u.id = t.user_id
		 ORDER BY t.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing testimonials: %w", err)
	}
	defer rows.Close()

	var out []*Testimonial
	for rows.Next() {
		t := &Testimonial{}
		if err := rows.Scan(&t.ID, &t.ClientID, &t.UserID, &t.Content, &t.CreatedAt, &t.CompanyName, &t.UserEmail); err != nil {
			return nil, fmt.Errorf("scanning testimonial row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
