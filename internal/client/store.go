package client

import (
	"context"
	"fmt"

	"github.com/flowmatrix/roiportal/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for clients.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const clientColumns = `id, company_name, industry, avg_employee_wage, created_at, updated_at`

func scanClient(scan func(dest ...any) error) (*Client, error) {
	c := &Client{}
	if err := scan(&c.ID, &c.CompanyName, &c.Industry, &c.AvgEmployeeWage, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new client.
func (s *Store) Create(ctx context.Context, in CreateClientInput) (*Client, error) {
	c, err := scanClient(func(dest ...any) error {
		return store.Conn(ctx, s.pool).QueryRow(ctx,
			`INSERT INTO clients (company_name, industry, avg_employee_wage)
			 VALUES ($1, $2, $3)
			 RETURNING `+clientColumns,
			in.CompanyName, in.Industry, in.AvgEmployeeWage,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return c, nil
}

// GetByID retrieves a client by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*Client, error) {
	c, err := scanClient(func(dest ...any) error {
		return store.Conn(ctx, s.pool).QueryRow(ctx,
			`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting client: %w", err)
	}
	return c, nil
}

// List returns all clients ordered by company name.
func (s *Store) List(ctx context.Context) ([]*Client, error) {
	rows, err := store.Conn(ctx, s.pool).Query(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY company_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	defer rows.Close()

	var clients []*Client
	for rows.Next() {
		c, err := scanClient(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning client row: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// Update applies a partial update.
func (s *Store) Update(ctx context.Context, id string, in UpdateClientInput) (*Client, error) {
	var set store.Assignments
	if in.CompanyName.Present {
		set.Set("company_name", in.CompanyName.V)
	}
	if in.Industry.Present {
		set.Set("industry", in.Industry.Ptr())
	}
	if in.AvgEmployeeWage.Present {
		set.Set("avg_employee_wage", in.AvgEmployeeWage.Ptr())
	}
	if set.Empty() {
		return s.GetByID(ctx, id)
	}
	set.SetRaw("updated_at", "now()")

	idx, args := set.Where(id)
	query := fmt.Sprintf(`UPDATE clients SET %s WHERE id = $%d RETURNING %s`, set.Clause(), idx, clientColumns)

	c, err := scanClient(func(dest ...any) error {
		return store.Conn(ctx, s.pool).QueryRow(ctx, query, args...).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("updating client: %w", err)
	}
	return c, nil
}
