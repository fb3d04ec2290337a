package note

import (
	"context"
	"fmt"

	"github.com/flowmatrix/roiportal/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for notes.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const noteColumns = `id, project_id, author_id, note_type, content, is_read, created_at`

func scanNote(scan func(dest ...any) error) (*Note, error) {
	n := &Note{}
	if err := scan(&n.ID, &n.ProjectID, &n.AuthorID, &n.NoteType, &n.Content, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	return n, nil
}

// Create inserts an unread note.
func (s *Store) Create(ctx context.Context, authorID string, in CreateNoteInput) (*Note, error) {
	n, err := scanNote(func(dest ...any) error {
		return store.Conn(ctx, s.pool).QueryRow(ctx,
			`INSERT INTO notes (project_id, author_id, note_type, content, is_read)
			 VALUES ($1, $2, $3, $4, false)
			 RETURNING `+noteColumns,
			in.ProjectID, authorID, in.NoteType, in.Content,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("creating note: %w", err)
	}
	return n, nil
}

// GetByID retrieves a note by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*Note, error) {
	n, err := scanNote(func(dest ...any) error {
		return store.Conn(ctx, s.pool).QueryRow(ctx,
			`SELECT `+noteColumns+` FROM notes WHERE id = $1`, id,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting note: %w", err)
	}
	return n, nil
}

// ListByProject returns the project's notes, newest first.
func (s *Store) ListByProject(ctx context.Context, projectID string) ([]*Note, error) {
	rows, err := store.Conn(ctx, s.pool).Query(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE project_id = $1 ORDER BY created_at DESC`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		n, err := scanNote(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning note row: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Update applies a content edit and/or read-state change.
func (s *Store) Update(ctx context.Context, in UpdateNoteInput) (*Note, error) {
	var set store.Assignments
	if in.Content != nil {
		set.Set("content", *in.Content)
	}
	if in.IsRead != nil {
		set.Set("is_read", *in.IsRead)
	}
	if set.Empty() {
		return s.GetByID(ctx, in.ID)
	}

	idx, args := set.Where(in.ID)
	query := fmt.Sprintf(`UPDATE notes SET %s WHERE id = $%d RETURNING %s`, set.Clause(), idx, noteColumns)

	n, err := scanNote(func(dest ...any) error {
		return store.Conn(ctx, s.pool).QueryRow(ctx, query, args...).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("updating note: %w", err)
	}
	return n, nil
}

// Delete removes a note by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := store.Conn(ctx, s.pool).Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	return nil
}

// UnreadClientCountsByClient returns, per client id, how many client-authored
// notes employees have not read yet.
func (s *Store) UnreadClientCountsByClient(ctx context.Context) (map[string]int, error) {
	rows, err := store.Conn(ctx, s.pool).Query(ctx,
		`SELECT p.client_id, count(*)
		 FROM notes n JOIN projects p ON p.id = n.project_id
		 WHERE n.note_type = $1 AND NOT n.is_read
		 GROUP BY p.client_id`, TypeClient)
	if err != nil {
		return nil, fmt.Errorf("counting unread notes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var clientID string
		var n int
		if err := rows.Scan(&clientID, &n); err != nil {
			return nil, fmt.Errorf("scanning note count: %w", err)
		}
		counts[clientID] = n
	}
	return counts, rows.Err()
}
