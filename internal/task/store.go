package task

import (
	"context"
	"fmt"
	"time"

	"github.com/flowmatrix/roiportal/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for tasks.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const taskColumns = `id, project_id, description, is_completed, due_date, created_at, completed_at`

func scanTask(scan func(dest ...any) error) (*Task, error) {
	t := &Task{}
	if err := scan(&t.ID, &t.ProjectID, &t.Description, &t.IsCompleted, &t.DueDate, &t.CreatedAt, &t.CompletedAt); err != nil {
		return nil, err
	}
	return t, nil
}

// Create inserts an incomplete task.
func (s *Store) Create(ctx context.Context, projectID, description string, dueDate *time.Time) (*Task, error) {
	t, err := scanTask(func(dest ...any) error {
		return store.Conn(ctx, s.pool).QueryRow(ctx,
			`INSERT INTO tasks (project_id, description, is_completed, due_date)
			 VALUES ($1, $2, false, $3)
			 RETURNING `+taskColumns,
			projectID, description, dueDate,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return t, nil
}

// GetByID retrieves a task by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*Task, error) {
	t, err := scanTask(func(dest ...any) error {
		return store.Conn(ctx, s.pool).QueryRow(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}
	return t, nil
}

// SetCompleted records a completion state change. completed_at is stamped
// with at when completing and cleared when reopening.
func (s *Store) SetCompleted(ctx context.Context, id string, completed bool, at time.Time) (*Task, error) {
	var completedAt *time.Time
	if completed {
		completedAt = &at
	}

	t, err := scanTask(func(dest ...any) error {
		return store.Conn(ctx, s.pool).QueryRow(ctx,
			`UPDATE tasks SET is_completed = $1, completed_at = $2 WHERE id = $3
			 RETURNING `+taskColumns,
			completed, completedAt, id,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}
	return t, nil
}

// Delete removes a task by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := store.Conn(ctx, s.pool).Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return nil
}

// ListByProject returns the project's tasks ordered by due date, undated last.
func (s *Store) ListByProject(ctx context.Context, projectID string) ([]*Task, error) {
	rows, err := store.Conn(ctx, s.pool).Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = $1
		 ORDER BY due_date ASC NULLS LAST, created_at ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ListByClient returns every task across the client's projects, with the
// project name, ordered by due date, undated last.
func (s *Store) ListByClient(ctx context.Context, clientID string) ([]*Task, error) {
	rows, err := store.Conn(ctx, s.pool).Query(ctx,
		`SELECT t.id, t.project_id, t.description, t.is_completed, t.due_date,
		        t.created_at, t.completed_at, p.name
		 FROM tasks t JOIN projects p ON p.id = t.project_id
		 WHERE p.client_id = $1
		 ORDER BY t.due_date ASC NULLS LAST, t.created_at ASC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("listing client tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t := &Task{}
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Description, &t.IsCompleted, &t.DueDate,
			&t.CreatedAt, &t.CompletedAt, &t.ProjectName); err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// OpenCountsByClient returns the number of uncompleted tasks per client id.
// Clients with none are absent from the map.
func (s *Store) OpenCountsByClient(ctx context.Context) (map[string]int, error) {
	rows, err := store.Conn(ctx, s.pool).Query(ctx,
		`SELECT p.client_id, count(*)
		 FROM tasks t JOIN projects p ON p.id = t.project_id
		 WHERE NOT t.is_completed
		 GROUP BY p.client_id`)
	if err != nil {
		return nil, fmt.Errorf("counting open tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var clientID string
		var n int
		if err := rows.Scan(&clientID, &n); err != nil {
			return nil, fmt.Errorf("scanning task count: %w", err)
		}
		counts[clientID] = n
	}
	return counts, rows.Err()
}
