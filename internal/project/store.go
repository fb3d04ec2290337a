package project

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flowmatrix/roiportal/internal/apperr"
	"github.com/flowmatrix/roiportal/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DateLayout is the wire format of go_live_date.
const DateLayout = "2006-01-02"

// Store provides database operations for projects and their files.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const projectColumns = `id, client_id, name, status, hours_saved_daily, hours_saved_weekly,
	hours_saved_monthly, employee_wage, dev_cost, implementation_cost, monthly_maintenance,
	go_live_date, created_at, updated_at`

func scanProject(scan func(dest ...any) error) (*Project, error) {
	p := &Project{}
	err := scan(
		&p.ID, &p.ClientID, &p.Name, &p.Status,
		&p.HoursSavedDaily, &p.HoursSavedWeekly, &p.HoursSavedMonthly,
		&p.EmployeeWage, &p.DevCost, &p.ImplementationCost, &p.MonthlyMaintenance,
		&p.GoLiveDate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new project.
func (s *Store) Create(ctx context.Context, in CreateProjectInput) (*Project, error) {
	status := in.Status
	if status == "" {
		status = StatusProposed
	}

	p, err := scanProject(func(dest ...any) error {
		return store.Conn(ctx, s.pool).QueryRow(ctx,
			`INSERT INTO projects (client_id, name, status, hours_saved_daily, hours_saved_weekly,
				hours_saved_monthly, employee_wage, dev_cost, implementation_cost,
				monthly_maintenance, go_live_date)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING `+projectColumns,
			in.ClientID, in.Name, status, in.HoursSavedDaily, in.HoursSavedWeekly,
			in.HoursSavedMonthly, in.EmployeeWage, in.DevCost, in.ImplementationCost,
			in.MonthlyMaintenance, in.GoLiveDate,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	return p, nil
}

// GetByID retrieves a project by primary key.
func (s *Store) GetByID(ctx context.Context, id string) (*Project, error) {
	p, err := scanProject(func(dest ...any) error {
		return store.Conn(ctx, s.pool).QueryRow(ctx,
			`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return p, nil
}

// ClientIDOf returns the client owning the project.
func (s *Store) ClientIDOf(ctx context.Context, id string) (string, error) {
	var clientID string
	err := store.Conn(ctx, s.pool).QueryRow(ctx,
		`SELECT client_id FROM projects WHERE id = $1`, id,
	).Scan(&clientID)
	if err != nil {
		return "", fmt.Errorf("getting project owner: %w", err)
	}
	return clientID, nil
}

// ListByClient returns the client's projects, newest first.
func (s *Store) ListByClient(ctx context.Context, clientID string) ([]*Project, error) {
	return s.list(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE client_id = $1 ORDER BY created_at DESC`,
		clientID)
}

// List returns every project, newest first.
func (s *Store) List(ctx context.Context) ([]*Project, error) {
	return s.list(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*Project, error) {
	rows, err := store.Conn(ctx, s.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning project row: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Update applies a partial update. Fields absent from in are left alone;
// present nulls clear nullable columns.
func (s *Store) Update(ctx context.Context, id string, in UpdateProjectInput) (*Project, error) {
	var set store.Assignments

	if in.Name.Present {
		set.Set("name", in.Name.V)
	}
	if in.Status.Present {
		set.Set("status", in.Status.V)
	}
	if in.HoursSavedDaily.Present {
		set.Set("hours_saved_daily", in.HoursSavedDaily.Ptr())
	}
	if in.HoursSavedWeekly.Present {
		set.Set("hours_saved_weekly", in.HoursSavedWeekly.Ptr())
	}
	if in.HoursSavedMonthly.Present {
		set.Set("hours_saved_monthly", in.HoursSavedMonthly.Ptr())
	}
	if in.EmployeeWage.Present {
		set.Set("employee_wage", in.EmployeeWage.Ptr())
	}
	if in.DevCost.Present {
		set.Set("dev_cost", in.DevCost.V)
	}
	if in.ImplementationCost.Present {
		set.Set("implementation_cost", in.ImplementationCost.V)
	}
	if in.MonthlyMaintenance.Present {
		set.Set("monthly_maintenance", in.MonthlyMaintenance.V)
	}
	if in.GoLiveDate.Present {
		goLive, err := ParseDate(in.GoLiveDate)
		if err != nil {
			return nil, fmt.Errorf("parsing go_live_date: %w", err)
		}
		set.Set("go_live_date", goLive)
	}

	if set.Empty() {
		return s.GetByID(ctx, id)
	}
	set.SetRaw("updated_at", "now()")

	idx, args := set.Where(id)
	query := fmt.Sprintf(`UPDATE projects SET %s WHERE id = $%d RETURNING %s`,
		set.Clause(), idx, projectColumns)

	p, err := scanProject(func(dest ...any) error {
		return store.Conn(ctx, s.pool).QueryRow(ctx, query, args...).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("updating project: %w", err)
	}
	return p, nil
}

// ListFiles returns the project's file metadata, newest first.
func (s *Store) ListFiles(ctx context.Context, projectID string) ([]*File, error) {
	rows, err := store.Conn(ctx, s.pool).Query(ctx,
		`SELECT id, project_id, file_name, file_url, file_type, uploaded_by, created_at
		 FROM files WHERE project_id = $1 ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.FileName, &f.FileURL, &f.FileType, &f.UploadedBy, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning file row: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp. Null and blank
// strings yield nil.
func ParseDate(o store.Optional[string]) (*time.Time, error) {
	if !o.Valid {
		return nil, nil
	}
	v := strings.TrimSpace(o.V)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(DateLayout, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Message: "Invalid date format", Err: err}
	}
	return &t, nil
}
