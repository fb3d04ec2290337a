// Package dashboard composes the read-only views shown to clients and
// employees. Every view runs its projects through roi.AggregateProjectMetrics.
package dashboard

import (
	"context"
	"slices"
	"time"

	"github.com/flowmatrix/roiportal/internal/client"
	"github.com/flowmatrix/roiportal/internal/demo"
	"github.com/flowmatrix/roiportal/internal/note"
	"github.com/flowmatrix/roiportal/internal/project"
	"github.com/flowmatrix/roiportal/internal/roi"
	"github.com/flowmatrix/roiportal/internal/task"
)

// Clients reads client companies.
type Clients interface {
	GetByID(ctx context.Context, id string) (*client.Client, error)
	List(ctx context.Context) ([]*client.Client, error)
}

// Projects reads projects.
type Projects interface {
	GetByID(ctx context.Context, id string) (*project.Project, error)
	ListByClient(ctx context.Context, clientID string) ([]*project.Project, error)
	List(ctx context.Context) ([]*project.Project, error)
	ListFiles(ctx context.Context, projectID string) ([]*project.File, error)
}

// Tasks reads tasks.
type Tasks interface {
	ListByProject(ctx context.Context, projectID string) ([]*task.Task, error)
	ListByClient(ctx context.Context, clientID string) ([]*task.Task, error)
	OpenCountsByClient(ctx context.Context) (map[string]int, error)
}

// Notes reads notes.
type Notes interface {
	ListByProject(ctx context.Context, projectID string) ([]*note.Note, error)
	UnreadClientCountsByClient(ctx context.Context) (map[string]int, error)
}

// Service builds dashboard views.
type Service struct {
	clients  Clients
	projects Projects
	tasks    Tasks
	notes    Notes
	now      func() time.Time
}

// NewService creates a Service.
func NewService(clients Clients, projects Projects, tasks Tasks, notes Notes) *Service {
	return &Service{
		clients:  clients,
		projects: projects,
		tasks:    tasks,
		notes:    notes,
		now:      time.Now,
	}
}

// RangeLabel describes r for display.
func RangeLabel(r roi.Range) string {
	switch r {
	case roi.RangeDay:
		return "today"
	case roi.RangeWeek:
		return "last 7 days"
	case roi.RangeMonth:
		return "last 30 days"
	default:
		return "all time"
	}
}

func display(agg roi.Aggregate) Display {
	return Display{
		TotalROI:  roi.FormatCurrency(agg.TotalROI),
		TimeSaved: roi.FormatHours(agg.TotalTimeSaved),
		TotalCost: roi.FormatCurrency(agg.TotalCost),
	}
}

// pendingTrends stands in for period-over-period figures until historical
// snapshots are stored.
func pendingTrends() Trends {
	neutral := TrendPlaceholder{TrendResult: roi.Trend(0, 0)}
	return Trends{ROI: neutral, TimeSaved: neutral}
}

// Client builds the dashboard for clientID. An empty clientID means the
// caller has no client link yet and yields a setup-incomplete view.
func (s *Service) Client(ctx context.Context, clientID string, r roi.Range) (*ClientView, error) {
	view := &ClientView{
		Range:      r,
		RangeLabel: RangeLabel(r),
		Trends:     pendingTrends(),
		Projects:   []*project.Project{},
		Tasks:      []*task.Task{},
	}
	if clientID == "" {
		view.SetupIncomplete = true
		view.Display = display(view.Metrics)
		return view, nil
	}

	c, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	projects, err := s.projects.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	fillClientView(view, c, projects, tasks, s.now())
	return view, nil
}

func fillClientView(view *ClientView, c *client.Client, projects []*project.Project, tasks []*task.Task, now time.Time) {
	view.Client = c
	view.Metrics = roi.AggregateProjectMetrics(project.Formulas(projects), view.Range, now)
	view.Display = display(view.Metrics)
	if projects != nil {
		view.Projects = projects
	}
	if tasks != nil {
		view.Tasks = tasks
	}
}

// Employee builds the cross-client overview. Client ROI is all-time over
// active projects.
func (s *Service) Employee(ctx context.Context) (*EmployeeView, error) {
	clients, err := s.clients.List(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, err
	}
	openTasks, err := s.tasks.OpenCountsByClient(ctx)
	if err != nil {
		return nil, err
	}
	unread, err := s.notes.UnreadClientCountsByClient(ctx)
	if err != nil {
		return nil, err
	}

	byClient := make(map[string][]*project.Project)
	for _, p := range projects {
		byClient[p.ClientID] = append(byClient[p.ClientID], p)
	}

	now := s.now()
	view := &EmployeeView{Clients: make([]ClientSummary, 0, len(clients))}
	for _, c := range clients {
		agg := roi.AggregateProjectMetrics(project.Formulas(byClient[c.ID]), roi.RangeAll, now)
		summary := ClientSummary{
			ID:               c.ID,
			CompanyName:      c.CompanyName,
			Industry:         c.Industry,
			ActiveWorkflows:  agg.ActiveProjects,
			UncompletedTasks: openTasks[c.ID],
			NewClientNotes:   unread[c.ID],
			TotalROI:         agg.TotalROI,
			PaymentStatus:    Placeholder[string]{Value: "paid"},
			TotalRevenue:     Placeholder[float64]{},
		}
		view.Clients = append(view.Clients, summary)
		view.TotalClients++
		view.AggregateROI += summary.TotalROI
		view.OutstandingTasks += summary.UncompletedTasks
	}
	view.AggregateROI = roi.Round2(view.AggregateROI)
	return view, nil
}

// ClientDetail builds an employee's view of one client.
func (s *Service) ClientDetail(ctx context.Context, clientID string) (*ClientDetailView, error) {
	c, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	projects, err := s.projects.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}

	now := s.now()
	view := &ClientDetailView{
		Client:   c,
		Metrics:  roi.AggregateProjectMetrics(project.Formulas(projects), roi.RangeAll, now),
		Projects: make([]ProjectWithMetrics, 0, len(projects)),
		Tasks:    tasks,
	}
	view.Display = display(view.Metrics)
	for _, p := range projects {
		view.Projects = append(view.Projects, ProjectWithMetrics{Project: p, Metrics: roi.ProjectMetrics(p.Formula(), now)})
	}
	return view, nil
}

// Project builds the detail view of one project. Access must already have
// been checked by the caller.
func (s *Service) Project(ctx context.Context, id string) (*ProjectView, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	notes, err := s.notes.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	files, err := s.projects.ListFiles(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &ProjectView{
		Project: p,
		Metrics: roi.ProjectMetrics(p.Formula(), s.now()),
		Notes:   notes,
		Tasks:   tasks,
		Files:   files,
	}
	if view.Notes == nil {
		view.Notes = []*note.Note{}
	}
	if view.Tasks == nil {
		view.Tasks = []*task.Task{}
	}
	if view.Files == nil {
		view.Files = []*project.File{}
	}
	return view, nil
}

// Demo builds the public demo dashboard from the built-in dataset.
func (s *Service) Demo(r roi.Range) *DemoView {
	now := s.now()
	ds := demo.New(now)

	view := &DemoView{ClientView: ClientView{
		Range:      r,
		RangeLabel: RangeLabel(r),
		Trends:     pendingTrends(),
	}}
	projects := slices.Clone(ds.Projects)
	slices.SortStableFunc(projects, func(a, b *project.Project) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	notes := slices.Clone(ds.Notes)
	slices.SortStableFunc(notes, func(a, b *note.Note) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	fillClientView(&view.ClientView, ds.Client, projects, ds.Tasks, now)
	view.Notes = notes
	return view
}
