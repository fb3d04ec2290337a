package dashboard

import (
	"github.com/flowmatrix/roiportal/internal/client"
	"github.com/flowmatrix/roiportal/internal/note"
	"github.com/flowmatrix/roiportal/internal/project"
	"github.com/flowmatrix/roiportal/internal/roi"
	"github.com/flowmatrix/roiportal/internal/task"
)

// Placeholder is a field the product shows but does not compute yet.
// Implemented is always false until the backing feature exists.
type Placeholder[T any] struct {
	Value       T    `json:"value"`
	Implemented bool `json:"implemented"`
}

// TrendPlaceholder is a trend figure that is not computed yet.
type TrendPlaceholder struct {
	roi.TrendResult
	Implemented bool `json:"implemented"`
}

// Display holds the formatted headline figures.
type Display struct {
	TotalROI  string `json:"total_roi"`
	TimeSaved string `json:"time_saved"`
	TotalCost string `json:"total_cost"`
}

// Trends are the period-over-period changes on the client dashboard.
type Trends struct {
	ROI       TrendPlaceholder `json:"roi"`
	TimeSaved TrendPlaceholder `json:"time_saved"`
}

// ClientView is the dashboard of a client user.
type ClientView struct {
	SetupIncomplete bool               `json:"setup_incomplete"`
	Client          *client.Client     `json:"client,omitempty"`
	Range           roi.Range          `json:"range"`
	RangeLabel      string             `json:"range_label"`
	Metrics         roi.Aggregate      `json:"metrics"`
	Display         Display            `json:"display"`
	Trends          Trends             `json:"trends"`
	Projects        []*project.Project `json:"projects"`
	Tasks           []*task.Task       `json:"tasks"`
}

// ClientSummary is one client card on the employee dashboard.
type ClientSummary struct {
	ID               string               `json:"id"`
	CompanyName      string               `json:"company_name"`
	Industry         *string              `json:"industry"`
	ActiveWorkflows  int                  `json:"active_workflows"`
	UncompletedTasks int                  `json:"uncompleted_tasks"`
	NewClientNotes   int                  `json:"new_client_notes"`
	TotalROI         float64              `json:"total_roi"`
	PaymentStatus    Placeholder[string]  `json:"payment_status"`
	TotalRevenue     Placeholder[float64] `json:"total_revenue"`
}

// EmployeeView is the cross-client overview for employees.
type EmployeeView struct {
	TotalClients     int             `json:"total_clients"`
	AggregateROI     float64         `json:"aggregate_roi"`
	OutstandingTasks int             `json:"outstanding_tasks"`
	Clients          []ClientSummary `json:"clients"`
}

// ProjectWithMetrics is a project and its metric breakdown.
type ProjectWithMetrics struct {
	*project.Project
	Metrics roi.Detail `json:"metrics"`
}

// ClientDetailView is an employee's view of a single client.
type ClientDetailView struct {
	Client   *client.Client       `json:"client"`
	Metrics  roi.Aggregate        `json:"metrics"`
	Display  Display              `json:"display"`
	Projects []ProjectWithMetrics `json:"projects"`
	Tasks    []*task.Task         `json:"tasks"`
}

// ProjectView is a project with its notes, tasks and files.
type ProjectView struct {
	*project.Project
	Metrics roi.Detail      `json:"metrics"`
	Notes   []*note.Note    `json:"notes"`
	Tasks   []*task.Task    `json:"tasks"`
	Files   []*project.File `json:"files"`
}

// DemoView is the public demo dashboard.
type DemoView struct {
	ClientView
	Notes []*note.Note `json:"notes"`
}
