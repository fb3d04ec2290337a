package project

import (
	"time"

	"github.com/flowmatrix/roiportal/internal/roi"
	"github.com/flowmatrix/roiportal/internal/store"
)

// Project statuses.
const (
	StatusActive   = "active"
	StatusDev      = "dev"
	StatusProposed = "proposed"
	StatusInactive = "inactive"
)

// Statuses lists every valid status.
var Statuses = []string{StatusActive, StatusDev, StatusProposed, StatusInactive}

// Project is an automation delivered to a client.
type Project struct {
	ID                 string     `json:"id"`
	ClientID           string     `json:"client_id"`
	Name               string     `json:"name"`
	Status             string     `json:"status"`
	HoursSavedDaily    *float64   `json:"hours_saved_daily"`
	HoursSavedWeekly   *float64   `json:"hours_saved_weekly"`
	HoursSavedMonthly  *float64   `json:"hours_saved_monthly"`
	EmployeeWage       *float64   `json:"employee_wage"`
	DevCost            float64    `json:"dev_cost"`
	ImplementationCost float64    `json:"implementation_cost"`
	MonthlyMaintenance float64    `json:"monthly_maintenance"`
	GoLiveDate         *time.Time `json:"go_live_date"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Formula returns the fields the ROI formulas need.
func (p *Project) Formula() roi.ProjectInput {
	return roi.ProjectInput{
		Status:             p.Status,
		HoursSavedDaily:    p.HoursSavedDaily,
		HoursSavedWeekly:   p.HoursSavedWeekly,
		HoursSavedMonthly:  p.HoursSavedMonthly,
		EmployeeWage:       p.EmployeeWage,
		DevCost:            p.DevCost,
		ImplementationCost: p.ImplementationCost,
		MonthlyMaintenance: p.MonthlyMaintenance,
		GoLiveDate:         p.GoLiveDate,
	}
}

// Formulas converts a slice of projects for roi.AggregateProjectMetrics.
func Formulas(projects []*Project) []roi.ProjectInput {
	out := make([]roi.ProjectInput, len(projects))
	for i, p := range projects {
		out[i] = p.Formula()
	}
	return out
}

// CreateProjectInput holds the fields required to create a project.
type CreateProjectInput struct {
	ClientID           string     `json:"client_id"`
	Name               string     `json:"name"`
	Status             string     `json:"status"`
	HoursSavedDaily    *float64   `json:"hours_saved_daily"`
	HoursSavedWeekly   *float64   `json:"hours_saved_weekly"`
	HoursSavedMonthly  *float64   `json:"hours_saved_monthly"`
	EmployeeWage       *float64   `json:"employee_wage"`
	DevCost            float64    `json:"dev_cost"`
	ImplementationCost float64    `json:"implementation_cost"`
	MonthlyMaintenance float64    `json:"monthly_maintenance"`
	GoLiveDate         *time.Time `json:"go_live_date"`
}

// UpdateProjectInput is a PATCH body. Nullable columns accept an explicit
// null to clear them.
type UpdateProjectInput struct {
	Name               store.Optional[string]  `json:"name"`
	Status             store.Optional[string]  `json:"status"`
	HoursSavedDaily    store.Optional[float64] `json:"hours_saved_daily"`
	HoursSavedWeekly   store.Optional[float64] `json:"hours_saved_weekly"`
	HoursSavedMonthly  store.Optional[float64] `json:"hours_saved_monthly"`
	EmployeeWage       store.Optional[float64] `json:"employee_wage"`
	DevCost            store.Optional[float64] `json:"dev_cost"`
	ImplementationCost store.Optional[float64] `json:"implementation_cost"`
	MonthlyMaintenance store.Optional[float64] `json:"monthly_maintenance"`
	GoLiveDate         store.Optional[string]  `json:"go_live_date"`
}

// File is reference metadata for a document attached to a project.
type File struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	FileName   string    `json:"file_name"`
	FileURL    string    `json:"file_url"`
	FileType   *string   `json:"file_type"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}
