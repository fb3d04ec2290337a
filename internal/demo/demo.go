// Package demo holds the sample tenant shown on the public demo dashboard
// and written by the seed command. Dates are relative to the time the
// dataset is built so the figures always look current.
package demo

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowmatrix/roiportal/internal/client"
	"github.com/flowmatrix/roiportal/internal/note"
	"github.com/flowmatrix/roiportal/internal/project"
	"github.com/flowmatrix/roiportal/internal/task"
)

// Demo accounts created by the seed command.
const (
	ClientEmail   = "demo@apexconstruction.com"
	EmployeeEmail = "team@flowmatrix.ai"
	Password      = "demo-password"
)

const day = 24 * time.Hour

var namespace = uuid.MustParse("5b0f4f1e-8d4e-4c1a-9f0e-2f5d7b3c9a61")

// ID derives a stable id for a demo record.
func ID(name string) string {
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

// Dataset is one self-contained tenant.
type Dataset struct {
	Client   *client.Client
	Projects []*project.Project
	Tasks    []*task.Task
	Notes    []*note.Note
}

type seedProject struct {
	name         string
	status       string
	hoursWeekly  float64
	dev, impl    float64
	maintenance  float64
	monthsActive int // 0 means not live yet
}

var seedProjects = []seedProject{
	{"Project Management Interface", project.StatusActive, 40, 8000, 1800, 650, 8},
	{"Invoice Management System", project.StatusActive, 10, 4500, 900, 450, 10},
	{"Proposal Generation System", project.StatusActive, 35, 6500, 1500, 550, 6},
	{"Job Scheduling & Dispatch Automation", project.StatusActive, 25, 9500, 2200, 800, 7},
	{"Material Ordering & Inventory Tracking", project.StatusActive, 15, 5500, 1200, 500, 4},
	{"Customer Follow-up & Review Requests", project.StatusActive, 12, 3800, 700, 400, 9},
	{"Timesheet & Payroll Automation", project.StatusActive, 30, 7500, 2000, 600, 5},
	{"Subcontractor Management System", project.StatusDev, 20, 6700, 1700, 0, 0},
}

type seedTask struct {
	project     int
	description string
	completed   bool
	dueIn       int // days from now, negative for past
}

var seedTasks = []seedTask{
	{0, "Initial training session with project managers", true, -240},
	{0, "Review Q4 project analytics dashboard", false, 6},
	{1, "Connect QuickBooks integration for invoice sync", true, -295},
	{2, "Update material cost database for winter pricing", false, 10},
	{3, "Train dispatch team on route optimization features", true, -200},
	{4, "Review monthly inventory reports and adjust reorder thresholds", false, 15},
	{6, "Review overtime tracking accuracy with field supervisors", false, 13},
	{7, "Build payment tracking dashboard prototype", true, -17},
	{7, "Complete user acceptance testing with accounting team", false, 20},
	{7, "Schedule go-live training sessions for operations team", false, 25},
}

type seedNote struct {
	project  int
	noteType string
	content  string
	daysAgo  int
	read     bool
}

var seedNotes = []seedNote{
	{0, note.TypeClient, "Team is loving the new project dashboard! Much easier to track commercial job progress.", 12, true},
	{0, note.TypeFlowmatrixAI, "System running smoothly. Added custom report for residential vs commercial job breakdown per your request.", 9, true},
	{1, note.TypeClient, "Invoice processing time has dropped from 3 days to same-day.", 37, true},
	{2, note.TypeClient, "Can we add a section for optional add-ons in the proposal template?", 76, true},
	{2, note.TypeFlowmatrixAI, "Optional add-ons section added to all proposal templates.", 68, true},
	{3, note.TypeClient, "Route optimization is saving us 2-3 hours per day in drive time.", 101, true},
	{4, note.TypeClient, "No more emergency material runs! System alerts us before we run out.", 52, true},
	{7, note.TypeClient, "Can the subcontractor portal send lien waiver reminders too?", 2, false},
}

// New builds the dataset as of now.
func New(now time.Time) *Dataset {
	today := now.UTC().Truncate(day)
	wage := 28.50
	industry := "Construction & Home Services"

	ds := &Dataset{
		Client: &client.Client{
			ID:              ID("client"),
			CompanyName:     "Apex Construction Inc.",
			Industry:        &industry,
			AvgEmployeeWage: &wage,
			CreatedAt:       today.Add(-330 * day),
			UpdatedAt:       today,
		},
	}

	for i, ps := range seedProjects {
		weekly, w := ps.hoursWeekly, wage
		p := &project.Project{
			ID:                 ID("project-" + ps.name),
			ClientID:           ds.Client.ID,
			Name:               ps.name,
			Status:             ps.status,
			HoursSavedWeekly:   &weekly,
			EmployeeWage:       &w,
			DevCost:            ps.dev,
			ImplementationCost: ps.impl,
			MonthlyMaintenance: ps.maintenance,
			CreatedAt:          today.Add(-time.Duration(ps.monthsActive*30+40) * day),
			UpdatedAt:          today.Add(-time.Duration(i) * day),
		}
		if ps.monthsActive > 0 {
			goLive := today.Add(-time.Duration(ps.monthsActive*30) * day)
			p.GoLiveDate = &goLive
		}
		ds.Projects = append(ds.Projects, p)
	}

	for i, ts := range seedTasks {
		p := ds.Projects[ts.project]
		due := today.Add(time.Duration(ts.dueIn) * day)
		t := &task.Task{
			ID:          ID("task-" + ts.description),
			ProjectID:   p.ID,
			Description: ts.description,
			IsCompleted: ts.completed,
			DueDate:     &due,
			CreatedAt:   due.Add(-14 * day),
			ProjectName: p.Name,
		}
		if ts.completed {
			done := due.Add(-time.Duration(i%3) * day)
			t.CompletedAt = &done
		}
		ds.Tasks = append(ds.Tasks, t)
	}

	for _, ns := range seedNotes {
		author := ID("user-" + ClientEmail)
		if ns.noteType == note.TypeFlowmatrixAI {
			author = ID("user-" + EmployeeEmail)
		}
		ds.Notes = append(ds.Notes, &note.Note{
			ID:        ID("note-" + ns.content),
			ProjectID: ds.Projects[ns.project].ID,
			AuthorID:  author,
			NoteType:  ns.noteType,
			Content:   ns.content,
			IsRead:    ns.read,
			CreatedAt: now.Add(-time.Duration(ns.daysAgo) * day),
		})
	}

	return ds
}

// ProjectTasks returns the tasks of the project with id.
func (d *Dataset) ProjectTasks(id string) []*task.Task {
	var out []*task.Task
	for _, t := range d.Tasks {
		if t.ProjectID == id {
			out = append(out, t)
		}
	}
	return out
}

// ProjectNotes returns the notes of the project with id, newest first.
func (d *Dataset) ProjectNotes(id string) []*note.Note {
	var out []*note.Note
	for i := len(d.Notes) - 1; i >= 0; i-- {
		if d.Notes[i].ProjectID == id {
			out = append(out, d.Notes[i])
		}
	}
	return out
}
