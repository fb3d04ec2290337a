package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flowmatrix/roiportal/internal/account"
	"github.com/flowmatrix/roiportal/internal/apperr"
	"github.com/flowmatrix/roiportal/internal/auth"
	"github.com/flowmatrix/roiportal/internal/client"
	"github.com/flowmatrix/roiportal/internal/dashboard"
	"github.com/flowmatrix/roiportal/internal/invite"
	"github.com/flowmatrix/roiportal/internal/note"
	"github.com/flowmatrix/roiportal/internal/project"
	"github.com/flowmatrix/roiportal/internal/roi"
	"github.com/flowmatrix/roiportal/internal/task"
	"github.com/flowmatrix/roiportal/internal/testimonial"
	"github.com/flowmatrix/roiportal/internal/user"
	"github.com/flowmatrix/roiportal/internal/validate"
)

const (
	clientAID  = "11111111-1111-4111-8111-111111111111"
	clientBID  = "22222222-2222-4222-8222-222222222222"
	projectAID = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"
	projectBID = "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb"
	missingID  = "99999999-9999-4999-8999-999999999999"

	employeeID  = "e0000000-0000-4000-8000-000000000001"
	clientUserA = "c0000000-0000-4000-8000-00000000000a"
	clientUserB = "c0000000-0000-4000-8000-00000000000b"
	orphanID    = "c0000000-0000-4000-8000-0000000000ff"

	employeeToken = "employee-token"
	clientAToken  = "client-a-token"
	clientBToken  = "client-b-token"
	orphanToken   = "orphan-token"
)

func notFound(what string) error {
	return fmt.Errorf("getting %s: %w", what, pgx.ErrNoRows)
}

// --- identity ---

type fakeSessions map[string]*auth.User

func (f fakeSessions) LookupSession(ctx context.Context, token string) (*auth.User, error) {
	u, ok := f[token]
	if !ok {
		return nil, errors.New("session not found")
	}
	return u, nil
}

type fakeMemberships map[string]string

func (f fakeMemberships) ClientIDForUser(ctx context.Context, userID string) (string, error) {
	return f[userID], nil
}

// --- stores ---

type fakeProjects struct {
	mu      sync.Mutex
	byID    map[string]*project.Project
	updates int
}

func (f *fakeProjects) ClientIDOf(ctx context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return "", notFound("project client")
	}
	return p.ClientID, nil
}

func (f *fakeProjects) Update(ctx context.Context, id string, in project.UpdateProjectInput) (*project.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, notFound("project")
	}
	f.updates++
	if in.Name.Present {
		p.Name = in.Name.V
	}
	if in.Status.Present {
		p.Status = in.Status.V
	}
	if in.EmployeeWage.Present {
		p.EmployeeWage = in.EmployeeWage.Ptr()
	}
	if in.DevCost.Present {
		p.DevCost = in.DevCost.V
	}
	if in.GoLiveDate.Present {
		goLive, err := project.ParseDate(in.GoLiveDate)
		if err != nil {
			return nil, err
		}
		p.GoLiveDate = goLive
	}
	return p, nil
}

type fakeTasks struct {
	mu     sync.Mutex
	byID   map[string]*task.Task
	writes int
}

func (f *fakeTasks) Create(ctx context.Context, projectID, description string, due *time.Time) (*task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &task.Task{ID: uuid.NewString(), ProjectID: projectID, Description: description, DueDate: due, CreatedAt: time.Now()}
	f.byID[t.ID] = t
	f.writes++
	return t, nil
}

func (f *fakeTasks) GetByID(ctx context.Context, id string) (*task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return nil, notFound("task")
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTasks) SetCompleted(ctx context.Context, id string, completed bool, at time.Time) (*task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return nil, notFound("task")
	}
	f.writes++
	t.IsCompleted = completed
	t.CompletedAt = nil
	if completed {
		t.CompletedAt = &at
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTasks) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	f.writes++
	return nil
}

type fakeNotes struct {
	mu   sync.Mutex
	byID map[string]*note.Note
}

func (f *fakeNotes) Create(ctx context.Context, authorID string, in note.CreateNoteInput) (*note.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := &note.Note{
		ID:        uuid.NewString(),
		ProjectID: in.ProjectID,
		AuthorID:  authorID,
		NoteType:  in.NoteType,
		Content:   in.Content,
		CreatedAt: time.Now(),
	}
	f.byID[n.ID] = n
	return n, nil
}

func (f *fakeNotes) GetByID(ctx context.Context, id string) (*note.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[id]
	if !ok {
		return nil, notFound("note")
	}
	cp := *n
	return &cp, nil
}

func (f *fakeNotes) ListByProject(ctx context.Context, projectID string) ([]*note.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*note.Note
	for _, n := range f.byID {
		if n.ProjectID == projectID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotes) Update(ctx context.Context, in note.UpdateNoteInput) (*note.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[in.ID]
	if !ok {
		return nil, notFound("note")
	}
	if in.Content != nil {
		n.Content = *in.Content
	}
	if in.IsRead != nil {
		n.IsRead = *in.IsRead
	}
	cp := *n
	return &cp, nil
}

func (f *fakeNotes) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

type fakeTestimonials struct {
	mu    sync.Mutex
	items []*testimonial.Testimonial
}

func (f *fakeTestimonials) Create(ctx context.Context, in testimonial.CreateTestimonialInput) (*testimonial.Testimonial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &testimonial.Testimonial{ID: uuid.NewString(), ClientID: in.ClientID, UserID: in.UserID, Content: in.Content, CreatedAt: time.Now()}
	f.items = append(f.items, t)
	return t, nil
}

func (f *fakeTestimonials) List(ctx context.Context) ([]*testimonial.Testimonial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items, nil
}

type fakeClients struct {
	byID map[string]*client.Client
}

func (f *fakeClients) Update(ctx context.Context, id string, in client.UpdateClientInput) (*client.Client, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, notFound("client")
	}
	if in.CompanyName.Present {
		c.CompanyName = in.CompanyName.V
	}
	if in.AvgEmployeeWage.Present {
		c.AvgEmployeeWage = in.AvgEmployeeWage.Ptr()
	}
	return c, nil
}

// --- services ---

type fakeDashboards struct {
	gotClientID string
	gotRange    roi.Range
}

func (f *fakeDashboards) Client(ctx context.Context, clientID string, r roi.Range) (*dashboard.ClientView, error) {
	f.gotClientID, f.gotRange = clientID, r
	if clientID == "" {
		return &dashboard.ClientView{SetupIncomplete: true, Range: r}, nil
	}
	return &dashboard.ClientView{Client: &client.Client{ID: clientID}, Range: r}, nil
}

func (f *fakeDashboards) Employee(ctx context.Context) (*dashboard.EmployeeView, error) {
	return &dashboard.EmployeeView{TotalClients: 2}, nil
}

func (f *fakeDashboards) ClientDetail(ctx context.Context, clientID string) (*dashboard.ClientDetailView, error) {
	if clientID != clientAID && clientID != clientBID {
		return nil, notFound("client")
	}
	return &dashboard.ClientDetailView{Client: &client.Client{ID: clientID}}, nil
}

func (f *fakeDashboards) Project(ctx context.Context, id string) (*dashboard.ProjectView, error) {
	if id != projectAID && id != projectBID {
		return nil, notFound("project")
	}
	return &dashboard.ProjectView{Project: &project.Project{ID: id}}, nil
}

func (f *fakeDashboards) Demo(r roi.Range) *dashboard.DemoView {
	return &dashboard.DemoView{ClientView: dashboard.ClientView{Range: r}}
}

type fakeAccounts struct {
	mu       sync.Mutex
	local    bool
	emails   map[string]bool
	loggedIn []string
	touched  []string
	signups  int
}

func (f *fakeAccounts) Signup(ctx context.Context, req validate.SignupRequest) (*account.SignupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emails[req.Email] {
		return nil, apperr.Conflict("An account with this email already exists")
	}
	f.signups++
	return &account.SignupResult{
		User:    &user.User{ID: uuid.NewString(), Email: req.Email, Role: auth.RoleClient},
		Client:  &client.Client{ID: uuid.NewString(), CompanyName: req.CompanyName},
		Session: &account.Session{Token: "new-session", ExpiresAt: time.Now().Add(time.Hour)},
	}, nil
}

func (f *fakeAccounts) Login(ctx context.Context, req validate.LoginRequest) (*user.User, *account.Session, error) {
	if req.Password != "correct-horse" {
		return nil, nil, apperr.Unauthenticated("invalid email or password")
	}
	return &user.User{ID: clientUserA, Email: req.Email, Role: auth.RoleClient},
		&account.Session{Token: "fresh-token", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeAccounts) Logout(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedIn = append(f.loggedIn, token)
	return nil
}

func (f *fakeAccounts) Touch(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, userID)
}

func (f *fakeAccounts) Local() bool { return f.local }

type fakeInvites struct {
	mode    string
	invited []string
}

func (f *fakeInvites) Invite(ctx context.Context, email, invitedBy string) (*invite.Result, error) {
	f.invited = append(f.invited, email+":"+invitedBy)
	return &invite.Result{Success: true, Message: "Invitation created for " + email, Mode: f.mode, UserID: uuid.NewString(), Token: "tok"}, nil
}

func (f *fakeInvites) Accept(ctx context.Context, token, password string) (*user.User, error) {
	return &user.User{ID: uuid.NewString(), Email: "new@flowmatrix.ai", Role: auth.RoleEmployee}, nil
}

func (f *fakeInvites) Mode() string { return f.mode }

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }
