package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowmatrix/roiportal/internal/account"
	"github.com/flowmatrix/roiportal/internal/auth"
	"github.com/flowmatrix/roiportal/internal/client"
	"github.com/flowmatrix/roiportal/internal/dashboard"
	"github.com/flowmatrix/roiportal/internal/invite"
	"github.com/flowmatrix/roiportal/internal/metrics"
	"github.com/flowmatrix/roiportal/internal/note"
	"github.com/flowmatrix/roiportal/internal/policy"
	"github.com/flowmatrix/roiportal/internal/project"
	"github.com/flowmatrix/roiportal/internal/ratelimit"
	"github.com/flowmatrix/roiportal/internal/roi"
	"github.com/flowmatrix/roiportal/internal/task"
	"github.com/flowmatrix/roiportal/internal/testimonial"
	"github.com/flowmatrix/roiportal/internal/user"
	"github.com/flowmatrix/roiportal/internal/validate"
)

// ProjectStore is the project persistence the handlers use.
type ProjectStore interface {
	ClientIDOf(ctx context.Context, id string) (string, error)
	Update(ctx context.Context, id string, in project.UpdateProjectInput) (*project.Project, error)
}

// TaskStore is the task persistence the handlers use.
type TaskStore interface {
	Create(ctx context.Context, projectID, description string, dueDate *time.Time) (*task.Task, error)
	GetByID(ctx context.Context, id string) (*task.Task, error)
	SetCompleted(ctx context.Context, id string, completed bool, at time.Time) (*task.Task, error)
	Delete(ctx context.Context, id string) error
}

// NoteStore is the note persistence the handlers use.
type NoteStore interface {
	Create(ctx context.Context, authorID string, in note.CreateNoteInput) (*note.Note, error)
	GetByID(ctx context.Context, id string) (*note.Note, error)
	ListByProject(ctx context.Context, projectID string) ([]*note.Note, error)
	Update(ctx context.Context, in note.UpdateNoteInput) (*note.Note, error)
	Delete(ctx context.Context, id string) error
}

// TestimonialStore is the testimonial persistence the handlers use.
type TestimonialStore interface {
	Create(ctx context.Context, in testimonial.CreateTestimonialInput) (*testimonial.Testimonial, error)
	List(ctx context.Context) ([]*testimonial.Testimonial, error)
}

// ClientStore is the client persistence the handlers use.
type ClientStore interface {
	Update(ctx context.Context, id string, in client.UpdateClientInput) (*client.Client, error)
}

// Dashboards builds the read-only views.
type Dashboards interface {
	Client(ctx context.Context, clientID string, r roi.Range) (*dashboard.ClientView, error)
	Employee(ctx context.Context) (*dashboard.EmployeeView, error)
	ClientDetail(ctx context.Context, clientID string) (*dashboard.ClientDetailView, error)
	Project(ctx context.Context, id string) (*dashboard.ProjectView, error)
	Demo(r roi.Range) *dashboard.DemoView
}

// Accounts implements signup and local sign-in.
type Accounts interface {
	Signup(ctx context.Context, req validate.SignupRequest) (*account.SignupResult, error)
	Login(ctx context.Context, req validate.LoginRequest) (*user.User, *account.Session, error)
	Logout(ctx context.Context, token string) error
	Touch(userID string)
	Local() bool
}

// Invitations creates and accepts employee invitations.
type Invitations interface {
	Invite(ctx context.Context, email, invitedBy string) (*invite.Result, error)
	Accept(ctx context.Context, token, password string) (*user.User, error)
	Mode() string
}

// AccountObserver counts account events by outcome.
type AccountObserver interface {
	IncAccountEvent(event, outcome string)
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps holds all dependencies for the API router. Metrics, DB and the
// limiters are optional.
type RouterDeps struct {
	Sessions     auth.SessionLookup
	AuthProvider string
	Guard        *policy.Guard

	Projects     ProjectStore
	Tasks        TaskStore
	Notes        NoteStore
	Testimonials TestimonialStore
	Clients      ClientStore
	Dashboards   Dashboards
	Accounts     Accounts
	Invitations  Invitations

	Metrics     *metrics.Metrics
	APILimiter  *ratelimit.Limiter
	AuthLimiter *ratelimit.Limiter
	DB          Pinger

	AllowedOrigins []string
	MaxBodySize    int64
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	maxBody := deps.MaxBodySize
	if maxBody <= 0 {
		maxBody = defaultMaxBodySize
	}

	// Global middleware.
	r.Use(requestIDMiddleware)
	r.Use(chimw.RealIP)
	r.Use(secureHeaders)
	r.Use(corsMiddleware(deps.AllowedOrigins))
	r.Use(slogRequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(limitBody(maxBody))

	// Optional observers stay nil interfaces when metrics are off.
	var (
		authObs    auth.Observer
		accountObs AccountObserver
		rejectFn   func(string)
	)
	if deps.Metrics != nil {
		authObs = deps.Metrics
		accountObs = deps.Metrics
		rejectFn = deps.Metrics.IncRateLimitRejection
	}
	group := func(kind string) func(http.Handler) http.Handler {
		if deps.Metrics == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return observeRequests(deps.Metrics, kind)
	}
	limit := func(l *ratelimit.Limiter, scope string, key ratelimit.KeyFunc) func(http.Handler) http.Handler {
		if l == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return ratelimit.Middleware(l, scope, key, rejectFn)
	}

	// Handlers.
	authH := newAuthHandler(deps.Guard, deps.Accounts, deps.Invitations, accountObs)
	projects := newProjectsHandler(deps.Guard, deps.Projects, deps.Dashboards)
	tasks := newTasksHandler(deps.Guard, deps.Tasks, deps.Projects)
	notes := newNotesHandler(deps.Guard, deps.Notes, deps.Projects)
	testimonials := newTestimonialsHandler(deps.Guard, deps.Testimonials)
	clients := newClientsHandler(deps.Guard, deps.Clients)
	employees := newEmployeesHandler(deps.Guard, deps.Invitations, accountObs)
	dashboards := newDashboardHandler(deps.Guard, deps.Dashboards)

	requireEmployee := policy.RequireRole(deps.Guard, auth.RoleEmployee, writeAppError)

	// Public routes.
	r.Group(func(pr chi.Router) {
		pr.Use(group(metrics.KindPublic))

		pr.Get("/health", healthHandler(deps.DB))
		if deps.Metrics != nil {
			pr.Handle("/metrics", promhttp.HandlerFor(deps.Metrics.Registry(), promhttp.HandlerOpts{}))
		}
		pr.Get("/api/v1/demo/dashboard", dashboards.Demo)
	})

	// Unauthenticated auth endpoints, rate limited per IP.
	r.Group(func(ar chi.Router) {
		ar.Use(group(metrics.KindAuth))
		ar.Use(limit(deps.AuthLimiter, "auth", ratelimit.ByIP))

		ar.Post("/api/v1/auth/signup", authH.Signup)
		ar.Post("/api/v1/auth/login", authH.Login)
		ar.Post("/api/v1/auth/invitations/accept", authH.AcceptInvite)
	})

	// Authenticated API, rate limited per user.
	r.Route("/api/v1", func(ar chi.Router) {
		ar.Use(group(metrics.KindAPI))
		ar.Use(auth.Middleware(deps.Sessions, deps.AuthProvider, authObs))
		ar.Use(limit(deps.APILimiter, "api", ratelimit.ByUser))
		if deps.Accounts != nil {
			ar.Use(touchActivity(deps.Accounts))
		}

		ar.Post("/auth/logout", authH.Logout)
		ar.Get("/auth/me", authH.Me)

		ar.Get("/projects/{id}", projects.Get)
		ar.Get("/notes", notes.List)
		ar.Post("/notes", notes.Create)
		ar.Patch("/notes", notes.Update)
		ar.Delete("/notes", notes.Delete)
		ar.Post("/testimonials", testimonials.Create)
		ar.Get("/dashboard/client", dashboards.Client)

		// Employee-only routes.
		ar.Group(func(er chi.Router) {
			er.Use(requireEmployee)

			er.Patch("/projects/{id}", projects.Update)
			er.Post("/tasks", tasks.Create)
			er.Patch("/tasks", tasks.Toggle)
			er.Delete("/tasks", tasks.Delete)
			er.Get("/testimonials", testimonials.List)
			er.Patch("/clients/{id}", clients.Update)
			er.Post("/employees/invite", employees.Invite)
			er.Get("/dashboard/employee", dashboards.Employee)
			er.Get("/dashboard/employee/clients/{id}", dashboards.ClientDetail)
			if deps.Metrics != nil {
				er.Get("/metrics/summary", deps.Metrics.Handler())
			}
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}

// healthHandler reports liveness and, when db is set, database reachability.
func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "unchecked"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "connected"})
	}
}
