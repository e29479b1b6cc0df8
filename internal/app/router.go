package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-sis/meridian-sis/internal/announcements"
	"github.com/meridian-sis/meridian-sis/internal/auth"
	"github.com/meridian-sis/meridian-sis/internal/courses"
	"github.com/meridian-sis/meridian-sis/internal/departments"
	"github.com/meridian-sis/meridian-sis/internal/enrollments"
	"github.com/meridian-sis/meridian-sis/internal/observability"
	"github.com/meridian-sis/meridian-sis/internal/programs"
	"github.com/meridian-sis/meridian-sis/internal/rbac"
	"github.com/meridian-sis/meridian-sis/internal/reports"
	"github.com/meridian-sis/meridian-sis/internal/semesters"
	"github.com/meridian-sis/meridian-sis/internal/settings"
	"github.com/meridian-sis/meridian-sis/internal/shared"
	"github.com/meridian-sis/meridian-sis/internal/users"
	"github.com/meridian-sis/meridian-sis/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	AuthHandler          *auth.Handler
	RBACHandler          *rbac.Handler
	UsersHandler         *users.Handler
	CoursesHandler       *courses.Handler
	DepartmentsHandler   *departments.Handler
	ProgramsHandler      *programs.Handler
	SemestersHandler     *semesters.Handler
	EnrollmentsHandler   *enrollments.Handler
	AnnouncementsHandler *announcements.Handler
	ReportsHandler       *reports.Handler
	SettingsHandler      *settings.Handler
	JobHandler           *jobs.Handler
}

// NewRouter constructs the chi.Router with console defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}
	if params.RBACHandler != nil {
		r.Route("/rbac", params.RBACHandler.MountRoutes)
	}
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.CoursesHandler != nil {
		r.Route("/courses", params.CoursesHandler.MountRoutes)
	}
	if params.DepartmentsHandler != nil {
		r.Route("/departments", params.DepartmentsHandler.MountRoutes)
	}
	if params.ProgramsHandler != nil {
		r.Route("/programs", params.ProgramsHandler.MountRoutes)
	}
	if params.SemestersHandler != nil {
		r.Route("/semesters", params.SemestersHandler.MountRoutes)
	}
	if params.EnrollmentsHandler != nil {
		r.Route("/enrollments", params.EnrollmentsHandler.MountRoutes)
	}
	if params.AnnouncementsHandler != nil {
		r.Route("/announcements", params.AnnouncementsHandler.MountRoutes)
	}
	if params.ReportsHandler != nil {
		r.Route("/reports", params.ReportsHandler.MountRoutes)
	}
	if params.SettingsHandler != nil {
		r.Route("/settings", params.SettingsHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
