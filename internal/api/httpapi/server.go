// Package httpapi exposes the tracking, reporting, account and lead services over JSON/HTTP.
package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/BearBump/AttendTrack/internal/authz"
	"github.com/BearBump/AttendTrack/internal/broker/messages"
	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/BearBump/AttendTrack/internal/services/accounts"
	"github.com/BearBump/AttendTrack/internal/services/history"
	"github.com/BearBump/AttendTrack/internal/services/leads"
	"github.com/BearBump/AttendTrack/internal/services/reports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Tracking interface {
	StartSession(ctx context.Context, actor models.Actor) (*models.TrackingSession, error)
	StopSession(ctx context.Context, actor models.Actor, sessionID uint64) (models.SessionStats, error)
	AddPinpoint(ctx context.Context, actor models.Actor, in models.PinpointInput) (*models.Pinpoint, error)
	PushLocation(ctx context.Context, actor models.Actor, lat, lng float64, mode models.PushMode) (models.PushResult, error)
	LivePositions(ctx context.Context) ([]*models.LivePosition, error)
	SessionsToday(ctx context.Context) ([]*models.SessionDetail, error)
}

type History interface {
	ResolveRange(date, start, end string) (history.Range, error)
	History(ctx context.Context, employeeID uint64, r history.Range) (*history.History, error)
	Snapshot(ctx context.Context, actor models.Actor) (*history.Snapshot, error)
	Session(ctx context.Context, sessionID uint64) (*history.SessionActivity, error)
}

type Reports interface {
	Daily(ctx context.Context, employeeID uint64, date string) (*reports.Report, error)
	Session(ctx context.Context, sessionID uint64) (*reports.Report, error)
	Range(ctx context.Context, employeeID uint64, start, end string) (*reports.Report, error)
}

type ReportJobs interface {
	Enqueue(ctx context.Context, actor models.Actor, employeeID uint64, start, end string) (*messages.ReportRequested, error)
}

type ReportArchive interface {
	Open(name string) (*os.File, os.FileInfo, error)
}

type Accounts interface {
	Login(ctx context.Context, username, password string) (*accounts.LoginResult, error)
	ParseToken(token string) (models.Actor, error)
	Me(ctx context.Context, actor models.Actor) (*models.User, error)
	RegisterEmployee(ctx context.Context, in accounts.RegisterInput) (*models.User, error)
	ListEmployees(ctx context.Context) ([]*models.User, error)
	UpdateEmployee(ctx context.Context, id uint64, upd accounts.EmployeeUpdate) (*models.User, error)
	DeleteEmployee(ctx context.Context, id uint64) error
	OnlineEmployees(ctx context.Context) ([]*models.OnlineEmployee, error)
	OfflineEmployees(ctx context.Context) ([]*models.User, error)
}

type Leads interface {
	SubmitQuote(ctx context.Context, in leads.QuoteInput) (*models.QuoteSubmission, error)
	ListQuotes(ctx context.Context) ([]*models.QuoteSubmission, error)
	DeleteQuote(ctx context.Context, id uint64) error
	SubmitContact(ctx context.Context, in leads.ContactInput) (*models.ContactSubmission, error)
	ListContacts(ctx context.Context) ([]*models.ContactSubmission, error)
	DeleteContact(ctx context.Context, id uint64) error
	SubmitLaserScreed(ctx context.Context, in leads.LaserScreedInput) (*models.LaserScreedSubmission, error)
	ListLaserScreed(ctx context.Context) ([]*models.LaserScreedSubmission, error)
	GetLaserScreed(ctx context.Context, id uint64) (*models.LaserScreedSubmission, error)
	UpdateLaserScreed(ctx context.Context, id uint64, upd leads.LaserScreedUpdate) (*models.LaserScreedSubmission, error)
	DeleteLaserScreed(ctx context.Context, id uint64) error
	Export(ctx context.Context, w io.Writer) error
}

type Authorizer interface {
	Allows(role, op string) bool
}

type Deps struct {
	Tracking Tracking
	History  History
	Reports  Reports
	Jobs     ReportJobs
	Archive  ReportArchive
	Accounts Accounts
	Leads    Leads
	Policy   Authorizer
}

type Options struct {
	CORSAllowedOrigins []string
	// PublicRateLimit is the per-IP request budget per minute on the public lead forms.
	PublicRateLimit int
	BrochurePath    string
	Logger          *slog.Logger
}

type Server struct {
	deps Deps
	opts Options
	log  *slog.Logger
}

func New(deps Deps, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.PublicRateLimit <= 0 {
		opts.PublicRateLimit = 30
	}
	return &Server{deps: deps, opts: opts, log: opts.Logger}
}

// Routes mounts the whole API. Every path under /api accepts an optional trailing slash.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	if len(s.opts.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.opts.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(s.opts.PublicRateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			r.Post("/login", s.login)
			r.Post("/submit", s.submitQuote)
			r.Post("/submit-contact", s.submitContact)
			r.Post("/laser-screed-submissions", s.submitLaserScreed)
			r.Get("/download-pdf", s.downloadBrochure)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.With(s.allow(authz.OpProfileRead)).Get("/me", s.me)

			r.With(s.allow(authz.OpSessionStart)).Post("/location/start", s.startSession)
			r.With(s.allow(authz.OpSessionStop)).Post("/location/stop/{id}", s.stopSession)
			r.With(s.allow(authz.OpPinpointAdd)).Post("/location/pinpoint/{session_id}", s.addPinpoint)
			r.With(s.allow(authz.OpSessionSnapshot)).Get("/location/my-session", s.mySession)
			r.With(s.allow(authz.OpLocationPush)).Post("/location/update", s.pushSimple)
			r.With(s.allow(authz.OpLocationPush)).Post("/location/live-update", s.pushLive)
			r.With(s.allow(authz.OpLiveRead)).Get("/location/live-all", s.liveAll)
			r.With(s.allow(authz.OpHistoryRead)).Get("/location/history/{employee_id}", s.history)
			r.With(s.allow(authz.OpSessionSnapshot)).Get("/location/report/{session_id}", s.ownSessionReport)
			r.With(s.allow(authz.OpSessionsToday)).Get("/admin/sessions-today", s.sessionsToday)

			r.Group(func(r chi.Router) {
				r.Use(s.allow(authz.OpReportRead))
				r.Get("/reports/daily-pdf/{employee_id}", s.dailyReport)
				r.Get("/reports/session-pdf/{session_id}", s.sessionReport)
				r.Get("/reports/date-range-pdf/{employee_id}", s.rangeReport)
				r.Get("/reports/archive/{filename}", s.archivedReport)
			})
			r.With(s.allow(authz.OpReportQueue)).Post("/reports/date-range-pdf/{employee_id}/jobs", s.queueRangeReport)

			r.Group(func(r chi.Router) {
				r.Use(s.allow(authz.OpEmployeeAdmin))
				r.Post("/register-employee", s.registerEmployee)
				r.Get("/employees", s.listEmployees)
				r.Patch("/employees/{id}", s.updateEmployee)
				r.Delete("/employees/{id}", s.deleteEmployee)
				r.Get("/online-employees", s.onlineEmployees)
				r.Get("/offline-employees", s.offlineEmployees)
			})

			r.Group(func(r chi.Router) {
				r.Use(s.allow(authz.OpLeadAdmin))
				r.Get("/quote/submissions", s.listQuotes)
				r.Delete("/quote/submissions/{id}", s.deleteQuote)
				r.Get("/contact/submissions", s.listContacts)
				r.Delete("/contact/submissions/{id}", s.deleteContact)
				r.Get("/laser-screed-submissions", s.listLaserScreed)
				r.Get("/laser-screed-submissions/{id}", s.getLaserScreed)
				r.Patch("/laser-screed-submissions/{id}", s.updateLaserScreed)
				r.Put("/laser-screed-submissions/{id}", s.updateLaserScreed)
				r.Delete("/laser-screed-submissions/{id}", s.deleteLaserScreed)
				r.Get("/leads/export", s.exportLeads)
			})
		})
	})
	return r
}
