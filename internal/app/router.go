package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tripflow/tripflow/internal/approvals"
	"github.com/tripflow/tripflow/internal/auth"
	"github.com/tripflow/tripflow/internal/bookings"
	"github.com/tripflow/tripflow/internal/dashboard"
	"github.com/tripflow/tripflow/internal/observability"
	"github.com/tripflow/tripflow/internal/quotations"
	"github.com/tripflow/tripflow/internal/rates"
	"github.com/tripflow/tripflow/internal/rbac"
	"github.com/tripflow/tripflow/internal/requests"
	"github.com/tripflow/tripflow/internal/shared"
	"github.com/tripflow/tripflow/internal/users"
	"github.com/tripflow/tripflow/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Tokens            *shared.TokenStore
	AuthHandler       *auth.Handler
	RequestsHandler   *requests.Handler
	QuotationsHandler *quotations.Handler
	ApprovalsHandler  *approvals.Handler
	BookingsHandler   *bookings.Handler
	RatesHandler      *rates.Handler
	UsersHandler      *users.Handler
	DashboardHandler  *dashboard.Handler
	JobHandler        *jobs.Handler
	RBACMiddleware    rbac.Middleware
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with TripFlow defaults. All domain
// routes live under /api behind bearer-token auth; /healthz and /metrics
// stay open for probes and scrapes.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
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

	r.Route("/api", func(api chi.Router) {
		// Login is the only unauthenticated API route.
		api.Group(func(public chi.Router) {
			public.Post("/auth/login", params.AuthHandler.Login)
		})

		api.Group(func(private chi.Router) {
			private.Use(auth.Middleware(params.Tokens))

			private.Get("/auth/me", params.AuthHandler.Me)
			private.Post("/auth/logout", params.AuthHandler.Logout)

			guard := params.RBACMiddleware
			params.RequestsHandler.MountRoutes(private, guard)
			params.QuotationsHandler.MountRoutes(private, guard)
			params.ApprovalsHandler.MountRoutes(private, guard)
			params.BookingsHandler.MountRoutes(private, guard)
			params.RatesHandler.MountRoutes(private, guard)
			params.UsersHandler.MountRoutes(private, guard)
			params.DashboardHandler.MountRoutes(private, guard)

			if params.JobHandler != nil {
				private.Route("/jobs", func(jr chi.Router) {
					jr.Use(guard.RequireAll(rbac.PermUserManage))
					params.JobHandler.MountRoutes(jr)
				})
			}
		})
	})

	return r
}
