package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/escale-marine/escale/internal/analytics"
	"github.com/escale-marine/escale/internal/auth"
	"github.com/escale-marine/escale/internal/expense"
	"github.com/escale-marine/escale/internal/invoice"
	"github.com/escale-marine/escale/internal/masterdata"
	"github.com/escale-marine/escale/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthService       *auth.Service
	AuthHandler       *auth.Handler
	MasterDataHandler *masterdata.Handler
	InvoiceHandler    *invoice.Handler
	ExpenseHandler    *expense.Handler
	AnalyticsHandler  *analytics.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router for the JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			params.AuthHandler.MountRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(params.AuthService.Middleware)
				params.AuthHandler.MountProtectedRoutes(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(params.AuthService.Middleware)

			params.MasterDataHandler.MountRoutes(r)
			r.Route("/invoices", params.InvoiceHandler.MountRoutes)
			r.Route("/expenses", params.ExpenseHandler.MountRoutes)
			r.Route("/dashboard", params.AnalyticsHandler.MountRoutes)
			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	return r
}
