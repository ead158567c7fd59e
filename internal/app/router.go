package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/billdesk/billdesk/internal/budget"
	"github.com/billdesk/billdesk/internal/catalog"
	"github.com/billdesk/billdesk/internal/clients"
	"github.com/billdesk/billdesk/internal/invoices"
	"github.com/billdesk/billdesk/internal/observability"
	"github.com/billdesk/billdesk/internal/pipeline"
	"github.com/billdesk/billdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	ClientsHandler  *clients.Handler
	BudgetHandler   *budget.Handler
	CatalogHandler  *catalog.Handler
	PipelineHandler *pipeline.Handler
	InvoiceHandler  *invoices.Handler
	JobHandler      *jobs.Handler
}

// NewRouter constructs the chi.Router with billdesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			if params.ClientsHandler != nil {
				params.ClientsHandler.MountRoutes(r)
			}
			if params.BudgetHandler != nil {
				params.BudgetHandler.MountRoutes(r)
			}
		})
		if params.CatalogHandler != nil {
			r.Route("/catalog", params.CatalogHandler.MountRoutes)
			r.Route("/plans", params.CatalogHandler.MountPlanRoutes)
		}
		if params.PipelineHandler != nil {
			r.Route("/pipeline", params.PipelineHandler.MountRoutes)
		}
		if params.InvoiceHandler != nil {
			r.Route("/invoices", params.InvoiceHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
