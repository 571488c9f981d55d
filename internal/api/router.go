package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ganttwork/planner/internal/api/handler"
	apimw "github.com/ganttwork/planner/internal/api/middleware"
	"github.com/ganttwork/planner/internal/metrics"
	"github.com/ganttwork/planner/internal/service"
)

// Deps bundles what NewRouter needs. Limiter may be nil to disable rate limiting.
type Deps struct {
	Service      *service.ProjectService
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	Limiter      apimw.Allower
	MaxBodyBytes int64
	Logger       *zap.Logger
}

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer) // recover panics, return 500
	r.Use(chimw.RealIP)    // trust X-Forwarded-For / X-Real-IP
	r.Use(apimw.CorrelationID)
	r.Use(apimw.RequestLogger(d.Logger))
	r.Use(apimw.Instrument(d.Metrics))

	// --- handler instances ---
	hh := handler.NewHealthHandler()
	gh := handler.NewGanttHandler(d.Service, d.Logger)
	ph := handler.NewProjectHandler(d.Service, d.Logger)

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(apimw.RateLimit(d.Limiter, d.Metrics.RateLimited.Inc))
		}
		r.Use(chimw.RequestSize(d.MaxBodyBytes))

		r.Post("/gantt/parse", gh.Parse)
		r.Post("/gantt/serialize", gh.Serialize)

		r.Post("/projects", ph.Create)
		r.Get("/projects", ph.List)
		r.Get("/projects/{id}", ph.GetByID)
		r.Get("/projects/{id}/plantuml", ph.GetPlantUML)
		r.Put("/projects/{id}", ph.Update)
		r.Delete("/projects/{id}", ph.Delete)
	})

	return r
}
