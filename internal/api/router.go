// Package api is the HTTP shell over the inventory service.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/erazemk/oprema/internal/inventory"
)

// Options configures NewRouter.
type Options struct {
	// Metrics enables GET /metrics and request instrumentation when non-nil.
	Metrics *Metrics
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(svc *inventory.Service, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	equipment := &EquipmentHandler{Service: svc, Metrics: opts.Metrics}
	employees := &EmployeesHandler{Service: svc}
	consistency := &ConsistencyHandler{Service: svc}

	r.Get("/health", Health)
	r.Post("/audit", equipment.Audit)
	r.Get("/consistency", consistency.Check)

	r.Route("/equipment", func(r chi.Router) {
		r.Get("/", equipment.List)
		r.Post("/", equipment.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", equipment.Get)
			r.Delete("/", equipment.Delete)
			r.Post("/assign", equipment.Assign)
			r.Post("/unassign", equipment.Unassign)
			r.Put("/image", equipment.UploadImage)
			r.Get("/image", equipment.GetImage)
		})
	})

	r.Route("/employees", func(r chi.Router) {
		r.Get("/", employees.List)
		r.Post("/", employees.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", employees.Get)
			r.Delete("/", employees.Delete)
			r.Get("/equipment", employees.Equipment)
		})
	})

	return r
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
