package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ecodeli-delivery/internal/http/handlers"
	"ecodeli-delivery/internal/http/middleware"
	"ecodeli-delivery/internal/http/middleware/ratelimit"
	"ecodeli-delivery/internal/logx"
)

// New constructs a chi-based http.Handler with base middleware and routes.
func New(
	logger logx.Logger,
	h *handlers.Handlers,
	d *handlers.DeliveryHandler,
	rl *ratelimit.Middleware,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Observability(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(10 * time.Second))

	r.Get("/ping", h.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(h.HealthcheckHead))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/deliveries", func(r chi.Router) {
		r.Use(middleware.Actor(logger))
		if rl != nil {
			r.Use(rl.Handler())
		}

		r.Post("/", d.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", d.Get)
			r.Patch("/status", d.UpdateStatus)

			r.Post("/tracking", d.AddTracking)
			r.Get("/tracking", d.History)
			r.Get("/tracking/current", d.CurrentStatus)
			r.Put("/location", d.UpdateLocation)
			r.Get("/eta", d.ETA)

			r.Post("/validation-code", d.AssignCode)
			r.Delete("/validation-code", d.InvalidateCode)
			r.Post("/validate", d.Validate)
			r.Post("/validate/manual", d.ValidateManual)
		})
	})

	r.NotFound(http.HandlerFunc(h.NotFound))
	r.MethodNotAllowed(http.HandlerFunc(h.MethodNotAllowed))

	return r
}
