// internal/api/router.go
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter mounts the API under /api next to the operational endpoints.
func NewRouter(cfg RouterConfig, h *Handler, authn *Authenticator, health *Health) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", health.Live)
	r.Get("/ready", health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		r.Post("/auth/session", h.CreateSession)

		r.Group(func(r chi.Router) {
			r.Use(authn.Middleware)

			r.Post("/auth/logout", h.Logout)
			r.Get("/auth/user", h.CurrentUser)

			r.Route("/prospects", func(r chi.Router) {
				r.Get("/", h.ListProspects)
				r.Post("/", h.CreateProspect)
				r.Get("/search", h.SearchProspects)
				r.Post("/import/zoho", h.ImportZoho)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetProspect)
					r.Put("/", h.UpdateProspect)
					r.Delete("/", h.DeleteProspect)
					r.Get("/emails", h.ListEmails)
					r.Post("/emails", h.RecordEmail)
					r.Get("/follow-ups", h.ListProspectFollowUps)
				})
			})

			r.Post("/emails/sync", h.SyncEmails)

			r.Route("/follow-ups", func(r chi.Router) {
				r.Get("/", h.ListPendingFollowUps)
				r.Post("/", h.CreateFollowUp)
				r.Put("/{id}", h.UpdateFollowUp)
				r.Delete("/{id}", h.DeleteFollowUp)
			})

			r.Get("/follow-up-settings", h.GetSettings)
			r.Put("/follow-up-settings", h.UpdateSettings)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/alerts", h.GetAlerts)
				r.Get("/summary", h.GetSummary)
				r.Post("/auto-create-tasks", h.AutoCreateTasks)
				r.Put("/permission", h.SetPermission)
				r.Get("/scheduler", h.SchedulerState)
			})
		})
	})

	return r
}
