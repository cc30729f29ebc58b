package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/MUKUNDKUMAR-G/doctor-appointment-system-sub004/internal/booking"
)

type RouterConfig struct {
	Service  *booking.Service
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Registry *prometheus.Registry
	Env      string
	Version  string
	Logger   zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health/live", LivenessHandler(cfg.Version, cfg.Env))
	r.Get("/health/ready", ReadinessHandler(cfg.Version, cfg.Env, cfg.PgPool, cfg.Redis))

	if cfg.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}

	h := NewHandler(cfg.Service)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/doctors/{doctorID}/slots", h.GetSlots)

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/reserve", h.Reserve)
			r.Get("/", h.ListAppointments)
			r.Get("/{id}", h.GetAppointment)
			r.Post("/{id}/confirm", h.Confirm)
			r.Post("/{id}/release", h.Release)
			r.Post("/{id}/cancel", h.Cancel)
			r.Post("/{id}/reschedule", h.Reschedule)
			r.Post("/{id}/complete", h.Complete)
			r.Post("/{id}/no-show", h.NoShow)
		})
	})

	return r
}
