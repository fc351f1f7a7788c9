package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/clinicdesk/clinic-scheduling/internal/scheduling"
)

type RouterConfig struct {
	Service  *scheduling.Service
	Registry *scheduling.Registry
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Metrics  *Metrics
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	if cfg.Metrics != nil {
		r.Use(MetricsMiddleware(cfg.Metrics))
	}

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	// Availability windows
	r.Post("/availability", createWindowHandler(cfg.Registry))
	r.Patch("/availability/{id}", updateWindowHandler(cfg.Registry))
	r.Delete("/availability/{id}", deleteWindowHandler(cfg.Registry))
	r.Get("/providers/{providerID}/availability", listWindowsHandler(cfg.Registry))

	// Appointments
	r.Post("/appointments", createAppointmentHandler(cfg.Service, cfg.Metrics))
	r.Get("/appointments", listAppointmentsHandler(cfg.Service))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
	r.Post("/appointments/{id}/reschedule", rescheduleAppointmentHandler(cfg.Service, cfg.Metrics))
	r.Post("/appointments/{id}/status", setStatusHandler(cfg.Service))
	r.Delete("/appointments/{id}", deleteAppointmentHandler(cfg.Service))

	return r
}
