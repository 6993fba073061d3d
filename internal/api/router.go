package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/docpoint/clinic-booking/internal/auth"
	"github.com/docpoint/clinic-booking/internal/booking"
	redisclient "github.com/docpoint/clinic-booking/internal/redis"
	"github.com/docpoint/clinic-booking/internal/review"
)

type RouterConfig struct {
	Booking   *booking.Service
	Reviews   *review.Service
	Limiter   redisclient.Limiter
	JWTSecret []byte
	Logger    *zap.Logger
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Public directory reads
	r.Get("/doctors/{doctorId}", getDoctorHandler(cfg.Booking))
	r.Get("/doctors/{doctorId}/slots", listSlotsHandler(cfg.Booking))
	r.Get("/doctors/{doctorId}/availability", listWindowsHandler(cfg.Booking))

	// Everything else requires an authenticated principal.
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.JWTSecret))

		rateLimited := RateLimitMiddleware(cfg.Limiter, cfg.Logger)

		r.With(rateLimited).Post("/appointments", createAppointmentHandler(cfg.Booking))
		r.Get("/appointments", listMyAppointmentsHandler(cfg.Booking))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Booking))
		r.Patch("/appointments/{id}", transitionAppointmentHandler(cfg.Booking))
		r.Post("/appointments/{id}/ack", acknowledgeDeclineHandler(cfg.Booking))

		r.Get("/doctors/{doctorId}/appointments", listDoctorAppointmentsHandler(cfg.Booking))

		r.Post("/doctors/{doctorId}/availability", createWindowHandler(cfg.Booking))
		r.Delete("/doctors/{doctorId}/availability/{windowId}", deleteWindowHandler(cfg.Booking))
		r.Get("/doctors/{doctorId}/time-off", listTimeOffHandler(cfg.Booking))
		r.Post("/doctors/{doctorId}/time-off", createTimeOffHandler(cfg.Booking))
		r.Delete("/doctors/{doctorId}/time-off/{timeOffId}", deleteTimeOffHandler(cfg.Booking))

		r.With(rateLimited).Post("/reviews", createReviewHandler(cfg.Reviews))
	})

	return r
}
