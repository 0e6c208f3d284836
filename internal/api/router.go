package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hackgods/care-ledger/internal/booking"
)

type RouterConfig struct {
	Engine  *booking.Engine
	Logger  zerolog.Logger
	Checks  map[string]Pinger
	Metrics http.Handler
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)

	health := NewHealthHandler(cfg.Checks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	e := cfg.Engine
	r.Get("/departments", listDepartmentsHandler(e))

	r.Route("/facilities", func(r chi.Router) {
		r.Post("/", createFacilityHandler(e))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getFacilityHandler(e))
			r.Patch("/", updateFacilityHandler(e))
			r.Post("/departments", addDepartmentHandler(e))
			r.Get("/departments/available", availableDepartmentsHandler(e))
			r.Get("/appointments", listAppointmentsHandler(e, booking.KindFacility))
			r.Get("/reports", facilityReportHandler(e))
		})
	})

	r.Route("/practitioners", func(r chi.Router) {
		r.Post("/", createPractitionerHandler(e))
		r.Get("/", searchPractitionersHandler(e))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getPractitionerHandler(e))
			r.Patch("/", updatePractitionerHandler(e))
			r.Post("/associations", associateHandler(e))
			r.Post("/associations/{facilityID}/slots", publishSlotHandler(e))
			r.Get("/associations/{facilityID}/slots", calendarHandler(e))
			r.Get("/slots/open", openSlotsHandler(e))
			r.Get("/appointments", listAppointmentsHandler(e, booking.KindPractitioner))
			r.Get("/reports", practitionerReportHandler(e))
		})
	})

	r.Route("/clients", func(r chi.Router) {
		r.Post("/", createClientHandler(e))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getClientHandler(e))
			r.Patch("/", updateClientHandler(e))
			r.Get("/appointments", clientHistoryHandler(e))
		})
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", reserveHandler(e))
		r.Get("/{id}", getAppointmentHandler(e))
		r.Post("/{id}/cancel", cancelAppointmentHandler(e))
		r.Post("/{id}/status", setStatusHandler(e))
	})

	return r
}
