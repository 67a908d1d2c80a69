package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/storewatch/storewatch/internal/api/response"

	mw "github.com/storewatch/storewatch/internal/api/middleware"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	TriggerReportHandler http.HandlerFunc
	GetReportHandler     http.HandlerFunc
	HealthHandler        http.HandlerFunc
	MetricsHandler       http.Handler
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// Report endpoints; path and response shapes are externally fixed.
	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Get("/trigger_report", orNotImplemented(deps.TriggerReportHandler))
		r.Get("/get_report", orNotImplemented(deps.GetReportHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "Endpoint not yet implemented.")
	}
}
