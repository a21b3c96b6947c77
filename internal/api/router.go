package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/mkoster/daymark/internal/sse"
	"github.com/mkoster/daymark/internal/trackservice"
)

// NewRouter creates a chi router with all tracking routes mounted.
// eventsHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *trackservice.Service, broker *sse.Broker, eventsHandler http.Handler) chi.Router {
	h := NewHandler(svc, broker)

	r := chi.NewRouter()
	// The dashboard is served from a different origin; mirror its
	// permissive CORS policy.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Route("/trackers", func(r chi.Router) {
		r.Get("/daily", h.GetDaily)
		r.Post("/daily", h.PostDaily)
		r.Get("/global", h.GetGlobal)
	})

	if eventsHandler != nil {
		r.Get("/events", eventsHandler.ServeHTTP)
	}

	return r
}
