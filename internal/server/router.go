package server

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tildaslashalef/reviewd/internal/loggy"
	"github.com/tildaslashalef/reviewd/internal/server/handler"
)

// NewRouter creates and configures a new HTTP router with middleware and API
// routes.
func NewRouter(svc handler.ReviewService, logger *loggy.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	healthHandler := handler.NewHealthHandler()
	r.Get("/health", healthHandler.Handle)

	reviewHandler := handler.NewReviewHandler(svc, logger)
	r.Post("/review", reviewHandler.Create)
	r.Route("/reviews", func(r chi.Router) {
		r.Get("/", reviewHandler.List)
		r.Get("/{reviewID}", reviewHandler.Get)
		r.Post("/{reviewID}/rerun", reviewHandler.Rerun)
	})

	return r
}
