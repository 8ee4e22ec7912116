package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Changelog generation and listing
		r.Post("/generate", apiHandler.GenerateHandler)
		r.Get("/changelogs", apiHandler.ListChangelogsHandler)
		r.Get("/repositories", apiHandler.ListRepositoriesHandler)

		// Repository history
		r.Get("/commits", apiHandler.ListCommitsHandler)
		r.Get("/releases", apiHandler.ListReleasesHandler)

		// Index management
		r.Get("/index", apiHandler.IndexStatusHandler)
		r.Post("/index", apiHandler.TriggerIndexHandler)
	})

	return r
}
