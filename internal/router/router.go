package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/actuallystonmai/cinematch/internal/handler"
)

func Setup(h *handler.Handler, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(Metrics)

	r.Get("/health", healthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		// Page and htmx partials
		r.Get("/", h.Index)
		r.Get("/search", h.Search)
		r.Post("/favorites", h.AddFavorite)
		r.Delete("/favorites/{movieID}", h.RemoveFavorite)
		r.Post("/recommendations", h.Recommend)

		// JSON API
		r.Route("/api", func(r chi.Router) {
			r.Get("/movies/search", h.SearchMoviesAPI)
			r.Post("/recommendations", h.RecommendationsAPI)
		})
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
