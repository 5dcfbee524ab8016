package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/actuallystonmai/cinematch/internal/domain"
)

const maxBodyBytes = 64 << 10

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// GET /api/movies/search?q=
func (h *Handler) SearchMoviesAPI(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	results, err := h.service.SearchMovies(r.Context(), query)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{Query: query, Results: results})
}

// POST /api/recommendations
func (h *Handler) RecommendationsAPI(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Request body must be JSON with a favorites list")
		return
	}
	if err := getValidator().Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Every favorite needs a title")
		return
	}

	outcome := h.service.Recommend(r.Context(), req.Favorites)
	if outcome.Err != nil {
		writeServiceError(w, r, outcome.Err)
		return
	}

	writeJSON(w, http.StatusOK, RecommendationResponse{
		Recommendations: outcome.Recommendations,
		Metadata: domain.RecommendationMeta{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			TotalCount:  len(outcome.Recommendations),
		},
	})
}
