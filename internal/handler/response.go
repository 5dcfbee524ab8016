package handler

import "github.com/actuallystonmai/cinematch/internal/domain"

type RecommendationRequest struct {
	Favorites []domain.FavoriteMovie `json:"favorites" validate:"dive"`
}

type RecommendationResponse struct {
	Recommendations []domain.Recommendation   `json:"recommendations"`
	Metadata        domain.RecommendationMeta `json:"metadata"`
}

type SearchResponse struct {
	Query   string                 `json:"query"`
	Results []domain.FavoriteMovie `json:"results"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
