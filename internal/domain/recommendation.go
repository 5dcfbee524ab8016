package domain

// MinFavorites is the smallest favorites list the recommendation flow accepts.
const MinFavorites = 2

// Recommendation is one model-suggested title. PosterURL is attached after
// catalog lookup and stays nil when no poster was found.
type Recommendation struct {
	Title        string   `json:"title" validate:"required"`
	Reason       string   `json:"reason" validate:"required"`
	MatchReasons []string `json:"match_reasons" validate:"required"`
	PosterURL    *string  `json:"poster_url,omitempty"`
}

type RecommendationMeta struct {
	GeneratedAt string `json:"generated_at"`
	TotalCount  int    `json:"total_count"`
}
