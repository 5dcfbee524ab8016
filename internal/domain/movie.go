package domain

// FavoriteMovie is a title the user loves. Title may carry the release year in
// parentheses, e.g. "Inception (2010)". PosterURL is nil when no poster is known.
type FavoriteMovie struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title" validate:"required"`
	PosterURL *string `json:"poster_url"`
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
