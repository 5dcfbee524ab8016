// Package seeds holds the favorites a new session starts with.
package seeds

import (
	"strings"

	"github.com/actuallystonmai/cinematch/internal/domain"
)

type seed struct {
	id         int64
	title      string
	posterPath string
}

var starters = []seed{
	{27205, "Inception (2010)", "/9gk7adHYeDvHkCK_RX5eDeZmo6B.jpg"},
	{603, "The Matrix (1999)", "/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg"},
	{335984, "Blade Runner 2049 (2017)", "/gajva2L0rPYkEWjzgFlBXCAVBE5.jpg"},
}

// Favorites returns a fresh copy of the starter list on every call, with
// poster URLs built on imageBaseURL (tmdb.image_base_url).
func Favorites(imageBaseURL string) []domain.FavoriteMovie {
	base := strings.TrimRight(imageBaseURL, "/")
	out := make([]domain.FavoriteMovie, 0, len(starters))
	for _, s := range starters {
		f := domain.FavoriteMovie{ID: s.id, Title: s.title}
		if base != "" {
			f.PosterURL = domain.StringPtr(base + s.posterPath)
		}
		out = append(out, f)
	}
	return out
}
