package seeds

import (
	"strings"
	"testing"
)

func TestFavorites(t *testing.T) {
	got := Favorites("https://cdn.example.com/t/p/w342/")
	if len(got) != 3 {
		t.Fatalf("expected 3 seed favorites, got %d", len(got))
	}
	seen := map[int64]bool{}
	for _, f := range got {
		if seen[f.ID] {
			t.Errorf("duplicate id %d", f.ID)
		}
		seen[f.ID] = true
		if f.PosterURL == nil || !strings.HasPrefix(*f.PosterURL, "https://cdn.example.com/t/p/w342/") || strings.Contains(*f.PosterURL, "w342//") {
			t.Errorf("%s: poster = %v", f.Title, f.PosterURL)
		}
	}

	got[0].Title = "changed"
	if Favorites("https://cdn.example.com")[0].Title != "Inception (2010)" {
		t.Error("Favorites must not share its backing array")
	}
}

func TestFavoritesWithoutImageBase(t *testing.T) {
	for _, f := range Favorites("") {
		if f.PosterURL != nil {
			t.Errorf("%s: expected no poster, got %q", f.Title, *f.PosterURL)
		}
	}
}
