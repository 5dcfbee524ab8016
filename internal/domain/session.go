package domain

import (
	"strings"
	"time"
)

// ViewState is everything the page needs to render. Results is nil until a
// recommendation run has succeeded.
type ViewState struct {
	Favorites []FavoriteMovie  `json:"favorites"`
	Results   []Recommendation `json:"results"`
	Loading   bool             `json:"loading"`
	Error     string           `json:"error,omitempty"`
}

// CanRecommend mirrors the action button: enabled with at least one favorite
// and no run in flight.
func (s ViewState) CanRecommend() bool {
	return !s.Loading && len(s.Favorites) > 0
}

// Session holds the per-browser state between requests.
type Session struct {
	ID          string    `json:"id"`
	State       ViewState `json:"state"`
	NextLocalID int64     `json:"next_local_id"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AddFavorite appends m unless a favorite with the same ID or the same title
// (case-insensitive) is already present. Movies typed by hand have no catalog
// ID; they get a negative session-local one.
func (s *Session) AddFavorite(m FavoriteMovie) bool {
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" {
		return false
	}
	for _, f := range s.State.Favorites {
		if (m.ID != 0 && f.ID == m.ID) || strings.EqualFold(f.Title, m.Title) {
			return false
		}
	}
	if m.ID == 0 {
		s.NextLocalID--
		m.ID = s.NextLocalID
	}
	s.State.Favorites = append(s.State.Favorites, m)
	return true
}

// RemoveFavorite drops the favorite with the given ID.
func (s *Session) RemoveFavorite(id int64) bool {
	for i, f := range s.State.Favorites {
		if f.ID == id {
			s.State.Favorites = append(s.State.Favorites[:i:i], s.State.Favorites[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy so stored sessions never alias caller slices.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.State.Favorites != nil {
		c.State.Favorites = append([]FavoriteMovie(nil), s.State.Favorites...)
	}
	if s.State.Results != nil {
		c.State.Results = make([]Recommendation, len(s.State.Results))
		for i, r := range s.State.Results {
			if r.MatchReasons != nil {
				r.MatchReasons = append([]string(nil), r.MatchReasons...)
			}
			c.State.Results[i] = r
		}
	}
	return &c
}
