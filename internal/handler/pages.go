package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/actuallystonmai/cinematch/internal/domain"
	"github.com/actuallystonmai/cinematch/internal/logging"
	"github.com/actuallystonmai/cinematch/internal/view"
)

// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.State(r.Context(), sessionID(r))
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("load session")
		http.Error(w, "An unexpected error occurred", http.StatusInternalServerError)
		return
	}
	h.setSession(w, r, sess)
	writeHTML(w, r, http.StatusOK, view.Page(sess.State))
}

// GET /search?q=
// Autocomplete failures only close the dropdown.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	movies, err := h.service.SearchMovies(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("movie search failed")
		movies = nil
	}
	writeHTML(w, r, http.StatusOK, view.Suggestions(movies))
}

// POST /favorites
// A suggestion posts title, id and poster_url; the text box posts q.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(r.PostForm.Get("title"))
	if title == "" {
		title = strings.TrimSpace(r.PostForm.Get("q"))
	}
	movie := domain.FavoriteMovie{
		Title:     title,
		PosterURL: domain.StringPtr(strings.TrimSpace(r.PostForm.Get("poster_url"))),
	}
	if id, err := strconv.ParseInt(r.PostForm.Get("id"), 10, 64); err == nil && id > 0 {
		movie.ID = id
	}

	sess, err := h.service.AddFavorite(r.Context(), sessionID(r), movie)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("add favorite")
		http.Error(w, "An unexpected error occurred", http.StatusInternalServerError)
		return
	}
	h.setSession(w, r, sess)
	writeHTML(w, r, http.StatusOK, view.Chips(sess.State.Favorites), view.ActionButtonOOB(sess.State))
}

// DELETE /favorites/{movieID}
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	movieID, err := strconv.ParseInt(chi.URLParam(r, "movieID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid movie id", http.StatusBadRequest)
		return
	}

	sess, err := h.service.RemoveFavorite(r.Context(), sessionID(r), movieID)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("remove favorite")
		http.Error(w, "An unexpected error occurred", http.StatusInternalServerError)
		return
	}
	h.setSession(w, r, sess)
	writeHTML(w, r, http.StatusOK, view.Chips(sess.State.Favorites), view.ActionButtonOOB(sess.State))
}

// POST /recommendations
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.RecommendForSession(r.Context(), sessionID(r))
	if errors.Is(err, domain.ErrRequestInFlight) {
		// htmx leaves the page alone on 409; the running request will swap in.
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("recommend for session")
		writeHTML(w, r, http.StatusOK, view.Results(domain.ViewState{Error: "An unexpected error occurred"}))
		return
	}
	h.setSession(w, r, sess)
	writeHTML(w, r, http.StatusOK, view.Results(sess.State), view.ActionButtonOOB(sess.State))
}
