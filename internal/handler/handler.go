package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"maragu.dev/gomponents"

	"github.com/actuallystonmai/cinematch/internal/domain"
	"github.com/actuallystonmai/cinematch/internal/logging"
	"github.com/actuallystonmai/cinematch/internal/service"
)

const sessionCookie = "cinematch_session"

type Handler struct {
	service    *service.Service
	sessionTTL time.Duration
}

func NewHandler(svc *service.Service, sessionTTL time.Duration) *Handler {
	return &Handler{service: svc, sessionTTL: sessionTTL}
}

// write JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writes JSON error response.
func writeError(w http.ResponseWriter, status int, errCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}

// writeServiceError maps the error taxonomy onto status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *domain.ValidationError
		configErr     *domain.ConfigurationError
		httpErr       *domain.UpstreamHTTPError
		parseErr      *domain.UpstreamParseError
	)
	msg := service.UserMessage(err)

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "invalid_request", msg)
	case errors.Is(err, domain.ErrRequestInFlight):
		writeError(w, http.StatusConflict, "request_in_flight", msg)
	case errors.As(err, &configErr):
		logging.Ctx(r.Context()).Error().Err(err).Msg("missing configuration")
		writeError(w, http.StatusInternalServerError, "configuration_error", msg)
	case errors.Is(err, domain.ErrCatalogUnavailable):
		writeError(w, http.StatusServiceUnavailable, "catalog_unavailable", msg)
	case errors.As(err, &httpErr):
		writeError(w, http.StatusBadGateway, "upstream_http_error", msg)
	case errors.As(err, &parseErr):
		writeError(w, http.StatusBadGateway, "upstream_parse_error", msg)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "request_timeout",
			"Request timed out, please try again")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("unhandled error")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

func writeHTML(w http.ResponseWriter, r *http.Request, status int, nodes ...gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := gomponents.Group(nodes).Render(w); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("render failed")
	}
}

func sessionID(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// setSession refreshes the cookie so it lives as long as the stored session.
func (h *Handler) setSession(w http.ResponseWriter, r *http.Request, s *domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
