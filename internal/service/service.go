package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/actuallystonmai/cinematch/internal/domain"
	"github.com/actuallystonmai/cinematch/internal/logging"
	"github.com/actuallystonmai/cinematch/internal/metrics"
	"github.com/actuallystonmai/cinematch/internal/session"
)

const (
	// MinFavoritesMessage is shown when the user asks too early.
	MinFavoritesMessage = "Please add at least two movies for better recommendations."

	posterConcurrency = 5
	timeoutMessage    = "The request took too long. Please try again."
)

// yearSuffix matches the " (2016)" the model appends to titles.
var yearSuffix = regexp.MustCompile(`\s\(\d{4}\)$`)

type Recommender interface {
	Recommend(ctx context.Context, favorites []domain.FavoriteMovie) ([]domain.Recommendation, error)
}

type Searcher interface {
	Search(ctx context.Context, query string) ([]domain.FavoriteMovie, error)
}

type Options struct {
	// StrictPosters fails the whole run on the first failed poster lookup.
	// By default a failed lookup just leaves that card without a poster.
	StrictPosters bool

	// Seeds are copied into every new session.
	Seeds []domain.FavoriteMovie
}

type Service struct {
	recommender Recommender
	catalog     Searcher
	store       session.Store
	opts        Options
}

func NewService(recommender Recommender, catalog Searcher, store session.Store, opts Options) *Service {
	return &Service{
		recommender: recommender,
		catalog:     catalog,
		store:       store,
		opts:        opts,
	}
}

// Outcome is the result of one recommendation run. Err is nil on success;
// otherwise Recommendations is nil and Message holds the text to show.
type Outcome struct {
	Recommendations []domain.Recommendation
	Err             error
	Message         string
}

// Recommend runs the flow for favorites without touching any session:
// ask the model, then attach posters from the catalog.
func (s *Service) Recommend(ctx context.Context, favorites []domain.FavoriteMovie) Outcome {
	if len(favorites) < domain.MinFavorites {
		metrics.RecommendationRuns.WithLabelValues("invalid").Inc()
		return failed(&domain.ValidationError{Message: MinFavoritesMessage})
	}

	start := time.Now()
	log := logging.Ctx(ctx)

	recs, err := s.recommender.Recommend(ctx, favorites)
	if err != nil {
		log.Error().Err(err).Str("component", "service").Msg("recommendation request failed")
		metrics.RecommendationRuns.WithLabelValues("error").Inc()
		return failed(err)
	}

	recs, err = s.resolvePosters(ctx, recs)
	if err != nil {
		log.Error().Err(err).Str("component", "service").Msg("poster lookup failed")
		metrics.RecommendationRuns.WithLabelValues("error").Inc()
		return failed(err)
	}

	metrics.RecommendationRuns.WithLabelValues("success").Inc()
	log.Info().
		Str("component", "service").
		Int("favorites", len(favorites)).
		Int("recommendations", len(recs)).
		Dur("took", time.Since(start)).
		Msg("recommendations generated")
	return Outcome{Recommendations: recs}
}

func failed(err error) Outcome {
	return Outcome{Err: err, Message: UserMessage(err)}
}

// resolvePosters looks up a poster for every recommendation on a bounded
// pool. Order is preserved; each goroutine writes only its own index.
func (s *Service) resolvePosters(ctx context.Context, recs []domain.Recommendation) ([]domain.Recommendation, error) {
	out := make([]domain.Recommendation, len(recs))
	copy(out, recs)

	p := pool.New().WithContext(ctx).WithMaxGoroutines(posterConcurrency)
	if s.opts.StrictPosters {
		p = p.WithCancelOnError().WithFirstError()
	}

	for i := range out {
		p.Go(func(ctx context.Context) error {
			poster, err := s.lookupPoster(ctx, out[i].Title)
			if err != nil {
				metrics.PosterLookups.WithLabelValues("failed").Inc()
				if s.opts.StrictPosters {
					return fmt.Errorf("poster for %q: %w", out[i].Title, err)
				}
				logging.Ctx(ctx).Warn().Err(err).Str("title", out[i].Title).Msg("poster lookup failed, continuing without poster")
				return nil
			}
			if poster == nil {
				metrics.PosterLookups.WithLabelValues("missing").Inc()
			} else {
				metrics.PosterLookups.WithLabelValues("found").Inc()
			}
			out[i].PosterURL = poster
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) lookupPoster(ctx context.Context, title string) (*string, error) {
	results, err := s.catalog.Search(ctx, SearchQuery(title))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0].PosterURL, nil
}

// SearchQuery strips one trailing " (YYYY)" from a recommended title.
func SearchQuery(title string) string {
	return yearSuffix.ReplaceAllString(title, "")
}

// SearchMovies backs the favorites autocomplete.
func (s *Service) SearchMovies(ctx context.Context, query string) ([]domain.FavoriteMovie, error) {
	return s.catalog.Search(ctx, query)
}

// UserMessage turns any error from the flow into the text shown to the user.
func UserMessage(err error) string {
	var (
		validationErr *domain.ValidationError
		configErr     *domain.ConfigurationError
		httpErr       *domain.UpstreamHTTPError
		parseErr      *domain.UpstreamParseError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.As(err, &configErr):
		return configErr.Error()
	case errors.As(err, &httpErr):
		return httpErr.Error()
	case errors.As(err, &parseErr):
		return parseErr.Error()
	case errors.Is(err, domain.ErrCatalogUnavailable):
		return domain.ErrCatalogUnavailable.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return timeoutMessage
	default:
		return err.Error()
	}
}

// Session returns the session for id, creating a seeded one when id is
// empty, malformed or expired.
func (s *Service) Session(ctx context.Context, id string) (*domain.Session, error) {
	if _, err := uuid.Parse(id); err == nil {
		sess, err := s.store.Get(ctx, id)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
	}

	sess := &domain.Session{ID: uuid.NewString()}
	for _, f := range s.opts.Seeds {
		sess.AddFavorite(f)
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	logging.Ctx(ctx).Debug().Str("session_id", sess.ID).Msg("session created")
	return sess, nil
}

// State returns the session's view state. A Loading flag left behind by a
// run whose guard has lapsed is cleared.
func (s *Service) State(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.State.Loading {
		return sess, nil
	}
	busy, err := s.store.Busy(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	if busy {
		return sess, nil
	}
	return s.update(ctx, sess.ID, func(cur *domain.Session) {
		cur.State.Loading = false
	})
}

func (s *Service) AddFavorite(ctx context.Context, id string, movie domain.FavoriteMovie) (*domain.Session, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, sess.ID, func(cur *domain.Session) {
		cur.AddFavorite(movie)
	})
}

func (s *Service) RemoveFavorite(ctx context.Context, id string, movieID int64) (*domain.Session, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, sess.ID, func(cur *domain.Session) {
		cur.RemoveFavorite(movieID)
	})
}

func (s *Service) update(ctx context.Context, id string, fn func(*domain.Session)) (*domain.Session, error) {
	sess, err := s.store.Update(ctx, id, func(cur *domain.Session) error {
		fn(cur)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// RecommendForSession runs Recommend on the session's favorites and stores
// the outcome. It returns domain.ErrRequestInFlight, leaving the state
// untouched, when a run is already going for this session.
func (s *Service) RecommendForSession(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(sess.State.Favorites) < domain.MinFavorites {
		metrics.RecommendationRuns.WithLabelValues("invalid").Inc()
		return s.update(ctx, sess.ID, func(cur *domain.Session) {
			cur.State.Error = MinFavoritesMessage
		})
	}

	token, ok, err := s.store.Acquire(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.RecommendationRuns.WithLabelValues("busy").Inc()
		return sess, domain.ErrRequestInFlight
	}

	// The outcome is stored even if the client went away mid-run.
	bg := context.WithoutCancel(ctx)
	defer func() {
		if err := s.store.Release(bg, sess.ID, token); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("session_id", sess.ID).Msg("release in-flight guard")
		}
	}()

	sess, err = s.update(ctx, sess.ID, func(cur *domain.Session) {
		cur.State.Loading = true
		cur.State.Error = ""
		cur.State.Results = nil
	})
	if err != nil {
		return nil, err
	}

	outcome := s.Recommend(ctx, sess.State.Favorites)

	// Favorites may have changed while the model was thinking; only the
	// run's own fields are written back.
	return s.update(bg, sess.ID, func(cur *domain.Session) {
		cur.State.Loading = false
		cur.State.Results = outcome.Recommendations
		cur.State.Error = outcome.Message
	})
}
