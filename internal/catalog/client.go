// Package catalog searches the TMDB movie catalog for titles and posters.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/actuallystonmai/cinematch/internal/domain"
	"github.com/actuallystonmai/cinematch/internal/logging"
	"github.com/actuallystonmai/cinematch/internal/metrics"
)

const (
	serviceName = "tmdb"

	// MaxResults caps how many matches Search returns.
	MaxResults = 5
	// MinQueryLength is the shortest trimmed query that reaches the API.
	MinQueryLength = 2

	errorBodyLimit = 512
)

type Options struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	HTTPClient   *http.Client
	// Breaker overrides the default circuit breaker settings.
	Breaker *gobreaker.Settings
}

type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	httpc        *http.Client
	cb           *gobreaker.CircuitBreaker[[]domain.FavoriteMovie]
}

func NewClient(opts Options) *Client {
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	settings := defaultBreakerSettings()
	if opts.Breaker != nil {
		settings = *opts.Breaker
	}
	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		imageBaseURL: strings.TrimRight(opts.ImageBaseURL, "/"),
		httpc:        httpc,
		cb:           gobreaker.NewCircuitBreaker[[]domain.FavoriteMovie](settings),
	}
}

type searchResponse struct {
	Page    int         `json:"page"`
	Results []tmdbMovie `json:"results"`
}

type tmdbMovie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	PosterPath  *string `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
}

// Search returns up to MaxResults catalog matches for query in provider
// order. Queries shorter than MinQueryLength return an empty slice without
// a network call.
func (c *Client) Search(ctx context.Context, query string) ([]domain.FavoriteMovie, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return []domain.FavoriteMovie{}, nil
	}
	if c.apiKey == "" {
		return nil, &domain.ConfigurationError{Setting: "TMDB_API_KEY"}
	}

	movies, err := c.cb.Execute(func() ([]domain.FavoriteMovie, error) {
		return c.search(ctx, query)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return movies, nil
}

func (c *Client) search(ctx context.Context, query string) (movies []domain.FavoriteMovie, err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream(serviceName, start, err) }()

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", query)
	params.Set("include_adult", "false")
	params.Set("language", "en-US")
	params.Set("page", "1")
	endpoint := c.baseURL + "/search/movie?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create tmdb request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmdb search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &domain.UpstreamHTTPError{
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Body:       domain.Excerpt(string(body), errorBodyLimit),
		}
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &domain.UpstreamParseError{Service: serviceName, Err: fmt.Errorf("decode search response: %w", err)}
	}

	movies = c.normalize(payload.Results)
	logging.Ctx(ctx).Debug().Str("query", query).Int("results", len(movies)).Msg("tmdb search")
	return movies, nil
}

func (c *Client) normalize(raw []tmdbMovie) []domain.FavoriteMovie {
	out := make([]domain.FavoriteMovie, 0, min(len(raw), MaxResults))
	for _, m := range raw {
		if len(out) == MaxResults {
			break
		}
		out = append(out, domain.FavoriteMovie{
			ID:        m.ID,
			Title:     displayTitle(m.Title, m.ReleaseDate),
			PosterURL: c.posterURL(m.PosterPath),
		})
	}
	return out
}

// displayTitle appends " (YYYY)" when the release date carries a year.
func displayTitle(title, releaseDate string) string {
	if year := releaseYear(releaseDate); year != "" {
		return fmt.Sprintf("%s (%s)", title, year)
	}
	return title
}

func releaseYear(date string) string {
	if len(date) < 4 {
		return ""
	}
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return date[:4]
}

func (c *Client) posterURL(path *string) *string {
	if path == nil || strings.TrimSpace(*path) == "" {
		return nil
	}
	u := c.imageBaseURL + *path
	return &u
}
