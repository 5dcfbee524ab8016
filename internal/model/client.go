// Package model asks the Gemini text model for movie recommendations.
package model

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/actuallystonmai/cinematch/internal/domain"
	"github.com/actuallystonmai/cinematch/internal/logging"
	"github.com/actuallystonmai/cinematch/internal/metrics"
)

const (
	serviceName = "gemini"

	DefaultModel   = "gemini-2.5-flash"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// RecommendationCount is how many titles the prompt asks for.
	RecommendationCount = 5

	errorBodyLimit = 512

	// maxResponseBytes caps a successful generateContent body.
	maxResponseBytes = 1 << 20
)

type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	apiKey  string
	model   string
	baseURL string
	httpc   *http.Client
}

func NewClient(opts Options) *Client {
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		httpc:   httpc,
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Recommend sends one structured-output request built from favorites and
// returns the model's recommendations in the order it produced them.
// There is no retry.
func (c *Client) Recommend(ctx context.Context, favorites []domain.FavoriteMovie) (recs []domain.Recommendation, err error) {
	if c.apiKey == "" {
		return nil, &domain.ConfigurationError{Setting: "GEMINI_API_KEY"}
	}
	if len(favorites) == 0 {
		return nil, &domain.ValidationError{Message: "at least one favorite movie is required"}
	}

	start := time.Now()
	defer func() { metrics.ObserveUpstream(serviceName, start, err) }()

	body, err := json.Marshal(newRequest(buildPrompt(favorites)))
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &domain.UpstreamHTTPError{
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Body:       domain.Excerpt(string(b), errorBodyLimit),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read gemini response: %w", err)
	}
	if len(raw) > maxResponseBytes {
		return nil, &domain.UpstreamParseError{
			Service: serviceName,
			Err:     fmt.Errorf("response exceeds %d bytes", maxResponseBytes),
		}
	}

	recs, err = parseResponse(raw)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(errors.Unwrap(err)).Msg("gemini response rejected")
		return nil, err
	}

	logging.Ctx(ctx).Debug().
		Int("favorites", len(favorites)).
		Int("recommendations", len(recs)).
		Dur("took", time.Since(start)).
		Msg("gemini recommendations")
	return recs, nil
}

// parseResponse unwraps the generateContent envelope and checks every
// recommendation carries title, reason and match_reasons (possibly empty).
// The schema sent with the request is not trusted to have been enforced.
func parseResponse(raw []byte) ([]domain.Recommendation, error) {
	parseErr := func(format string, args ...any) error {
		return &domain.UpstreamParseError{Service: serviceName, Err: fmt.Errorf(format, args...)}
	}

	var env generateResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, parseErr("decode envelope: %w", err)
	}
	if env.Error != nil {
		return nil, parseErr("api error %d: %s", env.Error.Code, env.Error.Message)
	}
	if len(env.Candidates) == 0 {
		if env.PromptFeedback != nil && env.PromptFeedback.BlockReason != "" {
			return nil, parseErr("prompt blocked: %s", env.PromptFeedback.BlockReason)
		}
		return nil, parseErr("no candidates")
	}

	var sb strings.Builder
	for _, p := range env.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := stripCodeFence(sb.String())
	if text == "" {
		return nil, parseErr("empty candidate text")
	}

	var recs []domain.Recommendation
	if err := json.Unmarshal([]byte(text), &recs); err != nil {
		return nil, parseErr("decode recommendations: %w (raw: %s)", err, domain.Excerpt(text, 200))
	}

	v := getValidator()
	for i := range recs {
		if err := v.Struct(recs[i]); err != nil {
			return nil, parseErr("recommendation %d: %w", i, err)
		}
	}
	return recs, nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models add even in
// JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
