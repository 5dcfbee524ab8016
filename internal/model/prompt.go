package model

import (
	"fmt"
	"strings"

	"github.com/actuallystonmai/cinematch/internal/domain"
)

// generateRequest is the body of POST models/{model}:generateContent.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string  `json:"responseMimeType"`
	ResponseSchema   *schema `json:"responseSchema"`
}

// schema is the OpenAPI subset Gemini accepts for structured output.
type schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Items       *schema            `json:"items,omitempty"`
	Properties  map[string]*schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// recommendationSchema is an array of {title, reason, match_reasons}, all
// three required.
func recommendationSchema() *schema {
	return &schema{
		Type: "ARRAY",
		Items: &schema{
			Type: "OBJECT",
			Properties: map[string]*schema{
				"title": {
					Type:        "STRING",
					Description: "The title of the recommended movie.",
				},
				"reason": {
					Type:        "STRING",
					Description: "A short paragraph explaining why the user will like this movie based on their favorites.",
				},
				"match_reasons": {
					Type:        "ARRAY",
					Description: "Specific traits this movie shares with the user's favorites.",
					Items:       &schema{Type: "STRING"},
				},
			},
			Required: []string{"title", "reason", "match_reasons"},
		},
	}
}

func newRequest(prompt string) generateRequest {
	return generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   recommendationSchema(),
		},
	}
}

const promptTemplate = `You are a film connoisseur and recommendation expert. A user loves the movies listed below.
Work out what connects them: shared themes, tone, directorial style, narrative structure and the quieter emotional currents running through them.
Do not match on genre or cast alone.
Recommend %d distinct movies this user is very likely to love but may not have discovered yet.

For each recommendation return a JSON object with:
1. "title": the title of the recommended movie.
2. "reason": a short, personal paragraph (2-3 sentences) explaining why they will love it, tied back to the tastes their favorites reveal.
3. "match_reasons": an array of 2-3 short strings, each naming one specific trait shared with one of the favorites, for example "Shares the philosophical depth and striking visuals of 'Blade Runner 2049'." or "Builds a layered, non-linear story much like 'Inception'."

The user loves:
%s

Answer with a JSON array of these objects that follows the response schema exactly.`

func buildPrompt(favorites []domain.FavoriteMovie) string {
	lines := make([]string, 0, len(favorites))
	for _, f := range favorites {
		lines = append(lines, "- "+f.Title)
	}
	return fmt.Sprintf(promptTemplate, RecommendationCount, strings.Join(lines, "\n"))
}
