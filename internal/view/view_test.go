package view

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"maragu.dev/gomponents"

	"github.com/actuallystonmai/cinematch/internal/domain"
)

func render(t *testing.T, n gomponents.Node) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	if err := n.Render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

var favorites = []domain.FavoriteMovie{
	{ID: 27205, Title: "Inception (2010)", PosterURL: domain.StringPtr("https://img/inception.jpg")},
	{ID: -1, Title: "Heat"},
}

func TestPage(t *testing.T) {
	doc := render(t, Page(domain.ViewState{Favorites: favorites}))

	if got := doc.Find("title").Text(); got != "Cinematch AI" {
		t.Errorf("title = %q", got)
	}
	if got := strings.TrimSpace(doc.Find("h1").Text()); got != "Cinematch AI" {
		t.Errorf("h1 = %q", got)
	}
	if !strings.Contains(doc.Find("footer").Text(), "Powered by Gemini API & TMDb") {
		t.Error("footer credit missing")
	}
	if doc.Find(`script[src*="htmx.org"]`).Length() != 1 {
		t.Error("htmx script missing")
	}
	for _, id := range []string{favoritesID, suggestionsID, actionID, loaderID, resultsID} {
		if doc.Find("#"+id).Length() != 1 {
			t.Errorf("element #%s missing", id)
		}
	}
	if doc.Find(".empty-hint").Length() != 1 {
		t.Error("fresh page should show the empty hint")
	}
}

func TestChips(t *testing.T) {
	doc := render(t, Chips(favorites))

	chips := doc.Find("#favorites ul li")
	if chips.Length() != 2 {
		t.Fatalf("expected 2 chips, got %d", chips.Length())
	}
	if del, _ := chips.First().Find("button").Attr("hx-delete"); del != "/favorites/27205" {
		t.Errorf("remove target = %q", del)
	}
	if del, _ := chips.Last().Find("button").Attr("hx-delete"); del != "/favorites/-1" {
		t.Errorf("local id remove target = %q", del)
	}
	if chips.Last().Find("img").Length() != 0 {
		t.Error("chip without poster should have no image")
	}

	form := doc.Find("form")
	if post, _ := form.Attr("hx-post"); post != "/favorites" {
		t.Errorf("form hx-post = %q", post)
	}
	input := form.Find(`input[name="q"]`)
	if get, _ := input.Attr("hx-get"); get != "/search" {
		t.Errorf("autocomplete hx-get = %q", get)
	}
	if trig, _ := input.Attr("hx-trigger"); !strings.Contains(trig, "delay:") {
		t.Errorf("autocomplete should debounce, trigger = %q", trig)
	}
}

func TestSuggestions(t *testing.T) {
	doc := render(t, Suggestions([]domain.FavoriteMovie{
		{ID: 438631, Title: "Dune (2021)", PosterURL: domain.StringPtr("https://img/dune.jpg")},
		{ID: 841, Title: "Dune (1984)"},
	}))

	buttons := doc.Find("li button")
	if buttons.Length() != 2 {
		t.Fatalf("expected 2 suggestions, got %d", buttons.Length())
	}
	vals, _ := buttons.First().Attr("hx-vals")
	for _, want := range []string{`"title":"Dune (2021)"`, `"id":"438631"`, `"poster_url":"https://img/dune.jpg"`} {
		if !strings.Contains(vals, want) {
			t.Errorf("hx-vals %s missing %s", vals, want)
		}
	}
	vals, _ = buttons.Last().Attr("hx-vals")
	if strings.Contains(vals, "poster_url") {
		t.Errorf("no poster_url expected: %s", vals)
	}

	var buf bytes.Buffer
	_ = Suggestions(nil).Render(&buf)
	if buf.Len() != 0 {
		t.Errorf("empty suggestions should render nothing, got %q", buf.String())
	}
}

func TestActionButton(t *testing.T) {
	tests := []struct {
		name     string
		state    domain.ViewState
		disabled bool
		label    string
	}{
		{"idle", domain.ViewState{Favorites: favorites}, false, idleLabel},
		{"no favorites", domain.ViewState{}, true, idleLabel},
		{"loading", domain.ViewState{Favorites: favorites, Loading: true}, true, busyLabel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := render(t, ActionButton(tt.state))
			btn := doc.Find("button#recommend-button")
			if _, disabled := btn.Attr("disabled"); disabled != tt.disabled {
				t.Errorf("disabled = %v, want %v", disabled, tt.disabled)
			}
			label := btn.Find("span").First().Text()
			if label != tt.label {
				t.Errorf("label = %q, want %q", label, tt.label)
			}
			if post, _ := btn.Attr("hx-post"); post != "/recommendations" {
				t.Errorf("hx-post = %q", post)
			}
		})
	}
}

func TestActionButtonOOB(t *testing.T) {
	doc := render(t, ActionButtonOOB(domain.ViewState{}))
	oob, ok := doc.Find("div").First().Attr("hx-swap-oob")
	if !ok || oob != "innerHTML:#action" {
		t.Errorf("hx-swap-oob = %q", oob)
	}
}

func TestLoader(t *testing.T) {
	doc := render(t, Loader(false))
	if doc.Find("#loader.is-loading").Length() != 0 {
		t.Error("idle loader should stay hidden")
	}
	if !strings.Contains(doc.Text(), "Finding your next favorite movie...") {
		t.Error("loader text missing")
	}
	if render(t, Loader(true)).Find("#loader.is-loading").Length() != 1 {
		t.Error("loader should be visible while loading")
	}
}

func TestResults(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		doc := render(t, Results(domain.ViewState{Error: "GEMINI_API_KEY is not configured"}))
		if got := doc.Find(`[role="alert"]`).Text(); got != "GEMINI_API_KEY is not configured" {
			t.Errorf("banner = %q", got)
		}
		if doc.Find(".empty-hint").Length() != 0 {
			t.Error("hint must not show with an error")
		}
	})

	t.Run("loading", func(t *testing.T) {
		doc := render(t, Results(domain.ViewState{Loading: true}))
		if doc.Find(".empty-hint").Length() != 0 || doc.Find(`[role="alert"]`).Length() != 0 {
			t.Error("nothing but the loader while loading")
		}
	})

	t.Run("cards", func(t *testing.T) {
		recs := make([]domain.Recommendation, 5)
		for i := range recs {
			recs[i] = domain.Recommendation{Title: "Movie", Reason: "Reason", MatchReasons: []string{"a", "b"}}
		}
		doc := render(t, Results(domain.ViewState{Results: recs}))
		if n := doc.Find("article.movie-card").Length(); n != 5 {
			t.Errorf("expected 5 cards, got %d", n)
		}
		if doc.Find(".empty-hint").Length() != 0 {
			t.Error("hint must not show with results")
		}
	})
}

func TestCard(t *testing.T) {
	withPoster := domain.Recommendation{
		Title:        "Arrival (2016)",
		Reason:       "Language as time travel.",
		MatchReasons: []string{"Mind-bending like 'Inception'.", "Quiet awe like 'Blade Runner 2049'."},
		PosterURL:    domain.StringPtr("https://img/arrival.jpg"),
	}
	doc := render(t, Card(withPoster))

	if got := doc.Find("h3").Text(); got != "Arrival (2016)" {
		t.Errorf("title = %q", got)
	}
	if src, _ := doc.Find("img").Attr("src"); src != "https://img/arrival.jpg" {
		t.Errorf("poster src = %q", src)
	}
	if doc.Find(".poster-placeholder").Length() != 0 {
		t.Error("placeholder shown despite a poster")
	}
	reason := doc.Find("p.reason").Text()
	if !strings.Contains(reason, "Why you'll love it:") || !strings.Contains(reason, "Language as time travel.") {
		t.Errorf("reason = %q", reason)
	}
	if got := doc.Find(".matches li").Length(); got != 2 {
		t.Errorf("match bullets = %d", got)
	}
	if !strings.Contains(doc.Find(".matches h4").Text(), "Key Matches:") {
		t.Error("Key Matches heading missing")
	}

	bare := render(t, Card(domain.Recommendation{Title: "Primer", Reason: "Tiny budget, huge ideas.", MatchReasons: []string{}}))
	if bare.Find("img").Length() != 0 || bare.Find(".poster-placeholder").Length() != 1 {
		t.Error("nil poster should render the placeholder")
	}
	if bare.Find(".matches").Length() != 0 || strings.Contains(bare.Text(), "Key Matches") {
		t.Error("Key Matches must be omitted without match reasons")
	}
}

func TestTextIsEscaped(t *testing.T) {
	var buf bytes.Buffer
	_ = Card(domain.Recommendation{Title: "<script>alert(1)</script>", Reason: "x"}).Render(&buf)
	if strings.Contains(buf.String(), "<script>") {
		t.Error("model output must be escaped")
	}
}
