package view

import (
	"fmt"

	json "github.com/goccy/go-json"
	"maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	"maragu.dev/gomponents/html"

	"github.com/actuallystonmai/cinematch/internal/domain"
)

// Chips renders the favorites list together with the add form. Adding or
// removing a favorite swaps this whole block, which also clears the input.
func Chips(favorites []domain.FavoriteMovie) gomponents.Node {
	return html.Div(
		html.ID(favoritesID),
		html.Ul(
			html.Class("flex flex-wrap gap-2 mb-3"),
			gomponents.Map(favorites, chip),
		),
		html.Form(
			html.Class("relative flex gap-2"),
			hx.Post("/favorites"),
			hx.Target("#"+favoritesID),
			hx.Swap("outerHTML"),
			html.Input(
				html.Type("text"),
				html.Name("q"),
				html.Placeholder("Type a movie and press Enter..."),
				html.AutoComplete("off"),
				html.Aria("label", "Add a favorite movie"),
				html.Class("flex-grow bg-slate-700 border border-slate-600 rounded-lg px-3 py-2 text-slate-100"),
				hx.Get("/search"),
				hx.Trigger("keyup changed delay:300ms"),
				hx.Target("#"+suggestionsID),
				hx.Swap("innerHTML"),
			),
			html.Button(
				html.Type("submit"),
				html.Class("bg-slate-600 hover:bg-slate-500 rounded-lg px-4 py-2"),
				gomponents.Text("Add"),
			),
			html.Div(
				html.ID(suggestionsID),
				html.Class("absolute top-full left-0 right-0 z-10 mt-1"),
			),
		),
	)
}

func chip(m domain.FavoriteMovie) gomponents.Node {
	return html.Li(
		html.Class("flex items-center gap-2 bg-violet-600/30 border border-violet-500 rounded-full pl-1 pr-2 py-1 text-sm"),
		gomponents.If(m.PosterURL != nil, html.Img(
			html.Src(deref(m.PosterURL)),
			html.Alt(""),
			html.Class("w-6 h-6 rounded-full object-cover"),
		)),
		html.Span(gomponents.Text(m.Title)),
		html.Button(
			html.Type("button"),
			html.Aria("label", "Remove "+m.Title),
			html.Class("text-violet-200 hover:text-white"),
			hx.Delete(fmt.Sprintf("/favorites/%d", m.ID)),
			hx.Target("#"+favoritesID),
			hx.Swap("outerHTML"),
			gomponents.Text("×"),
		),
	)
}

// Suggestions is the autocomplete dropdown. An empty list renders nothing so
// the dropdown closes.
func Suggestions(movies []domain.FavoriteMovie) gomponents.Node {
	if len(movies) == 0 {
		return gomponents.Group{}
	}
	return html.Ul(
		html.Class("bg-slate-800 border border-slate-600 rounded-lg shadow-xl overflow-hidden"),
		html.Role("listbox"),
		gomponents.Map(movies, suggestion),
	)
}

func suggestion(m domain.FavoriteMovie) gomponents.Node {
	vals := map[string]string{
		"title": m.Title,
		"id":    fmt.Sprint(m.ID),
	}
	if m.PosterURL != nil {
		vals["poster_url"] = *m.PosterURL
	}
	b, _ := json.Marshal(vals)

	return html.Li(
		html.Button(
			html.Type("button"),
			html.Role("option"),
			html.Class("w-full flex items-center gap-3 px-3 py-2 text-left hover:bg-slate-700"),
			hx.Post("/favorites"),
			hx.Vals(string(b)),
			hx.Target("#"+favoritesID),
			hx.Swap("outerHTML"),
			posterThumb(m),
			html.Span(gomponents.Text(m.Title)),
		),
	)
}

func posterThumb(m domain.FavoriteMovie) gomponents.Node {
	if m.PosterURL == nil {
		return html.Div(html.Class("w-8 h-12 bg-slate-700 rounded"))
	}
	return html.Img(
		html.Src(*m.PosterURL),
		html.Alt(""),
		html.Loading("lazy"),
		html.Class("w-8 h-12 object-cover rounded"),
	)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
