// Package view renders the Cinematch page and its htmx partials.
package view

import (
	"maragu.dev/gomponents"
	"maragu.dev/gomponents/components"
	"maragu.dev/gomponents/html"

	"github.com/actuallystonmai/cinematch/internal/domain"
)

const (
	htmxSrc     = "https://unpkg.com/htmx.org@2.0.4"
	tailwindSrc = "https://cdn.tailwindcss.com"

	favoritesID   = "favorites"
	suggestionsID = "suggestions"
	actionID      = "action"
	loaderID      = "loader"
	resultsID     = "results"
)

const pageCSS = `
.htmx-indicator{display:none}
.htmx-request.htmx-indicator,.htmx-indicator.is-loading{display:flex}
#recommend-button .busy-label{display:none}
#recommend-button.htmx-request .busy-label{display:inline}
#recommend-button.htmx-request .idle-label{display:none}
@keyframes fade-in{from{opacity:0;transform:translateY(10px)}to{opacity:1;transform:translateY(0)}}
.fade-in{animation:fade-in .5s ease-out forwards}
`

// Page is the full document for state.
func Page(state domain.ViewState) gomponents.Node {
	return components.HTML5(components.HTML5Props{
		Title:       "Cinematch AI",
		Description: "Movie recommendations that match the soul of the films you love.",
		Language:    "en",
		Head: []gomponents.Node{
			html.Script(html.Src(htmxSrc), html.Defer()),
			html.Script(html.Src(tailwindSrc)),
			html.StyleEl(gomponents.Raw(pageCSS)),
		},
		Body: []gomponents.Node{
			html.Div(
				html.Class("min-h-screen bg-slate-900 text-slate-100 font-sans p-4 sm:p-6 md:p-8"),
				html.Div(
					html.Class("max-w-4xl mx-auto"),
					pageHeader(),
					pageMain(state),
					pageFooter(),
				),
			),
		},
	})
}

func pageMain(state domain.ViewState) gomponents.Node {
	return html.Main(
		html.Section(
			html.Class("bg-slate-800/50 p-6 rounded-xl shadow-2xl border border-slate-700 mb-8"),
			html.H2(
				html.Class("block text-lg font-semibold text-slate-200 mb-3"),
				gomponents.Text("Enter your all-time favorite movies"),
			),
			Chips(state.Favorites),
			html.Div(html.ID(actionID), html.Class("mt-6"), ActionButton(state)),
		),
		html.Div(
			html.Class("mt-10"),
			Loader(state.Loading),
			Results(state),
		),
	)
}

func pageHeader() gomponents.Node {
	return html.Header(
		html.Class("text-center mb-8"),
		html.H1(
			html.Class("text-4xl sm:text-5xl font-bold text-transparent bg-clip-text bg-gradient-to-r from-violet-400 to-cyan-400 mb-2"),
			gomponents.Text("Cinematch AI"),
		),
		html.P(
			html.Class("text-slate-400 max-w-2xl mx-auto"),
			gomponents.Text("Name the movies you love and we'll find the next one. Matches go past genre to the themes, tone and style your favorites share."),
		),
	)
}

func pageFooter() gomponents.Node {
	return html.Footer(
		html.Class("text-center mt-12 py-6 border-t border-slate-800"),
		html.P(html.Class("text-slate-500 text-sm"), gomponents.Text("Powered by Gemini API & TMDb")),
	)
}
