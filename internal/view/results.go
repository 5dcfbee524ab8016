package view

import (
	"maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	"maragu.dev/gomponents/components"
	"maragu.dev/gomponents/html"

	"github.com/actuallystonmai/cinematch/internal/domain"
)

const (
	idleLabel = "Find My Next Binge"
	busyLabel = "Analyzing Your Taste..."
)

// ActionButton starts a recommendation run. It is disabled while a run is
// in flight or when there are no favorites.
func ActionButton(state domain.ViewState) gomponents.Node {
	label := gomponents.Group{
		html.Span(html.Class("idle-label"), gomponents.Text(idleLabel)),
		html.Span(html.Class("busy-label"), gomponents.Text(busyLabel)),
	}
	if state.Loading {
		label = gomponents.Group{html.Span(gomponents.Text(busyLabel))}
	}

	return html.Button(
		html.ID("recommend-button"),
		html.Type("button"),
		html.Class("w-full bg-violet-600 text-white font-bold py-3 px-4 rounded-lg hover:bg-violet-700 disabled:bg-slate-600 disabled:cursor-not-allowed"),
		gomponents.If(!state.CanRecommend(), html.Disabled()),
		hx.Post("/recommendations"),
		hx.Target("#"+resultsID),
		hx.Swap("outerHTML"),
		hx.Indicator("#"+loaderID+", #recommend-button"),
		gomponents.Attr("hx-disabled-elt", "this"),
		label,
	)
}

// ActionButtonOOB is ActionButton marked for an htmx out-of-band swap, sent
// along with partials that change whether a run is possible.
func ActionButtonOOB(state domain.ViewState) gomponents.Node {
	return html.Div(gomponents.Attr("hx-swap-oob", "innerHTML:#"+actionID), ActionButton(state))
}

// Loader is hidden until htmx marks it as the request indicator, or when
// the page is rendered mid-run.
func Loader(loading bool) gomponents.Node {
	return html.Div(
		html.ID(loaderID),
		components.Classes{
			"htmx-indicator": true,
			"is-loading":     loading,
			"flex-col items-center justify-center gap-4 mb-8": true,
		},
		html.Div(html.Class("w-12 h-12 border-4 border-t-violet-500 border-slate-600 rounded-full animate-spin")),
		html.P(html.Class("text-slate-400"), gomponents.Text("Finding your next favorite movie...")),
	)
}

// Results is the error banner, the empty hint or the card grid.
func Results(state domain.ViewState) gomponents.Node {
	return html.Div(
		html.ID(resultsID),
		gomponents.If(state.Error != "", html.P(
			html.Role("alert"),
			html.Class("error-banner text-center text-red-400 bg-red-900/50 p-4 rounded-lg"),
			gomponents.Text(state.Error),
		)),
		gomponents.If(state.Results == nil && state.Error == "" && !state.Loading, html.Div(
			html.Class("empty-hint text-center text-slate-500"),
			html.P(gomponents.Text("Your personalized movie recommendations will appear here.")),
		)),
		gomponents.If(state.Results != nil, html.Div(
			html.Class("grid grid-cols-1 sm:grid-cols-2 lg:grid-cols-3 gap-6 fade-in"),
			gomponents.Map(state.Results, Card),
		)),
	)
}

// Card shows one recommendation.
func Card(rec domain.Recommendation) gomponents.Node {
	return html.Article(
		html.Class("movie-card bg-slate-800 rounded-lg overflow-hidden shadow-lg border border-slate-700 flex flex-col"),
		poster(rec),
		html.Div(
			html.Class("p-6 flex flex-col flex-grow"),
			html.H3(html.Class("text-xl font-bold text-white mb-2"), gomponents.Text(rec.Title)),
			html.P(
				html.Class("reason text-slate-300 text-sm leading-relaxed mb-4"),
				html.Span(html.Class("font-semibold text-violet-400"), gomponents.Text("Why you'll love it: ")),
				gomponents.Text(rec.Reason),
			),
			gomponents.If(len(rec.MatchReasons) > 0, html.Div(
				html.Class("matches mt-auto pt-4 border-t border-slate-700"),
				html.H4(html.Class("text-sm font-semibold text-slate-200 mb-2"), gomponents.Text("Key Matches:")),
				html.Ul(
					html.Class("space-y-2"),
					gomponents.Map(rec.MatchReasons, func(m string) gomponents.Node {
						return html.Li(html.Class("text-slate-400 text-xs"), gomponents.Text(m))
					}),
				),
			)),
		),
	)
}

func poster(rec domain.Recommendation) gomponents.Node {
	if rec.PosterURL == nil {
		return html.Div(
			html.Class("poster-placeholder w-full h-48 bg-slate-700 flex items-center justify-center text-slate-500"),
			html.Role("img"),
			html.Aria("label", "No poster available"),
			filmIcon(),
		)
	}
	return html.Img(
		html.Src(*rec.PosterURL),
		html.Alt("Movie poster for "+rec.Title),
		html.Loading("lazy"),
		html.Class("w-full h-48 object-cover"),
	)
}

func filmIcon() gomponents.Node {
	return gomponents.El("svg",
		gomponents.Attr("xmlns", "http://www.w3.org/2000/svg"),
		gomponents.Attr("fill", "none"),
		gomponents.Attr("viewBox", "0 0 24 24"),
		gomponents.Attr("stroke-width", "1.5"),
		gomponents.Attr("stroke", "currentColor"),
		html.Class("w-16 h-16"),
		gomponents.El("path",
			gomponents.Attr("stroke-linecap", "round"),
			gomponents.Attr("stroke-linejoin", "round"),
			gomponents.Attr("d", "m15.75 10.5 4.72-4.72a.75.75 0 0 1 1.28.53v11.38a.75.75 0 0 1-1.28.53l-4.72-4.72M4.5 18.75h9a2.25 2.25 0 0 0 2.25-2.25v-9a2.25 2.25 0 0 0-2.25-2.25h-9A2.25 2.25 0 0 0 2.25 7.5v9A2.25 2.25 0 0 0 4.5 18.75Z"),
		),
	)
}
