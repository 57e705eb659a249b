package ui

import (
	g "maragu.dev/gomponents"
	"maragu.dev/gomponents/components"
	. "maragu.dev/gomponents/html"

	"github.com/campaign-os/assistant/config"
)

// Page is the shared HTML shell: Tailwind + htmx from CDN, dark chat theme.
func Page(title string, content []g.Node) g.Node {
	return components.HTML5(components.HTML5Props{
		Title:    title,
		Language: "en",
		Head: []g.Node{
			Link(Rel("stylesheet"), Href(config.TailwindCSSURL)),
			Script(Type("text/javascript"), Src(config.HTMXURL), Defer()),
		},
		Body: []g.Node{
			Div(
				Class("min-h-screen bg-slate-950 text-slate-100"),
				g.Group(content),
			),
		},
	})
}

func pageHeader(text string) g.Node {
	return H1(Class("text-2xl font-semibold mb-6"), g.Text(text))
}

// ErrorBanner renders an inline failure message for htmx swaps.
func ErrorBanner(msg string) g.Node {
	return Div(
		Class("rounded-md bg-red-900/60 border border-red-700 px-4 py-2 text-sm text-red-200"),
		g.Text(msg),
	)
}
