package ui

import (
	"fmt"
	"sort"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// AdminPage shows cache stats for the in-process caches.
func AdminPage(stats map[string]map[string]interface{}) g.Node {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	sections := make([]g.Node, 0, len(names))
	for _, name := range names {
		sections = append(sections, cacheSection(name, stats[name]))
	}

	return Page("Campaign OS — Admin", []g.Node{
		Div(
			Class("max-w-3xl mx-auto px-6 py-8"),
			pageHeader("Cache stats"),
			Div(Class("space-y-6"), g.Group(sections)),
		),
	})
}

func cacheSection(name string, stats map[string]interface{}) g.Node {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]g.Node, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, Tr(
			Td(Class("py-1 pr-8 text-slate-400"), g.Text(k)),
			Td(Class("py-1"), g.Text(fmt.Sprintf("%v", stats[k]))),
		))
	}
	return Div(
		Class("rounded-lg bg-slate-900 border border-slate-800 p-4"),
		H2(Class("font-medium mb-2"), g.Text(name)),
		Table(Class("text-sm"), TBody(g.Group(rows))),
	)
}
