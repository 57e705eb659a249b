package ui

import (
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	. "maragu.dev/gomponents/html"
)

// LoginPage is the single-password gate.
func LoginPage(errMsg string) g.Node {
	var banner g.Node
	if errMsg != "" {
		banner = ErrorBanner(errMsg)
	}
	return Page("Campaign OS — Sign in", []g.Node{
		Div(
			Class("flex items-center justify-center min-h-screen"),
			Div(
				Class("w-full max-w-sm bg-slate-900 rounded-xl p-8 shadow-xl"),
				pageHeader("Campaign OS"),
				P(Class("text-sm text-slate-400 mb-4"), g.Text("Enter the team password to continue.")),
				banner,
				Form(
					Method("post"),
					Action("/login"),
					hx.Post("/login"),
					hx.Target("closest div"),
					hx.Swap("outerHTML"),
					Class("mt-4 space-y-4"),
					Input(
						Type("password"),
						Name("password"),
						Placeholder("Password"),
						AutoFocus(),
						Class("w-full rounded-md bg-slate-800 border border-slate-700 px-3 py-2"),
					),
					Button(
						Type("submit"),
						Class("w-full rounded-md bg-indigo-600 hover:bg-indigo-500 px-3 py-2 font-medium"),
						g.Text("Sign in"),
					),
				),
			),
		),
	})
}
