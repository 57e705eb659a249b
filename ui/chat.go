package ui

import (
	"fmt"

	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	. "maragu.dev/gomponents/html"

	"github.com/campaign-os/assistant/ad"
	"github.com/campaign-os/assistant/chat"
	"github.com/campaign-os/assistant/vector"
)

// ChatPage is the main screen: filter sidebar, saved sessions, message
// history and the prompt box.
func ChatPage(sess *chat.Session, sessions []chat.Info, opts *ad.FilterOptions, filters vector.FilterParams) g.Node {
	return Page("Campaign OS", []g.Node{
		Div(
			Class("flex min-h-screen"),
			sidebar(sessions, opts, filters, sess.ID),
			Div(
				Class("flex-1 flex flex-col max-h-screen"),
				Div(
					Class("border-b border-slate-800 px-6 py-3 flex items-center justify-between"),
					H1(Class("text-lg font-semibold"), g.Text(sess.Title)),
					A(Href("/logout"), Class("text-sm text-slate-400 hover:text-slate-200"), g.Text("Sign out")),
				),
				Div(
					ID("messages"),
					Class("flex-1 overflow-y-auto px-6 py-4 space-y-4"),
					messageHistory(sess),
				),
				promptForm(filters),
			),
		),
	})
}

func sidebar(sessions []chat.Info, opts *ad.FilterOptions, filters vector.FilterParams, currentID string) g.Node {
	return Div(
		Class("w-72 border-r border-slate-800 bg-slate-900 p-4 flex flex-col gap-6 overflow-y-auto"),
		Div(
			A(Href("/new"), Class("block w-full text-center rounded-md bg-indigo-600 hover:bg-indigo-500 px-3 py-2 font-medium"),
				g.Text("New chat")),
		),
		FilterPanel(opts, filters),
		sessionList(sessions, currentID),
	)
}

// FilterPanel renders the categorical pattern filters. Changing any select
// reloads the page with the new query params.
func FilterPanel(opts *ad.FilterOptions, filters vector.FilterParams) g.Node {
	return Div(
		ID("filters"),
		Form(
			Method("get"),
			Action("/"),
			Class("space-y-3"),
			H2(Class("text-xs uppercase tracking-wide text-slate-500"), g.Text("Pattern filters")),
			filterSelect("objective", "Objective", opts.Objectives, filters.Objective),
			filterSelect("campaign_status", "Campaign status", opts.CampaignStatuses, filters.CampaignStatus),
			filterSelect("status", "Ad status", opts.Statuses, filters.AdStatus),
			filterSelect("format", "Format", opts.Formats, filters.Format),
			Button(Type("submit"),
				Class("w-full rounded-md bg-slate-700 hover:bg-slate-600 px-3 py-1.5 text-sm"),
				g.Text("Apply")),
		),
	)
}

func filterSelect(name, label string, options []string, selected string) g.Node {
	items := []g.Node{Option(Value(""), g.Text("Any "+label))}
	for _, opt := range options {
		attrs := []g.Node{Value(opt), g.Text(opt)}
		if opt == selected {
			attrs = append(attrs, Selected())
		}
		items = append(items, Option(attrs...))
	}
	return Label(
		Class("block text-sm"),
		Span(Class("text-slate-400"), g.Text(label)),
		Select(
			append([]g.Node{
				Name(name),
				Class("mt-1 w-full rounded-md bg-slate-800 border border-slate-700 px-2 py-1.5 text-sm"),
			}, items...)...,
		),
	)
}

func sessionList(sessions []chat.Info, currentID string) g.Node {
	if len(sessions) == 0 {
		return Div(
			H2(Class("text-xs uppercase tracking-wide text-slate-500 mb-2"), g.Text("Saved chats")),
			P(Class("text-sm text-slate-500"), g.Text("No saved chats yet.")),
		)
	}
	items := make([]g.Node, 0, len(sessions))
	for _, info := range sessions {
		cls := "block rounded-md px-3 py-2 text-sm hover:bg-slate-800"
		if info.ID == currentID {
			cls += " bg-slate-800"
		}
		items = append(items, A(
			Href("/session/"+info.ID),
			Class(cls),
			Div(Class("truncate"), g.Text(info.Title)),
			Div(Class("text-xs text-slate-500"),
				g.Text(fmt.Sprintf("%d turns · %s", info.Turns, info.UpdatedAt.Format("Jan 2 15:04")))),
		))
	}
	return Div(
		H2(Class("text-xs uppercase tracking-wide text-slate-500 mb-2"), g.Text("Saved chats")),
		Div(Class("space-y-1"), g.Group(items)),
	)
}

func messageHistory(sess *chat.Session) g.Node {
	if len(sess.Messages) == 0 {
		return P(Class("text-slate-500"),
			g.Text("Ask for ad copy and the assistant will ground it in your account's best-performing patterns."))
	}
	nodes := make([]g.Node, 0, len(sess.Messages))
	for _, msg := range sess.Messages {
		nodes = append(nodes, MessageBubble(msg))
	}
	return g.Group(nodes)
}

// MessageBubble renders one stored turn.
func MessageBubble(msg chat.Message) g.Node {
	if msg.Role == "user" {
		return Div(
			Class("flex justify-end"),
			Div(Class("max-w-xl rounded-xl bg-indigo-600/80 px-4 py-2 whitespace-pre-wrap"), g.Text(msg.Content)),
		)
	}
	return Div(
		Class("flex justify-start"),
		Div(Class("max-w-2xl rounded-xl bg-slate-800 px-4 py-2 whitespace-pre-wrap"), g.Text(msg.Content)),
	)
}

// AssistantTurn is the htmx swap target for one completed exchange: the user
// bubble, the assistant reply and the reference ads behind it.
func AssistantTurn(userMsg, assistantMsg chat.Message, refs []*ad.Ad) g.Node {
	return g.Group([]g.Node{
		MessageBubble(userMsg),
		MessageBubble(assistantMsg),
		ReferencePanel(refs),
	})
}

// ReferencePanel shows the retrieved ads a reply was grounded in.
func ReferencePanel(refs []*ad.Ad) g.Node {
	if len(refs) == 0 {
		return g.Text("")
	}
	cards := make([]g.Node, 0, len(refs))
	for _, a := range refs {
		cards = append(cards, referenceCard(a))
	}
	return Div(
		Class("ml-2 border-l-2 border-slate-700 pl-4"),
		H3(Class("text-xs uppercase tracking-wide text-slate-500 mb-2"), g.Text("Reference ads")),
		Div(Class("grid grid-cols-1 md:grid-cols-2 gap-3"), g.Group(cards)),
	)
}

func referenceCard(a *ad.Ad) g.Node {
	var img g.Node = Div(Class("h-24 bg-slate-800 rounded-md flex items-center justify-center text-slate-600 text-xs"),
		g.Text(a.FormatCategory))
	if a.AdID != "" && a.ImagePaths != "" {
		img = Img(Src("/media/"+a.AdID), Alt(a.AdName),
			Class("h-24 w-full object-cover rounded-md"))
	}
	return Div(
		Class("rounded-lg bg-slate-900 border border-slate-800 p-3 text-sm"),
		img,
		Div(Class("mt-2 font-medium truncate"), g.Text(a.AdName)),
		Div(Class("text-xs text-slate-500 truncate"), g.Text(a.CampaignName+" · "+a.FormatCategory)),
		Div(Class("text-xs text-slate-400 mt-1"),
			g.Text(fmt.Sprintf("CTR %.2f%% · ROAS %.2f · conv %.1f%%", a.CTR, a.ROAS, a.ConversionRate))),
	)
}

func promptForm(filters vector.FilterParams) g.Node {
	return Form(
		ID("prompt-form"),
		Class("border-t border-slate-800 px-6 py-4 flex gap-3"),
		hx.Post("/chat"),
		hx.Target("#messages"),
		hx.Swap("beforeend"),
		g.Attr("hx-on::after-request", "this.reset()"),
		Input(Type("hidden"), Name("objective"), Value(filters.Objective)),
		Input(Type("hidden"), Name("campaign_status"), Value(filters.CampaignStatus)),
		Input(Type("hidden"), Name("status"), Value(filters.AdStatus)),
		Input(Type("hidden"), Name("format"), Value(filters.Format)),
		Input(
			Type("text"),
			Name("prompt"),
			Placeholder("Ask for ad copy..."),
			AutoComplete("off"),
			Class("flex-1 rounded-md bg-slate-800 border border-slate-700 px-3 py-2"),
		),
		Button(Type("submit"),
			Class("rounded-md bg-indigo-600 hover:bg-indigo-500 px-4 py-2 font-medium"),
			g.Text("Send")),
	)
}
