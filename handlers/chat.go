package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/campaign-os/assistant/ad"
	"github.com/campaign-os/assistant/chat"
	"github.com/campaign-os/assistant/cookie"
	"github.com/campaign-os/assistant/grok"
	"github.com/campaign-os/assistant/jwt"
	"github.com/campaign-os/assistant/rules"
	"github.com/campaign-os/assistant/ui"
	"github.com/campaign-os/assistant/vector"
)

// historyWindow bounds how many stored turns ride along in each prompt.
const historyWindow = 10

// Retrieval and generation are package vars so handler tests can stub them.
var (
	retrievePatterns = vector.Retrieve
	generateReply    = func(prompt string, snippets []string, history []grok.Message) (*grok.Reply, error) {
		return grok.NewGenerator().GenerateAdCopy(prompt, snippets, history)
	}
)

func filtersFromQuery(c *fiber.Ctx) vector.FilterParams {
	return vector.FilterParams{
		Objective:      c.Query("objective"),
		CampaignStatus: c.Query("campaign_status"),
		AdStatus:       c.Query("status"),
		Format:         c.Query("format"),
	}
}

func filtersFromForm(c *fiber.Ctx) vector.FilterParams {
	return vector.FilterParams{
		Objective:      c.FormValue("objective"),
		CampaignStatus: c.FormValue("campaign_status"),
		AdStatus:       c.FormValue("status"),
		Format:         c.FormValue("format"),
	}
}

func currentSession(c *fiber.Ctx) (*chat.Session, error) {
	if id := sessionID(c); id != "" {
		if sess, err := sessions.Load(id); err == nil {
			return sess, nil
		}
	}
	sess := sessions.Create("")
	if err := sessions.Save(sess); err != nil {
		return nil, err
	}
	token, err := jwt.Generate(sess.ID)
	if err != nil {
		return nil, err
	}
	cookie.SetAuth(c, token)
	return sess, nil
}

// HomePage renders the chat screen for the current session.
func HomePage(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	infos, err := sessions.List()
	if err != nil {
		return err
	}
	opts, err := ad.GetFilterOptions()
	if err != nil {
		log.Printf("[chat] filter options: %v", err)
		opts = &ad.FilterOptions{}
	}
	return render(c, ui.ChatPage(sess, infos, opts, filtersFromQuery(c)))
}

// NewChat starts a fresh session and switches the cookie to it.
func NewChat(c *fiber.Ctx) error {
	sess := sessions.Create("")
	if err := sessions.Save(sess); err != nil {
		return err
	}
	token, err := jwt.Generate(sess.ID)
	if err != nil {
		return err
	}
	cookie.SetAuth(c, token)
	return c.Redirect("/", fiber.StatusSeeOther)
}

// OpenSession switches to a saved session.
func OpenSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := sessions.Load(id); err != nil {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	token, err := jwt.Generate(id)
	if err != nil {
		return err
	}
	cookie.SetAuth(c, token)
	return c.Redirect("/", fiber.StatusSeeOther)
}

// RenameSession updates a saved session's title.
func RenameSession(c *fiber.Ctx) error {
	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	if err := sessions.Rename(c.Params("id"), title); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// ChatMessage handles one prompt: retrieve matching patterns, generate a
// validated reply, persist both turns and return the htmx fragment.
func ChatMessage(c *fiber.Ctx) error {
	prompt := strings.TrimSpace(c.FormValue("prompt"))
	if prompt == "" {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	filters := filtersFromForm(c)

	hits, err := retrievePatterns(prompt, filters)
	if err != nil {
		log.Printf("[chat] retrieval failed: %v", err)
		return render(c, ui.ErrorBanner("Pattern search is unavailable right now. Try again shortly."))
	}
	snippets := vector.PatternSnippets(hits)

	reply, err := generateReply(prompt, snippets, toProviderHistory(sess.History(historyWindow)))
	if err != nil {
		log.Printf("[chat] generation failed: %v", err)
		return render(c, ui.ErrorBanner("Could not produce a valid reply. Try rephrasing."))
	}

	refIDs := make([]string, 0, len(hits))
	for _, hit := range hits {
		refIDs = append(refIDs, hit.AdID)
	}
	refs, err := ad.GetByIDs(refIDs)
	if err != nil {
		log.Printf("[chat] loading reference ads: %v", err)
	}

	userMsg := chat.Message{Role: "user", Content: prompt}
	assistantMsg := chat.Message{
		Role:         "assistant",
		Content:      rules.SectionAdCopy + "\n" + reply.AdCopy + "\n\n" + rules.SectionWhy + "\n" + reply.Why,
		ReferenceIDs: refIDs,
	}
	if err := sessions.Append(sess, userMsg); err != nil {
		return err
	}
	if err := sessions.Append(sess, assistantMsg); err != nil {
		return err
	}

	return render(c, ui.AssistantTurn(userMsg, assistantMsg, refs))
}

func toProviderHistory(msgs []chat.Message) []grok.Message {
	out := make([]grok.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, grok.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
