package grok

import (
	"fmt"
	"log"
	"strings"

	"github.com/campaign-os/assistant/rules"
)

// systemPrompt enforces generate-first behavior: the reply leads with usable
// ad copy and only then explains, citing the retrieved patterns.
const systemPrompt = `You are a senior performance marketing copywriter.
Write ad copy grounded in the proven patterns provided below, adapted to the
user's request. Never copy a reference ad verbatim and never mention brands
from the references.

Reply in exactly this structure, nothing before or after:
[AD COPY]
<the ad copy, ready to publish>
[WHY THIS WORKS]
<2-4 sentences explaining which retrieved patterns you applied and how>

Do not refuse, do not add meta commentary, do not use placeholders.`

// Generator runs the retrieval-grounded generation chain. Call is swappable
// in tests and defaults to the live API.
type Generator struct {
	Call func(messages []Message) (string, error)
}

func NewGenerator() *Generator {
	return &Generator{Call: CallGrokMessages}
}

// Reply is one validated generation.
type Reply struct {
	AdCopy string
	Why    string
	Raw    string
	// Regenerated marks replies that needed the second attempt.
	Regenerated bool
}

// GenerateAdCopy produces validated ad copy for a user prompt given pattern
// snippets and prior conversation turns. An output that fails the contract
// gets exactly one regeneration with the violation fed back; a second
// failure is returned as an error.
func (g *Generator) GenerateAdCopy(userPrompt string, snippets []string, history []Message) (*Reply, error) {
	messages := []Message{{Role: "system", Content: buildSystemPrompt(snippets)}}
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: userPrompt})

	keywords := rules.Keywords(snippets)

	output, err := g.Call(messages)
	if err != nil {
		return nil, fmt.Errorf("generating: %w", err)
	}
	if vErr := rules.Validate(output, keywords); vErr == nil {
		return newReply(output, false), nil
	} else {
		log.Printf("[grok] output rejected (%v), regenerating", vErr)
		messages = append(messages,
			Message{Role: "assistant", Content: output},
			Message{Role: "user", Content: "Your reply broke the required format: " + vErr.Error() +
				". Produce the reply again, following the structure exactly."},
		)
	}

	output, err = g.Call(messages)
	if err != nil {
		return nil, fmt.Errorf("regenerating: %w", err)
	}
	if vErr := rules.Validate(output, keywords); vErr != nil {
		return nil, fmt.Errorf("reply failed validation twice: %w", vErr)
	}
	return newReply(output, true), nil
}

func newReply(output string, regenerated bool) *Reply {
	adCopy, why, _ := rules.Split(output)
	return &Reply{AdCopy: adCopy, Why: why, Raw: output, Regenerated: regenerated}
}

func buildSystemPrompt(snippets []string) string {
	if len(snippets) == 0 {
		return systemPrompt + "\n\nNo reference patterns matched this request; rely on general best practice."
	}
	return systemPrompt + "\n\nProven patterns from the account's best ads:\n" + strings.Join(snippets, "\n")
}
