package vector

import (
	"fmt"

	"github.com/campaign-os/assistant/config"
)

// Retrieve embeds a chat prompt (cache-backed) and returns the best-matching
// pattern hits under the sidebar filters.
func Retrieve(query string, filters FilterParams) ([]PatternHit, error) {
	embedding, err := EmbedQuery(query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return QueryPatterns(embedding, BuildFilter(filters), config.QdrantSearchTopK, config.QdrantScoreThreshold)
}

// PatternSnippets renders hits as numbered snippets for the generation
// prompt.
func PatternSnippets(hits []PatternHit) []string {
	snippets := make([]string, 0, len(hits))
	for i, hit := range hits {
		if hit.PatternText == "" {
			continue
		}
		snippets = append(snippets, fmt.Sprintf("%d. %s", i+1, Snippet(hit.PatternText)))
	}
	return snippets
}
