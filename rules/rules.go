package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Generated replies must follow a two-section contract: the ad copy first,
// then the explanation grounded in the retrieved patterns.
const (
	SectionAdCopy = "[AD COPY]"
	SectionWhy    = "[WHY THIS WORKS]"
)

const (
	maxAdCopyChars = 700
	maxAdCopyLines = 12
)

// forbiddenPhrases must never appear inside the ad copy itself. They are
// either assistant meta-talk or placeholder text.
var forbiddenPhrases = []string{
	"as an ai",
	"language model",
	"i cannot",
	"i can't",
	"i'm sorry",
	"i am sorry",
	"i'd be happy to",
	"here is",
	"here's",
	"hope this helps",
	"[insert",
	"lorem ipsum",
}

// refusalMarkers anywhere in the reply mean the model dodged the task.
var refusalMarkers = []string{
	"i cannot help with",
	"i can't help with",
	"i won't be able to",
	"unable to assist",
}

var (
	sectionRe   = regexp.MustCompile(`(?s)\[AD COPY\](.*?)\[WHY THIS WORKS\](.*)`)
	numberingRe = regexp.MustCompile(`^\d+\.\s*`)
)

// Split extracts the two sections. Both must be present, in order, and
// non-empty.
func Split(output string) (adCopy, why string, err error) {
	m := sectionRe.FindStringSubmatch(output)
	if m == nil {
		return "", "", fmt.Errorf("reply is missing required sections %s and %s", SectionAdCopy, SectionWhy)
	}
	adCopy = strings.TrimSpace(m[1])
	why = strings.TrimSpace(m[2])
	if adCopy == "" {
		return "", "", fmt.Errorf("%s section is empty", SectionAdCopy)
	}
	if why == "" {
		return "", "", fmt.Errorf("%s section is empty", SectionWhy)
	}
	return adCopy, why, nil
}

// Validate enforces the full output contract. patternKeywords, when present,
// are terms from the retrieved patterns; the WHY section must reference at
// least one so explanations stay grounded rather than generic.
func Validate(output string, patternKeywords []string) error {
	lower := strings.ToLower(output)
	for _, marker := range refusalMarkers {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("reply refuses the task (%q)", marker)
		}
	}

	adCopy, why, err := Split(output)
	if err != nil {
		return err
	}

	copyLower := strings.ToLower(adCopy)
	for _, phrase := range forbiddenPhrases {
		if strings.Contains(copyLower, phrase) {
			return fmt.Errorf("ad copy contains forbidden phrase %q", phrase)
		}
	}
	if len(adCopy) > maxAdCopyChars {
		return fmt.Errorf("ad copy is %d chars, cap is %d", len(adCopy), maxAdCopyChars)
	}
	if lines := strings.Count(adCopy, "\n") + 1; lines > maxAdCopyLines {
		return fmt.Errorf("ad copy is %d lines, cap is %d", lines, maxAdCopyLines)
	}

	if len(patternKeywords) > 0 && !mentionsAny(why, patternKeywords) {
		return fmt.Errorf("explanation does not reference any retrieved pattern")
	}
	return nil
}

func mentionsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Keywords pulls grounding terms out of pattern snippets for the WHY check.
// Only the coarse FORMAT and OBJECTIVE values are used.
func Keywords(snippets []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, snippet := range snippets {
		for _, field := range strings.Split(snippet, "|") {
			parts := strings.SplitN(field, ":", 2)
			if len(parts) != 2 {
				continue
			}
			key := numberingRe.ReplaceAllString(strings.TrimSpace(parts[0]), "")
			if key != "FORMAT" && key != "OBJECTIVE" {
				continue
			}
			value := strings.TrimSpace(parts[1])
			if value != "" && value != "Unknown" && !seen[value] {
				seen[value] = true
				out = append(out, value)
			}
		}
	}
	return out
}
