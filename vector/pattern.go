package vector

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/campaign-os/assistant/ad"
)

// Pattern-text construction. Each indexed document describes what an ad does
// and how it performed, not the brand it sells, so retrieval surfaces
// transferable techniques.

const maxPatternCopyLen = 300

var (
	urlRe     = regexp.MustCompile(`https?://\S+`)
	hashtagRe = regexp.MustCompile(`#\w+`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// NormalizeAdText strips URLs and hashtags, collapses whitespace and caps the
// result so one verbose ad cannot dominate its pattern document.
func NormalizeAdText(s string) string {
	s = urlRe.ReplaceAllString(s, "")
	s = hashtagRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
	if len(s) > maxPatternCopyLen {
		cut := s[:maxPatternCopyLen]
		// break on a word boundary when one is close
		if idx := strings.LastIndex(cut, " "); idx > maxPatternCopyLen-40 {
			cut = cut[:idx]
		}
		s = cut
	}
	return s
}

// HasEmoji reports whether the copy uses emoji, a filterable style signal.
func HasEmoji(s string) bool {
	for _, r := range s {
		if r >= 0x1F000 && r <= 0x1FAFF || r >= 0x2600 && r <= 0x27BF || r == 0x2764 {
			return true
		}
	}
	return false
}

// DetectLanguage is a coarse latin/non-latin split, enough for filtering.
func DetectLanguage(s string) string {
	var letters, latin int
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if r < 0x250 {
			latin++
		}
	}
	if letters == 0 || latin*2 >= letters {
		return "en"
	}
	return "other"
}

// BuildPatternText composes the document that gets embedded: format,
// objective, normalized copy, the image caption when available, and a
// performance summary.
func BuildPatternText(a *ad.Ad, caption string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FORMAT: %s | OBJECTIVE: %s", orUnknown(a.FormatCategory), orUnknown(a.CampaignObjective))

	if copyText := NormalizeAdText(a.CopyText); copyText != "" {
		fmt.Fprintf(&b, " | COPY: %s", copyText)
	}
	if caption != "" {
		fmt.Fprintf(&b, " | VISUAL: %s", caption)
	}
	fmt.Fprintf(&b, " | PERFORMANCE: ctr %.2f%%, roas %.2f, conversion rate %.2f%%, spend %.2f",
		a.CTR, a.ROAS, a.ConversionRate, a.Spend)
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// BuildPayload produces the filterable metadata stored next to the vector.
// Status values arrive already normalized from the flatten stage, so they are
// stored verbatim and stay identical to what the sidebar offers.
func BuildPayload(a *ad.Ad, patternText string) map[string]interface{} {
	copyText := NormalizeAdText(a.CopyText)
	return map[string]interface{}{
		"pattern_text":       patternText,
		"campaign_objective": orUnknown(a.CampaignObjective),
		"campaign_name":      a.CampaignName,
		"campaign_status":    orUnknown(a.CampaignStatus),
		"ad_status":          orUnknown(a.AdStatus),
		"format_category":    orUnknown(a.FormatCategory),
		"language":           DetectLanguage(copyText),
		"length":             len(copyText),
		"has_emoji":          HasEmoji(a.CopyText),
		"spend":              a.Spend,
		"ctr":                a.CTR,
		"roas":               a.ROAS,
		"conversion_rate":    a.ConversionRate,
	}
}

// Snippet returns the leading slice of a pattern document for prompt
// assembly, capped at 200 characters.
func Snippet(patternText string) string {
	const maxLen = 200
	if len(patternText) <= maxLen {
		return patternText
	}
	cut := patternText[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen-30 {
		cut = cut[:idx]
	}
	return cut + "..."
}
