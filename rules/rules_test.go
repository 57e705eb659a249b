package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodReply = `[AD COPY]
Stop scrolling. Your skin called, it wants the glow back.
Shop the restock before it sells out again.

[WHY THIS WORKS]
This follows the Static Image pattern with an urgency hook, matching the
OUTCOME_SALES objective of the reference ads.`

func TestSplit(t *testing.T) {
	adCopy, why, err := Split(goodReply)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(adCopy, "Stop scrolling."))
	assert.Contains(t, why, "urgency hook")
}

func TestSplitMissingSections(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"no sections", "just some text"},
		{"only ad copy", "[AD COPY]\ngreat ad"},
		{"wrong order", "[WHY THIS WORKS]\nreason\n[AD COPY]\nad"},
		{"empty ad copy", "[AD COPY]\n\n[WHY THIS WORKS]\nreason"},
		{"empty why", "[AD COPY]\nad\n[WHY THIS WORKS]\n  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Split(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestValidateAcceptsGoodReply(t *testing.T) {
	assert.NoError(t, Validate(goodReply, []string{"Static Image"}))
	assert.NoError(t, Validate(goodReply, nil), "no keywords means no grounding check")
}

func TestValidateForbiddenPhrases(t *testing.T) {
	reply := "[AD COPY]\nHere's a great ad for you!\n[WHY THIS WORKS]\nIt uses Static Image."
	err := Validate(reply, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden phrase")

	// forbidden phrases are fine in the explanation section
	reply = "[AD COPY]\nGlow up season starts now.\n[WHY THIS WORKS]\nHere's why: urgency."
	assert.NoError(t, Validate(reply, nil))
}

func TestValidateRefusal(t *testing.T) {
	err := Validate("I cannot help with that request.", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refuses")
}

func TestValidateLengthCaps(t *testing.T) {
	long := "[AD COPY]\n" + strings.Repeat("buy now ", 120) + "\n[WHY THIS WORKS]\nuses urgency"
	assert.Error(t, Validate(long, nil))

	manyLines := "[AD COPY]\n" + strings.Repeat("line\n", 15) + "[WHY THIS WORKS]\nuses urgency"
	assert.Error(t, Validate(manyLines, nil))
}

func TestValidatePatternGrounding(t *testing.T) {
	reply := "[AD COPY]\nGlow up season starts now.\n[WHY THIS WORKS]\nBecause it is persuasive."
	err := Validate(reply, []string{"Carousel", "OUTCOME_TRAFFIC"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pattern")

	grounded := "[AD COPY]\nGlow up season starts now.\n[WHY THIS WORKS]\nIt mirrors the Carousel pattern."
	assert.NoError(t, Validate(grounded, []string{"Carousel", "OUTCOME_TRAFFIC"}))
}

func TestKeywords(t *testing.T) {
	snippets := []string{
		"1. FORMAT: Carousel | OBJECTIVE: OUTCOME_SALES | COPY: something",
		"2. FORMAT: Carousel | OBJECTIVE: Unknown | COPY: other",
		"3. FORMAT: Video/Reel | PERFORMANCE: ctr 2.00%",
	}
	got := Keywords(snippets)
	assert.Equal(t, []string{"Carousel", "OUTCOME_SALES", "Video/Reel"}, got)
}

func TestKeywordsEmpty(t *testing.T) {
	assert.Empty(t, Keywords(nil))
	assert.Empty(t, Keywords([]string{"no fields here"}))
}
