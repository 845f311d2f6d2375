package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LawsuitMonitor/internal/domain"
)

func TestExtractSections_AllLabels(t *testing.T) {
	text := `UNITED STATES DISTRICT COURT
NORTHERN DISTRICT OF CALIFORNIA

This Court has jurisdiction under 28 U.S.C. § 1331. Defendant copied millions of books
to build training data for its large language model. FIRST CAUSE OF ACTION: direct
copyright infringement.`

	sections := extractSections(text, 4000, 280)
	require.Len(t, sections, 3)

	assert.Equal(t, LabelCauseOfAction, sections[0].Label)
	assert.Equal(t, "FIRST CAUSE OF ACTION: direct copyright infringement.", sections[0].Excerpt)

	assert.Equal(t, LabelAITrainingClaim, sections[1].Label)
	assert.Equal(t, "Defendant copied millions of books to build training data for its large language model.", sections[1].Excerpt)

	assert.Equal(t, LabelLegalBasis, sections[2].Label)
	assert.Contains(t, sections[2].Excerpt, "28 U.S.C. § 1331")
}

func TestExtractSections_OmitsMissingLabels(t *testing.T) {
	sections := extractSections("The parties met. Nothing else happened.", 4000, 280)
	assert.Empty(t, sections)

	only := extractSections("Plaintiff asserts unjust enrichment. The weather was nice.", 4000, 280)
	require.Len(t, only, 1)
	assert.Equal(t, LabelCauseOfAction, only[0].Label)
	for _, s := range only {
		assert.NotEmpty(t, s.Excerpt)
	}
}

func TestExtractSections_BoundedScan(t *testing.T) {
	text := strings.Repeat("Filler sentence here. ", 50) + "The model was trained on stolen books."

	assert.Empty(t, extractSections(text, 100, 280))
	assert.Len(t, extractSections(text, 10000, 280), 1)
}

func TestExtractSections_TruncatesExcerpt(t *testing.T) {
	text := "Defendant trained " + strings.Repeat("very ", 100) + "large systems."
	sections := extractSections(text, 4000, 40)

	require.Len(t, sections, 1)
	assert.True(t, strings.HasSuffix(sections[0].Excerpt, "…"))
	assert.LessOrEqual(t, len([]rune(sections[0].Excerpt)), 41)
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("Authors v. OpenAI, Inc. was filed. It claims harm!\n\nSecond paragraph")
	assert.Equal(t, []string{
		"Authors v. OpenAI, Inc. was filed.",
		"It claims harm!",
		"Second paragraph",
	}, got)
}

func TestScore_SectionsFollowScore(t *testing.T) {
	s, err := New(Options{})
	require.NoError(t, err)

	res := s.Score(Input{Text: "Count I: copyright infringement pursuant to the Copyright Act."})
	require.Len(t, res.Sections, 2)
	assert.Equal(t, []domain.Section{
		{Label: LabelCauseOfAction, Excerpt: "Count I: copyright infringement pursuant to the Copyright Act."},
		{Label: LabelLegalBasis, Excerpt: "Count I: copyright infringement pursuant to the Copyright Act."},
	}, res.Sections)
}
