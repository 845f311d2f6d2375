package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LawsuitMonitor/internal/domain"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := New(Options{})
	require.NoError(t, err)
	return s
}

func TestScore_AllCategories(t *testing.T) {
	s := newTestScorer(t)

	text := "Defendants scrape the dataset to train our model for commercial profit. " +
		"Plaintiffs bring this class action on behalf of all authors."
	res := s.Score(Input{Text: text, NatureOfSuit: "820"})

	assert.Equal(t, 100, res.Score)
	assert.Equal(t, domain.BandCritical, res.Band)
	assert.Equal(t, []string{
		"unauthorized_collection", "model_training", "commercial_use", "copyright_suit", "class_action",
	}, res.Categories)
}

func TestScore_CategoryCountsOnce(t *testing.T) {
	s := newTestScorer(t)

	once := s.Score(Input{Text: "They scrape websites."})
	many := s.Score(Input{Text: "They scrape, crawl, ingest and harvest. Scraping again and again."})

	assert.Equal(t, 30, once.Score)
	assert.Equal(t, once.Score, many.Score)
	assert.Equal(t, []string{"unauthorized_collection"}, many.Categories)
}

func TestScore_CaseInsensitiveStems(t *testing.T) {
	s := newTestScorer(t)

	res := s.Score(Input{Text: "SCRAPED content was used in TRAINING."})
	assert.Equal(t, 60, res.Score)
	assert.Equal(t, domain.BandHigh, res.Band)
}

func TestScore_TermsMatchWordStartsOnly(t *testing.T) {
	s := newTestScorer(t)

	res := s.Score(Input{Text: "The entertainment company remodeled its stadium."})
	assert.Equal(t, 0, res.Score)
	assert.Empty(t, res.Categories)

	hyphen := s.Score(Input{Text: "A pre-trained system was (re)trained."})
	assert.Equal(t, []string{"model_training"}, hyphen.Categories)
}

func TestContainsWordPrefix(t *testing.T) {
	assert.True(t, containsWordPrefix("training data", "train"))
	assert.True(t, containsWordPrefix("entertainment; training", "train"))
	assert.False(t, containsWordPrefix("entertainment", "train"))
	assert.True(t, containsWordPrefix("café-scraping", "scrap"))
	assert.False(t, containsWordPrefix("", "train"))
}

func TestScore_NatureOfSuitWithLabel(t *testing.T) {
	s := newTestScorer(t)

	res := s.Score(Input{Text: "Complaint filed.", NatureOfSuit: "820 Copyright"})
	assert.Equal(t, 15, res.Score)
	assert.Equal(t, []string{"copyright_suit"}, res.Categories)

	other := s.Score(Input{Text: "Complaint filed.", NatureOfSuit: "830 Patent"})
	assert.Equal(t, 0, other.Score)
}

func TestScore_MissingText(t *testing.T) {
	s := newTestScorer(t)

	for _, text := range []string{"", "   \n\t"} {
		res := s.Score(Input{Text: text, NatureOfSuit: "820"})
		assert.Equal(t, 0, res.Score)
		assert.Equal(t, domain.BandLow, res.Band)
		assert.Empty(t, res.Sections)
	}
}

func TestScore_MalformedText(t *testing.T) {
	s := newTestScorer(t)

	binary := "%PDF-1.7\x00\x01\x02 scrape train"
	res := s.Score(Input{Text: binary, NatureOfSuit: "820"})
	assert.Equal(t, 0, res.Score)
	assert.Empty(t, res.Sections)

	invalid := string([]byte{0xff, 0xfe, 'a', 'b'})
	assert.True(t, Malformed(invalid))
	assert.False(t, Malformed("plain text\nwith lines\t"))
}

func TestScore_MonotonicInCategories(t *testing.T) {
	s := newTestScorer(t)

	fragments := []string{
		"They scrape pages.",
		"They train a model.",
		"It is for commercial gain.",
		"This is a putative class of authors.",
	}

	prev := 0
	text := "Intro."
	for _, f := range fragments {
		text += " " + f
		res := s.Score(Input{Text: text})
		assert.GreaterOrEqual(t, res.Score, prev)
		assert.GreaterOrEqual(t, res.Score, MinScore)
		assert.LessOrEqual(t, res.Score, MaxScore)
		prev = res.Score
	}
	assert.Equal(t, 85, prev)
}

func TestScore_ClampsHeavyRuleTables(t *testing.T) {
	s, err := New(Options{Rules: []Rule{
		{Category: "a", Terms: []string{"alpha"}, Weight: 70},
		{Category: "b", Terms: []string{"beta"}, Weight: 70},
	}})
	require.NoError(t, err)

	res := s.Score(Input{Text: "alpha beta"})
	assert.Equal(t, 100, res.Score)
}

func TestNew_RejectsInvalidRules(t *testing.T) {
	cases := map[string][]Rule{
		"negative weight": {{Category: "x", Terms: []string{"x"}, Weight: -5}},
		"empty category":  {{Terms: []string{"x"}, Weight: 5}},
		"no triggers":     {{Category: "x", Weight: 5}},
		"duplicate":       {{Category: "x", Terms: []string{"a"}, Weight: 1}, {Category: "x", Terms: []string{"b"}, Weight: 1}},
	}
	for name, rules := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(Options{Rules: rules})
			assert.ErrorIs(t, err, ErrInvalidRule)
		})
	}
}

func TestBand(t *testing.T) {
	cases := []struct {
		score int
		want  domain.ScoreBand
	}{
		{-10, domain.BandLow},
		{0, domain.BandLow},
		{39, domain.BandLow},
		{40, domain.BandMedium},
		{59, domain.BandMedium},
		{60, domain.BandHigh},
		{79, domain.BandHigh},
		{80, domain.BandCritical},
		{100, domain.BandCritical},
		{150, domain.BandCritical},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Band(tc.score), "score %d", tc.score)
	}
}

func TestBand_Exhaustive(t *testing.T) {
	for score := MinScore; score <= MaxScore; score++ {
		assert.Contains(t, domain.Bands, Band(score))
	}
}

func TestScore_Deterministic(t *testing.T) {
	s := newTestScorer(t)
	text := strings.Repeat("Plaintiffs allege copyright infringement under 17 U.S.C. § 501. ", 3) +
		"Defendant used the books as training data for its large language model."

	first := s.Score(Input{Text: text, NatureOfSuit: "820"})
	second := s.Score(Input{Text: text, NatureOfSuit: "820"})
	assert.Equal(t, first, second)
}
