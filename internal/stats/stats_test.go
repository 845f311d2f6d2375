package stats

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"LawsuitMonitor/internal/domain"
)

func item(nos string, band domain.ScoreBand, status domain.DedupStatus) domain.ClassifiedItem {
	match := domain.MatchResult{
		News:       &domain.NewsItem{Title: "t"},
		Confidence: domain.ConfidenceUnmatched,
	}
	if nos != "" {
		match.Docket = &domain.DocketRecord{NatureOfSuit: nos}
		match.Confidence = domain.ConfidenceConfirmed
	}
	return domain.ClassifiedItem{
		Item:   domain.ScoredItem{Match: match, Band: band},
		Status: status,
	}
}

func sample() []domain.ClassifiedItem {
	return []domain.ClassifiedItem{
		item("820 Copyright", domain.BandCritical, domain.StatusNew),
		item("820", domain.BandHigh, domain.StatusDuplicate),
		item("830 Patent", domain.BandLow, domain.StatusNew),
		item("", domain.BandMedium, domain.StatusNew),
		item("", domain.BandLow, domain.StatusDuplicate),
	}
}

func TestFold_Counts(t *testing.T) {
	got := New(Options{}).Fold(sample())

	want := domain.DailyStats{
		NatureOfSuit: map[string]int{"820": 2, "830": 1, domain.UnknownNatureOfSuit: 2},
		Bands: map[domain.ScoreBand]int{
			domain.BandCritical: 1, domain.BandHigh: 1, domain.BandMedium: 1, domain.BandLow: 2,
		},
		Items: 5,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Fold mismatch (-want +got):\n%s", diff)
	}
}

func TestFold_NewOnly(t *testing.T) {
	got := New(Options{NewOnly: true}).Fold(sample())

	assert.Equal(t, 3, got.Items)
	assert.Equal(t, 1, got.NatureOfSuit["820"])
	assert.Equal(t, 1, got.NatureOfSuit[domain.UnknownNatureOfSuit])
	assert.Equal(t, 1, got.Bands[domain.BandLow])
}

func TestFold_CandidateUsesUnknownUnlessShown(t *testing.T) {
	it := item("820", domain.BandHigh, domain.StatusNew)
	it.Item.Match.Confidence = domain.ConfidenceCandidate

	hidden := New(Options{}).Fold([]domain.ClassifiedItem{it})
	shown := New(Options{ShowCandidates: true}).Fold([]domain.ClassifiedItem{it})

	assert.Equal(t, 1, hidden.NatureOfSuit[domain.UnknownNatureOfSuit])
	assert.Equal(t, 1, shown.NatureOfSuit["820"])
	assert.Equal(t, 1, hidden.Bands[domain.BandHigh])
}

func TestFold_PermutationInvariant(t *testing.T) {
	agg := New(Options{})
	items := sample()
	want := agg.Fold(items)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]domain.ClassifiedItem(nil), items...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if diff := cmp.Diff(want, agg.Fold(shuffled)); diff != "" {
			t.Fatalf("order changed totals (-want +got):\n%s", diff)
		}
	}
}

func TestMerge_EqualsWholeFold(t *testing.T) {
	agg := New(Options{})
	items := sample()

	whole := agg.Fold(items)
	partA := agg.Fold(items[:2])
	partB := agg.Fold(items[2:4])
	partC := agg.Fold(items[4:])

	left := Merge(Merge(partA, partB), partC)
	right := Merge(partA, Merge(partB, partC))
	swapped := Merge(partC, Merge(partB, partA))

	assert.Empty(t, cmp.Diff(whole, left))
	assert.Empty(t, cmp.Diff(whole, right))
	assert.Empty(t, cmp.Diff(whole, swapped))
}

func TestMerge_DoesNotAlias(t *testing.T) {
	a := New(Options{}).Fold(sample()[:1])
	b := New(Options{}).Fold(sample()[1:2])

	merged := Merge(a, b)
	merged.NatureOfSuit["820"] = 99

	assert.Equal(t, 1, a.NatureOfSuit["820"])
	assert.Equal(t, 1, b.NatureOfSuit["820"])
}

func TestMerge_EmptyIdentity(t *testing.T) {
	s := New(Options{}).Fold(sample())
	assert.Empty(t, cmp.Diff(s, Merge(s, domain.NewDailyStats())))
	assert.Empty(t, cmp.Diff(s, Merge(domain.DailyStats{}, s)))
}
