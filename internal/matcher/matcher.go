// Package matcher links news items to docket records using caption overlap
// and filing-date proximity.
package matcher

import (
	"fmt"
	"math"
	"time"

	"LawsuitMonitor/internal/domain"
)

const (
	DefaultLookbackDays       = 3
	DefaultConfirmThreshold   = 0.6
	DefaultCandidateThreshold = 0.35
	DefaultTextWeight         = 0.7

	// minConfirmHits is the number of distinct caption tokens a news item
	// must share with a docket before the link can be confirmed.
	minConfirmHits = 2
)

// Options tunes match thresholds. Zero values fall back to defaults.
type Options struct {
	LookbackDays       int
	ConfirmThreshold   float64
	CandidateThreshold float64
	TextWeight         float64
}

// Matcher is stateless; Match is a pure function of its inputs.
type Matcher struct {
	lookbackDays int
	confirm      float64
	candidate    float64
	textWeight   float64
}

// New validates thresholds (0 < candidate <= confirm <= 1).
func New(opts Options) (*Matcher, error) {
	m := &Matcher{
		lookbackDays: opts.LookbackDays,
		confirm:      opts.ConfirmThreshold,
		candidate:    opts.CandidateThreshold,
		textWeight:   opts.TextWeight,
	}
	if m.lookbackDays <= 0 {
		m.lookbackDays = DefaultLookbackDays
	}
	if m.confirm == 0 {
		m.confirm = DefaultConfirmThreshold
	}
	if m.candidate == 0 {
		m.candidate = DefaultCandidateThreshold
	}
	if m.textWeight == 0 {
		m.textWeight = DefaultTextWeight
	}

	if m.candidate <= 0 || m.candidate > m.confirm || m.confirm > 1 {
		return nil, fmt.Errorf("invalid thresholds: candidate=%.2f confirm=%.2f", m.candidate, m.confirm)
	}
	if m.textWeight < 0 || m.textWeight > 1 {
		return nil, fmt.Errorf("invalid text weight %.2f", m.textWeight)
	}
	return m, nil
}

type scored struct {
	docket   *domain.DocketRecord
	hits     int
	required int
	overlap  float64
	recency  float64
	combined float64
}

// Match picks the best docket for news. Candidates outside the lookback
// window around the publish date are ignored. A single shared caption token
// never confirms a link on multi-token captions, so articles that only name
// a defendant stay separate items.
func (m *Matcher) Match(news domain.NewsItem, dockets []domain.DocketRecord) domain.MatchResult {
	item := news
	result := domain.MatchResult{News: &item, Confidence: domain.ConfidenceUnmatched}

	newsTokens := tokens(news.Title + " " + news.Summary)
	if len(newsTokens) == 0 {
		return result
	}

	var best *scored
	for i := range dockets {
		d := &dockets[i]
		s, ok := m.evaluate(news, newsTokens, d)
		if !ok {
			continue
		}
		if best == nil || better(s, *best) {
			cand := s
			best = &cand
		}
	}

	if best == nil || best.combined < m.candidate {
		return result
	}

	docket := *best.docket
	result.Docket = &docket
	result.TextOverlap = best.overlap
	result.Recency = best.recency
	result.Combined = best.combined
	if best.combined >= m.confirm && best.hits >= best.required {
		result.Confidence = domain.ConfidenceConfirmed
	} else {
		result.Confidence = domain.ConfidenceCandidate
	}
	return result
}

// MatchAll matches every news item and appends a docket-only result for each
// docket no news item confirmed.
func (m *Matcher) MatchAll(news []domain.NewsItem, dockets []domain.DocketRecord) []domain.MatchResult {
	results := make([]domain.MatchResult, 0, len(news)+len(dockets))
	claimed := map[string]struct{}{}

	for _, n := range news {
		res := m.Match(n, dockets)
		if res.Confidence == domain.ConfidenceConfirmed {
			claimed[docketIdentity(*res.Docket)] = struct{}{}
		}
		results = append(results, res)
	}

	for i := range dockets {
		if _, ok := claimed[docketIdentity(dockets[i])]; ok {
			continue
		}
		d := dockets[i]
		results = append(results, domain.MatchResult{
			Docket:     &d,
			Confidence: domain.ConfidenceUnmatched,
		})
	}
	return results
}

func (m *Matcher) evaluate(news domain.NewsItem, newsTokens map[string]struct{}, d *domain.DocketRecord) (scored, bool) {
	recency, ok := m.recency(news.PublishedAt, d.FiledAt)
	if !ok {
		return scored{}, false
	}

	caption := d.CaseTitle
	for _, p := range d.Parties {
		caption += " " + p
	}
	docketTokens := tokens(caption)
	if len(docketTokens) == 0 {
		return scored{}, false
	}

	hits := 0
	for tok := range docketTokens {
		if _, ok := newsTokens[tok]; ok {
			hits++
		}
	}
	if hits == 0 {
		return scored{}, false
	}

	overlap := float64(hits) / float64(len(docketTokens))
	return scored{
		docket:   d,
		hits:     hits,
		required: min(minConfirmHits, len(docketTokens)),
		overlap:  overlap,
		recency:  recency,
		combined: m.textWeight*overlap + (1-m.textWeight)*recency,
	}, true
}

// recency is 1 on the same day and decays linearly to the window edge.
func (m *Matcher) recency(published, filed time.Time) (float64, bool) {
	if published.IsZero() || filed.IsZero() {
		return 0, true
	}
	days := math.Abs(calendarDate(published).Sub(calendarDate(filed)).Hours()) / 24
	if days > float64(m.lookbackDays) {
		return 0, false
	}
	return 1 - days/float64(m.lookbackDays+1), true
}

func calendarDate(t time.Time) time.Time {
	y, mo, d := t.UTC().Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

// better orders by combined score, then most recent filing, then docket id.
func better(a, b scored) bool {
	const eps = 1e-9
	if math.Abs(a.combined-b.combined) > eps {
		return a.combined > b.combined
	}
	if !a.docket.FiledAt.Equal(b.docket.FiledAt) {
		return a.docket.FiledAt.After(b.docket.FiledAt)
	}
	return docketIdentity(*a.docket) < docketIdentity(*b.docket)
}

func docketIdentity(d domain.DocketRecord) string {
	if d.DocketID != "" {
		return d.Court + "|" + d.DocketID
	}
	return d.Court + "|" + d.CaseNumber + "|" + d.CaseTitle
}
