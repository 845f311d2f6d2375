package domain

// Confidence tags how strongly a news item was linked to a docket.
type Confidence string

const (
	ConfidenceConfirmed Confidence = "confirmed"
	ConfidenceCandidate Confidence = "candidate"
	ConfidenceUnmatched Confidence = "unmatched"
)

// MatchResult links one news item to at most one docket.
// Docket-only results (News == nil) carry archive cases no news item confirmed.
type MatchResult struct {
	News        *NewsItem
	Docket      *DocketRecord
	Confidence  Confidence
	TextOverlap float64
	Recency     float64
	Combined    float64
}

// DocketOnly reports whether the result originates from the archive alone.
func (m MatchResult) DocketOnly() bool {
	return m.News == nil && m.Docket != nil
}

// Enrichment returns the docket whose data may be attached to the item.
// Candidate links are only exposed when showCandidates is set.
func (m MatchResult) Enrichment(showCandidates bool) *DocketRecord {
	if m.Docket == nil {
		return nil
	}
	switch {
	case m.DocketOnly():
		return m.Docket
	case m.Confidence == ConfidenceConfirmed:
		return m.Docket
	case m.Confidence == ConfidenceCandidate && showCandidates:
		return m.Docket
	default:
		return nil
	}
}

// Title picks the best human-readable title for the item.
func (m MatchResult) Title() string {
	if m.News != nil && m.News.Title != "" {
		return m.News.Title
	}
	if m.Docket != nil {
		return m.Docket.CaseTitle
	}
	return ""
}
