package usecase

import (
	"strings"

	"LawsuitMonitor/internal/domain"
	"LawsuitMonitor/internal/scoring"
)

var complaintHints = []string{"complaint", "petition", "class action"}

// scoringInput selects the best available text for an item: filed document
// text of the enriched docket, then document descriptions with the news
// text, then the news text alone, then the docket caption.
func scoringInput(m domain.MatchResult, showCandidates bool) scoring.Input {
	docket := m.Enrichment(showCandidates)

	var in scoring.Input
	if docket != nil {
		in.NatureOfSuit = docket.NatureOfSuit
		if text := documentText(docket.Documents); text != "" {
			in.Text = text
			return in
		}
	}

	var parts []string
	if docket != nil {
		for _, doc := range docket.Documents {
			if d := strings.TrimSpace(doc.Description); d != "" {
				parts = append(parts, d)
			}
		}
	}
	if m.News != nil {
		parts = appendNonEmpty(parts, m.News.Title, m.News.Summary)
	}
	if len(parts) == 0 && m.Docket != nil {
		parts = appendNonEmpty(parts, m.Docket.CaseTitle)
		parts = appendNonEmpty(parts, m.Docket.Parties...)
	}

	in.Text = strings.Join(parts, "\n\n")
	return in
}

// documentText prefers complaint-like filings and falls back to the first
// document that carries text. Binary or garbled text is skipped so the
// descriptions and news text can be scored instead.
func documentText(docs []domain.DocumentRef) string {
	fallback := ""
	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" || scoring.Malformed(doc.Text) {
			continue
		}
		desc := strings.ToLower(doc.Description)
		for _, hint := range complaintHints {
			if strings.Contains(desc, hint) {
				return doc.Text
			}
		}
		if fallback == "" {
			fallback = doc.Text
		}
	}
	return fallback
}

func appendNonEmpty(dst []string, values ...string) []string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			dst = append(dst, v)
		}
	}
	return dst
}
