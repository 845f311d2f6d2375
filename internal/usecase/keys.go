package usecase

import (
	"net/url"
	"strings"

	"LawsuitMonitor/internal/domain"
	"LawsuitMonitor/internal/matcher"
)

// DeriveKey picks the identity of the real-world item behind a match:
// the enriched docket, else the canonical news URL, else the folded title.
func DeriveKey(m domain.MatchResult, showCandidates bool) domain.DedupKey {
	if docket := m.Enrichment(showCandidates); docket != nil {
		court := strings.ToLower(strings.TrimSpace(docket.Court))
		if id := strings.TrimSpace(docket.DocketID); id != "" {
			return domain.DedupKey("docket:" + court + ":" + id)
		}
		if number := matcher.NormalizeTitle(docket.CaseNumber); number != "" {
			return domain.DedupKey("docket:" + court + ":" + strings.ReplaceAll(number, " ", "-"))
		}
	}

	if m.News != nil {
		if canonical := canonicalURL(m.News.URL); canonical != "" {
			return domain.DedupKey("news:" + canonical)
		}
	}

	return domain.DedupKey("title:" + matcher.NormalizeTitle(m.Title()))
}

// canonicalURL returns host+path with query, fragment and trailing slash dropped.
func canonicalURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	path := strings.TrimRight(u.EscapedPath(), "/")
	return strings.ToLower(u.Host) + path
}
