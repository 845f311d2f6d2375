package matcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stopwords = map[string]struct{}{
	"a": {}, "al": {}, "an": {}, "and": {}, "as": {}, "at": {}, "by": {}, "co": {},
	"corp": {}, "corporation": {}, "et": {}, "for": {}, "from": {}, "in": {}, "inc": {},
	"into": {}, "is": {}, "it": {}, "its": {}, "llc": {}, "ltd": {}, "of": {}, "on": {},
	"or": {}, "over": {}, "re": {}, "the": {}, "to": {}, "v": {}, "vs": {}, "with": {},
}

// foldKey lowercases, strips diacritics and collapses non-alphanumerics to single spaces.
func foldKey(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(strings.TrimSpace(folded))

	var b strings.Builder
	b.Grow(len(folded))
	prevSpace := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			prevSpace = false
			continue
		}
		if !prevSpace {
			b.WriteByte(' ')
			prevSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// tokens returns the stemmed, stopword-free token set of s.
func tokens(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range strings.Fields(foldKey(s)) {
		if _, skip := stopwords[w]; skip {
			continue
		}
		out[stem(w)] = struct{}{}
	}
	return out
}

// stem trims common English inflections so "scraped", "scrapes" and "scraping" meet.
func stem(w string) string {
	if len(w) <= 4 {
		return strings.TrimSuffix(w, "s")
	}
	for _, suffix := range []string{"ing", "ed", "es", "s"} {
		if strings.HasSuffix(w, suffix) && len(w)-len(suffix) >= 3 {
			w = strings.TrimSuffix(w, suffix)
			break
		}
	}
	if strings.HasSuffix(w, "e") && len(w) > 4 {
		w = strings.TrimSuffix(w, "e")
	}
	return w
}

// NormalizeTitle exposes the folded form for key derivation.
func NormalizeTitle(s string) string {
	return foldKey(s)
}
