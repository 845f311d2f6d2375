package scoring

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"LawsuitMonitor/internal/domain"
)

// Section labels, in output order.
const (
	LabelCauseOfAction   = "cause of action"
	LabelAITrainingClaim = "AI-training claim"
	LabelLegalBasis      = "legal basis"
)

type sectionTarget struct {
	label    string
	triggers []string
}

var sectionTargets = []sectionTarget{
	{label: LabelCauseOfAction, triggers: []string{
		"cause of action", "claim for relief", "count i", "copyright infringement",
		"unjust enrichment", "unfair competition", "breach of contract", "violation of",
	}},
	{label: LabelAITrainingClaim, triggers: []string{
		"training data", "train", "dataset", "large language model", "language model",
		"machine learning", "generative ai", "artificial intelligence",
	}},
	{label: LabelLegalBasis, triggers: []string{
		"u.s.c", "copyright act", "dmca", "digital millennium", "pursuant to",
		"section 1202", "jurisdiction",
	}},
}

var abbreviations = map[string]struct{}{
	"v": {}, "vs": {}, "inc": {}, "no": {}, "corp": {}, "co": {}, "ltd": {},
	"et": {}, "al": {}, "mr": {}, "ms": {}, "dr": {}, "st": {}, "jr": {},
}

func extractSections(text string, maxScan, maxExcerpt int) []domain.Section {
	lead := leadingRunes(text, maxScan)
	sentences := splitSentences(lead)
	if len(sentences) == 0 {
		return nil
	}

	lowered := make([]string, len(sentences))
	for i, s := range sentences {
		lowered[i] = strings.ToLower(s)
	}

	var out []domain.Section
	for _, target := range sectionTargets {
		for i, low := range lowered {
			if containsAny(low, target.triggers) {
				out = append(out, domain.Section{
					Label:   target.label,
					Excerpt: truncateRunes(sentences[i], maxExcerpt),
				})
				break
			}
		}
	}
	return out
}

// splitSentences breaks text on terminal punctuation followed by whitespace
// and on blank lines; single line breaks are folded into spaces.
func splitSentences(text string) []string {
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		s := strings.Join(strings.Fields(cur.String()), " ")
		if s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\n' && i+1 < len(runes) && runes[i+1] == '\n' {
			flush()
			continue
		}
		cur.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if r == '.' && endsWithAbbreviation(cur.String()) {
			continue
		}
		flush()
	}
	flush()
	return out
}

func endsWithAbbreviation(s string) bool {
	s = strings.TrimSuffix(s, ".")
	word := s
	if idx := strings.LastIndexFunc(s, unicode.IsSpace); idx >= 0 {
		_, size := utf8.DecodeRuneInString(s[idx:])
		word = s[idx+size:]
	}
	if strings.Contains(word, ".") {
		return true
	}
	_, ok := abbreviations[strings.ToLower(word)]
	return ok
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func leadingRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n])) + "…"
}
