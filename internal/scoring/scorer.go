// Package scoring computes litigation risk scores and key excerpts from filing text.
package scoring

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"LawsuitMonitor/internal/domain"
)

const (
	defaultMaxScanChars    = 4000
	defaultMaxExcerptChars = 280
)

// Options configures a Scorer. Zero values fall back to defaults.
type Options struct {
	Rules           []Rule
	MaxScanChars    int
	MaxExcerptChars int
}

// Input is the text to score plus the docket's nature-of-suit, if any.
type Input struct {
	Text         string
	NatureOfSuit string
}

// Result is the derived score for one input.
type Result struct {
	Score      int
	Band       domain.ScoreBand
	Categories []string
	Sections   []domain.Section
}

// Scorer applies a rule table to document text.
type Scorer struct {
	rules      []Rule
	maxScan    int
	maxExcerpt int
}

// New validates the rule table and builds a Scorer.
func New(opts Options) (*Scorer, error) {
	rules := opts.Rules
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	if err := validateRules(rules); err != nil {
		return nil, err
	}

	s := &Scorer{
		rules:      append([]Rule(nil), rules...),
		maxScan:    opts.MaxScanChars,
		maxExcerpt: opts.MaxExcerptChars,
	}
	if s.maxScan <= 0 {
		s.maxScan = defaultMaxScanChars
	}
	if s.maxExcerpt <= 0 {
		s.maxExcerpt = defaultMaxExcerptChars
	}
	return s, nil
}

// Score evaluates every rule once against the input. Missing or malformed
// text scores 0 with no sections.
func (s *Scorer) Score(in Input) Result {
	text := strings.TrimSpace(in.Text)
	if text == "" || Malformed(text) {
		return Result{Score: 0, Band: Band(0)}
	}

	lowered := strings.ToLower(text)
	nosCode := domain.NatureOfSuitCode(in.NatureOfSuit)

	total := 0
	var categories []string
	for _, rule := range s.rules {
		if rule.matches(lowered, nosCode) {
			total += rule.Weight
			categories = append(categories, rule.Category)
		}
	}
	total = clamp(total)

	return Result{
		Score:      total,
		Band:       Band(total),
		Categories: categories,
		Sections:   extractSections(text, s.maxScan, s.maxExcerpt),
	}
}

// Malformed reports text that looks binary: invalid UTF-8, NUL bytes, or a
// high share of control characters.
func Malformed(text string) bool {
	if !utf8.ValidString(text) || strings.ContainsRune(text, 0) {
		return true
	}
	var total, control int
	for _, r := range text {
		total++
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			control++
		}
	}
	return total > 0 && control*10 > total
}
