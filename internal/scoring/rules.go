package scoring

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidRule is returned for rule tables that would break score monotonicity.
var ErrInvalidRule = errors.New("invalid scoring rule")

// CopyrightNatureOfSuit is the federal nature-of-suit code for copyright cases.
const CopyrightNatureOfSuit = "820"

// Rule is one scoring category. A rule fires when any of its terms starts a
// word in the lowercased text or the nature-of-suit code is listed; it
// contributes Weight at most once. Terms are stems, so "train" matches
// "training" but not "entertainment".
type Rule struct {
	Category          string
	Terms             []string
	NatureOfSuitCodes []string
	Weight            int
}

// DefaultRules is the rule table used in production.
func DefaultRules() []Rule {
	return []Rule{
		{Category: "unauthorized_collection", Terms: []string{"scrap", "crawl", "ingest", "harvest"}, Weight: 30},
		{Category: "model_training", Terms: []string{"train", "model"}, Weight: 30},
		{Category: "commercial_use", Terms: []string{"commercial", "profit"}, Weight: 15},
		{Category: "copyright_suit", NatureOfSuitCodes: []string{CopyrightNatureOfSuit}, Weight: 15},
		{Category: "class_action", Terms: []string{"class action", "putative class", "class members", "on behalf of all"}, Weight: 10},
	}
}

func validateRules(rules []Rule) error {
	seen := map[string]struct{}{}
	for _, r := range rules {
		if r.Category == "" {
			return fmt.Errorf("%w: empty category", ErrInvalidRule)
		}
		if _, dup := seen[r.Category]; dup {
			return fmt.Errorf("%w: duplicate category %s", ErrInvalidRule, r.Category)
		}
		seen[r.Category] = struct{}{}
		if r.Weight < 0 {
			return fmt.Errorf("%w: negative weight for %s", ErrInvalidRule, r.Category)
		}
		if len(r.Terms) == 0 && len(r.NatureOfSuitCodes) == 0 {
			return fmt.Errorf("%w: %s has no triggers", ErrInvalidRule, r.Category)
		}
	}
	return nil
}

// matches expects lowered text.
func (r Rule) matches(lowered, nosCode string) bool {
	for _, code := range r.NatureOfSuitCodes {
		if nosCode != "" && nosCode == code {
			return true
		}
	}
	for _, term := range r.Terms {
		if containsWordPrefix(lowered, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// containsWordPrefix reports whether term occurs in text right after the
// start of text or a non-letter.
func containsWordPrefix(text, term string) bool {
	if term == "" {
		return false
	}
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], term)
		if i < 0 {
			return false
		}
		pos := offset + i
		if pos == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(text[:pos])
		if !unicode.IsLetter(prev) {
			return true
		}
		offset = pos + 1
	}
	return false
}
