package parser

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer turns feed HTML fragments into plain text.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer strips every tag; summaries are matched as plain text.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// PlainText sanitizes fragment, unescapes entities and collapses whitespace.
func (s *Sanitizer) PlainText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	cleaned := html.UnescapeString(s.policy.Sanitize(fragment))
	return strings.Join(strings.Fields(cleaned), " ")
}
