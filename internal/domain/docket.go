package domain

import (
	"strings"
	"time"
	"unicode"
)

// DocumentRef points to a filed document inside a docket.
type DocumentRef struct {
	ID          string
	Description string
	URL         string
	FiledAt     time.Time
	// Text holds the plain text of the document when the archive exposes it.
	Text string
}

// DocketRecord is an archive case record with its filed documents.
type DocketRecord struct {
	DocketID     string
	CaseNumber   string
	Court        string
	CaseTitle    string
	Parties      []string
	FiledAt      time.Time
	NatureOfSuit string
	URL          string
	Documents    []DocumentRef
}

// NatureOfSuitCode returns the docket's nature-of-suit code.
func (d DocketRecord) NatureOfSuitCode() string {
	return NatureOfSuitCode(d.NatureOfSuit)
}

// NatureOfSuitCode returns the leading numeric code of a nature-of-suit field
// ("820 Copyright" -> "820"). Non-numeric values are returned trimmed.
func NatureOfSuitCode(raw string) string {
	nos := strings.TrimSpace(raw)
	end := 0
	for end < len(nos) && unicode.IsDigit(rune(nos[end])) {
		end++
	}
	if end > 0 {
		return nos[:end]
	}
	return nos
}
