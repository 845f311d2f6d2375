// Package report renders run reports as markdown digests.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"LawsuitMonitor/internal/domain"
)

const timestampLayout = "2006-01-02 15:04 MST"

// Render builds the full markdown digest of a run.
func Render(r domain.RunReport, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## AI training-data litigation monitor: %s\n\n", r.RunAt.In(loc).Format(timestampLayout))

	writeSummary(&b, r)

	if len(r.Highlights) > 0 {
		b.WriteString("\n### Highlights\n\n")
		for i, item := range r.Highlights {
			fmt.Fprintf(&b, "%d. **%s** (%s, %d)", i+1, escape(item.Match.Title()), item.Band, item.Score)
			if link := itemURL(item, r.ShowCandidates); link != "" {
				fmt.Fprintf(&b, " %s", link)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n### New items\n\n")
	if len(r.New) == 0 {
		b.WriteString("No new items since the last run.\n")
	} else {
		writeTable(&b, r.New, r.ShowCandidates, loc)
		writeSections(&b, r.New)
	}

	b.WriteString("\n### Today by nature of suit\n\n")
	writeCounts(&b, "Nature of suit", r.DayStats.NatureOfSuit)

	b.WriteString("\n### Today by band\n\n")
	writeBandCounts(&b, r.DayStats.Bands)

	return b.String()
}

// Summary is the short plain-text digest used for chat notifications.
func Summary(r domain.RunReport, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*AI litigation monitor* %s\n", r.RunAt.In(loc).Format(timestampLayout))
	fmt.Fprintf(&b, "New: %d, duplicate: %d, today: %d\n", len(r.New), len(r.Duplicate), r.DayStats.Items)
	if r.Degraded {
		b.WriteString("Degraded run: dedup history unavailable\n")
	}
	for _, item := range r.Highlights {
		fmt.Fprintf(&b, "- [%s %d] %s", item.Band, item.Score, oneLine(item.Match.Title()))
		if link := itemURL(item, r.ShowCandidates); link != "" {
			fmt.Fprintf(&b, " <%s>", link)
		}
		b.WriteString("\n")
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "! %s\n", oneLine(w))
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeSummary(b *strings.Builder, r domain.RunReport) {
	fmt.Fprintf(b, "- Run: `%s` (reporting day %s)\n", r.RunID, r.Day)
	fmt.Fprintf(b, "- Sources: %d dockets, %d news items\n", r.DocketCount, r.NewsCount)
	fmt.Fprintf(b, "- New: %d, duplicate: %d\n", len(r.New), len(r.Duplicate))
	if r.RolledOverFrom != "" {
		fmt.Fprintf(b, "- Ledger rolled over from %s\n", r.RolledOverFrom)
	}
	if r.Degraded {
		b.WriteString("- **Degraded**: dedup history could not be read or saved\n")
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(b, "- Warning: %s\n", escape(w))
	}
}

func writeTable(b *strings.Builder, items []domain.ScoredItem, showCandidates bool, loc *time.Location) {
	b.WriteString("| Date | Title | Case | Court | Confidence | Score | Band |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, item := range items {
		caseTitle, court, confidence := "-", "-", "-"
		if docket := item.Match.Enrichment(showCandidates); docket != nil {
			caseTitle = docket.CaseTitle
			if docket.CaseNumber != "" {
				caseTitle += " (" + docket.CaseNumber + ")"
			}
			court = docket.Court
			confidence = string(item.Match.Confidence)
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %d | %s |\n",
			itemDate(item, loc),
			escape(item.Match.Title()),
			escape(caseTitle),
			escape(court),
			confidence,
			item.Score,
			item.Band,
		)
	}
}

func writeSections(b *strings.Builder, items []domain.ScoredItem) {
	var withSections []domain.ScoredItem
	for _, item := range items {
		if len(item.Sections) > 0 {
			withSections = append(withSections, item)
		}
	}
	if len(withSections) == 0 {
		return
	}

	b.WriteString("\n### Key sections\n")
	for _, item := range withSections {
		fmt.Fprintf(b, "\n#### %s\n\n", escape(item.Match.Title()))
		for _, s := range item.Sections {
			fmt.Fprintf(b, "- **%s**: %s\n", s.Label, escape(s.Excerpt))
		}
	}
}

func writeCounts(b *strings.Builder, header string, counts map[string]int) {
	if len(counts) == 0 {
		b.WriteString("Nothing counted yet today.\n")
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(b, "| %s | Items |\n|---|---|\n", header)
	for _, k := range keys {
		fmt.Fprintf(b, "| %s | %d |\n", escape(k), counts[k])
	}
}

func writeBandCounts(b *strings.Builder, counts map[domain.ScoreBand]int) {
	if len(counts) == 0 {
		b.WriteString("Nothing counted yet today.\n")
		return
	}
	b.WriteString("| Band | Items |\n|---|---|\n")
	for _, band := range domain.Bands {
		if n, ok := counts[band]; ok {
			fmt.Fprintf(b, "| %s | %d |\n", band, n)
		}
	}
}

func itemDate(item domain.ScoredItem, loc *time.Location) string {
	var t time.Time
	switch {
	case item.Match.News != nil && !item.Match.News.PublishedAt.IsZero():
		t = item.Match.News.PublishedAt
	case item.Match.Docket != nil:
		t = item.Match.Docket.FiledAt
	}
	if t.IsZero() {
		return "-"
	}
	return t.In(loc).Format("2006-01-02")
}

func itemURL(item domain.ScoredItem, showCandidates bool) string {
	if item.Match.News != nil && item.Match.News.URL != "" {
		return item.Match.News.URL
	}
	if docket := item.Match.Enrichment(showCandidates); docket != nil {
		return docket.URL
	}
	return ""
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// escape keeps table cells on one line and pipes literal.
func escape(s string) string {
	return strings.ReplaceAll(oneLine(s), "|", `\|`)
}
