package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"LawsuitMonitor/internal/domain"
)

var kst = time.FixedZone("KST", 9*60*60)

func sampleReport() domain.RunReport {
	runAt := time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC)
	docket := &domain.DocketRecord{
		DocketID:   "123",
		CaseNumber: "3:23-cv-00201",
		Court:      "cand",
		CaseTitle:  "Andersen v. Stability AI Ltd.",
		URL:        "https://www.courtlistener.com/docket/123/",
	}
	confirmed := domain.ScoredItem{
		Match: domain.MatchResult{
			News:       &domain.NewsItem{Title: "Artists sue | Stability AI", URL: "https://news.example.com/a", PublishedAt: runAt},
			Docket:     docket,
			Confidence: domain.ConfidenceConfirmed,
		},
		Score:    100,
		Band:     domain.BandCritical,
		Sections: []domain.Section{{Label: "AI-training claim", Excerpt: "Defendants scraped\nimages to train models."}},
		Key:      "docket:cand:123",
	}
	candidate := domain.ScoredItem{
		Match: domain.MatchResult{
			News:       &domain.NewsItem{Title: "Startup faces suit", URL: "https://news.example.com/b", PublishedAt: runAt},
			Docket:     &domain.DocketRecord{DocketID: "999", Court: "nysd", CaseTitle: "Secret v. Candidate"},
			Confidence: domain.ConfidenceCandidate,
		},
		Score: 30,
		Band:  domain.BandLow,
		Key:   "news:news.example.com/b",
	}

	day := domain.NewDailyStats()
	day.NatureOfSuit["820"] = 1
	day.NatureOfSuit[domain.UnknownNatureOfSuit] = 1
	day.Bands[domain.BandCritical] = 1
	day.Bands[domain.BandLow] = 1
	day.Items = 2

	return domain.RunReport{
		RunID:       "run-1",
		Day:         "2025-03-10",
		RunAt:       runAt,
		New:         []domain.ScoredItem{confirmed, candidate},
		Highlights:  []domain.ScoredItem{confirmed},
		DayStats:    day,
		DocketCount: 1,
		NewsCount:   2,
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	out := Render(sampleReport(), kst)

	assert.Contains(t, out, "2025-03-10 12:00 KST")
	assert.Contains(t, out, `Artists sue \| Stability AI`)
	assert.Contains(t, out, "Andersen v. Stability AI Ltd. (3:23-cv-00201)")
	assert.Contains(t, out, "| confirmed | 100 | critical |")
	assert.Contains(t, out, "Defendants scraped images to train models.")
	assert.Contains(t, out, "| 820 | 1 |")
	assert.Contains(t, out, "| critical | 1 |")
	assert.NotContains(t, out, "Secret v. Candidate", "hidden candidate dockets stay out of the digest")

	critical := strings.Index(out, "| critical | 1 |")
	low := strings.Index(out, "| low | 1 |")
	assert.Less(t, critical, low)
}

func TestRender_ShowsCandidatesWhenEnabled(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	r.ShowCandidates = true
	assert.Contains(t, Render(r, kst), "Secret v. Candidate")
}

func TestRender_EmptyRun(t *testing.T) {
	t.Parallel()

	r := domain.RunReport{RunID: "run-2", RunAt: time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC), DayStats: domain.NewDailyStats(), Degraded: true, Warnings: []string{"ledger unavailable: boom"}}
	out := Render(r, kst)
	assert.Contains(t, out, "No new items since the last run.")
	assert.Contains(t, out, "**Degraded**")
	assert.Contains(t, out, "Warning: ledger unavailable: boom")
}

func TestSummary(t *testing.T) {
	t.Parallel()

	out := Summary(sampleReport(), kst)
	lines := strings.Split(out, "\n")

	assert.Equal(t, "*AI litigation monitor* 2025-03-10 12:00 KST", lines[0])
	assert.Equal(t, "New: 2, duplicate: 0, today: 2", lines[1])
	assert.Equal(t, "- [critical 100] Artists sue | Stability AI <https://news.example.com/a>", lines[2])
	assert.Len(t, lines, 3)
}
