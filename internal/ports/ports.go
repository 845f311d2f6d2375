package ports

import (
	"context"
	"time"

	"LawsuitMonitor/internal/domain"
)

// Window is the lookback period a run asks collaborators for.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window (inclusive).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// DocketSource pulls docket records from the archive for a lookback window.
type DocketSource interface {
	FetchDockets(ctx context.Context, window Window) ([]domain.DocketRecord, error)
}

// NewsSource pulls syndicated news items for a lookback window.
type NewsSource interface {
	FetchNews(ctx context.Context, window Window) ([]domain.NewsItem, error)
}

// LedgerStore persists one DayLedger per reporting day. Load returns the most
// recent snapshot at or before day (zero value when none exists) so callers can
// detect a rollover. Save must commit the whole snapshot or nothing.
type LedgerStore interface {
	Load(ctx context.Context, day string) (domain.DayLedger, error)
	Save(ctx context.Context, ledger domain.DayLedger) error
}

// ReportSink delivers a finished run report (Slack, etc.).
type ReportSink interface {
	Publish(ctx context.Context, report domain.RunReport) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
