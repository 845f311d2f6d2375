package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"LawsuitMonitor/internal/domain"
	"LawsuitMonitor/internal/ledger"
	"LawsuitMonitor/internal/matcher"
	"LawsuitMonitor/internal/metrics"
	"LawsuitMonitor/internal/ports"
	"LawsuitMonitor/internal/scoring"
	"LawsuitMonitor/internal/stats"
)

const defaultLookbackDays = 3

// PipelineDeps wires all driven adapters and core components into the run pipeline.
type PipelineDeps struct {
	Dockets    ports.DocketSource
	News       ports.NewsSource
	Store      ports.LedgerStore
	Sink       ports.ReportSink
	Matcher    *matcher.Matcher
	Scorer     *scoring.Scorer
	Aggregator *stats.Aggregator
	Logger     *slog.Logger

	Location       *time.Location
	LookbackDays   int
	TopN           int
	ShowCandidates bool
	// NewRunID overrides run identifiers in tests.
	NewRunID func() string
}

// Pipeline implements one monitoring run: fetch, match, score, dedup, report.
type Pipeline struct {
	dockets    ports.DocketSource
	news       ports.NewsSource
	store      ports.LedgerStore
	sink       ports.ReportSink
	matcher    *matcher.Matcher
	scorer     *scoring.Scorer
	aggregator *stats.Aggregator
	logger     *slog.Logger

	loc            *time.Location
	lookbackDays   int
	topN           int
	showCandidates bool
	newRunID       func() string
}

// NewPipeline constructs the orchestration component. Missing core
// components fall back to their defaults.
func NewPipeline(deps PipelineDeps) (*Pipeline, error) {
	p := &Pipeline{
		dockets:        deps.Dockets,
		news:           deps.News,
		store:          deps.Store,
		sink:           deps.Sink,
		matcher:        deps.Matcher,
		scorer:         deps.Scorer,
		aggregator:     deps.Aggregator,
		loc:            deps.Location,
		lookbackDays:   deps.LookbackDays,
		topN:           deps.TopN,
		showCandidates: deps.ShowCandidates,
		newRunID:       deps.NewRunID,
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	p.logger = logger.With("component", "pipeline")

	if p.lookbackDays <= 0 {
		p.lookbackDays = defaultLookbackDays
	}
	if p.loc == nil {
		p.loc = time.UTC
	}
	if p.newRunID == nil {
		p.newRunID = uuid.NewString
	}

	var err error
	if p.matcher == nil {
		if p.matcher, err = matcher.New(matcher.Options{LookbackDays: p.lookbackDays}); err != nil {
			return nil, fmt.Errorf("build matcher: %w", err)
		}
	}
	if p.scorer == nil {
		if p.scorer, err = scoring.New(scoring.Options{}); err != nil {
			return nil, fmt.Errorf("build scorer: %w", err)
		}
	}
	if p.aggregator == nil {
		p.aggregator = stats.New(stats.Options{NewOnly: true, ShowCandidates: p.showCandidates})
	}
	return p, nil
}

// Run executes one invocation at now. Collaborator failures degrade the
// report instead of failing it; only cancellation and publish failures
// surface as errors.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (domain.RunReport, error) {
	started := time.Now()
	report := domain.RunReport{
		RunID:          p.newRunID(),
		RunAt:          now,
		ShowCandidates: p.showCandidates,
	}
	log := p.logger.With("run_id", report.RunID)
	log.Info("run started", "at", now.In(p.loc).Format(time.RFC3339))

	window := ports.Window{From: now.AddDate(0, 0, -p.lookbackDays), To: now}
	dockets, news := p.fetch(ctx, window, log, &report)
	report.DocketCount = len(dockets)
	report.NewsCount = len(news)

	if err := ctx.Err(); err != nil {
		metrics.RecordRun("cancelled", time.Since(started).Seconds())
		return report, err
	}

	current := p.openLedger(ctx, now, log, &report)
	report.Day = current.Day()
	report.RolledOverFrom = current.RolledOverFrom()
	if report.RolledOverFrom != "" {
		log.Info("ledger rolled over", "from", report.RolledOverFrom, "to", report.Day)
	}

	items := p.scoreAll(p.matcher.MatchAll(news, dockets))

	keys := make([]domain.DedupKey, len(items))
	for i, item := range items {
		keys[i] = item.Key
	}
	partition := current.Classify(keys)

	classified := make([]domain.ClassifiedItem, 0, len(items))
	for _, item := range items {
		status := domain.StatusDuplicate
		if partition.IsNew(item.Key) {
			status = domain.StatusNew
			report.New = append(report.New, item)
		} else {
			report.Duplicate = append(report.Duplicate, item)
		}
		classified = append(classified, domain.ClassifiedItem{Item: item, Status: status})
	}

	report.RunStats = p.aggregator.Fold(classified)

	staged := current.Clone()
	staged.Record(partition.New, now)
	staged.CompleteRun(report.RunStats)
	report.DayStats = staged.Stats()
	report.Highlights = highlights(report.New, p.topN)

	if err := ctx.Err(); err != nil {
		metrics.RecordRun("cancelled", time.Since(started).Seconds())
		return report, err
	}

	p.commit(ctx, staged, now, log, &report)

	metrics.RecordItems(len(report.New), len(report.Duplicate))
	log.Info("run classified",
		"day", report.Day,
		"dockets", report.DocketCount,
		"news", report.NewsCount,
		"new", len(report.New),
		"duplicate", len(report.Duplicate),
		"degraded", report.Degraded,
	)

	status := "ok"
	if report.Degraded {
		status = "degraded"
	}

	if p.sink != nil {
		if err := p.sink.Publish(ctx, report); err != nil {
			log.Error("publish report failed", "error", err)
			metrics.RecordRun("failed", time.Since(started).Seconds())
			return report, fmt.Errorf("publish report: %w", err)
		}
	}

	metrics.RecordRun(status, time.Since(started).Seconds())
	return report, nil
}

// fetch pulls archive and feed input concurrently. A failing collaborator
// contributes nothing and leaves a warning.
func (p *Pipeline) fetch(ctx context.Context, window ports.Window, log *slog.Logger, report *domain.RunReport) ([]domain.DocketRecord, []domain.NewsItem) {
	var (
		dockets            []domain.DocketRecord
		news               []domain.NewsItem
		docketErr, newsErr error
	)

	var g errgroup.Group
	if p.dockets != nil {
		g.Go(func() error {
			dockets, docketErr = p.dockets.FetchDockets(ctx, window)
			return nil
		})
	}
	if p.news != nil {
		g.Go(func() error {
			news, newsErr = p.news.FetchNews(ctx, window)
			return nil
		})
	}
	_ = g.Wait()

	if docketErr != nil {
		dockets = nil
		metrics.RecordFetchError("archive")
		log.Warn("docket archive unavailable", "error", docketErr)
		report.Warnings = append(report.Warnings, fmt.Sprintf("docket archive unavailable: %v", docketErr))
	}
	if newsErr != nil {
		news = nil
		metrics.RecordFetchError("news")
		log.Warn("news feeds unavailable", "error", newsErr)
		report.Warnings = append(report.Warnings, fmt.Sprintf("news feeds unavailable: %v", newsErr))
	}
	return dockets, news
}

// openLedger loads the persisted day ledger. A load failure starts from an
// empty prior and marks the run degraded so it never writes back.
func (p *Pipeline) openLedger(ctx context.Context, now time.Time, log *slog.Logger, report *domain.RunReport) *ledger.Ledger {
	day := ledger.ReportingDay(now, p.loc)
	snapshot := domain.NewDayLedger(day)

	if p.store != nil {
		loaded, err := p.store.Load(ctx, day)
		switch {
		case err != nil:
			metrics.RecordLedgerError("load")
			log.Warn("ledger load failed, continuing without dedup history", "day", day, "error", err)
			report.Degraded = true
			report.Warnings = append(report.Warnings, fmt.Sprintf("ledger unavailable: %v", err))
		case loaded.Day != "":
			snapshot = loaded
		}
	}

	return ledger.Open(snapshot, now, p.loc)
}

// commit saves the staged ledger once. Degraded runs skip the write.
func (p *Pipeline) commit(ctx context.Context, staged *ledger.Ledger, now time.Time, log *slog.Logger, report *domain.RunReport) {
	if p.store == nil || report.Degraded {
		return
	}
	if err := p.store.Save(ctx, staged.Snapshot(now)); err != nil {
		if !errors.Is(err, ledger.ErrUnavailable) {
			err = fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
		}
		metrics.RecordLedgerError("save")
		log.Warn("ledger save failed", "day", staged.Day(), "error", err)
		report.Degraded = true
		report.Warnings = append(report.Warnings, fmt.Sprintf("ledger not saved: %v", err))
	}
}

// scoreAll scores every match and collapses items sharing a key to the
// highest-scoring one, keeping first-occurrence order.
func (p *Pipeline) scoreAll(matches []domain.MatchResult) []domain.ScoredItem {
	items := make([]domain.ScoredItem, 0, len(matches))
	index := map[domain.DedupKey]int{}

	for _, m := range matches {
		metrics.RecordMatch(string(m.Confidence))

		res := p.scorer.Score(scoringInput(m, p.showCandidates))
		item := domain.ScoredItem{
			Match:      m,
			Score:      res.Score,
			Band:       res.Band,
			Categories: res.Categories,
			Sections:   res.Sections,
			Key:        DeriveKey(m, p.showCandidates),
		}

		if pos, ok := index[item.Key]; ok {
			if item.Score > items[pos].Score {
				items[pos] = item
			}
			continue
		}
		index[item.Key] = len(items)
		items = append(items, item)
	}
	return items
}

// highlights returns the top n new items by score, ties broken by key.
func highlights(items []domain.ScoredItem, n int) []domain.ScoredItem {
	if n <= 0 || len(items) == 0 {
		return nil
	}
	sorted := append([]domain.ScoredItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Key < sorted[j].Key
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
