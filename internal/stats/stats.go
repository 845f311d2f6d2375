// Package stats folds scored items into per-day counters.
package stats

import "LawsuitMonitor/internal/domain"

// Options selects which items are counted.
type Options struct {
	// NewOnly skips items already reported earlier in the day.
	NewOnly bool
	// ShowCandidates lets candidate matches contribute their docket's nature of suit.
	ShowCandidates bool
}

// Aggregator folds classified items into DailyStats.
type Aggregator struct {
	opts Options
}

// New builds an Aggregator.
func New(opts Options) *Aggregator {
	return &Aggregator{opts: opts}
}

// Fold counts items. The result does not depend on item order.
func (a *Aggregator) Fold(items []domain.ClassifiedItem) domain.DailyStats {
	out := domain.NewDailyStats()
	for _, it := range items {
		if a.opts.NewOnly && it.Status != domain.StatusNew {
			continue
		}
		out.NatureOfSuit[natureOfSuitBucket(it.Item, a.opts.ShowCandidates)]++
		out.Bands[it.Item.Band]++
		out.Items++
	}
	return out
}

// Merge adds two partial aggregates without mutating either.
func Merge(a, b domain.DailyStats) domain.DailyStats {
	out := a.Clone()
	for k, v := range b.NatureOfSuit {
		out.NatureOfSuit[k] += v
	}
	for k, v := range b.Bands {
		out.Bands[k] += v
	}
	out.Items += b.Items
	return out
}

func natureOfSuitBucket(item domain.ScoredItem, showCandidates bool) string {
	docket := item.Match.Enrichment(showCandidates)
	if docket == nil {
		return domain.UnknownNatureOfSuit
	}
	if code := docket.NatureOfSuitCode(); code != "" {
		return code
	}
	return domain.UnknownNatureOfSuit
}
