// Package ledger tracks which items were already reported during the current
// reporting day across repeated runs.
package ledger

import (
	"errors"
	"time"

	"LawsuitMonitor/internal/domain"
	"LawsuitMonitor/internal/stats"
)

// ErrUnavailable marks ledger persistence failures; runs degrade instead of failing.
var ErrUnavailable = errors.New("ledger unavailable")

// DayLayout formats reporting days.
const DayLayout = "2006-01-02"

// State is the per-day lifecycle of a ledger.
type State int

const (
	// StateEmpty means no run has been recorded for the day yet.
	StateEmpty State = iota
	// StateActive means at least one run was recorded.
	StateActive
	// StateRolledOver is transient: the previous day's ledger was retired.
	StateRolledOver
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateActive:
		return "active"
	case StateRolledOver:
		return "rolled_over"
	default:
		return "unknown"
	}
}

// ReportingDay returns the calendar date of t in loc.
func ReportingDay(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DayLayout)
}

// Partition splits keys into those first seen in this run and those
// already recorded today.
type Partition struct {
	New       []domain.DedupKey
	Duplicate []domain.DedupKey
}

// IsNew reports whether key landed in the New set.
func (p Partition) IsNew(key domain.DedupKey) bool {
	for _, k := range p.New {
		if k == key {
			return true
		}
	}
	return false
}

// Ledger is the in-memory view of one reporting day.
type Ledger struct {
	loc          *time.Location
	day          string
	entries      map[domain.DedupKey]time.Time
	runs         int
	stats        domain.DailyStats
	state        State
	rolledOverAt string
}

// Open builds a ledger for the reporting day of now from a persisted snapshot.
// A snapshot from another day is retired and a fresh empty ledger starts.
func Open(snapshot domain.DayLedger, now time.Time, loc *time.Location) *Ledger {
	if loc == nil {
		loc = time.UTC
	}
	l := &Ledger{
		loc:     loc,
		day:     snapshot.Day,
		entries: make(map[domain.DedupKey]time.Time, len(snapshot.Entries)),
		runs:    snapshot.Runs,
		stats:   snapshot.Stats.Clone(),
	}
	for k, v := range snapshot.Entries {
		l.entries[k] = v
	}
	l.state = StateEmpty
	if l.runs > 0 || len(l.entries) > 0 {
		l.state = StateActive
	}
	if l.day == "" {
		l.day = ReportingDay(now, loc)
	}
	l.Rotate(now)
	return l
}

// Rotate retires the ledger when now falls on a later reporting day.
// It reports whether a rollover happened.
func (l *Ledger) Rotate(now time.Time) bool {
	today := ReportingDay(now, l.loc)
	if today == l.day {
		return false
	}
	l.state = StateRolledOver
	l.rolledOverAt = l.day

	l.day = today
	l.entries = map[domain.DedupKey]time.Time{}
	l.runs = 0
	l.stats = domain.NewDailyStats()
	l.state = StateEmpty
	return true
}

// Day returns the reporting day the ledger covers.
func (l *Ledger) Day() string { return l.day }

// State returns the lifecycle state.
func (l *Ledger) State() State { return l.state }

// RolledOverFrom returns the retired day, if a rollover happened.
func (l *Ledger) RolledOverFrom() string { return l.rolledOverAt }

// Stats returns a copy of the day's counters.
func (l *Ledger) Stats() domain.DailyStats { return l.stats.Clone() }

// Len returns the number of recorded keys.
func (l *Ledger) Len() int { return len(l.entries) }

// Contains reports whether key was recorded today.
func (l *Ledger) Contains(key domain.DedupKey) bool {
	_, ok := l.entries[key]
	return ok
}

// Classify partitions keys without mutating the ledger. Repeated keys in
// the input collapse to their first occurrence.
func (l *Ledger) Classify(keys []domain.DedupKey) Partition {
	var p Partition
	seen := make(map[domain.DedupKey]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if l.Contains(k) {
			p.Duplicate = append(p.Duplicate, k)
		} else {
			p.New = append(p.New, k)
		}
	}
	return p
}

// Record appends keys first seen at at. Present keys are left untouched.
func (l *Ledger) Record(keys []domain.DedupKey, at time.Time) int {
	added := 0
	for _, k := range keys {
		if _, ok := l.entries[k]; ok {
			continue
		}
		l.entries[k] = at
		added++
	}
	return added
}

// CompleteRun counts a finished run and folds its stats into the day totals.
func (l *Ledger) CompleteRun(runStats domain.DailyStats) {
	l.runs++
	l.stats = stats.Merge(l.stats, runStats)
	l.state = StateActive
}

// Snapshot deep-copies the ledger for persistence.
func (l *Ledger) Snapshot(updatedAt time.Time) domain.DayLedger {
	out := domain.DayLedger{
		Day:       l.day,
		Entries:   make(map[domain.DedupKey]time.Time, len(l.entries)),
		Runs:      l.runs,
		Stats:     l.stats.Clone(),
		UpdatedAt: updatedAt,
	}
	for k, v := range l.entries {
		out.Entries[k] = v
	}
	return out
}

// Clone returns an independent copy, used to stage a run's commit.
func (l *Ledger) Clone() *Ledger {
	c := *l
	c.entries = make(map[domain.DedupKey]time.Time, len(l.entries))
	for k, v := range l.entries {
		c.entries[k] = v
	}
	c.stats = l.stats.Clone()
	return &c
}
