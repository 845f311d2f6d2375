package domain

import "time"

// RunReport is everything one invocation hands to the report boundary.
type RunReport struct {
	RunID          string
	Day            string
	RunAt          time.Time
	New            []ScoredItem
	Duplicate      []ScoredItem
	Highlights     []ScoredItem
	RunStats       DailyStats
	DayStats       DailyStats
	ShowCandidates bool
	// Degraded is set when the ledger could not be loaded or saved.
	Degraded       bool
	Warnings       []string
	RolledOverFrom string
	DocketCount    int
	NewsCount      int
}
