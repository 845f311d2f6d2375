package domain

import "time"

// UnknownNatureOfSuit buckets items without a docket or nature-of-suit code.
const UnknownNatureOfSuit = "unknown"

// DailyStats accumulates counters over one reporting day.
type DailyStats struct {
	NatureOfSuit map[string]int    `json:"nature_of_suit"`
	Bands        map[ScoreBand]int `json:"bands"`
	Items        int               `json:"items"`
}

// NewDailyStats returns zeroed counters with allocated maps.
func NewDailyStats() DailyStats {
	return DailyStats{
		NatureOfSuit: map[string]int{},
		Bands:        map[ScoreBand]int{},
	}
}

// Clone deep-copies the counters.
func (s DailyStats) Clone() DailyStats {
	out := NewDailyStats()
	for k, v := range s.NatureOfSuit {
		out.NatureOfSuit[k] = v
	}
	for k, v := range s.Bands {
		out.Bands[k] = v
	}
	out.Items = s.Items
	return out
}

// DayLedger is the persisted dedup state for one reporting day.
// Entries only grow within a day.
type DayLedger struct {
	Day       string                 `json:"day"`
	Entries   map[DedupKey]time.Time `json:"entries"`
	Runs      int                    `json:"runs"`
	Stats     DailyStats             `json:"stats"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// NewDayLedger returns an empty ledger for day.
func NewDayLedger(day string) DayLedger {
	return DayLedger{
		Day:     day,
		Entries: map[DedupKey]time.Time{},
		Stats:   NewDailyStats(),
	}
}
