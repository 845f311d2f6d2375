package domain

// ScoreBand is the coarse risk bucket derived from a score.
type ScoreBand string

const (
	BandCritical ScoreBand = "critical"
	BandHigh     ScoreBand = "high"
	BandMedium   ScoreBand = "medium"
	BandLow      ScoreBand = "low"
)

// Bands lists every band from highest to lowest.
var Bands = []ScoreBand{BandCritical, BandHigh, BandMedium, BandLow}

// Section is a labelled excerpt pulled from document text.
type Section struct {
	Label   string
	Excerpt string
}

// DedupKey identifies the real-world item behind a ScoredItem across runs.
type DedupKey string

// ScoredItem is a match enriched with its derived risk score.
// Score and sections are recomputed on every run.
type ScoredItem struct {
	Match      MatchResult
	Score      int
	Band       ScoreBand
	Categories []string
	Sections   []Section
	Key        DedupKey
}

// DedupStatus marks whether an item was already reported today.
type DedupStatus string

const (
	StatusNew       DedupStatus = "new"
	StatusDuplicate DedupStatus = "duplicate"
)

// ClassifiedItem pairs a scored item with its dedup status.
type ClassifiedItem struct {
	Item   ScoredItem
	Status DedupStatus
}
