package scoring

import "LawsuitMonitor/internal/domain"

const (
	MinScore = 0
	MaxScore = 100
)

// Band maps a score to its band. Out-of-range scores are clamped first.
func Band(score int) domain.ScoreBand {
	score = clamp(score)
	switch {
	case score >= 80:
		return domain.BandCritical
	case score >= 60:
		return domain.BandHigh
	case score >= 40:
		return domain.BandMedium
	default:
		return domain.BandLow
	}
}

func clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
