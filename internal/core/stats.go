package core

import (
	"time"

	"github.com/fridgelingo/fridgelingo/internal/domain"
)

// XP awarded per item and per proficiency level.
const (
	xpPerItem  = 50
	xpPerLevel = 20
)

type tier struct {
	threshold int
	title     string
}

// titleLadder is ordered by threshold, lowest first.
var titleLadder = []tier{
	{0, "🥚 Dorm Student"},
	{200, "🍳 Home Cook"},
	{1000, "👨‍🍳 Master Chef"},
}

// ceiling is the next target shown once the top tier is reached.
var ceiling = tier{5000, "👑 Legend"}

// StatsAggregator derives XP, title and freshness counts from fridge entries.
type StatsAggregator struct{}

// NewStatsAggregator creates a StatsAggregator.
func NewStatsAggregator() *StatsAggregator {
	return &StatsAggregator{}
}

// Compute summarizes entries as of now.
func (StatsAggregator) Compute(entries []domain.FridgeEntry, now time.Time) domain.Stats {
	var s domain.Stats

	s.TotalItems = len(entries)
	s.TotalXP = len(entries) * xpPerItem
	for _, e := range entries {
		s.TotalXP += e.Progress.ProficiencyLevel * xpPerLevel

		switch Classify(e.Progress, now) {
		case domain.FreshnessFresh:
			s.FreshCount++
		case domain.FreshnessWarning:
			s.WarningCount++
		case domain.FreshnessRotten:
			s.RottenCount++
		}
	}

	cur, next, progress := ladderPosition(s.TotalXP)
	s.CurrentTitle = cur.title
	s.NextTitle = next.title
	s.NextLevelXP = next.threshold
	s.ProgressPercentage = progress
	return s
}

// ladderPosition returns the tier reached with xp, the one after it and the
// progress towards it in [0, 1]. Progress is fixed at 1 in the top tier.
func ladderPosition(xp int) (cur, next tier, progress float64) {
	idx := 0
	for i, t := range titleLadder {
		if xp >= t.threshold {
			idx = i
		}
	}
	if idx == len(titleLadder)-1 {
		return titleLadder[idx], ceiling, 1.0
	}
	next = titleLadder[idx+1]
	return titleLadder[idx], next, min(1.0, max(0, float64(xp)/float64(next.threshold)))
}
