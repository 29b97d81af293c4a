package model

import (
	"sort"
	"time"
)

// Badge is the tier a citizen has reached by points
type Badge string

const (
	BadgeNewReporter     Badge = "New Reporter"
	BadgeRisingStar      Badge = "Rising Star"
	BadgeBronzeHero      Badge = "Bronze Hero"
	BadgeSilverScout     Badge = "Silver Scout"
	BadgeGoldGuardian    Badge = "Gold Guardian"
	BadgeDiamondReporter Badge = "Diamond Reporter"
)

// Scoring weights
const (
	PointsPerGenuineReport  = 10
	PointsPerResolvedReport = 5
	PointsPerPhotoReport    = 2
	PointsPerLevel          = 250
)

// badgeTiers is ordered from highest threshold to lowest
var badgeTiers = []struct {
	min   int
	badge Badge
}{
	{5000, BadgeDiamondReporter},
	{3000, BadgeGoldGuardian},
	{1500, BadgeSilverScout},
	{500, BadgeBronzeHero},
	{100, BadgeRisingStar},
	{0, BadgeNewReporter},
}

// BadgeFor returns the badge earned by the given points total
func BadgeFor(points int) Badge {
	for _, tier := range badgeTiers {
		if points >= tier.min {
			return tier.badge
		}
	}
	return BadgeNewReporter
}

// LevelFor returns the level for the given points total (1-based)
func LevelFor(points int) int {
	if points < 0 {
		points = 0
	}
	return points/PointsPerLevel + 1
}

// Score is the result of recomputing a citizen's gamification state
type Score struct {
	Points       int   `json:"points"`
	Badge        Badge `json:"badge"`
	Level        int   `json:"level"`
	Streak       int   `json:"streak"`
	ReportsCount int   `json:"reports_count"`
}

// ComputeScore derives points, badge, level, and streak from the full set of a
// citizen's reports. Reports marked Fake Report earn nothing. The result depends
// only on the reports, so running it twice yields the same score.
func ComputeScore(reports []*Report) Score {
	var genuine, resolved, withPhoto int
	days := make(map[time.Time]struct{})

	for _, r := range reports {
		if r == nil || !r.IsGenuine() {
			continue
		}
		genuine++
		if r.Status == ReportStatusResolved {
			resolved++
		}
		if r.HasPhoto() {
			withPhoto++
		}
		days[truncateDay(r.CreatedOn)] = struct{}{}
	}

	points := genuine*PointsPerGenuineReport +
		resolved*PointsPerResolvedReport +
		withPhoto*PointsPerPhotoReport

	return Score{
		Points:       points,
		Badge:        BadgeFor(points),
		Level:        LevelFor(points),
		Streak:       streakOf(days),
		ReportsCount: len(reports),
	}
}

// streakOf counts consecutive UTC days ending at the most recent reporting day
func streakOf(days map[time.Time]struct{}) int {
	if len(days) == 0 {
		return 0
	}
	sorted := make([]time.Time, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].After(sorted[j]) })

	streak := 1
	for i := 1; i < len(sorted); i++ {
		if !sorted[i-1].AddDate(0, 0, -1).Equal(sorted[i]) {
			break
		}
		streak++
	}
	return streak
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// RecalculateResult summarises a bulk points recalculation
type RecalculateResult struct {
	Users   int `json:"users"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}
