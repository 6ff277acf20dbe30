package ranking

import (
	"sort"

	"github.com/goserg/arena/internal/domain"
)

// Rank orders players by goals, then goal difference, then points, all descending.
// Full ties fall back to registration time and then id so the order never depends
// on map iteration.
func Rank(players domain.Snapshot) []domain.Standing {
	sorted := make([]domain.Player, 0, len(players))
	for id, p := range players {
		if p.ID == "" {
			p.ID = id
		}
		sorted = append(sorted, p)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return Less(sorted[i], sorted[j])
	})
	standings := make([]domain.Standing, 0, len(sorted))
	for i := range sorted {
		standings = append(standings, domain.Standing{
			Position: i + 1,
			Player:   sorted[i],
		})
	}
	return standings
}

// Less reports whether a ranks above b.
func Less(a, b domain.Player) bool {
	if a.Goals != b.Goals {
		return a.Goals > b.Goals
	}
	if a.GoalDifference != b.GoalDifference {
		return a.GoalDifference > b.GoalDifference
	}
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
