package service

import (
	"github.com/goserg/arena/internal/domain"
	"github.com/goserg/arena/internal/store"
)

// statsUpdate converts the new aggregates of a record into store key paths.
func statsUpdate(dst map[string]any, p domain.Player) {
	dst[store.Key(domain.PlayersCollection, p.ID, domain.FieldMatches)] = p.Matches
	dst[store.Key(domain.PlayersCollection, p.ID, domain.FieldGoals)] = p.Goals
	dst[store.Key(domain.PlayersCollection, p.ID, domain.FieldGoalDifference)] = p.GoalDifference
	dst[store.Key(domain.PlayersCollection, p.ID, domain.FieldPoints)] = p.Points
}
