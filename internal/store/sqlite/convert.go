package sqlite

import (
	"time"

	"github.com/goserg/arena/gen/model"
	"github.com/goserg/arena/internal/domain"
)

func convertPlayerToDomain(p model.Players) domain.Player {
	return domain.Player{
		ID:             p.ID,
		Name:           p.Name,
		Matches:        int(p.Matches),
		Goals:          int(p.Goals),
		GoalDifference: int(p.GoalDifference),
		Points:         int(p.Points),
		CreatedAt:      time.UnixMilli(p.CreatedAt),
	}
}

func convertPlayerFromDomain(p domain.Player) model.Players {
	return model.Players{
		ID:             p.ID,
		Name:           p.Name,
		Matches:        int32(p.Matches),
		Goals:          int32(p.Goals),
		GoalDifference: int32(p.GoalDifference),
		Points:         int32(p.Points),
		CreatedAt:      p.CreatedAt.UnixMilli(),
	}
}

func convertPlayersToSnapshot(players []model.Players) domain.Snapshot {
	snap := make(domain.Snapshot, len(players))
	for _, p := range players {
		snap[p.ID] = convertPlayerToDomain(p)
	}
	return snap
}
