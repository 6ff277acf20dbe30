package domain

import "time"

// Player is one registered competitor as persisted in the players collection.
type Player struct {
	ID             string
	Name           string
	Matches        int
	Goals          int
	GoalDifference int
	Points         int
	CreatedAt      time.Time
}

// Standing is a player with its 1-based position in the ranking.
type Standing struct {
	Position int
	Player   Player
}

// Snapshot is the complete current player collection keyed by id.
type Snapshot map[string]Player

// Field names of a persisted player record.
const (
	FieldName           = "name"
	FieldGoals          = "goals"
	FieldMatches        = "matches"
	FieldGoalDifference = "goalDifference"
	FieldPoints         = "points"
	FieldCreatedAt      = "createdAt"
)

// PlayersCollection is the collection path holding player records.
const PlayersCollection = "players"
