package redis

import (
	"fmt"

	"github.com/goserg/arena/internal/domain"
)

// hash fields of a player record
const (
	hName           = "name"
	hMatches        = "matches"
	hGoals          = "goals"
	hGoalDifference = "goal_difference"
	hPoints         = "points"
	hCreatedAt      = "created_at"
)

var hashFields = map[string]string{
	domain.FieldName:           hName,
	domain.FieldMatches:        hMatches,
	domain.FieldGoals:          hGoals,
	domain.FieldGoalDifference: hGoalDifference,
	domain.FieldPoints:         hPoints,
	domain.FieldCreatedAt:      hCreatedAt,
}

// recordKey returns the hash key of one record
func (s *Storage) recordKey(collection, id string) string {
	return fmt.Sprintf("%s:%s:%s", s.cfg.Prefix, collection, id)
}

// indexKey returns the SET of record ids of a collection
func (s *Storage) indexKey(collection string) string {
	return fmt.Sprintf("%s:idx:%s", s.cfg.Prefix, collection)
}

// channel returns the pub/sub channel announcing collection changes
func (s *Storage) channel(collection string) string {
	return fmt.Sprintf("%s:changes:%s", s.cfg.Prefix, collection)
}
