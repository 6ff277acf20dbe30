package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/goserg/arena/internal/domain"
)

// Key joins path segments: Key("players", id, "goals") is "players/<id>/goals".
func Key(segments ...string) string {
	return strings.Join(segments, "/")
}

// Path is a parsed key path. Field is empty for a whole-record path.
type Path struct {
	Collection string
	ID         string
	Field      string
}

// ParsePath accepts "collection/id" and "collection/id/field", with an optional leading slash.
func ParsePath(keyPath string) (Path, error) {
	parts := strings.Split(strings.TrimPrefix(keyPath, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 {
		return Path{}, fmt.Errorf("%w: %q", ErrBadKey, keyPath)
	}
	for _, part := range parts {
		if part == "" {
			return Path{}, fmt.Errorf("%w: %q", ErrBadKey, keyPath)
		}
	}
	p := Path{Collection: parts[0], ID: parts[1]}
	if len(parts) == 3 {
		p.Field = parts[2]
	}
	return p, nil
}

// Change is one field assignment of an update, validated against the record schema.
type Change struct {
	Path  Path
	Int   int64
	Text  string
	IsInt bool
}

// ParseUpdate validates every path and value of an update before anything is written.
func ParseUpdate(values map[string]any) ([]Change, error) {
	changes := make([]Change, 0, len(values))
	for keyPath, value := range values {
		p, err := ParsePath(keyPath)
		if err != nil {
			return nil, err
		}
		if p.Field == "" {
			return nil, fmt.Errorf("%w: %q has no field", ErrBadKey, keyPath)
		}
		c := Change{Path: p}
		switch p.Field {
		case domain.FieldName:
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s=%v", ErrBadValue, keyPath, value)
			}
			c.Text = s
		case domain.FieldGoals, domain.FieldMatches, domain.FieldGoalDifference,
			domain.FieldPoints, domain.FieldCreatedAt:
			n, ok := toInt(value)
			if !ok {
				return nil, fmt.Errorf("%w: %s=%v", ErrBadValue, keyPath, value)
			}
			c.Int = n
			c.IsInt = true
		default:
			return nil, fmt.Errorf("%w: unknown field %q", ErrBadKey, p.Field)
		}
		changes = append(changes, c)
	}
	return changes, nil
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

// Apply writes a validated change into a record.
func (c Change) Apply(p *domain.Player) {
	switch c.Path.Field {
	case domain.FieldName:
		p.Name = c.Text
	case domain.FieldGoals:
		p.Goals = int(c.Int)
	case domain.FieldMatches:
		p.Matches = int(c.Int)
	case domain.FieldGoalDifference:
		p.GoalDifference = int(c.Int)
	case domain.FieldPoints:
		p.Points = int(c.Int)
	case domain.FieldCreatedAt:
		p.CreatedAt = time.UnixMilli(c.Int)
	}
}
