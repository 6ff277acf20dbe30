package ranking

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/goserg/arena/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(standings []domain.Standing) []string {
	out := make([]string, 0, len(standings))
	for _, s := range standings {
		out = append(out, s.Player.ID)
	}
	return out
}

func TestRank(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		players domain.Snapshot
		want    []string
	}{
		{
			name:    "empty",
			players: domain.Snapshot{},
			want:    []string{},
		},
		{
			name: "goal tie broken by goal difference",
			players: domain.Snapshot{
				"a": {ID: "a", Goals: 5, GoalDifference: 2, Points: 6},
				"b": {ID: "b", Goals: 5, GoalDifference: 3, Points: 3},
			},
			want: []string{"b", "a"},
		},
		{
			name: "goals first",
			players: domain.Snapshot{
				"a": {ID: "a", Goals: 1, GoalDifference: 9, Points: 9},
				"b": {ID: "b", Goals: 2, GoalDifference: -4, Points: 0},
			},
			want: []string{"b", "a"},
		},
		{
			name: "points after goal difference",
			players: domain.Snapshot{
				"a": {ID: "a", Goals: 3, GoalDifference: 1, Points: 1},
				"b": {ID: "b", Goals: 3, GoalDifference: 1, Points: 4},
			},
			want: []string{"b", "a"},
		},
		{
			name: "full tie by registration then id",
			players: domain.Snapshot{
				"c": {ID: "c", CreatedAt: base},
				"a": {ID: "a", CreatedAt: base.Add(time.Minute)},
				"b": {ID: "b", CreatedAt: base},
			},
			want: []string{"b", "c", "a"},
		},
		{
			name: "missing id taken from key",
			players: domain.Snapshot{
				"x": {Goals: 1},
			},
			want: []string{"x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rank(tt.players)
			assert.Equal(t, tt.want, ids(got))
			for i, s := range got {
				assert.Equal(t, i+1, s.Position)
			}
		})
	}
}

func randomSnapshot(r *rand.Rand, n int) domain.Snapshot {
	snap := make(domain.Snapshot, n)
	for i := 0; i < n; i++ {
		id := "p" + strconv.Itoa(i)
		snap[id] = domain.Player{
			ID:             id,
			Goals:          r.Intn(4),
			GoalDifference: r.Intn(5) - 2,
			Points:         r.Intn(3),
			CreatedAt:      time.Unix(int64(r.Intn(3)), 0),
		}
	}
	return snap
}

func TestRankDeterministic(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		snap := randomSnapshot(r, 30)
		require.Equal(t, ids(Rank(snap)), ids(Rank(snap)))
	}
}

func TestRankOrderLaw(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for round := 0; round < 20; round++ {
		standings := Rank(randomSnapshot(r, 40))
		for i := 0; i+1 < len(standings); i++ {
			p1, p2 := standings[i].Player, standings[i+1].Player
			ok := p1.Goals > p2.Goals ||
				(p1.Goals == p2.Goals && p1.GoalDifference > p2.GoalDifference) ||
				(p1.Goals == p2.Goals && p1.GoalDifference == p2.GoalDifference && p1.Points >= p2.Points)
			require.Truef(t, ok, "%+v ranked above %+v", p1, p2)
		}
	}
}
