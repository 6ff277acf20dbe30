package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goserg/arena/internal/domain"
)

const MaxGoals = 99

// MatchInput is a match result as entered by the operator. MalformedGoals
// marks a goal field that was not a whole number.
type MatchInput struct {
	PlayerA        string
	PlayerB        string
	GoalsA         int
	GoalsB         int
	MalformedGoals bool
}

// ParseGoals reads a goal field. An empty field counts as zero; ok is false
// for text that is not a whole number.
func ParseGoals(s string) (goals int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MatchRecorded is the outcome of a submitted match. PlayerA and PlayerB hold
// the records as they were before the match.
type MatchRecorded struct {
	PlayerA domain.Player
	PlayerB domain.Player
	GoalsA  int
	GoalsB  int
	PointsA int
	PointsB int
}

// Scored reports whether either side scored.
func (m MatchRecorded) Scored() bool {
	return m.GoalsA > 0 || m.GoalsB > 0
}

// Label is "<A> WON", "<B> WON" or "DRAW".
func (m MatchRecorded) Label() string {
	switch {
	case m.GoalsA > m.GoalsB:
		return m.PlayerA.Name + " WON"
	case m.GoalsB > m.GoalsA:
		return m.PlayerB.Name + " WON"
	}
	return "DRAW"
}

func (m MatchRecorded) Summary() string {
	return fmt.Sprintf("✔ %s %d : %d %s — %s", m.PlayerA.Name, m.GoalsA, m.GoalsB, m.PlayerB.Name, m.Label())
}

func (m MatchRecorded) Toast() string {
	return fmt.Sprintf("⚽ Match saved: %s %d–%d %s", m.PlayerA.Name, m.GoalsA, m.GoalsB, m.PlayerB.Name)
}

// Points returns the competition points awarded for a score line.
func Points(goalsA, goalsB int) (int, int) {
	switch {
	case goalsA > goalsB:
		return 3, 0
	case goalsA < goalsB:
		return 0, 3
	}
	return 1, 1
}

// Apply returns p with the result of one match added.
func Apply(p domain.Player, scored, conceded, points int) domain.Player {
	p.Matches++
	p.Goals += scored
	p.GoalDifference += scored - conceded
	p.Points += points
	return p
}

// SubmitMatch validates a result against the mirror and writes both records in
// one atomic update. The deltas are computed from the mirror, so concurrent
// submissions for the same players from other clients can overwrite each other.
func (s *PlayerService) SubmitMatch(ctx context.Context, caller Capability, in MatchInput) (MatchRecorded, error) {
	a, b, err := s.validateMatch(caller, in)
	if err != nil {
		s.logFailure("submit-match", err)
		return MatchRecorded{}, err
	}

	ptsA, ptsB := Points(in.GoalsA, in.GoalsB)
	update := make(map[string]any, 8)
	statsUpdate(update, Apply(a, in.GoalsA, in.GoalsB, ptsA))
	statsUpdate(update, Apply(b, in.GoalsB, in.GoalsA, ptsB))

	if err := s.store.Update(caller.Context(ctx), update); err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrUpdateFailed, err)
		s.logFailure("submit-match", err)
		return MatchRecorded{}, err
	}
	out := MatchRecorded{
		PlayerA: a,
		PlayerB: b,
		GoalsA:  in.GoalsA,
		GoalsB:  in.GoalsB,
		PointsA: ptsA,
		PointsB: ptsB,
	}
	s.log.WithFields(map[string]interface{}{
		"a":      a.ID,
		"b":      b.ID,
		"result": fmt.Sprintf("%d:%d", in.GoalsA, in.GoalsB),
	}).Info("match recorded")
	return out, nil
}

func (s *PlayerService) validateMatch(caller Capability, in MatchInput) (domain.Player, domain.Player, error) {
	var a, b domain.Player
	if caller == nil || !caller.Privileged() {
		return a, b, domain.Detail(domain.ErrPermissionDenied, "⚠ Admin access required.")
	}
	if in.PlayerA == "" || in.PlayerB == "" {
		return a, b, domain.Detail(domain.ErrInvalidSelection, "⚠ Please select both players.")
	}
	if in.PlayerA == in.PlayerB {
		return a, b, domain.Detail(domain.ErrInvalidSelection, "⚠ Player A and Player B must be different.")
	}
	if in.MalformedGoals {
		return a, b, domain.Detail(domain.ErrInvalidScore, "⚠ Goals must be a whole number.")
	}
	if in.GoalsA < 0 || in.GoalsB < 0 {
		return a, b, domain.Detail(domain.ErrInvalidScore, "⚠ Goals cannot be negative.")
	}
	if in.GoalsA > MaxGoals || in.GoalsB > MaxGoals {
		return a, b, domain.Detail(domain.ErrInvalidScore, "⚠ Maximum 99 goals per player per match.")
	}
	a, okA := s.players.Get(in.PlayerA)
	b, okB := s.players.Get(in.PlayerB)
	if !okA || !okB {
		return a, b, domain.Detail(domain.ErrInvalidSelection, "⚠ Invalid player selection.")
	}
	return a, b, nil
}
