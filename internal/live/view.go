package live

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goserg/arena/internal/domain"
	"github.com/goserg/arena/internal/ranking"
)

const DefaultTitle = "FOOTBALL ARENA"

// Row is one rendered standings line.
type Row struct {
	Position int
	Player   domain.Player
	Medal    string
	Initials string
	// GoalDifference is signed: "+2", "0", "-1".
	GoalDifference string
	GDClass        string
}

// Option is one entry of a player selector.
type Option struct {
	ID   string
	Name string
}

type Ticker struct {
	LeaderName  string
	LeaderGoals int
	PlayerCount int
	Text        string
}

// Stats are the landing page totals.
type Stats struct {
	Players int
	Matches int
	Goals   int
}

// View is everything rendered from one snapshot.
type View struct {
	Standings []Row
	Options   []Option
	Ticker    Ticker
	Stats     Stats
	// Seq increases with every snapshot applied.
	Seq uint64
}

func (v View) Empty() bool {
	return len(v.Standings) == 0
}

// Row returns the standings row of a player.
func (v View) Row(id string) (Row, bool) {
	for _, r := range v.Standings {
		if r.Player.ID == id {
			return r, true
		}
	}
	return Row{}, false
}

// Build renders a snapshot. prev supplies the ticker kept for an empty set.
func Build(snapshot domain.Snapshot, prev Ticker, title string) View {
	standings := ranking.Rank(snapshot)
	v := View{
		Standings: make([]Row, 0, len(standings)),
		Options:   make([]Option, 0, len(standings)),
		Ticker:    prev,
		Stats:     BuildStats(snapshot),
	}
	for _, s := range standings {
		v.Standings = append(v.Standings, buildRow(s))
		v.Options = append(v.Options, Option{ID: s.Player.ID, Name: s.Player.Name})
	}
	if len(standings) > 0 {
		v.Ticker = BuildTicker(standings, title)
	}
	return v
}

func buildRow(s domain.Standing) Row {
	r := Row{
		Position:       s.Position,
		Player:         s.Player,
		Initials:       Initials(s.Player.Name),
		GoalDifference: SignedInt(s.Player.GoalDifference),
	}
	switch s.Position {
	case 1:
		r.Medal = "👑"
	case 2:
		r.Medal = "🥈"
	case 3:
		r.Medal = "🥉"
	}
	switch {
	case s.Player.GoalDifference > 0:
		r.GDClass = "gd-positive"
	case s.Player.GoalDifference < 0:
		r.GDClass = "gd-negative"
	}
	return r
}

// Initials takes the first letter of the first two words, upper-cased.
func Initials(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return "N"
	}
	initials := make([]rune, 0, 2)
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		initials = append(initials, unicode.ToUpper(r))
		if len(initials) == 2 {
			break
		}
	}
	return string(initials)
}

func SignedInt(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprint(n)
}

func BuildTicker(standings []domain.Standing, title string) Ticker {
	if title == "" {
		title = DefaultTitle
	}
	leader := standings[0].Player
	return Ticker{
		LeaderName:  leader.Name,
		LeaderGoals: leader.Goals,
		PlayerCount: len(standings),
		Text: fmt.Sprintf("⚡ LIVE SCORES UPDATING IN REAL TIME · 🏆 LEADING: %s — %d GOALS · 🔥 %s · ⚽ %d PLAYERS COMPETING",
			leader.Name, leader.Goals, title, len(standings)),
	}
}

// BuildStats counts every match once although both sides record it.
func BuildStats(snapshot domain.Snapshot) Stats {
	var matches, goals int
	for _, p := range snapshot {
		matches += p.Matches
		goals += p.Goals
	}
	return Stats{
		Players: len(snapshot),
		Matches: (matches + 1) / 2,
		Goals:   goals,
	}
}
