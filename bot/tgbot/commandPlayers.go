package tgbot

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/goserg/arena/bot/model"
)

// PlayersCommand lists every player with the id the web client and the
// stores know it by.
type PlayersCommand struct {
	standings Standings
}

func (c *PlayersCommand) Run(_ model.User, _ string, resp *tgbotapi.MessageConfig) error {
	view, ok := c.standings.View()
	if !ok {
		return ErrNotSynced
	}
	if view.Empty() {
		resp.Text = "No players yet."
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d players:\n", len(view.Standings))
	for _, row := range view.Standings {
		fmt.Fprintf(&b, "%d. %s · id %s", row.Position, row.Player.Name, row.Player.ID)
		if !row.Player.CreatedAt.IsZero() {
			b.WriteString(" · joined ")
			b.WriteString(row.Player.CreatedAt.Format("2006-01-02"))
		}
		b.WriteString("\n")
	}
	resp.Text = b.String()
	return nil
}

func (c *PlayersCommand) Help() string {
	return `Full roster with player ids and registration dates`
}

func (c *PlayersCommand) Permission() mapset.Set[model.UserRole] {
	return staff()
}

func (c *PlayersCommand) Visibility() mapset.Set[model.UserRole] {
	return staff()
}
