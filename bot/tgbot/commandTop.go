package tgbot

import (
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/goserg/arena/bot/model"
)

const topSize = 10

type TopCommand struct {
	standings Standings
}

func (c *TopCommand) Run(_ model.User, _ string, resp *tgbotapi.MessageConfig) error {
	view, ok := c.standings.View()
	if !ok {
		return ErrNotSynced
	}
	if view.Empty() {
		resp.Text = "No players yet. Be the first: /register <name>"
		return nil
	}
	var buffer strings.Builder
	for i, row := range view.Standings {
		if i >= topSize {
			break
		}
		buffer.WriteString(strconv.Itoa(row.Position))
		buffer.WriteString(". ")
		buffer.WriteString(row.Player.Name)
		buffer.WriteString(" (")
		buffer.WriteString(strconv.Itoa(row.Player.Goals))
		buffer.WriteString(" goals, GD ")
		buffer.WriteString(row.GoalDifference)
		buffer.WriteString(", ")
		buffer.WriteString(strconv.Itoa(row.Player.Points))
		buffer.WriteString(" pts)\n")
	}
	resp.Text = buffer.String()
	return nil
}

func (c *TopCommand) Help() string {
	return `Top of the standings`
}

func (c *TopCommand) Permission() mapset.Set[model.UserRole] {
	return everyone()
}

func (c *TopCommand) Visibility() mapset.Set[model.UserRole] {
	return everyone()
}
