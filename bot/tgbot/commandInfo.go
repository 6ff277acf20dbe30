package tgbot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/goserg/arena/bot/model"
	"github.com/goserg/arena/internal/live"
	"github.com/goserg/arena/internal/normalize"
)

type InfoCommand struct {
	standings Standings
}

func (c *InfoCommand) Run(_ model.User, args string, resp *tgbotapi.MessageConfig) error {
	text, err := c.processInfo(args)
	if err != nil {
		return err
	}
	resp.Text = text
	return nil
}

func (c *InfoCommand) Help() string {
	return `Player details. Usage: /info followed by the player name.`
}

func (c *InfoCommand) processInfo(args string) (string, error) {
	name := strings.TrimSpace(args)
	if name == "" {
		return "", errors.New(`put the player name after /info in the same message, for example "/info John Smith"`)
	}
	view, ok := c.standings.View()
	if !ok {
		return "", ErrNotSynced
	}
	key := normalize.Name(name)
	for _, row := range view.Standings {
		if normalize.Name(row.Player.Name) == key {
			return printRow(row), nil
		}
	}
	return "", fmt.Errorf("player %q not found", name)
}

func printRow(row live.Row) string {
	var buf strings.Builder
	buf.WriteString("Name: ")
	buf.WriteString(row.Player.Name)
	buf.WriteString("\n")
	buf.WriteString("Position: ")
	buf.WriteString(prettifyRank(row))
	buf.WriteString("\n")
	buf.WriteString("Matches: ")
	buf.WriteString(strconv.Itoa(row.Player.Matches))
	buf.WriteString("\n")
	buf.WriteString("Goals: ")
	buf.WriteString(strconv.Itoa(row.Player.Goals))
	buf.WriteString("\n")
	buf.WriteString("Goal difference: ")
	buf.WriteString(row.GoalDifference)
	buf.WriteString("\n")
	buf.WriteString("Points: ")
	buf.WriteString(strconv.Itoa(row.Player.Points))
	if !row.Player.CreatedAt.IsZero() {
		buf.WriteString("\n")
		buf.WriteString("Registered: ")
		buf.WriteString(row.Player.CreatedAt.Format(time.RFC1123))
	}
	return buf.String()
}

func prettifyRank(row live.Row) string {
	if row.Medal != "" {
		return row.Medal + " " + strconv.Itoa(row.Position)
	}
	return strconv.Itoa(row.Position)
}

func (c *InfoCommand) Permission() mapset.Set[model.UserRole] {
	return everyone()
}

func (c *InfoCommand) Visibility() mapset.Set[model.UserRole] {
	return everyone()
}
