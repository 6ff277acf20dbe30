package tgbot

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/goserg/arena/bot/botstorage"
	"github.com/goserg/arena/bot/model"
)

// RoleCommand lets an admin promote a chat to moderator or demote it back.
// Without arguments it lists the known chats with their roles.
type RoleCommand struct {
	botStorage botstorage.BotStorage
}

func (c *RoleCommand) Run(_ model.User, args string, resp *tgbotapi.MessageConfig) error {
	text, err := c.handleRole(args)
	if err != nil {
		return err
	}
	resp.Text = text
	return nil
}

func (c *RoleCommand) Help() string {
	return `Change a chat role. Usage: /role <chat id> moderator|user, or /role alone to list chats`
}

func (c *RoleCommand) handleRole(args string) (string, error) {
	fields := strings.Fields(args)
	switch len(fields) {
	case 0:
		return c.list()
	case 2:
	default:
		return "", errors.New("usage: /role <chat id> moderator|user")
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return "", fmt.Errorf("%q is not a chat id", fields[0])
	}
	role, err := model.ParseRole(fields[1])
	if err != nil {
		return "", err
	}
	target, err := c.botStorage.GetUser(id)
	if err != nil {
		return "", fmt.Errorf("chat %d has not talked to the bot yet", id)
	}
	if target.Role == model.RoleAdmin {
		return "", errors.New("admins are set in the bot config")
	}
	if target.Role == role {
		return "", fmt.Errorf("%s is already %s", target.DisplayName(), role)
	}
	target.Role = role
	if err := c.botStorage.UpdateUserRole(target); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s is now %s", target.DisplayName(), role), nil
}

func (c *RoleCommand) list() (string, error) {
	users, err := c.botStorage.ListUsers()
	if err != nil {
		return "", err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	var b strings.Builder
	b.WriteString("Chats:\n")
	for _, u := range users {
		fmt.Fprintf(&b, "%d %s: %s\n", u.ID, u.DisplayName(), u.Role)
	}
	return b.String(), nil
}

func (c *RoleCommand) Permission() mapset.Set[model.UserRole] {
	return admins()
}

func (c *RoleCommand) Visibility() mapset.Set[model.UserRole] {
	return admins()
}
