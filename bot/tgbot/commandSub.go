package tgbot

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/goserg/arena/bot/botstorage"
	"github.com/goserg/arena/bot/model"
)

type SubCommand struct {
	botStorage botstorage.BotStorage
	sub        func(model.EventType, int)
}

func (c *SubCommand) Run(user model.User, args string, resp *tgbotapi.MessageConfig) error {
	events, err := model.ParseTopics(args)
	if err != nil {
		return err
	}
	for _, event := range events {
		if err := c.botStorage.Subscribe(user, event); err != nil {
			return err
		}
		c.sub(event, user.ID)
	}
	resp.Text = "Subscribed to " + topicList(events) + ". To stop: /unsub"
	return nil
}

func (c *SubCommand) Help() string {
	return `Get a message for every recorded match or new player.
Usage: /sub, /sub matches or /sub players`
}

func (c *SubCommand) Permission() mapset.Set[model.UserRole] {
	return everyone()
}

func (c *SubCommand) Visibility() mapset.Set[model.UserRole] {
	return everyone()
}

func topicList(events []model.EventType) string {
	words := make([]string, 0, len(events))
	for _, e := range events {
		words = append(words, e.Topic())
	}
	return strings.Join(words, " and ")
}
