package tgbot

import (
	mapset "github.com/deckarep/golang-set/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/goserg/arena/bot/botstorage"
	"github.com/goserg/arena/bot/model"
)

type UnsubCommand struct {
	botStorage botstorage.BotStorage
	unsub      func(model.EventType, int)
}

func (c *UnsubCommand) Run(user model.User, args string, resp *tgbotapi.MessageConfig) error {
	events, err := model.ParseTopics(args)
	if err != nil {
		return err
	}
	for _, event := range events {
		if err := c.botStorage.Unsubscribe(user, event); err != nil {
			return err
		}
		c.unsub(event, user.ID)
	}
	resp.Text = "Unsubscribed from " + topicList(events) + ". To subscribe again: /sub"
	return nil
}

func (c *UnsubCommand) Help() string {
	return `Stop notifications. Usage: /unsub, /unsub matches or /unsub players`
}

func (c *UnsubCommand) Permission() mapset.Set[model.UserRole] {
	return everyone()
}

func (c *UnsubCommand) Visibility() mapset.Set[model.UserRole] {
	return everyone()
}
