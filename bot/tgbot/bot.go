package tgbot

import (
	"context"
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/goserg/arena/bot/botstorage"
	botmodel "github.com/goserg/arena/bot/model"
	"github.com/goserg/arena/internal/config"
	"github.com/goserg/arena/internal/service"
)

// API is the part of the telegram client the bot needs.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Bot struct {
	api API

	botStorage botstorage.BotStorage
	log        *logrus.Entry

	subs *subscriptions
	// adminIDs hold the admin role; anyone else holding it is demoted.
	adminIDs mapset.Set[int]

	commands *Commands
}

func New(
	l *logrus.Logger,
	cfg config.TgBot,
	standings Standings,
	registrar Registrar,
	bs botstorage.BotStorage,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramApiToken)
	if err != nil {
		return nil, fmt.Errorf("env TELEGRAM_APITOKEN: %w", err)
	}
	api.Debug = cfg.Debug
	return NewWithAPI(l, api, cfg.AdminIDs, standings, registrar, bs)
}

func NewWithAPI(
	l *logrus.Logger,
	api API,
	adminIDs []int,
	standings Standings,
	registrar Registrar,
	bs botstorage.BotStorage,
) (*Bot, error) {
	users, err := bs.ListUsers()
	if err != nil {
		return nil, err
	}

	b := &Bot{
		api:        api,
		botStorage: bs,
		log: l.WithFields(map[string]interface{}{
			"from": "tg_bot",
		}),
		subs:     newSubs(users),
		adminIDs: mapset.NewSet[int](adminIDs...),
	}
	b.commands = NewCommands(
		standings,
		registrar,
		bs,
		b.subs.Add,
		b.subs.Remove,
		b.NotifyPlayer,
	)
	return b, nil
}

// Run polls for updates until ctx is done.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleMessage(update)
		}
	}
}

func (b *Bot) handleMessage(update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	tgUser := update.SentFrom()
	if tgUser == nil {
		return
	}
	log := b.log.WithFields(map[string]interface{}{
		"user_id": tgUser.ID,
		"text":    update.Message.Text,
	})
	user, err := b.botStorage.GetUser(int(tgUser.ID))
	if err != nil {
		now := time.Now()
		user, err = b.botStorage.NewUser(botmodel.User{
			ID:        int(tgUser.ID),
			FirstName: tgUser.FirstName,
			Username:  tgUser.UserName,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			log.WithError(err).Error("unable to get user from db")
			return
		}
	}

	user = b.syncRole(user, log)

	err = b.botStorage.Log(user, update.Message.Text)
	if err != nil {
		log.WithError(err).Error("can't log to db")
	}

	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")
	if !update.Message.IsCommand() {
		msg.Text = ErrBadRequest.Error()
	} else {
		err = b.commands.RunCommand(user, update.Message.Command(), update.Message.CommandArguments(), &msg)
		if err != nil {
			msg.Text = err.Error()
		}
	}
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).Error("send error")
	}
}

// syncRole gives the configured admins their role and takes it from everyone
// else. The stored role is kept when the update fails.
func (b *Bot) syncRole(user botmodel.User, log *logrus.Entry) botmodel.User {
	want := user.Role
	switch {
	case b.adminIDs.Contains(user.ID):
		want = botmodel.RoleAdmin
	case user.Role == botmodel.RoleAdmin:
		want = botmodel.RoleUser
	}
	if want == user.Role {
		return user
	}
	updated := user
	updated.Role = want
	if err := b.botStorage.UpdateUserRole(updated); err != nil {
		log.WithError(err).Error("can't update role")
		return user
	}
	log.WithFields(logrus.Fields{"from_role": user.Role, "to_role": want}).Info("role changed")
	return updated
}

// NotifyMatch sends the result summary to every subscriber.
func (b *Bot) NotifyMatch(out service.MatchRecorded) {
	b.notify(botmodel.NewMatch, out.Summary())
}

// NotifyPlayer announces a registration to the new_player subscribers.
func (b *Bot) NotifyPlayer(out service.Registered) {
	b.notify(botmodel.NewPlayer, fmt.Sprintf("🆕 %s has joined the arena. Standings: /top", out.Name))
}

func (b *Bot) notify(event botmodel.EventType, text string) {
	for _, userID := range b.subs.Chats(event) {
		msg := tgbotapi.NewMessage(int64(userID), text)
		if _, err := b.api.Send(msg); err != nil {
			b.log.WithError(err).WithField("user_id", userID).Error("notification not sent")
		}
	}
}
