package tgbot

import (
	"context"
	"errors"

	mapset "github.com/deckarep/golang-set/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/goserg/arena/bot/botstorage"
	"github.com/goserg/arena/bot/model"
	"github.com/goserg/arena/internal/live"
	"github.com/goserg/arena/internal/service"
)

var (
	ErrBadRequest = errors.New("unknown command, see /help")
	ErrNotSynced  = errors.New("standings are not available yet, try again in a moment")
)

// Standings is the live view the bot reads from.
type Standings interface {
	View() (live.View, bool)
}

type Registrar interface {
	Register(ctx context.Context, name string) (service.Registered, error)
}

type Command interface {
	Run(user model.User, args string, resp *tgbotapi.MessageConfig) error
	Help() string
	Permission() mapset.Set[model.UserRole]
	Visibility() mapset.Set[model.UserRole]
}

type Commands struct {
	list map[string]Command
}

func NewCommands(
	standings Standings,
	registrar Registrar,
	bs botstorage.BotStorage,
	subFn func(event model.EventType, id int),
	unsubFn func(event model.EventType, id int),
	onRegister func(service.Registered),
) *Commands {
	hc := &HelpCommand{}
	uc := Commands{
		list: map[string]Command{
			"help":  hc,
			"start": hc,
			"top": &TopCommand{
				standings: standings,
			},
			"info": &InfoCommand{
				standings: standings,
			},
			"register": &RegisterCommand{
				registrar:  registrar,
				onRegister: onRegister,
			},
			"sub": &SubCommand{
				botStorage: bs,
				sub:        subFn,
			},
			"unsub": &UnsubCommand{
				botStorage: bs,
				unsub:      unsubFn,
			},
			"players": &PlayersCommand{
				standings: standings,
			},
			"role": &RoleCommand{
				botStorage: bs,
			},
		},
	}
	hc.commands = uc.list
	return &uc
}

func (uc *Commands) RunCommand(user model.User, cmd string, args string, resp *tgbotapi.MessageConfig) error {
	command, ok := uc.list[cmd]
	if !ok || !command.Permission().Contains(user.Role) {
		return ErrBadRequest
	}
	return command.Run(user, args, resp)
}

func everyone() mapset.Set[model.UserRole] {
	return mapset.NewSet[model.UserRole](model.RoleAdmin, model.RoleModerator, model.RoleUser)
}

func staff() mapset.Set[model.UserRole] {
	return mapset.NewSet[model.UserRole](model.RoleAdmin, model.RoleModerator)
}

func admins() mapset.Set[model.UserRole] {
	return mapset.NewSet[model.UserRole](model.RoleAdmin)
}
