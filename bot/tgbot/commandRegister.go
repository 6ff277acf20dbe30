package tgbot

import (
	"context"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/goserg/arena/bot/model"
	"github.com/goserg/arena/internal/service"
)

const registerTimeout = 10 * time.Second

type RegisterCommand struct {
	registrar  Registrar
	onRegister func(service.Registered)
}

// Run hands the name to the registration protocol. Validation messages are
// replied as they are.
func (c *RegisterCommand) Run(_ model.User, args string, resp *tgbotapi.MessageConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), registerTimeout)
	defer cancel()
	out, err := c.registrar.Register(ctx, args)
	if err != nil {
		return err
	}
	resp.Text = out.Message()
	if c.onRegister != nil {
		c.onRegister(out)
	}
	return nil
}

func (c *RegisterCommand) Help() string {
	return `Join the arena. Usage: /register followed by your full name.`
}

func (c *RegisterCommand) Permission() mapset.Set[model.UserRole] {
	return everyone()
}

func (c *RegisterCommand) Visibility() mapset.Set[model.UserRole] {
	return everyone()
}
