package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	authservice "github.com/goserg/arena/auth/service"
	authsqlite "github.com/goserg/arena/auth/storage/sqlite"
	botsqlite "github.com/goserg/arena/bot/botstorage/sqlite"
	"github.com/goserg/arena/bot/tgbot"
	cachemem "github.com/goserg/arena/internal/cache/mem"
	"github.com/goserg/arena/internal/config"
	"github.com/goserg/arena/internal/live"
	"github.com/goserg/arena/internal/service"
	"github.com/goserg/arena/internal/store"
	"github.com/goserg/arena/internal/store/mem"
	"github.com/goserg/arena/internal/store/redis"
	"github.com/goserg/arena/internal/store/sqlite"
	"github.com/goserg/arena/internal/web"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server and, when enabled, the telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := opts.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, l, cfg)
		},
	}
}

func serve(ctx context.Context, l *logrus.Logger, cfg config.Config) error {
	backend, closeStore, err := openStore(l, cfg.Store)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer closeStore()
	guarded := store.NewGuard(backend, cfg.Auth.OperatorEmail, l)

	authStorage, err := authsqlite.New(l, cfg.Auth.SqliteFile)
	if err != nil {
		return fmt.Errorf("auth storage: %w", err)
	}
	defer authStorage.Close()
	authService, err := authservice.New(ctx, l, cfg.Auth, authStorage)
	if err != nil {
		return err
	}

	mirror := cachemem.New()
	players := service.New(l, guarded, mirror)
	sync := live.New(l, guarded, mirror, "")
	if err := sync.Start(ctx); err != nil {
		l.WithError(err).Error("standings subscription failed")
	}
	defer sync.Stop()

	srv, err := web.New(l, cfg.Server, cfg.Auth.OperatorEmail, authService, players, sync)
	if err != nil {
		return err
	}

	if cfg.TgBot.Enabled {
		botStorage, err := botsqlite.New(l, cfg.TgBot.SqliteFile)
		if err != nil {
			return fmt.Errorf("bot storage: %w", err)
		}
		defer botStorage.Close()
		bot, err := tgbot.New(l, cfg.TgBot, sync, players, botStorage)
		if err != nil {
			return err
		}
		srv.OnMatch(bot.NotifyMatch)
		srv.OnRegister(bot.NotifyPlayer)
		go bot.Run(ctx)
	}

	return srv.Run(ctx)
}

func openStore(l *logrus.Logger, cfg config.Store) (store.Store, func(), error) {
	switch cfg.Type {
	case config.StoreMemory:
		l.Warn("memory store: standings are lost on restart")
		return mem.New(), func() {}, nil
	case config.StoreSqlite:
		s, err := sqlite.New(l, cfg.SqliteFile)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.StoreRedis:
		redisCfg := redis.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		s, err := redis.New(l, redisCfg)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Type)
}
