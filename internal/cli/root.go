package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goserg/arena/internal/config"
	"github.com/goserg/arena/internal/logger"
)

type options struct {
	serverConfig string
	botConfig    string
	logLevel     string
}

// NewRootCmd creates the arena command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{
		serverConfig: "configs/server.toml",
		botConfig:    "configs/bot.toml",
	}

	rootCmd := &cobra.Command{
		Use:   "arena",
		Short: "Live football ladder",
		Long: `arena serves a live football ladder: players register, the operator
records match results and every open browser sees the standings change.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.serverConfig, "server-config", opts.serverConfig, "path to the server config")
	rootCmd.PersistentFlags().StringVar(&opts.botConfig, "bot-config", opts.botConfig, "path to the telegram bot config, optional")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "overrides server.log_level")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newOperatorCmd(opts))
	rootCmd.AddCommand(newCertgenCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (o *options) load() (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(o.serverConfig, o.botConfig)
	if err != nil {
		return config.Config{}, nil, err
	}
	level := cfg.Server.LogLevel
	if o.logLevel != "" {
		level = o.logLevel
	}
	return cfg, logger.New(level), nil
}
