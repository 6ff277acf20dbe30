package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	auth "github.com/goserg/arena/auth/service"
)

const (
	StoreMemory = "memory"
	StoreSqlite = "sqlite"
	StoreRedis  = "redis"
)

type TgBot struct {
	Enabled          bool   `toml:"enabled"`
	TelegramApiToken string `toml:"token"`
	SqliteFile       string `toml:"sqlite_file"`
	Debug            bool   `toml:"debug"`
	// AdminIDs are the telegram user ids given the admin role.
	AdminIDs []int `toml:"admin_ids"`
}

type Server struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	Debug     bool   `toml:"debug"`
	LogLevel  string `toml:"log_level"`
	PublicURL string `toml:"public_url"`
	TLSCert   string `toml:"tls_cert"`
	TLSKey    string `toml:"tls_key"`
}

type Store struct {
	Type       string `toml:"type"`
	SqliteFile string `toml:"sqlite_file"`
	RedisURL   string `toml:"redis_url"`
}

type Config struct {
	Server Server      `toml:"server"`
	Store  Store       `toml:"store"`
	Auth   auth.Config `toml:"auth"`
	TgBot  TgBot       `toml:"bot"`
}

func Default() Config {
	return Config{
		Server: Server{
			Host:      "0.0.0.0",
			Port:      8080,
			LogLevel:  "info",
			PublicURL: "http://localhost:8080",
		},
		Store: Store{
			Type:       StoreSqlite,
			SqliteFile: "arena.sqlite",
			RedisURL:   "redis://localhost:6379",
		},
		Auth: auth.Config{
			SqliteFile:    "auth.sqlite",
			Expiration:    "24h",
			MaxAttempts:   5,
			AttemptWindow: 5 * time.Minute,
		},
		TgBot: TgBot{
			SqliteFile: "bot.sqlite",
		},
	}
}

// New reads configs/server.toml on top of the defaults, then the optional
// configs/bot.toml, then .env and environment overrides.
func New() (Config, error) {
	return Load("configs/server.toml", "configs/bot.toml")
}

func Load(serverFile, botFile string) (Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(serverFile, &cfg)
	if err != nil {
		return Config{}, err
	}
	if botFile != "" {
		_, err = toml.DecodeFile(botFile, &cfg.TgBot)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	err = godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ARENA_OPERATOR_EMAIL"); v != "" {
		c.Auth.OperatorEmail = v
	}
	if v := os.Getenv("ARENA_STORE"); v != "" {
		c.Store.Type = v
	}
	if v := os.Getenv("ARENA_REDIS_URL"); v != "" {
		c.Store.RedisURL = v
	}
	if v := os.Getenv("ARENA_TOKEN"); v != "" {
		c.Auth.Token = v
	}
	if v := os.Getenv("TELEGRAM_APITOKEN"); v != "" {
		c.TgBot.TelegramApiToken = v
	}
	c.Store.Type = strings.ToLower(c.Store.Type)
}

func (c Config) Validate() error {
	var errs []error
	switch c.Store.Type {
	case StoreMemory, StoreSqlite, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("store.type: unknown store %q", c.Store.Type))
	}
	if c.Auth.OperatorEmail == "" {
		errs = append(errs, errors.New("auth.operator_email is required"))
	}
	if c.Auth.Token == "" {
		errs = append(errs, errors.New("auth.token is required"))
	}
	if _, err := time.ParseDuration(c.Auth.Expiration); err != nil {
		errs = append(errs, fmt.Errorf("auth.expiration: %w", err))
	}
	if c.Server.TLSCert != "" && c.Server.TLSKey == "" {
		errs = append(errs, errors.New("server.tls_key is required with server.tls_cert"))
	}
	if c.TgBot.Enabled && c.TgBot.TelegramApiToken == "" {
		errs = append(errs, errors.New("bot.token is required when the bot is enabled"))
	}
	return errors.Join(errs...)
}

func (s Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
