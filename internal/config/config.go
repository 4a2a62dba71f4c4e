package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
)

type Config struct {
	Primary   Primary         `koanf:"primary"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Broker    BrokerConfig    `koanf:"broker"`
	Telegram  TelegramConfig  `koanf:"telegram"`
	Cache     CacheConfig     `koanf:"cache"`
	Community CommunityConfig `koanf:"community"`
	Logger    LoggerConfig    `koanf:"logger"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

// BrokerConfig points at the RabbitMQ broker shared with the remote worker.
type BrokerConfig struct {
	URL       string `koanf:"url" validate:"required"`
	TaskQueue string `koanf:"task_queue" validate:"required"`
}

// TelegramConfig drives the notification fan-out. An empty BotToken disables
// notifications entirely.
type TelegramConfig struct {
	BotToken        string        `koanf:"bot_token"`
	APIBaseURL      string        `koanf:"api_base_url"`
	SendConcurrency int64         `koanf:"send_concurrency"`
	SendTimeout     time.Duration `koanf:"send_timeout"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// CacheConfig selects the validation-verdict cache backend.
type CacheConfig struct {
	Backend       string        `koanf:"backend" validate:"omitempty,oneof=memory redis"`
	ValidationTTL time.Duration `koanf:"validation_ttl"`
	Redis         RedisConfig   `koanf:"redis"`
}

// CommunityConfig holds the fallback community used when a request names none.
type CommunityConfig struct {
	DefaultName string `koanf:"default_name"`
}

type LoggerConfig struct {
	Level string `koanf:"level"`
}

// NewLogger builds the process-wide structured logger.
func (c *LoggerConfig) NewLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	err := k.Load(env.Provider("BACKOFFICE_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "BACKOFFICE_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	mainConfig.applyDefaults()

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

func (c *Config) applyDefaults() {
	if c.Telegram.APIBaseURL == "" {
		c.Telegram.APIBaseURL = "https://api.telegram.org"
	}
	if c.Telegram.SendConcurrency <= 0 {
		c.Telegram.SendConcurrency = 16
	}
	if c.Telegram.SendTimeout <= 0 {
		c.Telegram.SendTimeout = 10 * time.Second
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.ValidationTTL <= 0 {
		c.Cache.ValidationTTL = 5 * time.Minute
	}
	if c.Community.DefaultName == "" {
		c.Community.DefaultName = "default"
	}
}
