package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type TelegramConfig struct {
	Token   string `mapstructure:"token"`
	AdminID int64  `mapstructure:"admin_id"`
}

type AppConfig struct {
	HistoryLimit int `mapstructure:"history_limit"`
}

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	App      AppConfig      `mapstructure:"app"`
}

// Load reads configuration from the given file path (e.g. "config.yaml").
// If path is empty it looks for config.yaml in the working directory and
// falls back to defaults when none exists. Environment variables override
// file values, e.g. BANK_DATABASE_PATH, BANK_TELEGRAM_TOKEN.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("database.path", "bank.db")
	v.SetDefault("app.history_limit", 10)
	// empty defaults so env-only values survive Unmarshal
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_id", 0)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("BANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// a missing default config file is fine; an explicit one is not
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &c, nil
}
