package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvPracticumToken = "PRACTICUM_TOKEN"
	EnvTelegramToken  = "TELEGRAM_TOKEN"
	EnvChatID         = "TELEGRAM_CHAT_ID"
)

// envOverlay holds values taken from the process environment.
// Empty values leave the file config untouched.
type envOverlay struct {
	PracticumToken string `env:"PRACTICUM_TOKEN"`
	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	ChatID         string `env:"TELEGRAM_CHAT_ID"`

	Endpoint string `env:"PRACTICUM_ENDPOINT"`
	Schedule string `env:"POLL_SCHEDULE"`
	LogLevel string `env:"LOG_LEVEL"`
}

// loadDotEnv reads a .env file into the process environment.
// Variables that are already set are kept. A missing file is not an error.
func loadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var o envOverlay
	if err := env.Parse(&o); err != nil {
		return err
	}
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&cfg.Practicum.Token, o.PracticumToken)
	set(&cfg.Telegram.Token, o.TelegramToken)
	if v := strings.TrimSpace(o.ChatID); v != "" {
		cfg.Telegram.ChatID = ChatID(v)
	}
	set(&cfg.Practicum.Endpoint, o.Endpoint)
	set(&cfg.Poller.Schedule, o.Schedule)
	set(&cfg.Logging.Level, o.LogLevel)
	return nil
}
