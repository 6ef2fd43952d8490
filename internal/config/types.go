package config

import (
	"encoding/json"
	"fmt"
)

// Config is the whole hwbot configuration.
//
// File values are decoded over Default(), so omitted keys keep their defaults.
// Secrets usually come from the environment (see env.go) and win over the file.
type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Practicum PracticumConfig `json:"practicum"`
	Poller    PollerConfig    `json:"poller"`
	Notifier  NotifierConfig  `json:"notifier"`
	Logging   LoggingConfig   `json:"logging"`
}

type TelegramConfig struct {
	// Token is the bot token (do not log). Env: TELEGRAM_TOKEN.
	Token string `json:"token,omitempty"`
	// ChatID is the numeric chat id or @channel name. Env: TELEGRAM_CHAT_ID.
	ChatID ChatID `json:"chat_id"`
	// ThreadID targets a forum topic; 0 means the main chat.
	ThreadID int `json:"thread_id,omitempty"`

	APIURL string `json:"api_url,omitempty"`
	// RequestTimeout is a Go duration string (e.g. "15s").
	RequestTimeout string `json:"request_timeout,omitempty"`
}

// PracticumConfig controls the homework API client.
//
// All durations are Go duration strings.
//
// Defaults:
//   - endpoint: homework.DefaultEndpoint
//   - request_timeout: "30s"
//   - lookback: "720h" (the first poll asks for changes of the last 30 days)
//   - from_date: 0 (use lookback)
type PracticumConfig struct {
	// Token is the OAuth token (do not log). Env: PRACTICUM_TOKEN.
	Token    string `json:"token,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`

	RequestTimeout string `json:"request_timeout,omitempty"`
	// Lookback sets the initial cursor to now-lookback. "0s" starts from now.
	Lookback string `json:"lookback,omitempty"`
	// FromDate pins the initial cursor (epoch seconds). Wins over lookback.
	FromDate int64 `json:"from_date,omitempty"`
}

type PollerConfig struct {
	// Schedule is a duration ("10m"), HH:MM interval or cron expression.
	Schedule string `json:"schedule"`
	// NotifyErrors sends cycle errors to the chat; false only logs them.
	NotifyErrors bool `json:"notify_errors"`
}

type NotifierConfig struct {
	RatePerSec  int    `json:"rate_per_sec,omitempty"`
	SendTimeout string `json:"send_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Practicum: PracticumConfig{
			RequestTimeout: "30s",
			Lookback:       "720h",
		},
		Poller: PollerConfig{
			Schedule:     "10m",
			NotifyErrors: true,
		},
		Notifier: NotifierConfig{
			RatePerSec:  1,
			SendTimeout: "10s",
		},
		Logging: LoggingConfig{
			Level:   "INFO",
			Console: true,
			File:    LoggingFile{Path: "./hwbot.log"},
		},
	}
}

// ChatID accepts both `chat_id: -100123` and `chat_id: "@channel"`.
type ChatID string

func (c *ChatID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = ChatID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("chat_id: want string or integer, got %s", b)
	}
	*c = ChatID(n.String())
	return nil
}

func (c ChatID) String() string { return string(c) }
