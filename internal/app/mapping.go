package app

import (
	"hwbot/internal/config"
	"hwbot/internal/homework"
	"hwbot/internal/notifier"
	"hwbot/internal/poller"
	kit "hwbot/internal/transport"
	telegram "hwbot/internal/transport/telegram/adapter"
	logx "hwbot/pkg/logx"
)

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapTelegramConfig(cfg *config.Config, res config.Resolved) telegram.Config {
	return telegram.Config{
		Token:          cfg.Telegram.Token,
		APIURL:         cfg.Telegram.APIURL,
		RequestTimeout: res.TelegramTimeout,
	}
}

func mapChatTarget(cfg *config.Config) kit.ChatTarget {
	return kit.ChatTarget{ChatID: cfg.Telegram.ChatID.String(), ThreadID: cfg.Telegram.ThreadID}
}

func mapNotifierConfig(cfg *config.Config, res config.Resolved) notifier.Config {
	return notifier.Config{
		RatePerSec:  cfg.Notifier.RatePerSec,
		SendTimeout: res.SendTimeout,
	}
}

func mapClientConfig(cfg *config.Config, res config.Resolved) homework.ClientConfig {
	return homework.ClientConfig{
		Endpoint: cfg.Practicum.Endpoint,
		Token:    cfg.Practicum.Token,
		Timeout:  res.PracticumTimeout,
	}
}

func mapPollerConfig(cfg *config.Config, res config.Resolved) poller.Config {
	return poller.Config{
		Schedule:     res.Schedule,
		NotifyErrors: cfg.Poller.NotifyErrors,
	}
}
