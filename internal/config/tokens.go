package config

import (
	"strings"

	logx "hwbot/pkg/logx"
)

// CheckTokens reports whether the API token, bot token and chat id are all set.
// The first missing one is logged at critical level; the rest are not checked.
func CheckTokens(log logx.Logger, practicumToken, telegramToken, chatID string) bool {
	required := []struct {
		name  string
		value string
	}{
		{EnvPracticumToken, practicumToken},
		{EnvTelegramToken, telegramToken},
		{EnvChatID, chatID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			log.Critical("required environment variable is missing", logx.String("var", r.name))
			return false
		}
	}
	log.Debug("credentials present")
	return true
}

// MissingCredential returns the name of the first missing credential in cfg, or "".
func MissingCredential(cfg *Config) string {
	switch {
	case strings.TrimSpace(cfg.Practicum.Token) == "":
		return EnvPracticumToken
	case strings.TrimSpace(cfg.Telegram.Token) == "":
		return EnvTelegramToken
	case strings.TrimSpace(cfg.Telegram.ChatID.String()) == "":
		return EnvChatID
	}
	return ""
}
