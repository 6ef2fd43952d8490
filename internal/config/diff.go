package config

import (
	"strings"

	logx "hwbot/pkg/logx"
)

// SummarizeConfigChange returns the changed sections and safe structured
// fields for logging. Tokens are never included; only whether they are set.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 16)

	ot, nt := oldCfg.Telegram, newCfg.Telegram
	if ot.ChatID != nt.ChatID || ot.ThreadID != nt.ThreadID ||
		strings.TrimSpace(ot.APIURL) != strings.TrimSpace(nt.APIURL) ||
		strings.TrimSpace(ot.RequestTimeout) != strings.TrimSpace(nt.RequestTimeout) ||
		ot.Token != nt.Token {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.String("telegram.chat_id", nt.ChatID.String()),
			logx.Int("telegram.thread_id", nt.ThreadID),
			logx.Bool("telegram.token_set", strings.TrimSpace(nt.Token) != ""),
			logx.Bool("telegram.token_changed", ot.Token != nt.Token),
		)
	}

	op, np := oldCfg.Practicum, newCfg.Practicum
	if strings.TrimSpace(op.Endpoint) != strings.TrimSpace(np.Endpoint) ||
		strings.TrimSpace(op.RequestTimeout) != strings.TrimSpace(np.RequestTimeout) ||
		strings.TrimSpace(op.Lookback) != strings.TrimSpace(np.Lookback) ||
		op.FromDate != np.FromDate || op.Token != np.Token {
		changed = append(changed, "practicum")
		attrs = append(attrs,
			logx.String("practicum.endpoint", strings.TrimSpace(np.Endpoint)),
			logx.String("practicum.request_timeout", strings.TrimSpace(np.RequestTimeout)),
			logx.Bool("practicum.token_set", strings.TrimSpace(np.Token) != ""),
			logx.Bool("practicum.token_changed", op.Token != np.Token),
		)
	}

	if strings.TrimSpace(oldCfg.Poller.Schedule) != strings.TrimSpace(newCfg.Poller.Schedule) ||
		oldCfg.Poller.NotifyErrors != newCfg.Poller.NotifyErrors {
		changed = append(changed, "poller")
		attrs = append(attrs,
			logx.String("poller.schedule", strings.TrimSpace(newCfg.Poller.Schedule)),
			logx.Bool("poller.notify_errors", newCfg.Poller.NotifyErrors),
		)
	}

	if oldCfg.Notifier.RatePerSec != newCfg.Notifier.RatePerSec ||
		strings.TrimSpace(oldCfg.Notifier.SendTimeout) != strings.TrimSpace(newCfg.Notifier.SendTimeout) {
		changed = append(changed, "notifier")
		attrs = append(attrs,
			logx.Int("notifier.rate_per_sec", newCfg.Notifier.RatePerSec),
			logx.String("notifier.send_timeout", strings.TrimSpace(newCfg.Notifier.SendTimeout)),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	return changed, attrs
}

// RequiresRestart lists changed settings that are only read at startup.
func RequiresRestart(oldCfg, newCfg *Config) []string {
	if oldCfg == nil || newCfg == nil {
		return nil
	}
	var out []string
	if oldCfg.Telegram.Token != newCfg.Telegram.Token {
		out = append(out, "telegram.token")
	}
	if oldCfg.Telegram.ChatID != newCfg.Telegram.ChatID || oldCfg.Telegram.ThreadID != newCfg.Telegram.ThreadID {
		out = append(out, "telegram.chat_id")
	}
	if oldCfg.Telegram.APIURL != newCfg.Telegram.APIURL || oldCfg.Telegram.RequestTimeout != newCfg.Telegram.RequestTimeout {
		out = append(out, "telegram.api")
	}
	if oldCfg.Practicum != newCfg.Practicum {
		out = append(out, "practicum")
	}
	return out
}
