package config

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnv overlays environment variables onto cfg. Environment values win
// over file values so containerized deployments can run without a file.
//
// Recognized variables:
//
//	SLOTWATCH_APP_IDS              comma-separated join codes
//	SLOTWATCH_CHECK_INTERVAL       Go duration
//	SLOTWATCH_CACHE_TTL            Go duration
//	SLOTWATCH_COOLDOWN             Go duration
//	SLOTWATCH_DISCORD_WEBHOOK_URL
//	SLOTWATCH_SLACK_WEBHOOK_URL
//	SLOTWATCH_EMAIL_SMTP_HOST / _SMTP_PORT / _USERNAME / _PASSWORD / _RECIPIENTS
//	SLOTWATCH_TELEGRAM_TOKEN / _CHAT_ID
//	SLOTWATCH_LOG_LEVEL
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("SLOTWATCH_APP_IDS"); v != "" {
		cfg.Apps = splitCSV(v)
	}
	if v := os.Getenv("SLOTWATCH_CHECK_INTERVAL"); v != "" {
		cfg.CheckInterval = v
	}
	if v := os.Getenv("SLOTWATCH_CACHE_TTL"); v != "" {
		cfg.CacheTTL = v
	}
	if v := os.Getenv("SLOTWATCH_COOLDOWN"); v != "" {
		cfg.Notify.Cooldown = v
	}
	if v := os.Getenv("SLOTWATCH_DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Notify.DiscordWebhookURL = v
	}
	if v := os.Getenv("SLOTWATCH_SLACK_WEBHOOK_URL"); v != "" {
		cfg.Notify.SlackWebhookURL = v
	}

	if v := os.Getenv("SLOTWATCH_EMAIL_SMTP_HOST"); v != "" {
		if cfg.Notify.Email == nil {
			cfg.Notify.Email = &EmailConfig{}
		}
		cfg.Notify.Email.SMTPHost = v
	}
	if cfg.Notify.Email != nil {
		e := cfg.Notify.Email
		if v := os.Getenv("SLOTWATCH_EMAIL_SMTP_PORT"); v != "" {
			if p, err := strconv.Atoi(v); err == nil {
				e.SMTPPort = p
			}
		}
		if v := os.Getenv("SLOTWATCH_EMAIL_USERNAME"); v != "" {
			e.Username = v
		}
		if v := os.Getenv("SLOTWATCH_EMAIL_PASSWORD"); v != "" {
			e.Password = v
		}
		if v := os.Getenv("SLOTWATCH_EMAIL_RECIPIENTS"); v != "" {
			e.Recipients = splitCSV(v)
		}
	}

	if v := os.Getenv("SLOTWATCH_TELEGRAM_TOKEN"); v != "" {
		if cfg.Notify.Telegram == nil {
			cfg.Notify.Telegram = &TelegramConfig{}
		}
		cfg.Notify.Telegram.Token = v
	}
	if cfg.Notify.Telegram != nil {
		if v := os.Getenv("SLOTWATCH_TELEGRAM_CHAT_ID"); v != "" {
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				cfg.Notify.Telegram.ChatID = id
			}
		}
	}

	if v := os.Getenv("SLOTWATCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
