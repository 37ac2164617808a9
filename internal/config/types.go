package config

// Config is the on-disk configuration (JSON or YAML).
//
// All durations are Go duration strings (e.g. "30s", "5m").
type Config struct {
	// Apps lists the TestFlight join codes to watch. The set is fixed for
	// the process lifetime; a hot reload may not change it.
	Apps []string `json:"apps"`

	// CheckInterval is the target spacing between cycles. Default "300s".
	// Values below 60s are accepted with a warning (rate-limit risk).
	CheckInterval string `json:"check_interval,omitempty"`

	// CacheTTL is how long a per-app verdict stays fresh. Default "5m",
	// minimum "1m".
	CacheTTL string `json:"cache_ttl,omitempty"`

	Fetch   FetchConfig   `json:"fetch,omitempty"`
	Notify  NotifyConfig  `json:"notify,omitempty"`
	Logging LoggingConfig `json:"logging,omitempty"`

	// Storage enables the optional check-history store. Omitted = disabled.
	Storage *StorageConfig `json:"storage,omitempty"`

	// Digest enables the optional scheduled summary notification.
	Digest *DigestConfig `json:"digest,omitempty"`
}

// FetchConfig controls the page fetcher.
type FetchConfig struct {
	// Timeout bounds a single fetch round trip. Default "30s".
	Timeout   string `json:"timeout,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	// RatePerSec paces outgoing requests across all apps (token bucket).
	// 0 disables pacing.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// NotifyConfig controls alert dispatch. Every channel is optional and
// independently enabled by being configured.
type NotifyConfig struct {
	// Cooldown is the minimum spacing between two alerts for the same app.
	// Default "600s".
	Cooldown string `json:"cooldown,omitempty"`

	DiscordWebhookURL string `json:"discord_webhook_url,omitempty"`
	SlackWebhookURL   string `json:"slack_webhook_url,omitempty"`

	Email    *EmailConfig    `json:"email,omitempty"`
	Telegram *TelegramConfig `json:"telegram,omitempty"`
}

type EmailConfig struct {
	SMTPHost   string   `json:"smtp_host"`
	SMTPPort   int      `json:"smtp_port,omitempty"` // default 587
	Username   string   `json:"username,omitempty"`
	Password   string   `json:"password,omitempty"`
	From       string   `json:"from,omitempty"`
	Recipients []string `json:"recipients"`
}

type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
}

type LoggingConfig struct {
	Level   string      `json:"level,omitempty"`
	Console bool        `json:"console,omitempty"`
	File    LoggingFile `json:"file,omitempty"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// StorageConfig controls the optional persistence layer.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./slotwatch.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

// DigestConfig controls the scheduled status summary.
type DigestConfig struct {
	Enabled bool `json:"enabled"`
	// Schedule is a cron spec (5 or 6 fields) or a descriptor like
	// "@daily". Default "0 9 * * *".
	Schedule string `json:"schedule,omitempty"`
}
