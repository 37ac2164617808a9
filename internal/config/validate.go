package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultCheckInterval = 300 * time.Second
	DefaultCacheTTL      = 5 * time.Minute
	DefaultCooldown      = 600 * time.Second
	DefaultFetchTimeout  = 30 * time.Second

	// MinCacheTTL is the smallest accepted verdict TTL. Anything below it
	// would make the cache pointless next to the fetch pacing.
	MinCacheTTL = time.Minute

	minAppIDLen = 4
)

// Normalize trims app ids and drops empty entries, in place.
func (c *Config) Normalize() {
	apps := c.Apps[:0]
	for _, id := range c.Apps {
		id = strings.TrimSpace(id)
		if id != "" {
			apps = append(apps, id)
		}
	}
	c.Apps = apps
}

// Validate checks the config after Normalize. It returns non-fatal warnings
// plus the first fatal error. Fatal errors must stop the process before the
// scheduler starts.
func (c *Config) Validate() (warnings []string, err error) {
	if len(c.Apps) == 0 {
		return nil, fmt.Errorf("no app ids configured (set apps in the config file or SLOTWATCH_APP_IDS)")
	}
	for _, id := range c.Apps {
		if len(id) < minAppIDLen {
			return nil, fmt.Errorf("invalid app id %q: must be at least %d characters", id, minAppIDLen)
		}
	}

	interval, err := c.Interval()
	if err != nil {
		return nil, err
	}
	if interval < time.Minute {
		warnings = append(warnings, fmt.Sprintf("check_interval %s is below 60s, this may trigger rate limiting", interval))
	}

	ttl, err := c.TTL()
	if err != nil {
		return nil, err
	}
	if ttl < MinCacheTTL {
		return nil, fmt.Errorf("cache_ttl must be at least %s, got %s", MinCacheTTL, ttl)
	}

	if _, err := c.Cooldown(); err != nil {
		return nil, err
	}
	if _, err := c.FetchTimeout(); err != nil {
		return nil, err
	}
	if c.Fetch.RatePerSec < 0 {
		return nil, fmt.Errorf("fetch.rate_per_sec must be >= 0")
	}

	if c.Notify.Email != nil {
		e := c.Notify.Email
		if strings.TrimSpace(e.SMTPHost) == "" {
			return nil, fmt.Errorf("notify.email.smtp_host is required when email is configured")
		}
		if len(e.Recipients) == 0 {
			return nil, fmt.Errorf("notify.email.recipients must not be empty")
		}
	}
	if c.Notify.Telegram != nil {
		t := c.Notify.Telegram
		if strings.TrimSpace(t.Token) == "" || t.ChatID == 0 {
			return nil, fmt.Errorf("notify.telegram requires both token and chat_id")
		}
	}
	if !c.HasChannels() {
		warnings = append(warnings, "no notification channels configured; open slots will only be logged")
	}

	return warnings, nil
}

// HasChannels reports whether at least one notification channel is configured.
func (c *Config) HasChannels() bool {
	n := c.Notify
	return strings.TrimSpace(n.DiscordWebhookURL) != "" ||
		strings.TrimSpace(n.SlackWebhookURL) != "" ||
		n.Email != nil ||
		n.Telegram != nil
}

func (c *Config) Interval() (time.Duration, error) {
	return ParseDurationOrDefault("check_interval", c.CheckInterval, DefaultCheckInterval)
}

func (c *Config) TTL() (time.Duration, error) {
	return ParseDurationOrDefault("cache_ttl", c.CacheTTL, DefaultCacheTTL)
}

func (c *Config) Cooldown() (time.Duration, error) {
	return ParseDurationOrDefault("notify.cooldown", c.Notify.Cooldown, DefaultCooldown)
}

func (c *Config) FetchTimeout() (time.Duration, error) {
	return ParseDurationOrDefault("fetch.timeout", c.Fetch.Timeout, DefaultFetchTimeout)
}
