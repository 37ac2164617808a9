package app

import (
	"context"
	"slices"

	"slotwatch/internal/config"
	"slotwatch/internal/fetch"
	"slotwatch/internal/notify"
	logx "slotwatch/pkg/logx"
)

// reloadLoop applies committed config updates to the running components.
// Hot-applied: logging, cooldown, fetch settings. Everything else (apps,
// cache TTL, interval, storage, digest, channel endpoints) needs a restart.
func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	// The manager commits before it publishes, so remember the previously
	// applied config ourselves to diff against.
	last := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: only the newest config matters.
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						cfg = newer
					}
				default:
					goto APPLY
				}
			}
		APPLY:
			a.applyConfig(last, cfg)
			last = cfg
		}
	}
}

func (a *App) applyConfig(old, cfg *config.Config) {
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	if cooldown, err := cfg.Cooldown(); err != nil {
		a.log.Warn("invalid cooldown in reload; keeping previous", logx.Err(err))
	} else {
		a.notif.Apply(notify.Config{Cooldown: cooldown})
	}

	if timeout, err := cfg.FetchTimeout(); err != nil {
		a.log.Warn("invalid fetch timeout in reload; keeping previous", logx.Err(err))
	} else {
		a.fetcher.Apply(fetch.Config{
			Timeout:    timeout,
			UserAgent:  cfg.Fetch.UserAgent,
			RatePerSec: cfg.Fetch.RatePerSec,
		})
	}

	if old != nil {
		if old.CacheTTL != cfg.CacheTTL {
			a.log.Warn("cache_ttl changed; restart required for changes to take effect")
		}
		if old.CheckInterval != cfg.CheckInterval {
			a.log.Warn("check_interval changed; restart required for changes to take effect")
		}
		if channelsChanged(old.Notify, cfg.Notify) {
			a.log.Warn("notification channel endpoints changed; restart required for changes to take effect")
		}
	}

	a.log.Info("config applied")
}

func channelsChanged(old, next config.NotifyConfig) bool {
	if old.DiscordWebhookURL != next.DiscordWebhookURL || old.SlackWebhookURL != next.SlackWebhookURL {
		return true
	}
	if (old.Email == nil) != (next.Email == nil) {
		return true
	}
	if old.Email != nil {
		a, b := old.Email, next.Email
		if a.SMTPHost != b.SMTPHost || a.SMTPPort != b.SMTPPort ||
			a.Username != b.Username || a.Password != b.Password ||
			a.From != b.From || !slices.Equal(a.Recipients, b.Recipients) {
			return true
		}
	}
	if (old.Telegram == nil) != (next.Telegram == nil) {
		return true
	}
	if old.Telegram != nil && *old.Telegram != *next.Telegram {
		return true
	}
	return false
}
