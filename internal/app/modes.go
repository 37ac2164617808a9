package app

import (
	"context"
	"fmt"
	"io"

	"slotwatch/internal/classify"
	"slotwatch/internal/config"
	"slotwatch/internal/fetch"
	logx "slotwatch/pkg/logx"
)

// CheckOnce runs a single availability pass and prints one line per app.
// No cache, no notifications, no persistence: pure fetch and classify.
func CheckOnce(ctx context.Context, cfgPath string, out io.Writer) error {
	cfg, err := config.NewManager(cfgPath).Load()
	if err != nil {
		return err
	}
	timeout, err := cfg.FetchTimeout()
	if err != nil {
		return err
	}

	fetcher := fetch.New(fetch.Config{
		Timeout:    timeout,
		UserAgent:  cfg.Fetch.UserAgent,
		RatePerSec: cfg.Fetch.RatePerSec,
	}, logx.Nop())

	for _, id := range cfg.Apps {
		if err := ctx.Err(); err != nil {
			return err
		}
		label := "Not Available"
		res, err := fetcher.Fetch(ctx, id)
		if err == nil && classify.Available(res.Body) {
			label = "Available"
		}
		fmt.Fprintf(out, "%s: %s\n", id, label)
	}
	return nil
}

// ValidateConfig loads and validates the config, printing a summary of what
// would be watched. Returns the validation error, if any.
func ValidateConfig(cfgPath string, out io.Writer) error {
	cfg, err := config.Parse(cfgPath)
	if err != nil {
		return err
	}
	config.ApplyEnv(cfg)
	cfg.Normalize()

	warnings, err := cfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	if err != nil {
		return err
	}

	interval, _ := cfg.Interval()
	ttl, _ := cfg.TTL()
	cooldown, _ := cfg.Cooldown()

	fmt.Fprintf(out, "config ok: %d app(s), interval %s, cache ttl %s, cooldown %s\n",
		len(cfg.Apps), interval, ttl, cooldown)
	for _, id := range cfg.Apps {
		fmt.Fprintf(out, "  watching %s/%s\n", fetch.DefaultBaseURL, id)
	}
	if !cfg.HasChannels() {
		fmt.Fprintln(out, "note: no notification channels configured")
	}
	return nil
}
