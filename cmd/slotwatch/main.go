package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"slotwatch/internal/app"
)

func main() {
	var (
		cfgPath  string
		check    bool
		validate bool
	)
	flag.StringVar(&cfgPath, "config", "./slotwatch.yaml", "path to config file (yaml or json)")
	flag.BoolVar(&check, "check", false, "run one availability pass, print results, exit")
	flag.BoolVar(&validate, "validate", false, "validate the config and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch {
	case validate:
		if err := app.ValidateConfig(cfgPath, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "config invalid:", err)
			os.Exit(1)
		}
		return
	case check:
		if err := app.CheckOnce(ctx, cfgPath, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "check failed:", err)
			os.Exit(1)
		}
		return
	}

	a, err := app.NewApp(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
	if err := a.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fatal start:", err)
		os.Exit(1)
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	stopWatchdog := startWatchdog(ctx)

	<-a.Done()

	stopWatchdog()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	reason := app.StopSignal
	if err := a.Err(); err != nil {
		reason = app.StopFatal
		fmt.Fprintln(os.Stderr, "fatal:", err)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	_ = a.Stop(stopCtx, reason)

	if a.Err() != nil {
		os.Exit(1)
	}
}

// startWatchdog pings sd_notify at half the configured watchdog interval.
// No-op outside systemd or when WatchdogSec is unset.
func startWatchdog(ctx context.Context) func() {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-t.C:
				_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			}
		}
	}()
	return func() { close(done) }
}
