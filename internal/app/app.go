// Package app wires the watcher together: config, logging, fetcher, cache,
// monitor, notifier, scheduler, optional history and digest.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slotwatch/internal/config"
	"slotwatch/internal/fetch"
	"slotwatch/internal/notify"
	"slotwatch/internal/runtime/supervisor"
	"slotwatch/internal/sched"
	"slotwatch/internal/storage"
	"slotwatch/internal/watch"
	logx "slotwatch/pkg/logx"

	"github.com/robfig/cron/v3"
)

// StopReason labels why the app is shutting down, for the final log lines.
type StopReason string

const (
	StopSignal StopReason = "signal"
	StopFatal  StopReason = "fatal"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service

	fetcher *fetch.Client
	cache   *watch.Cache
	monitor *watch.Monitor
	notif   *notify.Service
	store   storage.Store
	sched   *sched.Scheduler

	cron *cron.Cron
}

// NewApp loads and validates the config and constructs every component.
// Nothing runs until Start.
func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	// Bootstrap logger: Load emits validation warnings, and the log service
	// does not exist until the config has been read.
	cfgm.SetLogger(logx.NewConsole("INFO").With(logx.String("comp", "config")))
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	// The watched set is fixed for the process lifetime; reloads that try
	// to change it are rejected before commit.
	cfgm.SetValidator(func(old, next *config.Config) error {
		if !config.SameApps(old, next) {
			return fmt.Errorf("apps cannot change at runtime; restart to apply")
		}
		return nil
	})

	interval, err := cfg.Interval()
	if err != nil {
		return nil, err
	}
	ttl, err := cfg.TTL()
	if err != nil {
		return nil, err
	}
	cooldown, err := cfg.Cooldown()
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := cfg.FetchTimeout()
	if err != nil {
		return nil, err
	}

	fetcher := fetch.New(fetch.Config{
		Timeout:    fetchTimeout,
		UserAgent:  cfg.Fetch.UserAgent,
		RatePerSec: cfg.Fetch.RatePerSec,
	}, log.With(logx.String("comp", "fetch")))

	channels, err := notify.ChannelsFromConfig(cfg.Notify, log.With(logx.String("comp", "notify")))
	if err != nil {
		return nil, err
	}
	notif := notify.New(notify.Config{Cooldown: cooldown}, channels, log.With(logx.String("comp", "notify")))

	var store storage.Store
	if cfg.Storage != nil {
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 0)
		if err != nil {
			return nil, err
		}
		store, err = storage.Open(storage.Config{
			Driver:      cfg.Storage.Driver,
			Path:        cfg.Storage.Path,
			BusyTimeout: busy,
		}, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		if store != nil {
			log.Info("check history enabled", logx.String("driver", cfg.Storage.Driver))
		}
	}

	cache := watch.NewCache(ttl, log.With(logx.String("comp", "cache")))
	monitor := watch.NewMonitor(cfg.Apps, cache, fetcher, notif, store, log.With(logx.String("comp", "watch")))

	scheduler := sched.New(sched.Config{
		Interval: interval,
	}, monitor.RunCycle, log.With(logx.String("comp", "sched")))

	a := &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		fetcher: fetcher,
		cache:   cache,
		monitor: monitor,
		notif:   notif,
		store:   store,
		sched:   scheduler,
	}

	if cfg.Digest != nil && cfg.Digest.Enabled {
		if err := a.setupDigest(cfg.Digest); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Interval returns the configured cycle interval, for the watchdog ticker.
func (a *App) Interval() time.Duration {
	d, err := a.cfgm.Get().Interval()
	if err != nil {
		return 300 * time.Second
	}
	return d
}

// Done is closed when the supervisor context ends (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor, if any.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	a.sup.Go("sched.run", func(c context.Context) error {
		return a.sched.Run(c)
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
	})
	a.sup.GoRestart("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	if a.cron != nil {
		a.cron.Start()
	}

	a.log.Info("watcher started",
		logx.Int("apps", len(a.monitor.Snapshot())),
		logx.Int("channels", a.notif.Channels()),
		logx.Duration("interval", a.Interval()))
	return nil
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.sup.Cancel()

	if a.cron != nil {
		cronDone := a.cron.Stop().Done()
		select {
		case <-cronDone:
		case <-ctx.Done():
			a.log.Warn("digest job still running at shutdown deadline")
		}
	}

	waitCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := a.sup.Wait(waitCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		a.log.Warn("shutdown finished with error", logx.Err(err))
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("history close failed", logx.Err(err))
		}
	}

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}
