package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"slotwatch/internal/config"
	"slotwatch/internal/storage"
	logx "slotwatch/pkg/logx"

	"github.com/robfig/cron/v3"
)

const (
	defaultDigestSchedule = "0 9 * * *"

	// digestKey is the notifier cooldown key for digest messages. It is
	// namespaced with a colon so it can never collide with a watched app
	// id and contend with that app's alert cooldown.
	digestKey = "digest:summary"
)

func (a *App) setupDigest(dc *config.DigestConfig) error {
	if a.store == nil {
		return fmt.Errorf("digest requires storage to be enabled")
	}

	schedule := strings.TrimSpace(dc.Schedule)
	if schedule == "" {
		schedule = defaultDigestSchedule
	}

	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("digest.schedule: invalid %q: %w", schedule, err)
	}

	c := cron.New(cron.WithParser(parser))
	var mu sync.Mutex
	lastRun := time.Now()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		mu.Lock()
		since := lastRun
		lastRun = time.Now()
		mu.Unlock()
		a.sendDigest(ctx, since)
	})
	if err != nil {
		return err
	}

	a.cron = c
	a.log.Info("digest enabled", logx.String("schedule", schedule))
	return nil
}

func (a *App) sendDigest(ctx context.Context, since time.Time) {
	records, err := a.store.RecentChecks(ctx, since)
	if err != nil {
		a.log.Warn("digest query failed", logx.Err(err))
		return
	}
	if len(records) == 0 {
		a.log.Debug("digest skipped; no checks since last run")
		return
	}

	body := digestSummary(records, since)
	a.notif.Notify(ctx, digestKey, "Slot watcher digest", body)
	a.log.Info("digest sent", logx.Int("checks", len(records)))
}

type digestLine struct {
	app         string
	checks      int
	available   int
	transitions int
	lastState   bool
}

// digestSummary condenses the check history since the given time into a
// short per-app report: check counts, how often the slot looked open, and
// how many times availability flipped.
func digestSummary(records []storage.CheckRecord, since time.Time) string {
	perApp := map[string]*digestLine{}
	prev := map[string]bool{}
	order := []string{}

	for _, r := range records {
		l := perApp[r.App]
		if l == nil {
			l = &digestLine{app: r.App}
			perApp[r.App] = l
			order = append(order, r.App)
		}
		l.checks++
		if r.Available {
			l.available++
		}
		if p, seen := prev[r.App]; seen && p != r.Available {
			l.transitions++
		}
		prev[r.App] = r.Available
		l.lastState = r.Available
	}
	sort.Strings(order)

	var b strings.Builder
	fmt.Fprintf(&b, "Checks since %s\n", since.Format("2006-01-02 15:04"))
	for _, app := range order {
		l := perApp[app]
		state := "full"
		if l.lastState {
			state = "open"
		}
		fmt.Fprintf(&b, "%s: %d checks, %d open, %d transitions, currently %s\n",
			l.app, l.checks, l.available, l.transitions, state)
	}
	return strings.TrimRight(b.String(), "\n")
}
