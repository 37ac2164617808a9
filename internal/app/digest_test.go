package app

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"slotwatch/internal/notify"
	"slotwatch/internal/storage"
	logx "slotwatch/pkg/logx"
)

func TestDigestSummary(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	records := []storage.CheckRecord{
		{App: "beta1234", Available: false, At: base},
		{App: "beta1234", Available: true, At: base.Add(5 * time.Minute)},
		{App: "beta1234", Available: false, At: base.Add(10 * time.Minute)},
		{App: "alpha777", Available: true, At: base.Add(time.Minute)},
		{App: "alpha777", Available: true, At: base.Add(6 * time.Minute)},
	}

	got := digestSummary(records, base)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("summary has %d lines, want 3:\n%s", len(lines), got)
	}
	if !strings.Contains(lines[0], "2025-06-01 09:00") {
		t.Errorf("header missing since time: %q", lines[0])
	}
	// Apps are listed alphabetically.
	if !strings.HasPrefix(lines[1], "alpha777: 2 checks, 2 open, 0 transitions, currently open") {
		t.Errorf("alpha777 line = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "beta1234: 3 checks, 1 open, 2 transitions, currently full") {
		t.Errorf("beta1234 line = %q", lines[2])
	}
}

type countingChannel struct {
	mu   sync.Mutex
	sent []string
}

func (c *countingChannel) Name() string { return "counting" }

func (c *countingChannel) Send(ctx context.Context, title, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, title)
	return nil
}

// A watched app may legitimately be named "digest"; the summary's cooldown
// key must stay disjoint from every app id.
func TestDigestCooldownKeyIndependentOfAppIDs(t *testing.T) {
	t.Parallel()

	ch := &countingChannel{}
	svc := notify.New(notify.Config{Cooldown: time.Hour}, []notify.Channel{ch}, logx.Nop())

	ctx := context.Background()
	svc.Notify(ctx, "digest", "TestFlight slot available: digest", "body")
	svc.Notify(ctx, digestKey, "Slot watcher digest", "body")

	ch.mu.Lock()
	defer ch.mu.Unlock()
	if got := len(ch.sent); got != 2 {
		t.Fatalf("dispatches = %d, want 2 independent cooldown records", got)
	}
}

func TestDigestSummarySingleRecord(t *testing.T) {
	t.Parallel()

	records := []storage.CheckRecord{
		{App: "solo5678", Available: true, At: time.Now()},
	}
	got := digestSummary(records, time.Now().Add(-time.Hour))
	if !strings.Contains(got, "solo5678: 1 checks, 1 open, 0 transitions, currently open") {
		t.Fatalf("unexpected summary:\n%s", got)
	}
}
