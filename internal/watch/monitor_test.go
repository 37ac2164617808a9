package watch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"slotwatch/internal/fetch"
	"slotwatch/internal/storage"
	logx "slotwatch/pkg/logx"
)

type fakeFetcher struct {
	mu    sync.Mutex
	base  string
	pages map[string]fetch.Result
	errs  map[string]error
	calls map[string]int
}

func (f *fakeFetcher) JoinURL(id string) string {
	base := f.base
	if base == "" {
		base = fetch.DefaultBaseURL
	}
	return base + "/" + id
}

func (f *fakeFetcher) Fetch(ctx context.Context, id string) (fetch.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[id]++
	if err := f.errs[id]; err != nil {
		return fetch.Result{}, err
	}
	return f.pages[id], nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []string
	title map[string]string
	body  map[string]string
}

func (n *fakeNotifier) Notify(ctx context.Context, itemID, title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, itemID)
	if n.title == nil {
		n.title = map[string]string{}
		n.body = map[string]string{}
	}
	n.title[itemID] = title
	n.body[itemID] = message
}

type fakeStore struct {
	mu   sync.Mutex
	recs []storage.CheckRecord
}

func (s *fakeStore) AppendCheck(ctx context.Context, rec storage.CheckRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *fakeStore) RecentChecks(ctx context.Context, since time.Time) ([]storage.CheckRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.CheckRecord(nil), s.recs...), nil
}

func (s *fakeStore) Close() error { return nil }

func TestRunCycleNotifiesOnOpenSlot(t *testing.T) {
	t.Parallel()
	ff := &fakeFetcher{pages: map[string]fetch.Result{
		"open0000": {Status: 200, Body: "Join the beta now!", Title: "MyApp beta"},
		"full0000": {Status: 200, Body: "This beta is full"},
	}}
	fn := &fakeNotifier{}
	st := &fakeStore{}
	m := NewMonitor([]string{"open0000", "full0000"}, NewCache(time.Minute, logx.Nop()), ff, fn, st, logx.Nop())

	if err := m.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if len(fn.sent) != 1 || fn.sent[0] != "open0000" {
		t.Fatalf("notified %v, want [open0000]", fn.sent)
	}
	// Display name resolved lazily from the page title.
	if got := fn.title["open0000"]; got != "TestFlight slot available: MyApp beta" {
		t.Fatalf("unexpected title: %q", got)
	}
	if len(st.recs) != 2 {
		t.Fatalf("recorded %d checks, want 2", len(st.recs))
	}
}

func TestRunCycleAlertLinksConfiguredBase(t *testing.T) {
	t.Parallel()
	ff := &fakeFetcher{
		base:  "https://beta.example.net/join",
		pages: map[string]fetch.Result{"open0000": {Status: 200, Body: "Join the beta"}},
	}
	fn := &fakeNotifier{}
	m := NewMonitor([]string{"open0000"}, NewCache(time.Minute, logx.Nop()), ff, fn, nil, logx.Nop())

	if err := m.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	want := "https://beta.example.net/join/open0000"
	if body := fn.body["open0000"]; !strings.Contains(body, want) {
		t.Fatalf("alert body %q does not link %q", body, want)
	}
}

func TestRunCycleAbsorbsFetchErrors(t *testing.T) {
	t.Parallel()
	ff := &fakeFetcher{
		pages: map[string]fetch.Result{"open0000": {Status: 200, Body: "join the beta"}},
		errs:  map[string]error{"boom0000": errors.New("timeout")},
	}
	fn := &fakeNotifier{}
	m := NewMonitor([]string{"boom0000", "open0000"}, NewCache(time.Minute, logx.Nop()), ff, fn, nil, logx.Nop())

	if err := m.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	// The failing item is skipped, the healthy one still alerts.
	if len(fn.sent) != 1 || fn.sent[0] != "open0000" {
		t.Fatalf("notified %v, want [open0000]", fn.sent)
	}
	snap := m.Snapshot()
	if snap[0].LastAvailable {
		t.Fatal("failed fetch must record unavailable")
	}
	if snap[0].LastChecked.IsZero() {
		t.Fatal("failed fetch must still stamp LastChecked")
	}
}

func TestRunCycleUsesCache(t *testing.T) {
	t.Parallel()
	ff := &fakeFetcher{pages: map[string]fetch.Result{
		"abcd1234": {Status: 200, Body: "nothing of note"},
	}}
	m := NewMonitor([]string{"abcd1234"}, NewCache(time.Minute, logx.Nop()), ff, &fakeNotifier{}, nil, logx.Nop())

	for i := 0; i < 3; i++ {
		if err := m.RunCycle(context.Background()); err != nil {
			t.Fatalf("RunCycle #%d: %v", i+1, err)
		}
	}
	if got := ff.calls["abcd1234"]; got != 1 {
		t.Fatalf("fetch called %d times across cycles, want 1 (TTL cache)", got)
	}
}

func TestRunCycleStopsOnCancel(t *testing.T) {
	t.Parallel()
	ff := &fakeFetcher{pages: map[string]fetch.Result{}}
	m := NewMonitor([]string{"abcd1234", "wxyz9876"}, NewCache(time.Minute, logx.Nop()), ff, &fakeNotifier{}, nil, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.RunCycle(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("RunCycle = %v, want context.Canceled", err)
	}
	if len(ff.calls) != 0 {
		t.Fatalf("no fetches expected after cancel, got %v", ff.calls)
	}
}
