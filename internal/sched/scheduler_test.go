package sched

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	logx "slotwatch/pkg/logx"
)

// recorder captures cycle invocation times and returns scripted results.
type recorder struct {
	mu      sync.Mutex
	times   []time.Time
	results []error
	done    chan struct{} // closed when all scripted results are consumed
}

func newRecorder(results ...error) *recorder {
	return &recorder{results: results, done: make(chan struct{})}
}

func (r *recorder) cycle(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.times = append(r.times, time.Now())
	if len(r.times) > len(r.results) {
		return nil
	}
	err := r.results[len(r.times)-1]
	if len(r.times) == len(r.results) {
		close(r.done)
	}
	return err
}

func (r *recorder) calls() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Time(nil), r.times...)
}

func TestBackoffGrowsThenResets(t *testing.T) {
	t.Parallel()

	// fail, fail, succeed: waits should be base, base*factor.
	rec := newRecorder(errors.New("boom"), errors.New("boom"), nil)
	s := New(Config{
		Interval:      time.Hour, // long enough that only backoff drives timing
		BackoffBase:   20 * time.Millisecond,
		BackoffMax:    time.Second,
		BackoffFactor: 2,
	}, rec.cycle, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(runDone)
	}()

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("scripted cycles did not complete in time")
	}
	cancel()
	<-runDone

	calls := rec.calls()
	if len(calls) != 3 {
		t.Fatalf("cycles = %d, want 3", len(calls))
	}
	gap1 := calls[1].Sub(calls[0])
	gap2 := calls[2].Sub(calls[1])
	if gap1 < 20*time.Millisecond {
		t.Errorf("first retry gap %v below base backoff", gap1)
	}
	if gap2 < 40*time.Millisecond {
		t.Errorf("second retry gap %v below grown backoff", gap2)
	}
	if gap2 <= gap1 {
		t.Errorf("backoff did not grow: gap1=%v gap2=%v", gap1, gap2)
	}
	// Third cycle succeeded, so backoff resets for the next failure.
	if got := s.Backoff(); got != 20*time.Millisecond {
		t.Errorf("backoff after success = %v, want base", got)
	}
	if got := s.Cycle(); got != 3 {
		t.Errorf("cycle counter = %d, want 3", got)
	}
}

func TestBackoffCapped(t *testing.T) {
	t.Parallel()

	s := New(Config{
		BackoffBase:   10 * time.Millisecond,
		BackoffMax:    25 * time.Millisecond,
		BackoffFactor: 3,
	}, func(context.Context) error { return nil }, logx.Nop())

	got := s.nextBackoff(10 * time.Millisecond)
	if got != 25*time.Millisecond {
		t.Fatalf("nextBackoff = %v, want cap 25ms", got)
	}
	if got = s.nextBackoff(got); got != 25*time.Millisecond {
		t.Fatalf("nextBackoff at cap = %v, want 25ms", got)
	}
}

func TestCancelUnblocksSleep(t *testing.T) {
	t.Parallel()

	rec := newRecorder(nil)
	s := New(Config{
		Interval:    time.Hour,
		BackoffBase: time.Hour,
	}, rec.cycle, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(runDone)
	}()

	<-rec.done // first cycle ran, scheduler is in the interval sleep
	cancel()

	select {
	case <-runDone:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Run did not return promptly after cancel")
	}
	if got := s.State(); got != StateStopped {
		t.Errorf("state = %v, want stopped", got)
	}
	if got := len(rec.calls()); got != 1 {
		t.Errorf("cycles = %d, want 1", got)
	}
}

func TestPanicBecomesFailedCycle(t *testing.T) {
	t.Parallel()

	var calls int
	var mu sync.Mutex
	done := make(chan struct{})
	s := New(Config{
		Interval:    time.Hour,
		BackoffBase: 5 * time.Millisecond,
	}, func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			panic("cycle blew up")
		}
		close(done)
		return nil
	}, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(runDone)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not recover from panic and retry")
	}
	cancel()
	<-runDone
}

func TestCancelledCycleEndsRun(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s := New(Config{Interval: time.Hour}, func(c context.Context) error {
		cancel()
		return c.Err()
	}, logx.Nop())

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run returned %v, want nil on cancellation", err)
	}
	if got := s.Cycle(); got != 1 {
		t.Errorf("cycle counter = %d, want 1", got)
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		s    State
		want string
	}{
		{StateIdle, "idle"},
		{StateRunning, "running"},
		{StateSleeping, "sleeping"},
		{StateStopped, "stopped"},
		{State(99), "unknown"},
	}
	for _, c := range cases {
		if got := c.s.String(); got != c.want {
			t.Errorf("State(%d).String() = %q, want %q", c.s, got, c.want)
		}
	}
}
