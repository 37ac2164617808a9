// Package sched drives repeated monitoring cycles with capped exponential
// backoff on failure and prompt cooperative shutdown.
package sched

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	logx "slotwatch/pkg/logx"
)

// State is the scheduler lifecycle phase.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateSleeping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSleeping:
		return "sleeping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// CycleFunc runs one complete pass over all watched items.
type CycleFunc func(ctx context.Context) error

type Config struct {
	// Interval is the target spacing between cycle starts.
	Interval time.Duration

	// Backoff bounds for the failure path. Defaults: 5s base, 300s max,
	// 1.8x growth.
	BackoffBase   time.Duration
	BackoffMax    time.Duration
	BackoffFactor float64
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 300 * time.Second
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 5 * time.Second
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = 300 * time.Second
	}
	if c.BackoffMax < c.BackoffBase {
		c.BackoffMax = c.BackoffBase
	}
	if c.BackoffFactor <= 1 {
		c.BackoffFactor = 1.8
	}
	return c
}

// Scheduler is the single sequential cycle driver. Cycles never overlap:
// one goroutine calls Run and owns all cycle execution.
type Scheduler struct {
	cfg Config
	run CycleFunc
	log logx.Logger

	state   atomic.Int32
	cycle   atomic.Uint64
	backoff atomic.Int64 // current backoff, for observability
}

func New(cfg Config, run CycleFunc, log logx.Logger) *Scheduler {
	if log.IsZero() {
		log = logx.Nop()
	}
	cfg = cfg.withDefaults()
	s := &Scheduler{cfg: cfg, run: run, log: log}
	s.state.Store(int32(StateIdle))
	s.backoff.Store(int64(cfg.BackoffBase))
	return s
}

// State returns the current lifecycle phase.
func (s *Scheduler) State() State { return State(s.state.Load()) }

// Cycle returns the number of cycles started so far (monotonic).
func (s *Scheduler) Cycle() uint64 { return s.cycle.Load() }

// Backoff returns the delay the next failure would wait.
func (s *Scheduler) Backoff() time.Duration { return time.Duration(s.backoff.Load()) }

// Run executes cycles until ctx is cancelled. Cycle 1 starts immediately.
// It always returns nil on cancellation: stop is the expected way out.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.state.Store(int32(StateStopped))

	backoff := s.cfg.BackoffBase
	for {
		if ctx.Err() != nil {
			return nil
		}

		n := s.cycle.Add(1)
		s.state.Store(int32(StateRunning))
		s.log.Debug("cycle started", logx.Uint64("cycle", n))

		start := time.Now()
		err := s.runOnce(ctx)
		elapsed := time.Since(start)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			s.log.Warn("cycle failed",
				logx.Uint64("cycle", n),
				logx.Err(err),
				logx.Duration("retry_in", backoff))
			s.state.Store(int32(StateSleeping))
			if !s.sleep(ctx, backoff) {
				return nil
			}
			backoff = s.nextBackoff(backoff)
			continue
		}

		backoff = s.cfg.BackoffBase
		s.backoff.Store(int64(backoff))
		s.log.Debug("cycle completed", logx.Uint64("cycle", n), logx.Duration("dur", elapsed))

		remaining := s.cfg.Interval - elapsed
		if remaining < 0 {
			remaining = 0
		}
		s.state.Store(int32(StateSleeping))
		if !s.sleep(ctx, remaining) {
			return nil
		}
	}
}

// runOnce shields the loop from panics in the cycle function; a panicking
// cycle degrades to a failed cycle and goes through backoff like any other.
func (s *Scheduler) runOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in cycle", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()
	return s.run(ctx)
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
// It reports whether the full duration elapsed.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *Scheduler) nextBackoff(cur time.Duration) time.Duration {
	next := time.Duration(float64(cur) * s.cfg.BackoffFactor)
	if next > s.cfg.BackoffMax {
		next = s.cfg.BackoffMax
	}
	if next < s.cfg.BackoffBase {
		next = s.cfg.BackoffBase
	}
	s.backoff.Store(int64(next))
	return next
}
