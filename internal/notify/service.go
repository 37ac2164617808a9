package notify

import (
	"context"
	"sync"
	"time"

	logx "slotwatch/pkg/logx"
)

const DefaultCooldown = 600 * time.Second

// Channel delivers one title/body pair to a destination. The wire protocol
// is the channel's concern; the service treats it as an opaque capability.
type Channel interface {
	Name() string
	Send(ctx context.Context, title, body string) error
}

type Config struct {
	Cooldown time.Duration
}

// Service is the cooldown-gated dispatcher. It never reports errors to the
// caller: channel failures are logged and swallowed.
type Service struct {
	mu       sync.Mutex
	cooldown time.Duration
	lastSent map[string]time.Time

	channels []Channel
	log      logx.Logger
}

func New(cfg Config, channels []Channel, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		channels: channels,
		lastSent: map[string]time.Time{},
		log:      log,
	}
	s.Apply(cfg)
	return s
}

// Apply swaps the cooldown at runtime. Existing cooldown records keep their
// timestamps; only the window length changes.
func (s *Service) Apply(cfg Config) {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	s.mu.Lock()
	s.cooldown = cfg.Cooldown
	s.mu.Unlock()
}

// Notify fans title/body out to every channel unless itemID is still inside
// its cooldown window. The window is stamped when at least one dispatch
// attempt was made, regardless of per-channel outcomes.
func (s *Service) Notify(ctx context.Context, itemID, title, body string) {
	s.mu.Lock()
	last, seen := s.lastSent[itemID]
	cooldown := s.cooldown
	s.mu.Unlock()

	if seen {
		if elapsed := time.Since(last); elapsed < cooldown {
			s.log.Debug("alert suppressed by cooldown",
				logx.String("app", itemID),
				logx.Duration("elapsed", elapsed),
				logx.Duration("cooldown", cooldown))
			return
		}
	}

	attempted := false
	for _, ch := range s.channels {
		attempted = true
		if err := ch.Send(ctx, title, body); err != nil {
			s.log.Warn("alert dispatch failed",
				logx.String("app", itemID),
				logx.String("channel", ch.Name()),
				logx.Err(err))
			continue
		}
		s.log.Debug("alert dispatched",
			logx.String("app", itemID),
			logx.String("channel", ch.Name()))
	}

	if attempted {
		s.mu.Lock()
		s.lastSent[itemID] = time.Now()
		s.mu.Unlock()
		s.log.Info("alert sent", logx.String("app", itemID), logx.String("title", title))
	}
}

// Channels reports how many channels are configured.
func (s *Service) Channels() int { return len(s.channels) }
