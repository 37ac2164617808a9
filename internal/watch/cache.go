package watch

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	logx "slotwatch/pkg/logx"
)

// FetchFunc produces a fresh availability verdict for an app id.
type FetchFunc func(ctx context.Context, id string) (bool, error)

// Verdict is one availability decision, fresh or cached.
type Verdict struct {
	ID        string
	Available bool
	CheckedAt time.Time
}

// Cache is the per-app freshness cache. An entry younger than the TTL is
// returned verbatim without touching the network; otherwise the fetch runs
// and its verdict (including the fail-safe false on error) is stored.
//
// The scheduler never checks the same app concurrently, so per-id access is
// effectively serialized; the backing store is still safe for concurrent
// use across distinct ids.
type Cache struct {
	entries *gocache.Cache
	log     logx.Logger
}

func NewCache(ttl time.Duration, log logx.Logger) *Cache {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Cache{
		entries: gocache.New(ttl, 2*ttl),
		log:     log,
	}
}

// Check returns the cached verdict for id if still fresh, or invokes fetch
// and caches the result. A fetch error maps to an unavailable verdict; it is
// logged here and never propagated.
func (c *Cache) Check(ctx context.Context, id string, fetch FetchFunc) Verdict {
	if v, ok := c.entries.Get(id); ok {
		return v.(Verdict)
	}

	available, err := fetch(ctx, id)
	if err != nil {
		c.log.Warn("fetch failed, treating app as unavailable", logx.String("app", id), logx.Err(err))
		available = false
	}

	v := Verdict{ID: id, Available: available, CheckedAt: time.Now()}
	c.entries.Set(id, v, gocache.DefaultExpiration)
	return v
}
