// Package watch runs the per-cycle availability checks: cache, fetch,
// classify, alert.
package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"slotwatch/internal/classify"
	"slotwatch/internal/fetch"
	"slotwatch/internal/storage"
	logx "slotwatch/pkg/logx"
)

// Fetcher supplies page content for a join code. A per-call timeout applies
// inside the implementation.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (fetch.Result, error)
	// JoinURL is the page URL for id under the fetcher's configured base,
	// used verbatim in alert bodies.
	JoinURL(id string) string
}

// Notifier dispatches an alert for an open slot. It never reports errors up;
// dispatch failures are its own concern.
type Notifier interface {
	Notify(ctx context.Context, itemID, title, message string)
}

// Item is one watched slot. The set is fixed for the process lifetime.
type Item struct {
	ID string
	// Name is resolved lazily from the first fetched page title.
	Name          string
	LastAvailable bool
	LastChecked   time.Time
}

// Monitor owns the watched items and drives one pass over them per cycle.
type Monitor struct {
	cache    *Cache
	fetcher  Fetcher
	notifier Notifier
	store    storage.Store // nil when history is disabled
	log      logx.Logger

	mu    sync.Mutex
	items []*Item
}

func NewMonitor(ids []string, cache *Cache, fetcher Fetcher, notifier Notifier, store storage.Store, log logx.Logger) *Monitor {
	if log.IsZero() {
		log = logx.Nop()
	}
	items := make([]*Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, &Item{ID: id})
	}
	return &Monitor{
		cache:    cache,
		fetcher:  fetcher,
		notifier: notifier,
		store:    store,
		log:      log,
		items:    items,
	}
}

// RunCycle checks every item sequentially. Fetch failures are absorbed as
// unavailable verdicts; only context cancellation aborts the pass.
func (m *Monitor) RunCycle(ctx context.Context) error {
	for _, it := range m.items {
		if err := ctx.Err(); err != nil {
			return err
		}

		v := m.cache.Check(ctx, it.ID, m.checkOnce)

		m.mu.Lock()
		it.LastAvailable = v.Available
		it.LastChecked = v.CheckedAt
		label := it.Name
		m.mu.Unlock()
		if label == "" {
			label = it.ID
		}

		if m.store != nil {
			if err := m.store.AppendCheck(ctx, storage.CheckRecord{App: it.ID, Available: v.Available, At: v.CheckedAt}); err != nil {
				m.log.Debug("history append failed", logx.String("app", it.ID), logx.Err(err))
			}
		}

		if v.Available {
			m.notifier.Notify(ctx, it.ID,
				fmt.Sprintf("TestFlight slot available: %s", label),
				fmt.Sprintf("An open slot was detected for %s\n%s", label, m.fetcher.JoinURL(it.ID)),
			)
		}
	}
	return ctx.Err()
}

// checkOnce is the cache's fetch function: one network round trip plus
// classification. The display name is captured from the page title the
// first time it appears.
func (m *Monitor) checkOnce(ctx context.Context, id string) (bool, error) {
	res, err := m.fetcher.Fetch(ctx, id)
	if err != nil {
		return false, err
	}

	if res.Title != "" {
		m.setName(id, res.Title)
	}

	available := classify.Available(res.Body)
	if available {
		m.log.Info("potential availability detected", logx.String("app", id))
	}
	return available, nil
}

func (m *Monitor) setName(id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.ID == id && it.Name == "" {
			it.Name = name
			return
		}
	}
}

// Snapshot returns a copy of the current item states.
func (m *Monitor) Snapshot() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, *it)
	}
	return out
}
