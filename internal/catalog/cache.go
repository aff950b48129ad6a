package catalog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type ProductFetcher interface {
	Fetch(ctx context.Context, kind SourceKind) ([]Product, error)
}

// Snapshot is one fetched list. Stale is set when the list is served after a
// failed refetch.
type Snapshot struct {
	Source    SourceKind
	Products  []Product
	FetchedAt time.Time
	Stale     bool
}

// Cache keeps the last successful list per source. Concurrent misses may
// fetch twice; the last successful write wins.
type Cache struct {
	fetcher ProductFetcher
	ttl     time.Duration
	log     *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[SourceKind]Snapshot
}

// NewCache with ttl <= 0 never expires entries; only Invalidate and Refresh
// replace them.
func NewCache(fetcher ProductFetcher, ttl time.Duration, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		log:     log,
		now:     time.Now,
		entries: make(map[SourceKind]Snapshot),
	}
}

// Products returns the cached list while fresh, otherwise fetches. When the
// fetch fails and an older list exists, that list is returned marked stale.
func (c *Cache) Products(ctx context.Context, kind SourceKind) (Snapshot, error) {
	if snap, ok := c.lookup(kind); ok && c.fresh(snap) {
		return snap, nil
	}

	snap, err := c.fetch(ctx, kind)
	if err == nil {
		return snap, nil
	}

	if prev, ok := c.lookup(kind); ok {
		c.log.Warn("serving stale products",
			zap.String("source", string(kind)),
			zap.Time("fetched_at", prev.FetchedAt),
			zap.Error(err),
		)
		prev.Stale = true
		return prev, nil
	}
	return Snapshot{}, err
}

// Refresh fetches regardless of age. A failure is returned as is and leaves
// the previous list in place for Products to fall back to.
func (c *Cache) Refresh(ctx context.Context, kind SourceKind) (Snapshot, error) {
	return c.fetch(ctx, kind)
}

func (c *Cache) Invalidate(kind SourceKind) {
	c.mu.Lock()
	delete(c.entries, kind)
	c.mu.Unlock()
}

func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

func (c *Cache) fetch(ctx context.Context, kind SourceKind) (Snapshot, error) {
	products, err := c.fetcher.Fetch(ctx, kind)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Source:    kind,
		Products:  products,
		FetchedAt: c.now(),
	}

	c.mu.Lock()
	c.entries[kind] = snap
	c.mu.Unlock()

	return snap, nil
}

func (c *Cache) lookup(kind SourceKind) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.entries[kind]
	return snap, ok
}

func (c *Cache) fresh(s Snapshot) bool {
	if c.ttl <= 0 {
		return true
	}
	return c.now().Sub(s.FetchedAt) < c.ttl
}
