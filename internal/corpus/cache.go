package corpus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ypb/phonebook/internal/page"
	"github.com/ypb/phonebook/pkg/logger"
	"github.com/ypb/phonebook/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Loader supplies the full page list. The page repositories satisfy it.
type Loader interface {
	List(ctx context.Context) ([]*page.Page, error)
}

// loadTimeout bounds a shared reload, which outlives the request that started it.
const loadTimeout = 30 * time.Second

// Cache owns the current snapshot. Reads are lock free; a refresh replaces
// the snapshot pointer, and concurrent refreshes share one load.
type Cache struct {
	loader Loader
	cur    atomic.Pointer[Snapshot]
	group  singleflight.Group

	mu sync.Mutex
	// while a load runs, pages applied since it started are kept here and
	// replayed onto the loaded list, which may predate them
	loading bool
	pending []*page.Page
}

func NewCache(loader Loader) *Cache {
	return &Cache{loader: loader}
}

// Snapshot returns the current snapshot, loading it on first use.
func (c *Cache) Snapshot(ctx context.Context) (*Snapshot, error) {
	if s := c.cur.Load(); s != nil {
		return s, nil
	}
	return c.Refresh(ctx)
}

// Refresh reloads every page from the store and swaps in a new snapshot.
func (c *Cache) Refresh(ctx context.Context) (*Snapshot, error) {
	v, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		start := time.Now()
		c.mu.Lock()
		c.loading, c.pending = true, nil
		c.mu.Unlock()

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		pages, err := c.loader.List(loadCtx)

		c.mu.Lock()
		pending := c.pending
		c.loading, c.pending = false, nil
		if err != nil {
			c.mu.Unlock()
			return nil, fmt.Errorf("load pages: %w", err)
		}
		s := Build(pages)
		for _, p := range pending {
			s = s.with(p)
		}
		c.cur.Store(s)
		c.observe(s)
		c.mu.Unlock()

		metrics.CorpusRefreshSeconds.Observe(time.Since(start).Seconds())
		logger.Infof("corpus loaded: %d pages, %d phone numbers, %d tags in %s",
			len(s.Active()), s.Phones().Len(), len(s.Tags()), time.Since(start).Round(time.Millisecond))
		for _, d := range s.Duplicates() {
			logger.Warnf("phone %s appears both in %q and in %q", d.Phone, d.Kept.Title, d.Other.Title)
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Invalidate drops the snapshot; the next read reloads it.
func (c *Cache) Invalidate() {
	c.cur.Store(nil)
}

// Apply swaps in a snapshot that includes p. Before the first load nothing
// is swapped, since that load reads p from the store; a load already in
// flight gets p replayed onto its result.
func (c *Cache) Apply(p *page.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		c.pending = append(c.pending, p.Clone())
	}
	s := c.cur.Load()
	if s == nil {
		return
	}
	next := s.with(p.Clone())
	c.cur.Store(next)
	c.observe(next)
}

func (c *Cache) observe(s *Snapshot) {
	metrics.CorpusPages.Set(float64(len(s.Active())))
	metrics.PhoneDuplicates.Set(float64(len(s.Duplicates())))
}
