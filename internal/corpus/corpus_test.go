package corpus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ypb/phonebook/internal/page"
)

type fakeLoader struct {
	mu    sync.Mutex
	pages []*page.Page
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (f *fakeLoader) List(ctx context.Context) ([]*page.Page, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*page.Page, len(f.pages))
	copy(out, f.pages)
	return out, nil
}

func samplePages() []*page.Page {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []*page.Page{
		{ID: "1", Title: "מועצה", HTML: " 04-6999999 ", Tags: []string{"ציבורי", "מוסדות"}, UpdatedAt: t0},
		{ID: "2", Title: "יוסי כהן", HTML: " 0501234567", OldName: "yossi", UpdatedAt: t0.Add(time.Hour)},
		{ID: "3", Title: "ישן", HTML: " 0529999999", Tags: []string{"ארכיון"}, IsDeleted: true, UpdatedAt: t0.Add(2 * time.Hour)},
	}
}

func TestBuild(t *testing.T) {
	s := Build(samplePages())
	assert.Len(t, s.All(), 3)
	assert.Len(t, s.Active(), 2)
	assert.Equal(t, []string{"ציבורי", "מוסדות"}, s.Tags())
	assert.Equal(t, 2, s.Phones().Len())
	assert.Equal(t, time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC), s.MaxDate())

	p, ok := s.Lookup("", "yossi")
	require.True(t, ok)
	assert.Equal(t, "יוסי כהן", p.Title)
	_, ok = s.Lookup("ישן", "ישן")
	assert.False(t, ok, "deleted pages cannot be looked up")

	assert.Len(t, s.UpdatedAfter(time.Time{}), 3)
	assert.Len(t, s.UpdatedAfter(time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC)), 2)
}

func TestCache_LazyLoadAndInvalidate(t *testing.T) {
	l := &fakeLoader{pages: samplePages()}
	c := NewCache(l)
	ctx := context.Background()

	s1, err := c.Snapshot(ctx)
	require.NoError(t, err)
	s2, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.EqualValues(t, 1, l.calls.Load())

	c.Invalidate()
	_, err = c.Snapshot(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, l.calls.Load())
}

func TestCache_RefreshIsShared(t *testing.T) {
	l := &fakeLoader{pages: samplePages(), delay: 50 * time.Millisecond}
	c := NewCache(l)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Refresh(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Less(t, l.calls.Load(), int32(8))
}

func TestCache_RefreshError(t *testing.T) {
	c := NewCache(&fakeLoader{err: errors.New("db down")})
	_, err := c.Snapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestCache_Apply(t *testing.T) {
	l := &fakeLoader{pages: samplePages()}
	c := NewCache(l)
	ctx := context.Background()

	c.Apply(&page.Page{ID: "9", Title: "before load"})
	before, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, before.All(), 3)

	edited := before.Active()[1].Clone()
	edited.HTML = " 0507777777"
	c.Apply(edited)
	c.Apply(&page.Page{ID: "4", Title: "מכולת", HTML: " 0541111111"})

	after, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	assert.Len(t, after.All(), 4)
	_, ok := after.Phones().Lookup("0507777777")
	assert.True(t, ok)
	_, ok = after.Phones().Lookup("0501234567")
	assert.False(t, ok)
	_, ok = after.Lookup("מכולת", "")
	assert.True(t, ok)

	// the old snapshot is untouched
	_, ok = before.Phones().Lookup("0501234567")
	assert.True(t, ok)
	assert.EqualValues(t, 1, l.calls.Load())
}

// gatedLoader blocks inside List until release is closed.
type gatedLoader struct {
	pages   []*page.Page
	gated   atomic.Bool
	started chan struct{}
	release chan struct{}
}

func newGatedLoader(pages []*page.Page) *gatedLoader {
	return &gatedLoader{pages: pages, started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedLoader) List(ctx context.Context) ([]*page.Page, error) {
	if g.gated.Load() {
		close(g.started)
		<-g.release
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]*page.Page, len(g.pages))
	copy(out, g.pages)
	return out, nil
}

func TestCache_ApplyDuringRefreshSurvives(t *testing.T) {
	l := newGatedLoader(samplePages())
	c := NewCache(l)
	ctx := context.Background()
	_, err := c.Snapshot(ctx)
	require.NoError(t, err)

	l.gated.Store(true)
	done := make(chan *Snapshot)
	go func() {
		s, err := c.Refresh(ctx)
		assert.NoError(t, err)
		done <- s
	}()
	<-l.started

	c.Apply(&page.Page{ID: "4", Title: "מכולת", HTML: " 0541111111"})
	close(l.release)
	refreshed := <-done

	for _, s := range []*Snapshot{refreshed, c.cur.Load()} {
		p, ok := s.Lookup("מכולת", "מכולת")
		require.True(t, ok, "page saved during the reload is kept")
		assert.Equal(t, "4", p.ID)
		assert.Len(t, s.Active(), 3)
	}
}

func TestCache_RefreshIgnoresCallerCancel(t *testing.T) {
	l := newGatedLoader(samplePages())
	l.gated.Store(true)
	c := NewCache(l)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error)
	go func() {
		_, err := c.Refresh(ctx)
		errs <- err
	}()
	<-l.started
	cancel()
	close(l.release)

	require.NoError(t, <-errs)
	s, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, s.All(), 3)
}
