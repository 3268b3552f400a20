package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ypb/phonebook/internal/page"
)

// MemoryRepo keeps pages in a map. Used for development and unit tests.
type MemoryRepo struct {
	mu      sync.RWMutex
	store   map[string]*page.Page
	order   []string
	history map[string][]*page.History
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*page.Page), history: make(map[string][]*page.History)}
}

func (m *MemoryRepo) List(ctx context.Context) ([]*page.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*page.Page, 0, len(m.store))
	for _, id := range m.order {
		out = append(out, m.store[id].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*page.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.store[id]; ok {
		return p.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) FindByTitle(ctx context.Context, title, excludeID string) (*page.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var candidates []*page.Page
	for _, p := range m.store {
		if p.Title == title && p.ID != excludeID {
			candidates = append(candidates, p)
		}
	}
	if found := pickTitleMatch(candidates); found != nil {
		return found.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) Save(ctx context.Context, p *page.Page) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if existing, ok := m.store[p.ID]; ok && p.CreatedAt.IsZero() {
		p.CreatedAt = existing.CreatedAt
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if _, ok := m.store[p.ID]; !ok {
		m.order = append(m.order, p.ID)
	}
	m.store[p.ID] = p.Clone()
	return p.ID, nil
}

func (m *MemoryRepo) AppendHistory(ctx context.Context, h *page.History) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.ChangedAt.IsZero() {
		h.ChangedAt = time.Now()
	}
	c := *h
	m.history[h.PageID] = append(m.history[h.PageID], &c)
	return nil
}

func (m *MemoryRepo) ListHistory(ctx context.Context, pageID string) ([]*page.History, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*page.History, 0, len(m.history[pageID]))
	for _, h := range m.history[pageID] {
		c := *h
		out = append(out, &c)
	}
	return out, nil
}
