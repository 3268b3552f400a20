// Package corpus holds the in-memory copy of the directory. A Snapshot is
// immutable once built; the Cache swaps whole snapshots after every change.
package corpus

import (
	"time"

	"github.com/ypb/phonebook/internal/identity"
	"github.com/ypb/phonebook/internal/page"
)

// Snapshot is a point-in-time view of every page plus the indexes derived
// from it. Callers must not modify the pages it returns.
type Snapshot struct {
	all        []*page.Page
	active     []*page.Page
	tags       []string
	phones     identity.Index
	duplicates []identity.Duplicate
	maxDate    time.Time
	loadedAt   time.Time
}

// Build derives a snapshot from the full page list, deleted pages included.
func Build(pages []*page.Page) *Snapshot {
	s := &Snapshot{all: pages, loadedAt: time.Now()}
	seen := make(map[string]struct{})
	for _, p := range pages {
		if p.UpdatedAt.After(s.maxDate) {
			s.maxDate = p.UpdatedAt
		}
		if p.IsDeleted {
			continue
		}
		s.active = append(s.active, p)
		for _, t := range p.Tags {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				s.tags = append(s.tags, t)
			}
		}
	}
	s.phones, s.duplicates = identity.BuildPhoneIndex(s.active)
	return s
}

// All returns every page, deleted ones included.
func (s *Snapshot) All() []*page.Page { return s.all }

// Active returns the non-deleted pages.
func (s *Snapshot) Active() []*page.Page { return s.active }

// Tags returns the distinct tags of active pages in first-seen order.
func (s *Snapshot) Tags() []string { return s.tags }

func (s *Snapshot) Phones() identity.Index { return s.phones }

func (s *Snapshot) Duplicates() []identity.Duplicate { return s.duplicates }

// MaxDate is the latest UpdatedAt across all pages; zero for an empty corpus.
func (s *Snapshot) MaxDate() time.Time { return s.maxDate }

func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Lookup finds an active page whose title is exactly title or whose legacy
// name is oldName.
func (s *Snapshot) Lookup(title, oldName string) (*page.Page, bool) {
	for _, p := range s.active {
		if p.Title == title || (p.OldName != "" && p.OldName == oldName) {
			return p, true
		}
	}
	return nil, false
}

// UpdatedAfter returns all pages, deleted included, changed after t. A zero t
// returns everything.
func (s *Snapshot) UpdatedAfter(t time.Time) []*page.Page {
	if t.IsZero() {
		return s.all
	}
	out := []*page.Page{}
	for _, p := range s.all {
		if p.UpdatedAt.After(t) {
			out = append(out, p)
		}
	}
	return out
}

// with returns a new snapshot in which p replaces the page with the same ID,
// or is appended when the ID is new.
func (s *Snapshot) with(p *page.Page) *Snapshot {
	pages := make([]*page.Page, 0, len(s.all)+1)
	replaced := false
	for _, old := range s.all {
		if old.ID == p.ID {
			pages = append(pages, p)
			replaced = true
			continue
		}
		pages = append(pages, old)
	}
	if !replaced {
		pages = append(pages, p)
	}
	return Build(pages)
}
