package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/ypb/phonebook/internal/page"
)

const (
	pagePrefix    = "page/"
	historyPrefix = "history/"
)

// BadgerRepo is a single-node embedded store. Values are JSON; pages live
// under page/<id> and history entries under history/<pageID>/<nanos>/<id>.
type BadgerRepo struct {
	db *badger.DB
}

func NewBadgerRepo(db *badger.DB) *BadgerRepo {
	return &BadgerRepo{db: db}
}

func pageKey(id string) []byte { return []byte(pagePrefix + id) }

func historyKey(h *page.History) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d/%s", historyPrefix, h.PageID, h.ChangedAt.UnixNano(), h.ID))
}

func (b *BadgerRepo) List(ctx context.Context) ([]*page.Page, error) {
	out := []*page.Page{}
	err := b.scan([]byte(pagePrefix), func(v []byte) error {
		var p page.Page
		if err := json.Unmarshal(v, &p); err != nil {
			return err
		}
		out = append(out, &p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (b *BadgerRepo) Get(ctx context.Context, id string) (*page.Page, error) {
	var p page.Page
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pageKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error { return json.Unmarshal(v, &p) })
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (b *BadgerRepo) FindByTitle(ctx context.Context, title, excludeID string) (*page.Page, error) {
	all, err := b.List(ctx)
	if err != nil {
		return nil, err
	}
	var candidates []*page.Page
	for _, p := range all {
		if p.Title == title && p.ID != excludeID {
			candidates = append(candidates, p)
		}
	}
	if found := pickTitleMatch(candidates); found != nil {
		return found, nil
	}
	return nil, ErrNotFound
}

func (b *BadgerRepo) Save(ctx context.Context, p *page.Page) (string, error) {
	now := time.Now()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		if p.CreatedAt.IsZero() {
			if item, err := txn.Get(pageKey(p.ID)); err == nil {
				var prev page.Page
				if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &prev) }); err != nil {
					return err
				}
				p.CreatedAt = prev.CreatedAt
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		return txn.Set(pageKey(p.ID), data)
	})
	if err != nil {
		return "", fmt.Errorf("save page %s: %w", p.ID, err)
	}
	return p.ID, nil
}

func (b *BadgerRepo) AppendHistory(ctx context.Context, h *page.History) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.ChangedAt.IsZero() {
		h.ChangedAt = time.Now()
	}
	data, err := json.Marshal(h)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(historyKey(h), data)
	})
}

func (b *BadgerRepo) ListHistory(ctx context.Context, pageID string) ([]*page.History, error) {
	out := []*page.History{}
	err := b.scan([]byte(historyPrefix+pageID+"/"), func(v []byte) error {
		var h page.History
		if err := json.Unmarshal(v, &h); err != nil {
			return err
		}
		out = append(out, &h)
		return nil
	})
	return out, err
}

func (b *BadgerRepo) scan(prefix []byte, fn func(v []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}
