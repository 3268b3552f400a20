package repository

import (
	"context"
	"errors"

	"github.com/ypb/phonebook/internal/page"
)

var (
	ErrNotFound = errors.New("page not found")
	// ErrTitleTaken is returned by stores that enforce live title uniqueness
	// themselves.
	ErrTitleTaken = errors.New("title taken by another page")
)

// Repository persists pages and their edit history. Save is an upsert keyed by
// ID; an empty ID gets a fresh UUID.
type Repository interface {
	List(ctx context.Context) ([]*page.Page, error)
	Get(ctx context.Context, id string) (*page.Page, error)
	// FindByTitle returns a page whose title is exactly title and whose ID is
	// not excludeID. Non-deleted pages win over deleted ones.
	FindByTitle(ctx context.Context, title, excludeID string) (*page.Page, error)
	Save(ctx context.Context, p *page.Page) (string, error)
	AppendHistory(ctx context.Context, h *page.History) error
	ListHistory(ctx context.Context, pageID string) ([]*page.History, error)
}

// pickTitleMatch prefers a live page over a deleted one.
func pickTitleMatch(candidates []*page.Page) *page.Page {
	var deleted *page.Page
	for _, p := range candidates {
		if !p.IsDeleted {
			return p
		}
		if deleted == nil {
			deleted = p
		}
	}
	return deleted
}
