package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ypb/phonebook/internal/access"
	"github.com/ypb/phonebook/internal/activity"
	"github.com/ypb/phonebook/internal/corpus"
	"github.com/ypb/phonebook/internal/page"
	"github.com/ypb/phonebook/internal/page/repository"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrTitleConflict = errors.New("page title already exists")
	ErrInvalidPage   = errors.New("invalid page")
)

// redirects maps short names to page titles.
var redirects = map[string]string{
	"help": "הסבר על השימוש באתר",
}

type SaveStatus int

const (
	Unchanged SaveStatus = iota
	Created
	Updated
)

// SaveResult describes what a save did. Message is the English summary
// returned to the client.
type SaveResult struct {
	ID      string
	Status  SaveStatus
	Message string
}

// Service defines the page operations used by the handler layer.
type Service interface {
	Save(ctx context.Context, editor access.Caller, p *page.Page) (SaveResult, error)
	Get(ctx context.Context, name string, caller access.Caller) (*page.Page, error)
	List(ctx context.Context, updatedAfter time.Time) ([]*page.Page, time.Time, error)
	History(ctx context.Context, id string) ([]*page.History, error)
}

// Namer renders a phone number for activity messages.
type Namer interface {
	DisplayTitle(ctx context.Context, phone string) string
}

type phoneNamer struct{}

func (phoneNamer) DisplayTitle(ctx context.Context, phone string) string { return phone }

type Options struct {
	Filter   access.Filter
	Activity activity.Logger
	Namer    Namer
}

func New(repo repository.Repository, cache *corpus.Cache, opts Options) Service {
	s := &pageService{repo: repo, cache: cache, filter: opts.Filter, activity: opts.Activity, namer: opts.Namer}
	if s.activity == nil {
		s.activity = activity.LogSink{}
	}
	if s.namer == nil {
		s.namer = phoneNamer{}
	}
	return s
}

type pageService struct {
	repo     repository.Repository
	cache    *corpus.Cache
	filter   access.Filter
	activity activity.Logger
	namer    Namer
	// held from the title check to the write
	mu sync.Mutex
}

// Save creates or updates a page. A title taken by a live page is a
// conflict; a title taken by a deleted page revives that page's ID. Every
// real change stores the previous version in the history and swaps the
// corpus snapshot.
func (s *pageService) Save(ctx context.Context, editor access.Caller, p *page.Page) (SaveResult, error) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return SaveResult{}, fmt.Errorf("%w: title is required", ErrInvalidPage)
	}
	p.HTML = page.Sanitize(p.HTML)
	p.Tags = cleanTags(p.Tags)
	isExisting := p.ID != ""

	s.mu.Lock()
	defer s.mu.Unlock()
	conflict, err := s.repo.FindByTitle(ctx, p.Title, p.ID)
	switch {
	case err == nil && !conflict.IsDeleted:
		return SaveResult{}, fmt.Errorf("%w: %s", ErrTitleConflict, p.Title)
	case err == nil:
		p.ID = conflict.ID
	case !errors.Is(err, repository.ErrNotFound):
		return SaveResult{}, err
	}

	who := s.namer.DisplayTitle(ctx, editor.Phone)
	var message string
	if p.ID != "" {
		existing, err := s.repo.Get(ctx, p.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return SaveResult{}, fmt.Errorf("%w: page %s", ErrNotFound, p.ID)
		}
		if err != nil {
			return SaveResult{}, err
		}
		if page.SameContent(existing, p) {
			return SaveResult{ID: p.ID, Status: Unchanged, Message: fmt.Sprintf("No change was needed in page %s.", p.Title)}, nil
		}
		err = s.repo.AppendHistory(ctx, &page.History{
			PageID:    existing.ID,
			ChangedBy: editor.Phone,
			OldTitle:  existing.Title,
			OldHTML:   existing.HTML,
			OldTags:   existing.Tags,
			Diff:      page.Diff(existing.HTML, p.HTML),
		})
		if err != nil {
			return SaveResult{}, fmt.Errorf("append history: %w", err)
		}
		p.CreatedAt = existing.CreatedAt
		p.CreatedBy = existing.CreatedBy
		if p.OldName == "" {
			p.OldName = existing.OldName
		}
		if p.OldURL == "" {
			p.OldURL = existing.OldURL
		}
		switch {
		case p.IsDeleted:
			message = fmt.Sprintf("הדף *%s* נמחק ע\"י %s", p.Title, who)
		case existing.IsDeleted:
			message = fmt.Sprintf("הדף *%s* שוחזר ע\"י %s", p.Title, who)
		default:
			message = fmt.Sprintf("הדף *%s* עודכן ע\"י %s", p.Title, who)
		}
	} else {
		p.CreatedBy = editor.Phone
		message = fmt.Sprintf("הדף *%s* נוצר ע\"י %s", p.Title, who)
	}

	id, err := s.repo.Save(ctx, p)
	if errors.Is(err, repository.ErrTitleTaken) {
		return SaveResult{}, fmt.Errorf("%w: %s", ErrTitleConflict, p.Title)
	}
	if err != nil {
		return SaveResult{}, fmt.Errorf("save page: %w", err)
	}
	s.activity.Update(ctx, message)
	s.activity.Info(ctx, message)
	s.cache.Apply(p)

	if isExisting {
		return SaveResult{ID: id, Status: Updated, Message: fmt.Sprintf("Page %s was updated", p.Title)}, nil
	}
	return SaveResult{ID: id, Status: Created, Message: fmt.Sprintf("Page %s was created", p.Title)}, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Get finds an active page by title (underscores standing for spaces), by a
// redirect name or by its legacy name. Private pages are reported as missing
// to guests.
func (s *pageService) Get(ctx context.Context, name string, caller access.Caller) (*page.Page, error) {
	title := name
	if target, ok := redirects[name]; ok {
		title = target
	}
	title = strings.ReplaceAll(title, "_", " ")

	snap, err := s.cache.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := snap.Lookup(title, name)
	if !ok {
		s.activity.Info(ctx, fmt.Sprintf("הדף *%s* לא נמצא. טוען מידע מחדש.", title))
		if snap, err = s.cache.Refresh(ctx); err != nil {
			return nil, err
		}
		p, ok = snap.Lookup(title, name)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if !s.filter.Visible(p, caller) {
		s.activity.Info(ctx, fmt.Sprintf("בוצע נסיון חיצוני לגשת לדף הפנימי *%s*", p.Title))
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return p, nil
}

// List returns all pages, deleted included, changed after updatedAfter, plus
// the latest change time in the corpus.
func (s *pageService) List(ctx context.Context, updatedAfter time.Time) ([]*page.Page, time.Time, error) {
	snap, err := s.cache.Snapshot(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	return snap.UpdatedAfter(updatedAfter), snap.MaxDate(), nil
}

// History lists the previous versions of a page, oldest first, each with the
// HTML that replaced it.
func (s *pageService) History(ctx context.Context, id string) ([]*page.History, error) {
	hist, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, h := range hist {
		if h.Diff == "" {
			continue
		}
		if h.NewHTML, err = page.ApplyDiff(h.OldHTML, h.Diff); err != nil {
			return nil, fmt.Errorf("history %s: %w", h.ID, err)
		}
	}
	return hist, nil
}
