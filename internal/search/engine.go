// Package search answers free-text queries against a corpus snapshot. It is
// pure computation: no I/O and no shared mutable state, so one snapshot can
// serve any number of concurrent queries.
package search

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ypb/phonebook/internal/access"
	"github.com/ypb/phonebook/internal/page"
	"github.com/ypb/phonebook/pkg/metrics"
)

const DefaultPageSize = 30

// Corpus is the read-only view of the directory a query runs against.
type Corpus interface {
	// Active returns the non-deleted pages.
	Active() []*page.Page
	// Tags returns every category used by an active page.
	Tags() []string
}

// Engine runs queries. The zero value is usable but treats every page as
// private; set Filter.PublicTag.
type Engine struct {
	PageSize       int
	Filter         access.Filter
	PatternTimeout time.Duration
}

// Result is one page of search results. TotalCount counts every visible
// match, Pages holds at most PageSize of them. Search echoes the query that
// produced the results, which differs from the input after a keyboard remap.
type Result struct {
	Pages      []*page.Page `json:"pages"`
	TotalCount int          `json:"totalCount"`
	Tags       []string     `json:"tags"`
	Search     string       `json:"search"`
	Remapped   bool         `json:"-"`
}

// Search matches, ranks and filters. When neither a page nor a tag matches,
// the query is retyped in the other keyboard layout and run one more time.
func (e *Engine) Search(c Corpus, raw string, caller access.Caller) (Result, error) {
	start := time.Now()
	defer func() { metrics.SearchDuration.Observe(time.Since(start).Seconds()) }()

	pages, tags, err := e.searchOnce(c, raw)
	if err != nil {
		return Result{}, err
	}
	query := raw
	remapped := false
	if len(pages) == 0 && len(tags) == 0 {
		if mapped, ok := Remap(raw); ok {
			// the remapped query may be all blanks ("+" maps to a space)
			if p, t, err := e.searchOnce(c, mapped); err == nil {
				pages, tags = p, t
				query = mapped
				remapped = true
			}
		}
	}

	visible := e.Filter.Pages(pages, caller)
	res := Result{
		Pages:      capPages(visible, e.pageSize()),
		TotalCount: len(visible),
		Tags:       e.Filter.Tags(tags, c.Active(), caller),
		Search:     query,
		Remapped:   remapped,
	}
	if res.Tags == nil {
		res.Tags = []string{}
	}

	switch {
	case remapped:
		metrics.SearchTotal.WithLabelValues("remapped").Inc()
	case res.TotalCount == 0:
		metrics.SearchTotal.WithLabelValues("empty").Inc()
	default:
		metrics.SearchTotal.WithLabelValues("hit").Inc()
	}
	return res, nil
}

// searchOnce returns every active page matching raw, ranked, and the sorted
// matching tags. No access filtering happens here.
func (e *Engine) searchOnce(c Corpus, raw string) ([]*page.Page, []string, error) {
	terms, err := ParseQuery(raw, e.PatternTimeout)
	if err != nil {
		return nil, nil, err
	}
	var pages []*page.Page
	for _, p := range c.Active() {
		if Match(p, terms) {
			pages = append(pages, p)
		}
	}
	rank(pages, terms)

	var tags []string
	for _, tag := range c.Tags() {
		if matchAllTag(tag, terms) {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return pages, tags, nil
}

func matchAllTag(tag string, terms []Term) bool {
	for i := range terms {
		if !matchTag(tag, &terms[i]) {
			return false
		}
	}
	return true
}

func (e *Engine) pageSize() int {
	if e.PageSize <= 0 {
		return DefaultPageSize
	}
	return e.PageSize
}

func capPages(pages []*page.Page, n int) []*page.Page {
	if pages == nil {
		return []*page.Page{}
	}
	if len(pages) > n {
		return pages[:n]
	}
	return pages
}

// TagResult lists the pages of one category. Tags holds the related
// categories and is nil when there are none.
type TagResult struct {
	Pages []*page.Page `json:"pages"`
	Tags  []string     `json:"tags,omitempty"`
}

// NormalizeTag turns a tag taken from a URL into the stored form.
func NormalizeTag(tag string) string {
	return strings.ReplaceAll(strings.ReplaceAll(tag, "_", " "), `"`, "")
}

// ListByTag returns the pages carrying tag, sorted by title, plus the
// related tags: tags found next to it on some but not all of those pages.
// The public category itself is open to guests.
func (e *Engine) ListByTag(c Corpus, tag string, caller access.Caller) TagResult {
	tag = NormalizeTag(tag)
	if tag == e.Filter.PublicTag && !caller.Authenticated() {
		caller = access.Caller{Role: access.Resident}
	}
	pages := []*page.Page{}
	for _, p := range c.Active() {
		if p.HasTag(tag) && e.Filter.Visible(p, caller) {
			pages = append(pages, p)
		}
	}
	sortByTitle(pages)
	return TagResult{Pages: pages, Tags: e.relatedTags(pages, tag)}
}

func (e *Engine) relatedTags(pages []*page.Page, tag string) []string {
	onEvery := func(t string) bool {
		for _, p := range pages {
			if !p.HasTag(t) {
				return false
			}
		}
		return true
	}
	set := map[string]struct{}{}
	for _, p := range pages {
		if len(p.Tags) < 2 {
			continue
		}
		for _, t := range p.Tags {
			if t == tag || t == e.Filter.PublicTag {
				continue
			}
			if _, seen := set[t]; seen || onEvery(t) {
				continue
			}
			set[t] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Tags lists the categories the caller may browse.
func (e *Engine) Tags(c Corpus, caller access.Caller) []string {
	return e.Filter.Tags(c.Tags(), c.Active(), caller)
}

// SuggestionResult is the OpenSearch suggestions payload: the query and a
// list of completions.
type SuggestionResult struct {
	Query  string
	Titles []string
}

func (s SuggestionResult) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Query, s.Titles})
}

// Suggestions runs a search and returns the titles of the first page of
// results. When nothing matches the single entry explains that.
func (e *Engine) Suggestions(c Corpus, raw string, caller access.Caller) (SuggestionResult, error) {
	res, err := e.Search(c, raw, caller)
	if err != nil {
		return SuggestionResult{}, err
	}
	titles := make([]string, 0, len(res.Pages))
	for _, p := range res.Pages {
		titles = append(titles, p.Title)
	}
	if len(titles) == 0 {
		titles = append(titles, fmt.Sprintf(`{ לא נמצאו תוצאות חיפוש עבור "%s" }`, raw))
	}
	return SuggestionResult{Query: raw, Titles: titles}, nil
}
