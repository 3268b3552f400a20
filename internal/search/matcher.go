package search

import (
	"strings"
	"unicode/utf8"

	"github.com/ypb/phonebook/internal/page"
)

// Match reports whether p matches every term.
func Match(p *page.Page, terms []Term) bool {
	for i := range terms {
		if !matchTerm(p, &terms[i]) {
			return false
		}
	}
	return true
}

func matchTerm(p *page.Page, t *Term) bool {
	if t.Kind == Pattern {
		if t.re == nil {
			return false
		}
		return t.matchString(p.Title) ||
			t.matchString(p.HTML) ||
			t.matchString(strings.ReplaceAll(p.HTML, "-", ""))
	}
	word := Searchable(t.Text)
	if strings.Contains(Searchable(p.Title), word) || strings.Contains(Searchable(p.HTML), word) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(tag, t.Text) {
			return true
		}
	}
	return false
}

// matchTag reports whether a category name matches the term.
func matchTag(tag string, t *Term) bool {
	if t.Kind == Pattern {
		return t.re != nil && t.matchString(tag)
	}
	return strings.Contains(tag, t.Text)
}

// matchString treats a timed out match as a miss.
func (t *Term) matchString(s string) bool {
	ok, err := t.re.MatchString(s)
	return err == nil && ok
}

// indexIn returns the rune offset of the first occurrence of the term in s,
// or -1. Plain terms are looked up as typed (lower-cased) in the raw text.
func (t *Term) indexIn(s string) int {
	if t.Kind == Pattern {
		if t.re == nil {
			return -1
		}
		m, err := t.re.FindStringMatch(s)
		if err != nil || m == nil {
			return -1
		}
		return m.Index
	}
	i := strings.Index(s, t.Text)
	if i < 0 {
		return -1
	}
	return utf8.RuneCountInString(s[:i])
}
