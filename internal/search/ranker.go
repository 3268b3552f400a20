package search

import (
	"sort"

	"github.com/ypb/phonebook/internal/page"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// newCollator returns a Hebrew collator. Collators keep internal buffers, so
// each sort gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.Hebrew)
}

type rankKey struct {
	page     *page.Page
	titlePos []int
	bodyPos  []int
}

// rank orders pages by where the terms first appear: earlier in the title
// wins, then earlier in the body, then the title in Hebrew collation order.
// A page missing a term sorts after one that has it.
func rank(pages []*page.Page, terms []Term) {
	keys := make([]rankKey, len(pages))
	for i, p := range pages {
		k := rankKey{page: p, titlePos: make([]int, len(terms)), bodyPos: make([]int, len(terms))}
		for j := range terms {
			k.titlePos[j] = terms[j].indexIn(p.Title)
			k.bodyPos[j] = terms[j].indexIn(p.HTML)
		}
		keys[i] = k
	}
	col := newCollator()
	sort.SliceStable(keys, func(i, j int) bool {
		return compareKeys(col, &keys[i], &keys[j]) < 0
	})
	for i := range keys {
		pages[i] = keys[i].page
	}
}

func compareKeys(col *collate.Collator, a, b *rankKey) int {
	for j := range a.titlePos {
		if c := comparePositions(a.titlePos[j], b.titlePos[j]); c != 0 {
			return c
		}
	}
	for j := range a.bodyPos {
		if c := comparePositions(a.bodyPos[j], b.bodyPos[j]); c != 0 {
			return c
		}
	}
	return col.CompareString(a.page.Title, b.page.Title)
}

func comparePositions(i1, i2 int) int {
	switch {
	case i1 == i2:
		return 0
	case i1 == -1:
		return 1
	case i2 == -1:
		return -1
	}
	return i1 - i2
}

// sortByTitle orders pages alphabetically in Hebrew collation order.
func sortByTitle(pages []*page.Page) {
	col := newCollator()
	sort.SliceStable(pages, func(i, j int) bool {
		return col.CompareString(pages[i].Title, pages[j].Title) < 0
	})
}
