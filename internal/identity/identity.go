// Package identity finds phone numbers inside page bodies and decides which
// page owns each number. The phone index built here backs login.
package identity

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/ypb/phonebook/internal/page"
)

// MinPhoneDigits is the shortest digit run treated as a phone number.
const MinPhoneDigits = 9

var (
	phoneDelimiters = regexp.MustCompile(`[+\-.]+`)
	// A digit run must follow a character that is not an upper-case letter,
	// underscore, digit, '=', '/' or ':'. This skips ids, urls and attribute
	// values glued to the number.
	phonePattern = regexp.MustCompile(`[^A-Z_\d=/:](\d{9,})`)
)

// StripPhone removes the punctuation people type inside phone numbers.
func StripPhone(s string) string {
	return phoneDelimiters.ReplaceAllString(s, "")
}

// ExtractPhones returns the phone numbers found in body, in order of
// appearance and without repeats.
func ExtractPhones(body string) []string {
	matches := phonePattern.FindAllStringSubmatch(StripPhone(body), -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, dup := seen[m[1]]; dup {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}

// IdentityOwner picks which of two pages carrying the same number owns it.
// existing is the page indexed first. A page without tags is the most
// personal one: an untagged existing page always keeps the number, otherwise
// the candidate wins when it has no tags or strictly fewer tags.
func IdentityOwner(existing, candidate *page.Page) *page.Page {
	if len(existing.Tags) == 0 {
		return existing
	}
	if len(candidate.Tags) < len(existing.Tags) {
		return candidate
	}
	return existing
}

// Duplicate records a phone number that appears on more than one page.
type Duplicate struct {
	Phone string     `json:"phone"`
	Kept  *page.Page `json:"kept"`
	Other *page.Page `json:"other"`
}

// Index maps a stripped phone number to its identity page.
type Index struct {
	byPhone map[string]*page.Page
}

// Lookup returns the page owning phone. phone must already be stripped.
func (ix Index) Lookup(phone string) (*page.Page, bool) {
	p, ok := ix.byPhone[phone]
	return p, ok
}

func (ix Index) Len() int { return len(ix.byPhone) }

// Phones returns the indexed numbers in ascending order.
func (ix Index) Phones() []string {
	out := make([]string, 0, len(ix.byPhone))
	for phone := range ix.byPhone {
		out = append(out, phone)
	}
	sort.Strings(out)
	return out
}

// BuildPhoneIndex indexes every phone number found on the non-deleted pages.
// Contested numbers are resolved with IdentityOwner and reported as
// duplicates; they never stop the build.
func BuildPhoneIndex(pages []*page.Page) (Index, []Duplicate) {
	ix := Index{byPhone: make(map[string]*page.Page)}
	var dups []Duplicate
	for _, p := range pages {
		if p.IsDeleted {
			continue
		}
		for _, phone := range ExtractPhones(p.HTML) {
			existing, ok := ix.byPhone[phone]
			if !ok {
				ix.byPhone[phone] = p
				continue
			}
			kept := IdentityOwner(existing, p)
			other := p
			if kept == p {
				other = existing
			}
			ix.byPhone[phone] = kept
			dups = append(dups, Duplicate{Phone: phone, Kept: kept, Other: other})
		}
	}
	return ix, dups
}

// DisplayPhone renders "title (phone)" when the number is indexed, the bare
// number otherwise.
func (ix Index) DisplayPhone(phone string) string {
	if p, ok := ix.Lookup(phone); ok {
		return fmt.Sprintf("%s (%s)", p.Title, phone)
	}
	return phone
}
