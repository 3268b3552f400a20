// Package access decides what a caller may see. Residents see every page;
// guests only see pages carrying the public tag.
package access

import (
	"github.com/ypb/phonebook/internal/page"
)

type Role int

const (
	Guest Role = iota
	Resident
	// System is a special number such as the mobile app or the bot.
	System
	Admin
)

func (r Role) String() string {
	switch r {
	case Resident:
		return "resident"
	case System:
		return "system"
	case Admin:
		return "admin"
	}
	return "guest"
}

// Caller is the resolved identity behind a request.
type Caller struct {
	Role  Role
	Phone string
	Title string
}

// GuestCaller is the zero-privilege caller used when no valid token is sent.
var GuestCaller = Caller{Role: Guest}

func (c Caller) Authenticated() bool { return c.Role != Guest }

func (c Caller) IsAdmin() bool { return c.Role == Admin }

// Filter applies the public/resident split.
type Filter struct {
	PublicTag string
}

// Visible reports whether caller may see p. Deleted pages are never visible.
func (f Filter) Visible(p *page.Page, caller Caller) bool {
	if p.IsDeleted {
		return false
	}
	return caller.Authenticated() || p.HasTag(f.PublicTag)
}

// Pages keeps the visible pages, preserving order.
func (f Filter) Pages(pages []*page.Page, caller Caller) []*page.Page {
	if caller.Authenticated() {
		out := make([]*page.Page, 0, len(pages))
		for _, p := range pages {
			if !p.IsDeleted {
				out = append(out, p)
			}
		}
		return out
	}
	var out []*page.Page
	for _, p := range pages {
		if f.Visible(p, caller) {
			out = append(out, p)
		}
	}
	return out
}

// Tags keeps the tags a caller may learn about. Guests only get tags that
// appear on at least one public page, so private categories stay hidden.
func (f Filter) Tags(tags []string, pages []*page.Page, caller Caller) []string {
	if caller.Authenticated() {
		return tags
	}
	public := make(map[string]struct{})
	for _, p := range pages {
		if !f.Visible(p, caller) {
			continue
		}
		for _, t := range p.Tags {
			public[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := public[t]; ok {
			out = append(out, t)
		}
	}
	return out
}
