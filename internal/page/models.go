package page

import (
	"slices"
	"strings"
	"time"
)

// Page is one directory entry (person, business or institution). HTML is the
// sanitized rich-text body; search and phone extraction read it raw, markup included.
type Page struct {
	ID        string    `json:"_id,omitempty" bson:"id"`
	Title     string    `json:"title" bson:"title"`
	HTML      string    `json:"html" bson:"html"`
	Tags      []string  `json:"tags,omitempty" bson:"tags,omitempty"`
	IsDeleted bool      `json:"isDeleted,omitempty" bson:"isDeleted,omitempty"`
	OldName   string    `json:"oldName,omitempty" bson:"oldName,omitempty"`
	OldURL    string    `json:"oldUrl,omitempty" bson:"oldUrl,omitempty"`
	CreatedBy string    `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt time.Time `json:"_createdDate" bson:"createdAt"`
	UpdatedAt time.Time `json:"_updatedDate" bson:"updatedAt"`
}

// History records the previous state of a page before a save overwrote it.
type History struct {
	ID        string    `json:"id" bson:"id"`
	PageID    string    `json:"pageId" bson:"pageId"`
	ChangedBy string    `json:"changedBy" bson:"changedBy"`
	OldTitle  string    `json:"oldTitle" bson:"oldTitle"`
	OldHTML   string    `json:"oldHtml" bson:"oldHtml"`
	OldTags   []string  `json:"oldTags,omitempty" bson:"oldTags,omitempty"`
	Diff      string    `json:"diff,omitempty" bson:"diff,omitempty"`
	ChangedAt time.Time `json:"changedAt" bson:"changedAt"`
	// NewHTML is rebuilt from OldHTML and Diff when history is read.
	NewHTML string `json:"newHtml,omitempty" bson:"-"`
}

// HasTag reports whether tag is one of the page's tags.
func (p *Page) HasTag(tag string) bool {
	return slices.Contains(p.Tags, tag)
}

// Clone returns a copy that shares nothing mutable with p.
func (p *Page) Clone() *Page {
	c := *p
	c.Tags = slices.Clone(p.Tags)
	return &c
}

// SameContent reports whether saving b over a would change anything visible.
func SameContent(a, b *Page) bool {
	return a.Title == b.Title &&
		a.HTML == b.HTML &&
		a.IsDeleted == b.IsDeleted &&
		strings.Join(a.Tags, ",") == strings.Join(b.Tags, ",")
}
