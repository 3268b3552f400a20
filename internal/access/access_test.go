package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ypb/phonebook/internal/page"
)

func TestRole(t *testing.T) {
	assert.False(t, GuestCaller.Authenticated())
	assert.True(t, Caller{Role: Resident}.Authenticated())
	assert.True(t, Caller{Role: Admin}.IsAdmin())
	assert.False(t, Caller{Role: System}.IsAdmin())
	assert.Equal(t, "system", System.String())
	assert.Equal(t, "guest", Guest.String())
}

func TestFilter(t *testing.T) {
	f := Filter{PublicTag: "ציבורי"}
	public := &page.Page{Title: "מועצה", Tags: []string{"ציבורי", "מוסדות"}}
	private := &page.Page{Title: "יוסי", Tags: []string{"תושבים"}}
	deleted := &page.Page{Title: "ישן", Tags: []string{"ציבורי"}, IsDeleted: true}
	pages := []*page.Page{public, private, deleted}
	resident := Caller{Role: Resident, Phone: "0501234567"}

	assert.True(t, f.Visible(public, GuestCaller))
	assert.False(t, f.Visible(private, GuestCaller))
	assert.True(t, f.Visible(private, resident))
	assert.False(t, f.Visible(deleted, resident))

	assert.Equal(t, []*page.Page{public}, f.Pages(pages, GuestCaller))
	assert.Equal(t, []*page.Page{public, private}, f.Pages(pages, resident))

	tags := []string{"ציבורי", "מוסדות", "תושבים"}
	assert.Equal(t, []string{"ציבורי", "מוסדות"}, f.Tags(tags, pages, GuestCaller))
	assert.Equal(t, tags, f.Tags(tags, pages, resident))
}
