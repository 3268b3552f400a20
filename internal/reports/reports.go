// Package reports renders operator reports from a corpus snapshot and
// publishes them to object storage.
package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ypb/phonebook/internal/identity"
	"github.com/ypb/phonebook/internal/page"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DuplicatesText lists contested phone numbers, one per line.
func DuplicatesText(dups []identity.Duplicate) string {
	var b strings.Builder
	for _, d := range dups {
		fmt.Fprintf(&b, "%s appears both in %s and in %s\n", d.Phone, d.Kept.Title, d.Other.Title)
	}
	return b.String()
}

// PhonesCSV writes one row per active page that lists a phone number: the
// title followed by its numbers. Rows are ordered by title. Numbers carry a
// leading apostrophe so spreadsheets keep the leading zero.
func PhonesCSV(w io.Writer, pages []*page.Page) error {
	type row struct {
		title  string
		phones []string
	}
	var rows []row
	for _, p := range pages {
		if p.IsDeleted {
			continue
		}
		phones := identity.ExtractPhones(p.HTML)
		if len(phones) == 0 {
			continue
		}
		rows = append(rows, row{title: p.Title, phones: phones})
	}
	col := collate.New(language.Hebrew)
	sort.SliceStable(rows, func(i, j int) bool { return col.CompareString(rows[i].title, rows[j].title) < 0 })

	cw := csv.NewWriter(w)
	for _, r := range rows {
		rec := make([]string, 0, len(r.phones)+1)
		rec = append(rec, r.title)
		for _, ph := range r.phones {
			rec = append(rec, "'"+ph)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ObjectStore is the slice of the storage client the publisher needs.
type ObjectStore interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Publisher uploads reports under a timestamped key.
type Publisher struct {
	store ObjectStore
	now   func() time.Time
}

func NewPublisher(store ObjectStore) *Publisher {
	return &Publisher{store: store, now: time.Now}
}

// Publish stores data as <timestamp>/<name> and returns the key and a link
// valid for a week.
func (p *Publisher) Publish(ctx context.Context, name, contentType string, data []byte) (string, string, error) {
	key := p.now().UTC().Format("2006-01-02T150405Z") + "/" + name
	if err := p.store.UploadFile(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", "", fmt.Errorf("upload %s: %w", key, err)
	}
	link, err := p.store.GetPresignedURL(ctx, key, 7*24*time.Hour)
	if err != nil {
		return key, "", fmt.Errorf("presign %s: %w", key, err)
	}
	return key, link, nil
}
