package reports

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ypb/phonebook/internal/identity"
	"github.com/ypb/phonebook/internal/page"
)

func TestDuplicatesText(t *testing.T) {
	cafe := &page.Page{Title: "בית קפה", HTML: " 0501112222", Tags: []string{"ציבורי"}}
	yossi := &page.Page{Title: "יוסי", HTML: " 0501112222"}
	_, dups := identity.BuildPhoneIndex([]*page.Page{cafe, yossi})
	assert.Equal(t, "0501112222 appears both in יוסי and in בית קפה\n", DuplicatesText(dups))
	assert.Empty(t, DuplicatesText(nil))
}

func TestPhonesCSV(t *testing.T) {
	pages := []*page.Page{
		{Title: "מכולת", HTML: "<p>טל 054-1112222, 0543334444</p>"},
		{Title: "אגודה", HTML: " 0501234567"},
		{Title: "בלי טלפון", HTML: "<p>רחוב הגפן</p>"},
		{Title: "ישן", HTML: " 0529999999", IsDeleted: true},
	}
	var buf bytes.Buffer
	require.NoError(t, PhonesCSV(&buf, pages))
	assert.Equal(t, "אגודה,'0501234567\nמכולת,'0541112222,'0543334444\n", buf.String())
}

type memStore struct {
	key, body string
	err       error
}

func (m *memStore) UploadFile(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.err != nil {
		return m.err
	}
	b, _ := io.ReadAll(r)
	m.key, m.body = key, string(b)
	return nil
}

func (m *memStore) GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "https://files.example/" + key, nil
}

func TestPublisher(t *testing.T) {
	store := &memStore{}
	p := NewPublisher(store)
	p.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }

	key, link, err := p.Publish(context.Background(), "phoneDuplicates.txt", "text/plain", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04T050607Z/phoneDuplicates.txt", key)
	assert.Equal(t, "https://files.example/"+key, link)
	assert.Equal(t, "x", store.body)

	store.err = errors.New("bucket gone")
	_, _, err = p.Publish(context.Background(), "a", "text/plain", nil)
	require.Error(t, err)
}
