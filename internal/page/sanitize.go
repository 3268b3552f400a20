package page

import (
	"regexp"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func htmlPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowURLSchemes("http", "https", "mailto", "tel")
		p.AllowAttrs("class").Matching(regexp.MustCompile(`^ql-[a-z0-9-]+( ql-[a-z0-9-]+)*$`)).Globally()
		p.AllowAttrs("dir").Matching(regexp.MustCompile(`^(rtl|ltr|auto)$`)).Globally()
		p.RequireNoFollowOnLinks(false)
		policy = p
	})
	return policy
}

// Sanitize strips scripts, event handlers and unknown markup from editor HTML
// while keeping links (including tel:) and the editor's formatting classes.
func Sanitize(html string) string {
	return htmlPolicy().Sanitize(html)
}
