package search

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var searchableReplacer = strings.NewReplacer(
	"-", "",
	`"`, "",
	"'", "",
	"׳", "", // geresh
	"״", "", // gershayim
	"‘", "",
	"’", "",
	"“", "",
	"”", "",
	"ם", "מ",
	"ן", "נ",
	"ץ", "צ",
	"ף", "פ",
	"ך", "כ",
)

// Searchable returns the form used for plain substring matching: NFC,
// lower-cased, without hyphens or quote marks, and with Hebrew final letters
// folded to their regular forms.
func Searchable(s string) string {
	return searchableReplacer.Replace(strings.ToLower(norm.NFC.String(s)))
}
