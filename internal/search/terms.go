package search

import (
	"errors"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

var ErrEmptyQuery = errors.New("search query is empty")

// TermKind discriminates how a term is matched.
type TermKind int

const (
	// Plain terms are compared as substrings of the searchable form.
	Plain TermKind = iota
	// Pattern terms are regular expressions, written with a two character
	// sigil prefix (##, __, $$ or ~~).
	Pattern
)

var patternSigils = []string{"##", "__", "$$", "~~"}

// Term is one parsed query term. Text holds the lower-cased word for plain
// terms and the expression source for pattern terms.
type Term struct {
	Kind TermKind
	Text string

	re *regexp2.Regexp
	// Err is set when a pattern failed to compile. Such a term matches nothing.
	Err error
}

// Tokenize splits a query into words. A double quote at the start of the
// query or right after a space opens a phrase that runs to the next quote
// (or to the end of the query). Quotes cannot be escaped.
func Tokenize(s string) []string {
	var out []string
	for _, w := range tokenize(s) {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func tokenize(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	pos := strings.IndexByte(s, '"')
	if pos == -1 || (pos > 0 && s[pos-1] != ' ') {
		return strings.Fields(s)
	}
	end := strings.IndexByte(s[pos+1:], '"')
	var phrase, rest string
	if end == -1 {
		phrase = s[pos+1:]
	} else {
		phrase = s[pos+1 : pos+1+end]
		rest = s[pos+1+end+1:]
	}
	words := tokenize(s[:pos])
	words = append(words, phrase)
	return append(words, tokenize(rest)...)
}

// ParseQuery tokenizes raw and classifies each word. Pattern terms are
// compiled with ECMAScript semantics and a per-match timeout.
func ParseQuery(raw string, patternTimeout time.Duration) ([]Term, error) {
	words := Tokenize(raw)
	if len(words) == 0 {
		return nil, ErrEmptyQuery
	}
	terms := make([]Term, 0, len(words))
	for _, w := range words {
		terms = append(terms, parseTerm(w, patternTimeout))
	}
	return terms, nil
}

func parseTerm(w string, timeout time.Duration) Term {
	for _, sigil := range patternSigils {
		if !strings.HasPrefix(w, sigil) {
			continue
		}
		src := w[len(sigil):]
		re, err := regexp2.Compile(src, regexp2.ECMAScript)
		if err != nil {
			return Term{Kind: Pattern, Text: src, Err: err}
		}
		if timeout > 0 {
			re.MatchTimeout = timeout
		}
		return Term{Kind: Pattern, Text: src, re: re}
	}
	return Term{Kind: Plain, Text: strings.ToLower(w)}
}
