package search

import "strings"

// latinToHebrew maps each key on a US layout to the character the same key
// produces on the Israeli layout.
var latinToHebrew = [][2]rune{
	{'q', '/'}, {'w', '\''}, {'e', 'ק'}, {'r', 'ר'}, {'t', 'א'}, {'y', 'ט'},
	{'u', 'ו'}, {'i', 'ן'}, {'o', 'ם'}, {'p', 'פ'}, {'[', ']'}, {'{', '}'},
	{']', '['}, {'}', '{'}, {'\\', '\\'}, {'|', '|'},
	{'a', 'ש'}, {'s', 'ד'}, {'d', 'ג'}, {'f', 'כ'}, {'g', 'ע'}, {'h', 'י'},
	{'j', 'ח'}, {'k', 'ל'}, {'l', 'ך'}, {';', 'ף'}, {':', ':'}, {'\'', ','},
	{'"', '"'},
	{'z', 'ז'}, {'x', 'ס'}, {'c', 'ב'}, {'v', 'ה'}, {'b', 'נ'}, {'n', 'מ'},
	{'m', 'צ'}, {',', 'ת'}, {'<', '>'}, {'.', 'ץ'}, {'>', '<'}, {'/', '.'},
	{'?', '?'},
	{' ', ' '}, {'-', '-'}, {'_', '_'}, {'+', ' '},
}

var (
	forwardLayout = map[rune]rune{}
	reverseLayout = map[rune]rune{}
)

func init() {
	for _, kv := range latinToHebrew {
		forwardLayout[kv[0]] = kv[1]
		if _, taken := reverseLayout[kv[1]]; !taken {
			reverseLayout[kv[1]] = kv[0]
		}
	}
}

// Remap retypes s as if the keyboard had been in the other language. The
// Latin to Hebrew direction is tried first. It reports false when some
// character has no key on the layout or when remapping changes nothing.
func Remap(s string) (string, bool) {
	s = strings.ToLower(s)
	if mapped, ok := remapWith(s, forwardLayout); ok {
		return mapped, true
	}
	return remapWith(s, reverseLayout)
}

func remapWith(s string, layout map[rune]rune) (string, bool) {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		m, ok := layout[r]
		if !ok {
			return "", false
		}
		b.WriteRune(m)
	}
	if mapped := b.String(); mapped != s {
		return mapped, true
	}
	return "", false
}
