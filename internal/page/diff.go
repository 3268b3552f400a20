package page

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff returns a compact delta that turns oldHTML into newHTML. The delta
// format is diffmatchpatch's (tab separated =n, -n, +text operations).
func Diff(oldHTML, newHTML string) string {
	if oldHTML == newHTML {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldHTML, newHTML, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.DiffToDelta(diffs)
}

// ApplyDiff reconstructs the newer HTML from the older one and a delta
// produced by Diff.
func ApplyDiff(oldHTML, delta string) (string, error) {
	if delta == "" {
		return oldHTML, nil
	}
	dmp := diffmatchpatch.New()
	diffs, err := dmp.DiffFromDelta(oldHTML, delta)
	if err != nil {
		return "", err
	}
	return dmp.DiffText2(diffs), nil
}
