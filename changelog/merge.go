package changelog

import (
	"regexp"
	"strings"
)

var versionHeadingRE = regexp.MustCompile(`(?m)^## \[`)

// Merge inserts section into doc immediately before the first version
// heading, so the newest release is listed first. A document with no
// version heading has section appended after a blank line. No byte of doc
// is changed; merging the same section twice yields two entries.
func Merge(doc, section string) string {
	if !strings.HasSuffix(section, "\n") {
		section += "\n"
	}

	if loc := versionHeadingRE.FindStringIndex(doc); loc != nil {
		idx := loc[0]
		var b strings.Builder
		b.Grow(len(doc) + len(section) + 1)
		b.WriteString(doc[:idx])
		b.WriteString(section)
		b.WriteString("\n")
		b.WriteString(doc[idx:])
		return b.String()
	}

	if doc == "" {
		return section
	}
	var b strings.Builder
	b.WriteString(doc)
	if !strings.HasSuffix(doc, "\n") {
		b.WriteString("\n")
	}
	if !strings.HasSuffix(doc, "\n\n") {
		b.WriteString("\n")
	}
	b.WriteString(section)
	return b.String()
}

// MergeEntry is Merge for a rendered entry.
func MergeEntry(doc string, e *Entry) string {
	return Merge(doc, e.String())
}
