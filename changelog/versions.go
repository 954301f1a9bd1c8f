package changelog

import (
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var headingVersionRE = regexp.MustCompile(`^\[([^\]]+)\]`)

// Versions returns the bracketed names of the level two headings in doc, in
// document order. Headings inside code blocks are not headings and are
// skipped.
func Versions(doc string) []string {
	src := []byte(doc)
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	var versions []string
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level == 2 {
			lines := h.Lines()
			if lines.Len() > 0 {
				seg := lines.At(0)
				if m := headingVersionRE.FindSubmatch(seg.Value(src)); m != nil {
					versions = append(versions, string(m[1]))
				}
			}
		}
		return ast.WalkSkipChildren, nil
	})
	return versions
}

// Contains reports whether doc already has a section for version.
func Contains(doc, version string) bool {
	for _, v := range Versions(doc) {
		if v == version {
			return true
		}
	}
	return false
}
