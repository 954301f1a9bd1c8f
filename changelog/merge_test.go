package changelog

import (
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const boilerplate = `# Changelog

All notable changes to this project will be documented in this file.
`

const section = `## [1.1.0] - 2024-01-15

### Added
- b ([bbbbbbbb](bbbbbbbb22))
`

func TestMerge(t *testing.T) {
	tcs := []struct {
		name   string
		doc    string
		expect string
	}{
		{
			name:   "empty",
			doc:    "",
			expect: section,
		},
		{
			name:   "header-only",
			doc:    boilerplate,
			expect: boilerplate + "\n" + section,
		},
		{
			name:   "header-no-trailing-newline",
			doc:    "# Changelog",
			expect: "# Changelog\n\n" + section,
		},
		{
			name:   "header-trailing-blank",
			doc:    boilerplate + "\n",
			expect: boilerplate + "\n" + section,
		},
		{
			name: "existing",
			doc: boilerplate + `
## [1.0.0] - 2024-01-01

### Fixed
- a
`,
			expect: boilerplate + "\n" + section + `
## [1.0.0] - 2024-01-01

### Fixed
- a
`,
		},
		{
			name:   "heading-at-start",
			doc:    "## [1.0.0] - 2024-01-01\n",
			expect: section + "\n## [1.0.0] - 2024-01-01\n",
		},
		{
			name:   "not-a-version-heading",
			doc:    boilerplate + "\n## Notes\n\n  ## [indented] is not a heading match\n",
			expect: boilerplate + "\n## Notes\n\n  ## [indented] is not a heading match\n\n" + section,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got := Merge(tc.doc, section)
			if diff := cmp.Diff(tc.expect, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergePreservesBytes(t *testing.T) {
	doc := boilerplate + "\r\n## [1.0.0] - 2024-01-01\r\n- crlf stays\r\n\n[1.0.0]: https://example.com\n"
	got := Merge(doc, section)
	idx := strings.Index(doc, "## [")
	if !strings.HasPrefix(got, doc[:idx]) {
		t.Fatalf("prefix changed: %q", got)
	}
	if !strings.HasSuffix(got, doc[idx:]) {
		t.Fatalf("suffix changed: %q", got)
	}
	if len(got) != len(doc)+len(section)+1 {
		t.Fatalf("expected only the section and a separator to be added, got %q", got)
	}
}

func TestMergeTwice(t *testing.T) {
	headingRE := regexp.MustCompile(`(?m)^## \[.*$`)

	doc := Merge(Merge(boilerplate, section), section)
	headings := headingRE.FindAllString(doc, -1)
	if len(headings) != 2 {
		t.Fatalf("expected 2 headings, got %d:\n%s", len(headings), doc)
	}
	expect := boilerplate + "\n" + section + "\n" + section
	if diff := cmp.Diff(expect, doc); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeAboveExisting(t *testing.T) {
	doc := boilerplate + "\n## [1.0.0] - 2024-01-01\n\n## [0.9.0] - 2023-12-01\n"
	got := MergeEntry(doc, &Entry{Version: "1.1.0", Date: "2024-01-15"})
	versions := Versions(got)
	if diff := cmp.Diff([]string{"1.1.0", "1.0.0", "0.9.0"}, versions); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
