package version

import (
	"errors"
	"testing"

	"github.com/blang/semver/v4"
)

var goodVersion = semver.MustParse("1.2.3")

func TestTags(t *testing.T) {
	tcs := []struct {
		name       string
		tmpl       string
		expect     string
		expectGlob string
		semver     string
		project    string
	}{
		{
			name:       "default",
			expect:     "v1.2.3",
			expectGlob: "v*",
		},
		{
			name:       "default-pre",
			semver:     "1.2.3-rc.0",
			expect:     "v1.2.3-rc.0",
			expectGlob: "v*",
		},
		{
			name:       "no-v",
			expect:     "1.2.3",
			tmpl:       `{{ .Version }}`,
			expectGlob: "*",
		},
		{
			name:       "name-prefix",
			tmpl:       `{{ .Name }}/v{{ semver .Version }}`,
			project:    "cool",
			expect:     "cool/v1.2.3",
			expectGlob: "cool/v*",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			tag, err := NewTag(tc.tmpl, tc.project)
			if err != nil {
				t.Fatal(err)
			}

			sv := goodVersion
			if tc.semver != "" {
				sv = semver.MustParse(tc.semver)
			}

			s, err := tag.ExecuteString(sv)
			if err != nil {
				t.Fatal(err)
			}
			t.Log("tag:", s)
			if s != tc.expect {
				t.Fatalf("expected tag %q, got %q", tc.expect, s)
			}

			glob, err := tag.Glob()
			if err != nil {
				t.Fatal(err)
			}
			if glob != tc.expectGlob {
				t.Fatalf("expected glob %q, got %q", tc.expectGlob, glob)
			}

			extracted, err := tag.Extract(s)
			if err != nil {
				t.Fatal(err)
			}
			if !extracted.EQ(sv) {
				t.Fatalf("expected extracted %s, got %s", sv, extracted)
			}
		})
	}
}

func TestTagLatest(t *testing.T) {
	tcs := []struct {
		name   string
		tags   []string
		expect string
	}{
		{
			name:   "basic",
			tags:   []string{"v0.1.0", "v0.2.0", "v0.1.5"},
			expect: "0.2.0",
		},
		{
			name:   "numeric-order",
			tags:   []string{"v0.9.0", "v0.10.0"},
			expect: "0.10.0",
		},
		{
			name:   "skip-prerelease",
			tags:   []string{"v0.1.0", "v0.2.0-rc.0"},
			expect: "0.1.0",
		},
		{
			name:   "skip-garbage",
			tags:   []string{"v0.1.0", "1-v0.1.1", "1/v0.1.1", "v01.2.3", "release", "v1.2"},
			expect: "0.1.0",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			tag, err := NewTag("", "")
			if err != nil {
				t.Fatal(err)
			}
			v, err := tag.Latest(tc.tags)
			if err != nil {
				t.Fatal(err)
			}
			if v.String() != tc.expect {
				t.Fatalf("expected %s, got %s", tc.expect, v)
			}
		})
	}
}

func TestTagLatestNoTags(t *testing.T) {
	tag, err := NewTag("", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tag.Latest([]string{"nope", "v1.0.0-rc.1"}); !errors.Is(err, ErrNoTags) {
		t.Fatalf("expected ErrNoTags, got %v", err)
	}
}
