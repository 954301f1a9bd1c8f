package version

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strings"
	"text/template"

	"github.com/blang/semver/v4"
)

var ErrNoTags = errors.New("version: no release tags found")

const DefaultTagTemplate = `v{{ semver .Version }}`

type TagData struct {
	Version TagVersion
	Name    string
}

// TagVersion is the version handed to tag templates.
type TagVersion struct {
	semver.Version
	forGlob bool
}

func (v TagVersion) String() string {
	if v.forGlob {
		return "*"
	}
	return v.Version.String()
}

var funcMap = template.FuncMap{
	"join":   strings.Join,
	"semver": func(v TagVersion) string { return v.String() },
}

// Tag renders a tag name for a version.
type Tag struct {
	t    *template.Template
	name string
}

func NewTag(s, name string) (*Tag, error) {
	tmplName := "tag"
	if s != "" {
		tmplName = "custom_tag"
	}
	tmpl := s
	if tmpl == "" {
		tmpl = DefaultTagTemplate
	}
	t, err := template.New(tmplName).Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return nil, err
	}
	return &Tag{t: t, name: name}, nil
}

func (t *Tag) Execute(w io.Writer, v semver.Version) error {
	return t.t.Execute(w, TagData{Version: TagVersion{Version: v}, Name: t.name})
}

func (t *Tag) ExecuteString(v semver.Version) (string, error) {
	b := &bytes.Buffer{}
	if err := t.Execute(b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Glob returns a pattern matching every tag the template can render.
func (t *Tag) Glob() (string, error) {
	b := &bytes.Buffer{}
	if err := t.t.Execute(b, TagData{Version: TagVersion{forGlob: true}, Name: t.name}); err != nil {
		return "", err
	}
	return b.String(), nil
}

// semverRE is the official semver regexp, anchored at the end of the tag:
// https://semver.org/#is-there-a-suggested-regular-expression-regex-to-check-a-semver-string
var semverRE = regexp.MustCompile(`(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

var errNotRelease = errors.New("version: tag is not a release tag")

// Extract returns the version encoded in tag. The tag must start with the
// template's prefix.
func (t *Tag) Extract(tag string) (semver.Version, error) {
	glob, err := t.Glob()
	if err != nil {
		return semver.Version{}, err
	}
	prefix, _, _ := strings.Cut(glob, "*")
	if !strings.HasPrefix(tag, prefix) {
		return semver.Version{}, errNotRelease
	}
	rest := strings.TrimPrefix(tag, prefix)
	loc := semverRE.FindStringIndex(rest)
	if loc == nil || loc[0] != 0 {
		return semver.Version{}, errNotRelease
	}
	return Parse(rest)
}

// Latest returns the greatest final (non-prerelease) version among tags.
// Tags that do not match the template are skipped.
func (t *Tag) Latest(tags []string) (semver.Version, error) {
	var versions semver.Versions
	for _, tag := range tags {
		v, err := t.Extract(tag)
		if err != nil {
			continue
		}
		if len(v.Pre) > 0 {
			continue
		}
		versions = append(versions, v)
	}

	if len(versions) == 0 {
		return semver.Version{}, ErrNoTags
	}
	semver.Sort(versions)
	return versions[len(versions)-1], nil
}
