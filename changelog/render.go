package changelog

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/jeffrom/semrel/commit"
	"github.com/jeffrom/semrel/config"
)

// DateFormat is the ISO-8601 calendar date used in section headers.
const DateFormat = "2006-01-02"

const (
	defaultLinkTemplate = `{{ .RepoURL }}/commit/{{ .ID }}`
	bareLinkTemplate    = `{{ .ID }}`
)

// Entry is one rendered release. Each group holds rendered bullet lines in
// commit order.
type Entry struct {
	Version  string
	Date     string
	Breaking []string
	Added    []string
	Fixed    []string
	Changed  []string
}

type group struct {
	heading string
	lines   []string
}

func (e *Entry) groups() []group {
	return []group{
		{"⚠ BREAKING CHANGES", e.Breaking},
		{"Added", e.Added},
		{"Fixed", e.Fixed},
		{"Changed", e.Changed},
	}
}

// IsEmpty reports whether no commit produced a visible line.
func (e *Entry) IsEmpty() bool {
	return len(e.Breaking)+len(e.Added)+len(e.Fixed)+len(e.Changed) == 0
}

// String renders the entry as a markdown section ending in a newline.
func (e *Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## [%s] - %s\n", e.Version, e.Date)
	for _, g := range e.groups() {
		if len(g.lines) == 0 {
			continue
		}
		b.WriteString("\n### " + g.heading + "\n")
		for _, line := range g.lines {
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

type linkData struct {
	ID      string
	ShortID string
	RepoURL string
}

// Renderer turns classified commits into changelog entries. It is safe for
// concurrent use.
type Renderer struct {
	repoURL string
	link    *template.Template
}

var defaultRenderer = &Renderer{link: template.Must(template.New("link").Parse(bareLinkTemplate))}

// NewRenderer returns a Renderer linking commits under repoURL. linkTmpl is
// a text/template over .ID, .ShortID and .RepoURL. With no template, links
// point at {repoURL}/commit/{id}, or at the bare commit id when repoURL is
// empty.
func NewRenderer(repoURL, linkTmpl string) (*Renderer, error) {
	repoURL = strings.TrimSuffix(repoURL, "/")
	if linkTmpl == "" {
		linkTmpl = bareLinkTemplate
		if repoURL != "" {
			linkTmpl = defaultLinkTemplate
		}
	}
	t, err := template.New("link").Option("missingkey=error").Parse(linkTmpl)
	if err != nil {
		return nil, fmt.Errorf("changelog: invalid link template: %w", err)
	}
	r := &Renderer{repoURL: repoURL, link: t}
	if _, err := r.execLink(linkData{ID: "0000000000", ShortID: "00000000", RepoURL: repoURL}); err != nil {
		return nil, fmt.Errorf("changelog: invalid link template: %w", err)
	}
	return r, nil
}

// Render builds the entry for version released on date using the default
// renderer, which links to bare commit ids.
func Render(version, date string, commits commit.AnalyzedCommits) *Entry {
	return defaultRenderer.Render(version, date, commits)
}

// Render groups commits into a new entry. Breaking commits only appear in
// the breaking group; commits whose type has no changelog group are left
// out.
func (r *Renderer) Render(version, date string, commits commit.AnalyzedCommits) *Entry {
	e := &Entry{Version: version, Date: date}
	for _, ac := range commits {
		switch ac.ChangelogGroup() {
		case commit.GroupBreaking:
			e.Breaking = append(e.Breaking, r.line(ac))
		case config.GroupAdded:
			e.Added = append(e.Added, r.line(ac))
		case config.GroupFixed:
			e.Fixed = append(e.Fixed, r.line(ac))
		case config.GroupChanged:
			e.Changed = append(e.Changed, r.line(ac))
		}
	}
	return e
}

// RenderTime is Render with the date taken from t.
func (r *Renderer) RenderTime(version string, t time.Time, commits commit.AnalyzedCommits) *Entry {
	return r.Render(version, t.Format(DateFormat), commits)
}

func (r *Renderer) line(ac *commit.AnalyzedCommit) string {
	var b strings.Builder
	b.WriteString("- ")
	if ac.Scope != "" {
		b.WriteString("**" + ac.Scope + "**: ")
	}
	b.WriteString(ac.Description)
	if ac.ID != "" {
		link, err := r.execLink(linkData{ID: ac.ID, ShortID: ac.ShortID(), RepoURL: r.repoURL})
		if err != nil {
			link = ac.ID
		}
		fmt.Fprintf(&b, " ([%s](%s))", ac.ShortID(), link)
	}
	return b.String()
}

func (r *Renderer) execLink(d linkData) (string, error) {
	b := &bytes.Buffer{}
	if err := r.link.Execute(b, d); err != nil {
		return "", err
	}
	return b.String(), nil
}
