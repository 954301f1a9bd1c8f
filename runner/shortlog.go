package runner

import (
	"io"
	"text/template"

	"github.com/jeffrom/semrel/model"
)

const defaultShortlogTemplate = `{{ or .Name "release" }}: {{ .Tag }}

This release contains the following commits:
{{ range $commit := .Commits }}
* {{ $commit.Subject }} ({{ $commit.ShortID }})
{{- end }}
`

type shortlogData struct {
	Name    string
	Tag     string
	Version string
	Bump    string
	Commits []*model.Commit
}

func (r *Runner) shortlog(w io.Writer, rel *Release) error {
	tmpl := defaultShortlogTemplate
	if r.cfg.LogTemplate != "" {
		tmpl = r.cfg.LogTemplate
	}
	t, err := template.New("shortlog").Parse(tmpl)
	if err != nil {
		return err
	}
	return t.Execute(w, shortlogData{
		Name:    r.cfg.Name,
		Tag:     rel.Tag,
		Version: rel.Next.String(),
		Bump:    rel.Bump.String(),
		Commits: rel.Commits,
	})
}
