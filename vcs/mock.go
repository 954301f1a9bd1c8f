package vcs

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/jeffrom/semrel/model"
)

// Mock is an in-memory vcs.Interface for tests. Commits are stored newest
// first.
type Mock struct {
	t       time.Time
	tags    []string
	tagRefs map[string]string
	commits []*model.Commit

	Created []MockTag
	Pushed  []string
}

// MockTag records a CreateTag call.
type MockTag struct {
	Commit string
	Tag    string
	Opts   TagOpts
}

func NewMock() *Mock {
	return &Mock{
		t:       time.Now(),
		tagRefs: make(map[string]string),
	}
}

func (m *Mock) SetTags(tags ...string) *Mock {
	m.tags = tags
	return m
}

// TagCommit points tag at commit, adding the tag if it is new.
func (m *Mock) TagCommit(tag, commit string) *Mock {
	if _, ok := m.tagRefs[tag]; !ok && !slices.Contains(m.tags, tag) {
		m.tags = append(m.tags, tag)
	}
	m.tagRefs[tag] = commit
	return m
}

func (m *Mock) SetCommits(commits ...*model.Commit) *Mock {
	finalCommits := make([]*model.Commit, len(commits))
	for i, commit := range commits {
		c := *commit
		if c.CommitterDate.IsZero() {
			c.CommitterDate = m.t
			m.t = m.t.Add(-time.Minute)
		}
		finalCommits[i] = &c
	}
	m.commits = finalCommits
	return m
}

func (m *Mock) Push(ctx context.Context, upstream, ref string, opts PushOpts) error {
	if upstream == "" {
		upstream = "origin"
	}
	m.Pushed = append(m.Pushed, upstream+" "+ref)
	return nil
}

func (m *Mock) CreateTag(ctx context.Context, commit, tag string, opts TagOpts) error {
	m.Created = append(m.Created, MockTag{Commit: commit, Tag: tag, Opts: opts})
	m.TagCommit(tag, commit)
	return nil
}

func (m *Mock) ReadTags(ctx context.Context, glob string) ([]string, error) {
	var tags []string
	for _, t := range m.tags {
		if glob == "" || globMatches(t, glob) {
			tags = append(tags, t)
		}
	}
	return tags, nil
}

// ReadCommits returns the stored commits up to, but not including, the
// commit base refers to. base may be a tag or a commit id.
func (m *Mock) ReadCommits(ctx context.Context, base, head string) ([]*model.Commit, error) {
	if base == "" {
		return m.commits, nil
	}
	stop := base
	if id, ok := m.tagRefs[base]; ok {
		stop = id
	} else if !m.hasCommit(base) {
		return nil, NotFoundError{Ref: base}
	}

	var commits []*model.Commit
	for _, c := range m.commits {
		if c.ID == stop {
			break
		}
		commits = append(commits, c)
	}
	return commits, nil
}

func (m *Mock) CurrentCommit(ctx context.Context) (string, error) {
	if len(m.commits) == 0 {
		return "", NotFoundError{Ref: "HEAD"}
	}
	return m.commits[0].ID, nil
}

func (m *Mock) hasCommit(id string) bool {
	for _, c := range m.commits {
		if c.ID == id {
			return true
		}
	}
	return false
}

func globMatches(s string, glob string) bool {
	parts := strings.Split(glob, "*")
	remaining := s
	for i, part := range parts {
		if i == 0 {
			if !strings.HasPrefix(remaining, part) {
				return false
			}
			remaining = remaining[len(part):]
			continue
		}
		idx := strings.Index(remaining, part)
		if idx < 0 {
			return false
		}
		remaining = remaining[idx+len(part):]
	}
	if len(glob) > 0 && glob[len(glob)-1] == '*' {
		return true
	}
	return remaining == ""
}
